// Package agent bridges collaborator envelopes to engine calls: observed
// actions go in, recommendations come back out.
package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"understudy/engine"
	"understudy/ipc"
	"understudy/model"
	"understudy/pattern"
)

// Agent owns one collaborator connection's view of the engine.
type Agent struct {
	Conn   *ipc.Connection
	Engine *engine.Engine
}

func New(conn *ipc.Connection, eng *engine.Engine) *Agent {
	return &Agent{Conn: conn, Engine: eng}
}

// HandleHello completes the handshake so the collaborator knows the engine
// is ready.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}

	a.Conn.Client = hello.Client
	slog.Info("collaborator identified", "client", hello.Client)
	return ack("ok", "")
}

// HandleObservedAction records one operator action. Outside a learning
// session the engine drops it silently, so no reply is needed either way.
func (a *Agent) HandleObservedAction(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.ObservedActionMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal observed action: %w", err)
	}

	attrs := make(map[string]any)
	if msg.TargetPosition != nil {
		attrs[pattern.AttrTargetPosition] = *msg.TargetPosition
	}
	if msg.ResourceType != "" {
		attrs[pattern.AttrResourceType] = msg.ResourceType
	}
	if msg.Ability != "" {
		attrs[pattern.AttrCombatAbility] = msg.Ability
	}
	if msg.SuccessRate != nil {
		attrs[pattern.AttrSuccessRate] = *msg.SuccessRate
	}
	if msg.Success != nil {
		attrs[pattern.AttrSuccess] = *msg.Success
	}
	if len(msg.Metadata) > 0 {
		attrs[pattern.AttrMetadata] = msg.Metadata
	}

	a.Engine.Record(pattern.ActionType(msg.Action), msg.Position, attrs)
	return nil, nil
}

// HandleStateSnapshot answers the automation loop's "what next" question.
// When adaptive mode is off the reply is an idle ack, not an error.
func (a *Agent) HandleStateSnapshot(env ipc.Envelope) (*ipc.Envelope, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	rec := a.Engine.Predict(snap)
	if rec == nil {
		return ack("idle", "adaptive mode not active")
	}

	reply, err := ipc.NewEnvelope(ipc.TypeRecommendation, rec)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// HandleControl switches engine modes on behalf of the GUI shell.
func (a *Agent) HandleControl(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.ControlMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal control: %w", err)
	}

	switch msg.Command {
	case ipc.CommandLearnStart:
		if err := a.Engine.StartLearning(); err != nil {
			return ack("error", err.Error())
		}
	case ipc.CommandLearnStop:
		if err := a.Engine.StopLearning(); err != nil {
			// Learning is stopped; only persistence failed. Warn the caller
			// but report the stop as done.
			return ack("ok", "stopped, but patterns may not survive a restart: "+err.Error())
		}
	case ipc.CommandAdaptiveStart:
		a.Engine.StartAdaptive()
	case ipc.CommandAdaptiveStop:
		a.Engine.StopAdaptive()
	default:
		return ack("error", "unknown command: "+msg.Command)
	}

	return ack("ok", "")
}

func ack(status, detail string) (*ipc.Envelope, error) {
	env, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: status, Detail: detail})
	if err != nil {
		return nil, err
	}
	return &env, nil
}
