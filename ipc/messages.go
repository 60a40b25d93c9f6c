package ipc

import "understudy/model"

// Message type constants shared with the collaborator side.
const (
	TypeHello          = "hello"
	TypeAck            = "ack"
	TypeObservedAction = "observed_action"
	TypeStateSnapshot  = "state_snapshot"
	TypeRecommendation = "recommendation"
	TypeControl        = "control"
)

// Control commands accepted in a ControlMessage.
const (
	CommandLearnStart    = "learn_start"
	CommandLearnStop     = "learn_stop"
	CommandAdaptiveStart = "adaptive_start"
	CommandAdaptiveStop  = "adaptive_stop"
)

type HelloMessage struct {
	Client string `json:"client"`
}

type AckMessage struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ObservedActionMessage carries one operator action seen by the observation
// hook. Optional fields mirror the record's permissive attribute set;
// omitted fields take the record defaults.
type ObservedActionMessage struct {
	Action         string            `json:"action"`
	Position       *model.Point      `json:"position,omitempty"`
	TargetPosition *model.Point      `json:"targetPosition,omitempty"`
	ResourceType   string            `json:"resourceType,omitempty"`
	Ability        string            `json:"ability,omitempty"`
	SuccessRate    *float64          `json:"successRate,omitempty"`
	Success        *bool             `json:"success,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type ControlMessage struct {
	Command string `json:"command"`
}
