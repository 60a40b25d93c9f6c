// Package engine is the gameplay pattern learning and adaptive prediction
// core. It records operator actions during a learning session, aggregates
// them into per-transition statistics, refits the predictive capability,
// and recommends a next action from a live game-state snapshot.
//
// The engine is invoked from two contexts: the observation path (Record)
// and the adaptive path (Predict). Writes to the pattern store happen only
// inside StopLearning; Predict is read-only, so a read/write lock around
// the session state is all the serialization the engine needs.
package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"understudy/journal"
	"understudy/model"
	"understudy/pattern"
	"understudy/predict"
	"understudy/rules"
)

// Default category bonus multipliers applied by the selector.
const (
	DefaultCombatBonus = 1.5
	DefaultGatherBonus = 1.3
)

// Options configures an Engine. Zero-value fields take the stock defaults;
// a nil Journal disables session archiving.
type Options struct {
	PatternPath string
	Models      predict.Models
	Fallback    *rules.Fallback
	Journal     *journal.Journal
	CombatBonus float64
	GatherBonus float64
}

// Engine owns the learned pattern store, the predictive capability, and the
// learning-session state machine. One engine instance serves one bot.
type Engine struct {
	store       *pattern.Store
	models      predict.Models
	fallback    *rules.Fallback
	journal     *journal.Journal
	patternPath string
	combatBonus float64
	gatherBonus float64

	clock func() time.Time

	mu        sync.RWMutex
	recording bool
	adaptive  bool
	sessionID string
	startedAt time.Time
	buffer    []pattern.ActionRecord
}

// New builds an engine, loading any previously persisted patterns. A nil
// Models option degrades to the disabled capability; a nil Fallback option
// compiles the standard table.
func New(opts Options) *Engine {
	models := opts.Models
	if models == nil {
		models = predict.Disabled()
	}

	fallback := opts.Fallback
	if fallback == nil {
		// The standard table always compiles; an error here is a programming bug.
		fb, err := rules.NewFallback(rules.CompileDefaults(rules.StandardDefaults()))
		if err != nil {
			panic("engine: standard fallback table failed to compile: " + err.Error())
		}
		fallback = fb
	}

	combatBonus := opts.CombatBonus
	if combatBonus <= 0 {
		combatBonus = DefaultCombatBonus
	}
	gatherBonus := opts.GatherBonus
	if gatherBonus <= 0 {
		gatherBonus = DefaultGatherBonus
	}

	e := &Engine{
		store:       pattern.NewStore(),
		models:      models,
		fallback:    fallback,
		journal:     opts.Journal,
		patternPath: opts.PatternPath,
		combatBonus: combatBonus,
		gatherBonus: gatherBonus,
		clock:       time.Now,
	}
	if opts.PatternPath != "" {
		e.store.Load(opts.PatternPath)
	}
	return e
}

// Store exposes the pattern store for read-only inspection.
func (e *Engine) Store() *pattern.Store { return e.store }

// Learning reports whether a recording session is active.
func (e *Engine) Learning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recording
}

// Adaptive reports whether adaptive mode is active.
func (e *Engine) Adaptive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.adaptive
}

// StartLearning begins a recording session. Starting while one is active
// returns ErrAlreadyLearning and leaves the running session untouched.
func (e *Engine) StartLearning() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recording {
		return ErrAlreadyLearning
	}

	e.recording = true
	e.adaptive = false
	e.sessionID = uuid.NewString()
	e.startedAt = e.clock()
	e.buffer = e.buffer[:0]

	slog.Info("learning session started", "session", e.sessionID)
	return nil
}

// Record appends one observed action to the active session buffer. Outside
// a session it is a deliberate no-op, not an error, so observers can stay
// wired up regardless of mode. Unrecognized attribute keys are dropped; see
// pattern.NewRecord.
func (e *Engine) Record(t pattern.ActionType, pos *model.Point, attrs map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.recording {
		return
	}

	e.buffer = append(e.buffer, pattern.NewRecord(t, e.clock(), pos, attrs))
	slog.Debug("recorded action", "type", t, "session", e.sessionID)
}

// StopLearning ends the session: the buffer is analyzed into the pattern
// store, the predictive capability is refitted, the session is archived,
// and the store is persisted. Stopping twice is safe; the second call is
// a no-op returning nil. A persistence failure is returned to the caller
// but the in-memory store keeps the session's learning either way.
func (e *Engine) StopLearning() error {
	e.mu.Lock()
	if !e.recording {
		e.mu.Unlock()
		return nil
	}
	e.recording = false
	buf := e.buffer
	e.buffer = nil
	id := e.sessionID
	started := e.startedAt
	e.mu.Unlock()

	stopped := e.clock()
	slog.Info("learning session stopped",
		"session", id,
		"actions", len(buf),
		"duration", stopped.Sub(started).Round(time.Millisecond),
	)

	e.analyze(buf)
	e.train()

	if e.journal != nil {
		if err := e.journal.Archive(id, started, stopped, buf); err != nil {
			slog.Warn("session archive failed", "session", id, "error", err)
		}
	}

	if e.patternPath != "" {
		if err := e.store.Save(e.patternPath); err != nil {
			slog.Warn("pattern save failed, learned patterns held in memory only", "error", err)
			return err
		}
	}
	return nil
}

// StartAdaptive switches to adaptive mode. Learning and adaptive are
// mutually exclusive: any active session is stopped through the normal
// path first so its buffer is not discarded.
func (e *Engine) StartAdaptive() {
	if err := e.StopLearning(); err != nil {
		slog.Warn("stop before adaptive mode reported error", "error", err)
	}

	e.mu.Lock()
	e.adaptive = true
	e.mu.Unlock()
	slog.Info("adaptive mode started")
}

// StopAdaptive leaves adaptive mode.
func (e *Engine) StopAdaptive() {
	e.mu.Lock()
	e.adaptive = false
	e.mu.Unlock()
	slog.Info("adaptive mode stopped")
}

// analyze partitions the session buffer into the three category views and
// folds each into the pattern store. A record missing the key field its
// category requires is skipped; it never fails the pass.
func (e *Engine) analyze(buf []pattern.ActionRecord) {
	var prevMove *pattern.ActionRecord

	for i := range buf {
		r := &buf[i]
		switch r.Type {
		case pattern.ActionMove:
			if r.Position == nil {
				continue
			}
			if prevMove != nil {
				key := pattern.MoveKey(*prevMove.Position, *r.Position)
				elapsed := r.At.Sub(prevMove.At).Seconds()
				e.store.UpdateMovement(key, r.SuccessRate, elapsed)
			}
			prevMove = r
		case pattern.ActionGather:
			if r.ResourceType == "" {
				continue
			}
			e.store.UpdateResource(r.ResourceType, r.SuccessRate)
		case pattern.ActionCombat:
			if r.Ability == "" {
				continue
			}
			e.store.UpdateCombat(r.Ability, r.SuccessRate)
		}
	}
}

// train refits both regressors from the current store contents. Training
// failures are logged and leave the previous weights in place.
func (e *Engine) train() {
	if !e.models.Trainable() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("model training panicked, keeping previous weights", "panic", r)
		}
	}()

	var timing []predict.Example
	for _, ent := range e.store.Movement() {
		if ent.Stats.Count == 0 {
			continue
		}
		timing = append(timing, predict.Example{
			Features: predict.TimingFeatures(ent.Stats),
			Target:   ent.Stats.MeanTime(),
		})
	}
	if err := e.models.TrainTiming(timing); err != nil {
		slog.Error("timing model training failed", "error", err)
	}

	var success []predict.Example
	for _, entries := range [][]pattern.Entry{e.store.Movement(), e.store.Resources(), e.store.Combat()} {
		for _, ent := range entries {
			success = append(success, predict.Example{
				Features: predict.SuccessFeatures(ent.Stats),
				Target:   ent.Stats.SuccessRate,
			})
		}
	}
	if err := e.models.TrainSuccess(success); err != nil {
		slog.Error("success model training failed", "error", err)
	}
}
