package pattern

import (
	"time"

	"understudy/model"
)

// ActionType tags one observed operator action.
type ActionType string

const (
	ActionMove      ActionType = "move"
	ActionGather    ActionType = "gather"
	ActionCombat    ActionType = "combat"
	ActionMount     ActionType = "mount"
	ActionCast      ActionType = "cast"
	ActionReel      ActionType = "reel"
	ActionTimeout   ActionType = "timeout"
	ActionClick     ActionType = "click"
	ActionKey       ActionType = "key"
	ActionMouseMove ActionType = "mouse_move"
)

// ActionRecord is one observed operator action. Records are immutable after
// construction: the session buffer appends them and analysis only reads them.
type ActionRecord struct {
	Type           ActionType
	At             time.Time // monotonic; elapsed time comes from At.Sub
	Position       *model.Point
	TargetPosition *model.Point
	ResourceType   string
	Ability        string
	SuccessRate    float64
	Success        bool
	Metadata       map[string]string
}

// Recognized attribute keys for NewRecord.
const (
	AttrTargetPosition = "target_position"
	AttrResourceType   = "resource_type"
	AttrCombatAbility  = "combat_ability"
	AttrSuccessRate    = "success_rate"
	AttrSuccess        = "success"
	AttrMetadata       = "metadata"
)

// NewRecord builds an ActionRecord from the permissive attribute map that
// observers pass alongside the action type and position. Unrecognized keys
// (and recognized keys with the wrong value type) are silently dropped so
// callers can attach rich context without coupling to the exact field set.
func NewRecord(t ActionType, at time.Time, pos *model.Point, attrs map[string]any) ActionRecord {
	r := ActionRecord{
		Type:        t,
		At:          at,
		Position:    pos,
		SuccessRate: 1.0,
		Success:     true,
	}

	for k, v := range attrs {
		switch k {
		case AttrTargetPosition:
			if p, ok := asPoint(v); ok {
				r.TargetPosition = &p
			}
		case AttrResourceType:
			if s, ok := v.(string); ok {
				r.ResourceType = s
			}
		case AttrCombatAbility:
			if s, ok := v.(string); ok {
				r.Ability = s
			}
		case AttrSuccessRate:
			if f, ok := asFloat(v); ok {
				r.SuccessRate = f
			}
		case AttrSuccess:
			if b, ok := v.(bool); ok {
				r.Success = b
			}
		case AttrMetadata:
			if m, ok := v.(map[string]string); ok {
				r.Metadata = m
			}
		}
	}

	return r
}

func asPoint(v any) (model.Point, bool) {
	switch p := v.(type) {
	case model.Point:
		return p, true
	case *model.Point:
		if p != nil {
			return *p, true
		}
	}
	return model.Point{}, false
}

func asFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	}
	return 0, false
}
