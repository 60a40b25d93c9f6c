package engine

import (
	"log/slog"

	"understudy/model"
	"understudy/pattern"
	"understudy/predict"
)

// Predict recommends the next action for the given snapshot, or nil when
// adaptive mode is not active. It never panics out to the automation loop:
// any failure on the model path degrades to the rule-based fallback.
func (e *Engine) Predict(snap model.Snapshot) *model.Recommendation {
	e.mu.RLock()
	adaptive := e.adaptive
	e.mu.RUnlock()
	if !adaptive {
		return nil
	}

	rec := e.selectAction(snap)
	return &rec
}

func (e *Engine) selectAction(snap model.Snapshot) (rec model.Recommendation) {
	fallback := e.fallback.Decide(snap)
	if !e.models.Trainable() {
		return fallback
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("prediction panicked, using fallback", "panic", r)
			rec = fallback
		}
	}()

	features := predict.StateFeatures(snap)
	timing, err := e.models.PredictTiming(features[:predict.TimingWidth])
	if err != nil {
		slog.Warn("timing prediction failed, using fallback", "error", err)
		return fallback
	}
	successProb, err := e.models.PredictSuccess(features)
	if err != nil {
		slog.Warn("success prediction failed, using fallback", "error", err)
		return fallback
	}

	// Categories enumerate in fixed order and entries in sorted key order,
	// so equal scores resolve the same way on every run. Strict-greater
	// comparison keeps the first-seen candidate on ties.
	categories := []struct {
		action  pattern.ActionType
		entries []pattern.Entry
		bonus   float64
	}{
		{pattern.ActionMove, e.store.Movement(), 1.0},
		{pattern.ActionGather, e.store.Resources(), e.categoryBonus(pattern.ActionGather, snap)},
		{pattern.ActionCombat, e.store.Combat(), e.categoryBonus(pattern.ActionCombat, snap)},
	}

	best := fallback
	bestScore := -1.0
	for _, c := range categories {
		for _, ent := range c.entries {
			score := ent.Stats.SuccessRate * successProb * c.bonus
			if score > bestScore {
				bestScore = score
				best = model.Recommendation{
					Type: string(c.action),
					Pattern: model.PatternSummary{
						Key:         ent.Key,
						Count:       ent.Stats.Count,
						SuccessRate: ent.Stats.SuccessRate,
						TotalTime:   ent.Stats.TotalTime,
					},
					Timing:             timing,
					SuccessProbability: successProb,
				}
			}
		}
	}

	// An empty store leaves bestScore untouched; the fallback answer stands.
	return best
}

func (e *Engine) categoryBonus(t pattern.ActionType, snap model.Snapshot) float64 {
	switch {
	case t == pattern.ActionCombat && snap.InCombat:
		return e.combatBonus
	case t == pattern.ActionGather && len(snap.DetectedResources) > 0:
		return e.gatherBonus
	default:
		return 1.0
	}
}
