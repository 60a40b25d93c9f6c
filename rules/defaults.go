package rules

import (
	"understudy/model"
	"understudy/pattern"
)

// Defaults carries the fallback probability/timing placeholders. They are
// deliberately configuration, not literals: the stock values were never
// tuned against real gameplay, so deployments can adjust them without a
// rebuild.
type Defaults struct {
	CombatProbability float64
	CombatTiming      float64
	GatherProbability float64
	GatherTiming      float64
	MoveProbability   float64
	MoveTiming        float64
}

// StandardDefaults returns the stock fallback placeholders.
func StandardDefaults() Defaults {
	return Defaults{
		CombatProbability: 0.8,
		CombatTiming:      1.0,
		GatherProbability: 0.9,
		GatherTiming:      2.0,
		MoveProbability:   1.0,
		MoveTiming:        0.5,
	}
}

// Validate clamps probabilities to [0,1] and timings to non-negative.
func (d *Defaults) Validate() {
	d.CombatProbability = clamp(d.CombatProbability, 0, 1)
	d.GatherProbability = clamp(d.GatherProbability, 0, 1)
	d.MoveProbability = clamp(d.MoveProbability, 0, 1)
	d.CombatTiming = max(d.CombatTiming, 0)
	d.GatherTiming = max(d.GatherTiming, 0)
	d.MoveTiming = max(d.MoveTiming, 0)
}

// CompileDefaults generates the standard fallback table from the given
// placeholders. Combat preempts gathering, gathering preempts movement,
// and the terminal roam rule matches unconditionally.
func CompileDefaults(d Defaults) []*Rule {
	d.Validate()

	return []*Rule{
		{
			Name:         "engage-combat",
			Priority:     300,
			ConditionSrc: `InCombat()`,
			Outcome:      outcome(pattern.ActionCombat, d.CombatProbability, d.CombatTiming),
		},
		{
			Name:         "gather-visible-resource",
			Priority:     200,
			ConditionSrc: `ResourceCount() > 0`,
			Outcome:      outcome(pattern.ActionGather, d.GatherProbability, d.GatherTiming),
		},
		{
			Name:         "roam",
			Priority:     100,
			ConditionSrc: `true`,
			Outcome:      outcome(pattern.ActionMove, d.MoveProbability, d.MoveTiming),
		},
	}
}

func outcome(t pattern.ActionType, probability, timing float64) model.Recommendation {
	return model.Recommendation{
		Type:               string(t),
		Pattern:            model.PatternSummary{SuccessRate: probability},
		Timing:             timing,
		SuccessProbability: probability,
	}
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
