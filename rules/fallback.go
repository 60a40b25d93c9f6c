package rules

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"understudy/model"
	"understudy/pattern"
)

// Fallback picks a recommendation by fixed priority when no predictive
// capability is present (and whenever the learned selector fails). It is
// the floor the engine can always stand on: the terminal roam rule matches
// unconditionally, so Decide always produces an answer.
type Fallback struct {
	rules []*Rule
}

// NewFallback compiles all rule conditions into expr bytecode and sorts
// the table by descending priority.
func NewFallback(rs []*Rule) (*Fallback, error) {
	compiled, err := compileRules(rs)
	if err != nil {
		return nil, err
	}
	return &Fallback{rules: compiled}, nil
}

func compileRules(rs []*Rule) ([]*Rule, error) {
	for _, r := range rs {
		program, err := expr.Compile(r.ConditionSrc, expr.Env(SnapshotEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = program
	}
	sorted := make([]*Rule, len(rs))
	copy(sorted, rs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return sorted, nil
}

// Decide returns the outcome of the highest-priority rule whose condition
// holds. A rule whose condition errors is skipped, not fatal.
func (f *Fallback) Decide(snap model.Snapshot) model.Recommendation {
	env := SnapshotEnv{State: snap}

	for _, r := range f.rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("fallback condition error", "rule", r.Name, "error", err)
			continue
		}
		match, ok := result.(bool)
		if !ok || !match {
			continue
		}
		slog.Debug("fallback rule fired", "rule", r.Name, "priority", r.Priority)
		return r.Outcome
	}

	// Unreachable with the standard table; conservative default regardless.
	return model.Recommendation{
		Type:               string(pattern.ActionMove),
		Pattern:            model.PatternSummary{SuccessRate: 1.0},
		Timing:             1.0,
		SuccessProbability: 1.0,
	}
}

// Len reports the number of compiled rules.
func (f *Fallback) Len() int { return len(f.rules) }
