package rules

import (
	"github.com/expr-lang/expr/vm"

	"understudy/model"
)

// Rule is one entry in the fallback decision table: a condition over the
// live snapshot paired with the recommendation to emit when it holds.
// Unlike the learned selector, the table is a fixed priority list: the
// highest-priority rule whose condition holds wins outright.
type Rule struct {
	Name         string
	Priority     int    // higher = evaluated first
	ConditionSrc string // expr source (preserved for serialization)
	program      *vm.Program
	Outcome      model.Recommendation
}
