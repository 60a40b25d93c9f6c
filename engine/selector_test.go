package engine

import (
	"testing"
	"time"

	"understudy/model"
	"understudy/pattern"
	"understudy/predict"
)

// trainedEngine builds an engine with the real predictive capability and a
// learned store: one combat ability, one resource type, two movement
// transitions, all fully successful.
func trainedEngine(t *testing.T) *Engine {
	t.Helper()
	e, clock := newTestEngine(t, Options{Models: predict.New(true, 50, 0.01)})

	if err := e.StartLearning(); err != nil {
		t.Fatal(err)
	}
	e.Record(pattern.ActionMove, &model.Point{X: 0, Y: 0}, nil)
	clock.Advance(time.Second)
	e.Record(pattern.ActionMove, &model.Point{X: 10, Y: 0}, nil)
	clock.Advance(time.Second)
	e.Record(pattern.ActionMove, &model.Point{X: 5, Y: 5}, nil)
	e.Record(pattern.ActionGather, nil, map[string]any{pattern.AttrResourceType: "herb"})
	e.Record(pattern.ActionCombat, nil, map[string]any{pattern.AttrCombatAbility: "cleave"})
	if err := e.StopLearning(); err != nil {
		t.Fatal(err)
	}
	e.StartAdaptive()
	return e
}

func TestSelectorCombatBonusWins(t *testing.T) {
	e := trainedEngine(t)

	// With combat and gathering both applicable, the 1.5x combat bonus must
	// beat the 1.3x gather bonus at equal stored success rates.
	snap := model.Snapshot{
		Health:            80,
		InCombat:          true,
		DetectedResources: []model.Resource{{Type: "herb"}},
	}
	rec := e.Predict(snap)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.Type != string(pattern.ActionCombat) {
		t.Errorf("expected combat to win under its bonus, got %q", rec.Type)
	}
	if rec.Pattern.Key != "cleave" {
		t.Errorf("expected the stored ability, got %q", rec.Pattern.Key)
	}
	if rec.SuccessProbability <= 0 || rec.SuccessProbability >= 1 {
		t.Errorf("model success probability out of (0,1): %f", rec.SuccessProbability)
	}
}

func TestSelectorGatherBonusWins(t *testing.T) {
	e := trainedEngine(t)

	snap := model.Snapshot{
		Health:            80,
		DetectedResources: []model.Resource{{Type: "herb"}},
	}
	rec := e.Predict(snap)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.Type != string(pattern.ActionGather) {
		t.Errorf("expected gather to win under its bonus, got %q", rec.Type)
	}
}

func TestSelectorTieBreaksOnSortedKeyOrder(t *testing.T) {
	e := trainedEngine(t)

	// No bonuses apply: all entries have success rate 1.0, so every score
	// ties and the first-enumerated entry must win: the lexically first
	// movement key, since movement is the first category.
	rec := e.Predict(model.Snapshot{Health: 80})
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.Type != string(pattern.ActionMove) {
		t.Fatalf("expected movement on full tie, got %q", rec.Type)
	}
	movement := e.Store().Movement()
	if rec.Pattern.Key != movement[0].Key {
		t.Errorf("tie not broken by sorted order: got %q, want %q", rec.Pattern.Key, movement[0].Key)
	}
	// And it must be stable.
	for i := 0; i < 5; i++ {
		again := e.Predict(model.Snapshot{Health: 80})
		if again.Pattern.Key != rec.Pattern.Key {
			t.Fatalf("tie-break not deterministic: %q vs %q", again.Pattern.Key, rec.Pattern.Key)
		}
	}
}

func TestSelectorEmptyStoreFallsBack(t *testing.T) {
	e, _ := newTestEngine(t, Options{Models: predict.New(true, 10, 0.01)})
	e.StartAdaptive()

	rec := e.Predict(model.Snapshot{InCombat: true})
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.Type != string(pattern.ActionCombat) || rec.SuccessProbability != 0.8 {
		t.Errorf("expected rule-based combat fallback, got %+v", rec)
	}
}

type panickyModels struct{ predict.Models }

func (panickyModels) Trainable() bool { return true }
func (panickyModels) PredictTiming([]float64) (float64, error) {
	panic("boom")
}

func TestSelectorRecoversFromCapabilityPanic(t *testing.T) {
	e, _ := newTestEngine(t, Options{Models: panickyModels{predict.Disabled()}})
	e.StartAdaptive()

	rec := e.Predict(model.Snapshot{InCombat: true})
	if rec == nil || rec.Type != string(pattern.ActionCombat) {
		t.Errorf("expected fallback after capability panic, got %+v", rec)
	}
}
