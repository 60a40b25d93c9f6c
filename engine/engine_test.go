package engine

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"understudy/model"
	"understudy/pattern"
	"understudy/predict"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T, opts Options) (*Engine, *fakeClock) {
	t.Helper()
	if opts.PatternPath == "" {
		opts.PatternPath = filepath.Join(t.TempDir(), "models", "learned_patterns.json")
	}
	e := New(opts)
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	e.clock = clock.Now
	return e, clock
}

func TestStartWhileRecordingFails(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	if err := e.StartLearning(); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if err := e.StartLearning(); !errors.Is(err, ErrAlreadyLearning) {
		t.Errorf("expected ErrAlreadyLearning, got %v", err)
	}
	if !e.Learning() {
		t.Error("failed second start must not kill the running session")
	}
}

func TestRecordCountsOnlyDuringSession(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	// Before start: ignored.
	e.Record(pattern.ActionGather, nil, map[string]any{pattern.AttrResourceType: "early"})

	if err := e.StartLearning(); err != nil {
		t.Fatal(err)
	}
	e.Record(pattern.ActionGather, nil, map[string]any{pattern.AttrResourceType: "herb"})
	e.Record(pattern.ActionGather, nil, map[string]any{pattern.AttrResourceType: "ore"})

	if n := len(e.buffer); n != 2 {
		t.Fatalf("expected 2 buffered actions, got %d", n)
	}
	if err := e.StopLearning(); err != nil {
		t.Fatal(err)
	}

	// After stop: ignored.
	e.Record(pattern.ActionGather, nil, map[string]any{pattern.AttrResourceType: "late"})

	entries := e.Store().Resources()
	if len(entries) != 2 {
		t.Fatalf("expected 2 resource entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Key != "herb" || entries[1].Key != "ore" {
		t.Errorf("unexpected keys: %+v", entries)
	}
}

func TestStopIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	if err := e.StartLearning(); err != nil {
		t.Fatal(err)
	}
	e.Record(pattern.ActionGather, nil, map[string]any{pattern.AttrResourceType: "herb"})
	if err := e.StopLearning(); err != nil {
		t.Fatal(err)
	}

	entries := e.Store().Resources()
	if len(entries) != 1 || entries[0].Stats.Count != 1 {
		t.Fatalf("unexpected store after first stop: %+v", entries)
	}

	if err := e.StopLearning(); err != nil {
		t.Errorf("second stop should be a no-op success, got %v", err)
	}
	entries = e.Store().Resources()
	if entries[0].Stats.Count != 1 {
		t.Errorf("second stop mutated the store: %+v", entries)
	}
}

func TestEndToEndScenario(t *testing.T) {
	e, clock := newTestEngine(t, Options{})

	if err := e.StartLearning(); err != nil {
		t.Fatal(err)
	}
	e.Record(pattern.ActionMove, &model.Point{X: 0, Y: 0}, nil)
	clock.Advance(time.Second)
	e.Record(pattern.ActionMove, &model.Point{X: 10, Y: 0}, map[string]any{pattern.AttrSuccessRate: 1.0})
	e.Record(pattern.ActionGather, &model.Point{X: 10, Y: 0}, map[string]any{
		pattern.AttrResourceType: "herb",
		pattern.AttrSuccessRate:  0.5,
	})
	if err := e.StopLearning(); err != nil {
		t.Fatal(err)
	}

	movement := e.Store().Movement()
	if len(movement) != 1 {
		t.Fatalf("expected 1 movement entry, got %d", len(movement))
	}
	wantKey := pattern.MoveKey(model.Point{X: 0, Y: 0}, model.Point{X: 10, Y: 0})
	if movement[0].Key != wantKey {
		t.Errorf("expected key %q, got %q", wantKey, movement[0].Key)
	}
	if movement[0].Stats.Count != 1 || movement[0].Stats.SuccessRate != 1.0 {
		t.Errorf("unexpected movement stats: %+v", movement[0].Stats)
	}
	if math.Abs(movement[0].Stats.TotalTime-1.0) > 1e-6 {
		t.Errorf("expected total time ~1.0s, got %f", movement[0].Stats.TotalTime)
	}

	resources := e.Store().Resources()
	if len(resources) != 1 || resources[0].Key != "herb" {
		t.Fatalf("expected one herb entry, got %+v", resources)
	}
	if resources[0].Stats.Count != 1 || resources[0].Stats.SuccessRate != 0.5 {
		t.Errorf("unexpected herb stats: %+v", resources[0].Stats)
	}
}

func TestMalformedRecordsSkipped(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	if err := e.StartLearning(); err != nil {
		t.Fatal(err)
	}
	e.Record(pattern.ActionGather, &model.Point{X: 1, Y: 1}, nil) // no resource_type
	e.Record(pattern.ActionCombat, nil, nil)                      // no ability
	e.Record(pattern.ActionMove, nil, nil)                        // no position
	if err := e.StopLearning(); err != nil {
		t.Fatal(err)
	}

	m, r, c := e.Store().Len()
	if m != 0 || r != 0 || c != 0 {
		t.Errorf("malformed records must be skipped, store has %d/%d/%d", m, r, c)
	}
}

func TestFallbackDeterminism(t *testing.T) {
	e, _ := newTestEngine(t, Options{Models: predict.Disabled()})
	e.StartAdaptive()

	cases := []struct {
		snap model.Snapshot
		want string
	}{
		{model.Snapshot{InCombat: true, DetectedResources: []model.Resource{{Type: "x"}}}, "combat"},
		{model.Snapshot{DetectedResources: []model.Resource{{Type: "x"}}}, "gather"},
		{model.Snapshot{}, "move"},
	}
	for _, tc := range cases {
		for i := 0; i < 3; i++ {
			rec := e.Predict(tc.snap)
			if rec == nil || rec.Type != tc.want {
				t.Fatalf("expected %q every time, got %+v", tc.want, rec)
			}
		}
	}
}

func TestPredictNilOutsideAdaptiveMode(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	if rec := e.Predict(model.Snapshot{InCombat: true}); rec != nil {
		t.Errorf("expected nil outside adaptive mode, got %+v", rec)
	}
}

func TestStartAdaptiveClosesSession(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	if err := e.StartLearning(); err != nil {
		t.Fatal(err)
	}
	e.Record(pattern.ActionGather, nil, map[string]any{pattern.AttrResourceType: "herb"})
	e.StartAdaptive()

	if e.Learning() {
		t.Error("adaptive mode must close the learning session")
	}
	if !e.Adaptive() {
		t.Error("adaptive mode not active")
	}
	if entries := e.Store().Resources(); len(entries) != 1 {
		t.Errorf("session buffer was discarded instead of analyzed: %+v", entries)
	}
}

func TestPersistenceRoundTripAcrossEngines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "learned_patterns.json")

	first, clock := newTestEngine(t, Options{PatternPath: path})
	if err := first.StartLearning(); err != nil {
		t.Fatal(err)
	}
	first.Record(pattern.ActionMove, &model.Point{X: 0, Y: 0}, nil)
	clock.Advance(2 * time.Second)
	first.Record(pattern.ActionMove, &model.Point{X: 5, Y: 5}, map[string]any{pattern.AttrSuccessRate: 0.5})
	first.Record(pattern.ActionCombat, nil, map[string]any{pattern.AttrCombatAbility: "cleave"})
	if err := first.StopLearning(); err != nil {
		t.Fatal(err)
	}

	second := New(Options{PatternPath: path})

	want := first.Store().Movement()
	got := second.Store().Movement()
	if len(got) != 1 || got[0].Key != want[0].Key || got[0].Stats.Count != want[0].Stats.Count {
		t.Errorf("movement did not survive reload: got %+v, want %+v", got, want)
	}
	if math.Abs(got[0].Stats.TotalTime-want[0].Stats.TotalTime) > 1e-9 {
		t.Errorf("total time drifted across reload: %f vs %f", got[0].Stats.TotalTime, want[0].Stats.TotalTime)
	}
	if combat := second.Store().Combat(); len(combat) != 1 || combat[0].Key != "cleave" {
		t.Errorf("combat did not survive reload: %+v", combat)
	}
}

func TestStopReportsPersistFailureButKeepsLearning(t *testing.T) {
	// A regular file where the pattern directory should be makes Save fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(blocker, "models", "learned_patterns.json")

	e, _ := newTestEngine(t, Options{PatternPath: path})
	if err := e.StartLearning(); err != nil {
		t.Fatal(err)
	}
	e.Record(pattern.ActionGather, nil, map[string]any{pattern.AttrResourceType: "herb"})

	if err := e.StopLearning(); err == nil {
		t.Fatal("expected persistence error from stop")
	}
	if e.Learning() {
		t.Error("session must be stopped even when persistence fails")
	}
	if entries := e.Store().Resources(); len(entries) != 1 {
		t.Errorf("in-memory learning lost on persistence failure: %+v", entries)
	}
}
