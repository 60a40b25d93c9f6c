package pattern

import (
	"math"
	"testing"
)

func TestStatsIncrementalMean(t *testing.T) {
	var s Stats
	rates := []float64{1.0, 0.5, 0.0, 0.5}
	for _, r := range rates {
		s.Update(r, 0)
	}

	if s.Count != len(rates) {
		t.Fatalf("expected count %d, got %d", len(rates), s.Count)
	}
	if math.Abs(s.SuccessRate-0.5) > 1e-9 {
		t.Errorf("expected mean 0.5, got %f", s.SuccessRate)
	}
}

func TestStatsMeanIndependentOfInterleaving(t *testing.T) {
	// Updates to one key must not be affected by updates to another.
	var a, b Stats
	a.Update(1.0, 0)
	b.Update(0.0, 0)
	a.Update(0.0, 0)
	b.Update(0.0, 0)
	a.Update(0.5, 0)

	if math.Abs(a.SuccessRate-0.5) > 1e-9 {
		t.Errorf("key a: expected mean 0.5, got %f", a.SuccessRate)
	}
	if math.Abs(b.SuccessRate) > 1e-9 {
		t.Errorf("key b: expected mean 0.0, got %f", b.SuccessRate)
	}
}

func TestStatsTotalAndMeanTime(t *testing.T) {
	var s Stats
	s.Update(1.0, 1.5)
	s.Update(1.0, 0.5)

	if math.Abs(s.TotalTime-2.0) > 1e-9 {
		t.Errorf("expected total time 2.0, got %f", s.TotalTime)
	}
	if math.Abs(s.MeanTime()-1.0) > 1e-9 {
		t.Errorf("expected mean time 1.0, got %f", s.MeanTime())
	}
}

func TestStatsMeanTimeZeroCount(t *testing.T) {
	var s Stats
	if s.MeanTime() != 0 {
		t.Errorf("expected zero mean time for empty stats, got %f", s.MeanTime())
	}
}
