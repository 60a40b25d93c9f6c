package predict

import (
	"understudy/model"
	"understudy/pattern"
)

// Fixed model input widths. Both regressors were sized for headroom: only
// the leading slots carry signal today, the rest are zero padding.
const (
	TimingWidth  = 10
	SuccessWidth = 15
)

// TimingFeatures maps one transition's statistics to the timing model input.
func TimingFeatures(s pattern.Stats) []float64 {
	f := make([]float64, TimingWidth)
	f[0] = float64(s.Count)
	f[1] = s.MeanTime()
	f[2] = s.SuccessRate
	return f
}

// SuccessFeatures maps one entry's statistics to the success model input.
func SuccessFeatures(s pattern.Stats) []float64 {
	f := make([]float64, SuccessWidth)
	f[0] = float64(s.Count)
	f[1] = s.SuccessRate
	return f
}

// StateFeatures maps a live snapshot to a SuccessWidth vector; the timing
// model consumes the leading TimingWidth slots of the same vector.
func StateFeatures(snap model.Snapshot) []float64 {
	f := make([]float64, SuccessWidth)
	f[0] = snap.Health / 100
	f[1] = boolFeature(snap.InCombat)
	f[2] = boolFeature(snap.Mounted)
	f[3] = float64(len(snap.DetectedResources))
	f[4] = float64(len(snap.DetectedObstacles))
	return f
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
