// Package predict holds the optional predictive-model capability: two small
// regressors fitted in batch over the pattern store at session-stop time.
// The capability may be absent; callers must check Trainable before use and
// fall back to the rule-based decision table when it reports false.
package predict

import "errors"

// ErrUnavailable is returned by the disabled capability's inference methods.
var ErrUnavailable = errors.New("predictive models unavailable")

// Example is one training row: a fixed-width feature vector and its target.
type Example struct {
	Features []float64
	Target   float64
}

// Models is the predictive capability. Exactly one implementation is chosen
// at engine construction; the engine itself only ever branches on Trainable.
type Models interface {
	// Trainable reports whether the capability can be trained and queried.
	Trainable() bool
	// TrainTiming refits the timing regressor (mean elapsed seconds).
	TrainTiming(examples []Example) error
	// TrainSuccess refits the success-probability regressor.
	TrainSuccess(examples []Example) error
	// PredictTiming estimates action timing from TimingWidth features.
	PredictTiming(features []float64) (float64, error)
	// PredictSuccess estimates success probability from SuccessWidth features.
	PredictSuccess(features []float64) (float64, error)
}

// New selects the capability implementation once, at construction time.
func New(enabled bool, epochs int, learningRate float64) Models {
	if !enabled {
		return Disabled()
	}
	return newMLP(epochs, learningRate)
}

// Disabled returns the no-op capability used when models are unavailable.
func Disabled() Models { return disabled{} }

type disabled struct{}

func (disabled) Trainable() bool              { return false }
func (disabled) TrainTiming([]Example) error  { return ErrUnavailable }
func (disabled) TrainSuccess([]Example) error { return ErrUnavailable }

func (disabled) PredictTiming([]float64) (float64, error) { return 0, ErrUnavailable }

func (disabled) PredictSuccess([]float64) (float64, error) { return 0, ErrUnavailable }
