package predict

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
)

const hiddenUnits = 32

// weightSeed fixes weight initialization so retraining over identical
// stores yields identical models.
const weightSeed = 1

// mlp is the trainable capability: a timing regressor (MSE) and a
// success-probability regressor (sigmoid + BCE). Each retrain resets the
// weights and refits from scratch; a failed refit keeps the previous
// weights so inference degrades to last-known-good rather than crashing.
type mlp struct {
	mu      sync.RWMutex
	epochs  int
	lr      float64
	timing  *dense
	success *dense
}

func newMLP(epochs int, lr float64) *mlp {
	if epochs <= 0 {
		epochs = 100
	}
	if lr <= 0 {
		lr = 0.01
	}
	rng := rand.New(rand.NewSource(weightSeed))
	return &mlp{
		epochs:  epochs,
		lr:      lr,
		timing:  newDense(TimingWidth, hiddenUnits, false, rng),
		success: newDense(SuccessWidth, hiddenUnits, true, rng),
	}
}

func (m *mlp) Trainable() bool { return true }

func (m *mlp) TrainTiming(examples []Example) error {
	return m.refit(&m.timing, TimingWidth, false, examples, "timing")
}

func (m *mlp) TrainSuccess(examples []Example) error {
	return m.refit(&m.success, SuccessWidth, true, examples, "success")
}

func (m *mlp) refit(slot **dense, width int, sigmoid bool, examples []Example, name string) error {
	if len(examples) == 0 {
		// Nothing observed yet; keep whatever the last session taught us.
		slog.Debug("no training examples, keeping model", "model", name)
		return nil
	}

	fresh := newDense(width, hiddenUnits, sigmoid, rand.New(rand.NewSource(weightSeed)))
	if err := fresh.fit(examples, m.epochs, m.lr); err != nil {
		return fmt.Errorf("train %s model: %w", name, err)
	}

	m.mu.Lock()
	*slot = fresh
	m.mu.Unlock()
	slog.Info("trained model", "model", name, "examples", len(examples), "epochs", m.epochs)
	return nil
}

func (m *mlp) PredictTiming(features []float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(features) != TimingWidth {
		return 0, fmt.Errorf("feature width %d, timing model expects %d", len(features), TimingWidth)
	}
	out, _ := m.timing.forward(features)
	return out, nil
}

func (m *mlp) PredictSuccess(features []float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(features) != SuccessWidth {
		return 0, fmt.Errorf("feature width %d, success model expects %d", len(features), SuccessWidth)
	}
	out, _ := m.success.forward(features)
	return out, nil
}
