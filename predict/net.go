package predict

import (
	"fmt"
	"math"
	"math/rand"
)

// dense is a two-layer perceptron (in → hidden ReLU → 1) trained with
// full-batch gradient descent. Sigmoid output pairs with binary
// cross-entropy; identity output pairs with mean-squared error.
type dense struct {
	in, hidden int
	sigmoid    bool
	w1         [][]float64 // hidden × in
	b1         []float64
	w2         []float64
	b2         float64
}

func newDense(in, hidden int, sigmoid bool, rng *rand.Rand) *dense {
	n := &dense{
		in:      in,
		hidden:  hidden,
		sigmoid: sigmoid,
		w1:      make([][]float64, hidden),
		b1:      make([]float64, hidden),
		w2:      make([]float64, hidden),
	}
	inScale := 1 / math.Sqrt(float64(in))
	hiddenScale := 1 / math.Sqrt(float64(hidden))
	for i := range n.w1 {
		row := make([]float64, in)
		for j := range row {
			row[j] = rng.NormFloat64() * inScale
		}
		n.w1[i] = row
		n.w2[i] = rng.NormFloat64() * hiddenScale
	}
	return n
}

// forward returns the network output and the post-ReLU hidden activations.
func (n *dense) forward(x []float64) (float64, []float64) {
	h := make([]float64, n.hidden)
	for i := 0; i < n.hidden; i++ {
		sum := n.b1[i]
		row := n.w1[i]
		for j := 0; j < n.in; j++ {
			sum += row[j] * x[j]
		}
		if sum > 0 {
			h[i] = sum
		}
	}
	z := n.b2
	for i := 0; i < n.hidden; i++ {
		z += n.w2[i] * h[i]
	}
	if n.sigmoid {
		return 1 / (1 + math.Exp(-z)), h
	}
	return z, h
}

// fit runs a fixed number of epochs over the full batch. Gradients are
// averaged across examples; for the sigmoid/BCE pairing dL/dz simplifies
// to (out - target), same shape as the MSE case up to a factor of two.
func (n *dense) fit(examples []Example, epochs int, lr float64) error {
	for _, ex := range examples {
		if len(ex.Features) != n.in {
			return fmt.Errorf("feature width %d, model expects %d", len(ex.Features), n.in)
		}
	}

	batch := float64(len(examples))
	for epoch := 0; epoch < epochs; epoch++ {
		gw1 := make([][]float64, n.hidden)
		gb1 := make([]float64, n.hidden)
		gw2 := make([]float64, n.hidden)
		gb2 := 0.0
		for i := range gw1 {
			gw1[i] = make([]float64, n.in)
		}

		for _, ex := range examples {
			out, h := n.forward(ex.Features)

			var dz float64
			if n.sigmoid {
				dz = (out - ex.Target) / batch
			} else {
				dz = 2 * (out - ex.Target) / batch
			}

			gb2 += dz
			for i := 0; i < n.hidden; i++ {
				gw2[i] += dz * h[i]
				if h[i] <= 0 {
					continue
				}
				dh := dz * n.w2[i]
				gb1[i] += dh
				for j := 0; j < n.in; j++ {
					gw1[i][j] += dh * ex.Features[j]
				}
			}
		}

		for i := 0; i < n.hidden; i++ {
			n.w2[i] -= lr * gw2[i]
			n.b1[i] -= lr * gb1[i]
			for j := 0; j < n.in; j++ {
				n.w1[i][j] -= lr * gw1[i][j]
			}
		}
		n.b2 -= lr * gb2
	}

	if out, _ := n.forward(make([]float64, n.in)); math.IsNaN(out) || math.IsInf(out, 0) {
		return fmt.Errorf("training diverged")
	}
	return nil
}
