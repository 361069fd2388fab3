// Package classifier trains and serves a multinomial linear model over
// sentence embeddings. A linear decision boundary on dense semantic vectors
// generalizes to unseen merchant phrasing without per-merchant rules;
// class-balanced weighting compensates for category frequency skew in the
// training mix.
package classifier

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/transactly/transactly/internal/common"
)

// ArtifactVersion identifies the on-disk model format.
const ArtifactVersion = 1

// Model is a fitted multinomial logistic classifier. It is immutable after
// training and safe for concurrent reads.
type Model struct {
	TrainedAt time.Time
	Classes   []string
	Weights   []float64 // Classes x Dim, row-major
	Bias      []float64 // one per class
	Metrics   Metrics
	Version   int
	Dim       int
}

// TrainConfig controls the training run. The seed fixes both the stratified
// split and weight initialization so runs over identical data reproduce the
// same evaluation split.
type TrainConfig struct {
	Seed         int64
	TestFraction float64
	LearnRate    float64
	Epochs       int
	L2           float64
}

// DefaultTrainConfig returns the standard training configuration:
// 80/20 stratified split, seeded for reproducibility.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Seed:         42,
		TestFraction: 0.2,
		LearnRate:    0.5,
		Epochs:       400,
		L2:           1e-4,
	}
}

// Train fits a multinomial logistic model on embeddings X with category
// labels y using class-balanced sample weights, evaluates it on a held-out
// stratified split, and returns the fitted model with its metrics attached.
func Train(x [][]float32, y []string, cfg TrainConfig) (*Model, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: no training samples", common.ErrSchema)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d embeddings but %d labels", common.ErrSchema, len(x), len(y))
	}
	dim := len(x[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimension embeddings", common.ErrSchema)
	}
	for i, v := range x {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, want %d",
				common.ErrDimensionMismatch, i, len(v), dim)
		}
	}

	classes := uniqueSorted(y)
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 categories, got %d", common.ErrSchema, len(classes))
	}
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible split, not crypto
	trainIdx, testIdx := stratifiedSplit(y, classIndex, cfg.TestFraction, rng)

	slog.Info("Training classifier",
		"samples", len(x),
		"dimensions", dim,
		"categories", len(classes),
		"train_size", len(trainIdx),
		"test_size", len(testIdx))

	weights, bias := fit(x, y, trainIdx, classes, classIndex, dim, cfg)

	m := &Model{
		Version:   ArtifactVersion,
		Dim:       dim,
		Classes:   classes,
		Weights:   weights,
		Bias:      bias,
		TrainedAt: time.Now().UTC(),
	}
	m.Metrics = evaluate(m, x, y, testIdx)

	slog.Info("Classifier evaluation",
		"accuracy", fmt.Sprintf("%.4f", m.Metrics.Accuracy),
		"macro_f1", fmt.Sprintf("%.4f", m.Metrics.MacroF1))

	return m, nil
}

// Predict returns the highest-probability category and its posterior for a
// single embedding. The posterior is the classifier's own probability for
// the predicted class; it is never renormalized elsewhere.
func (m *Model) Predict(vec []float32) (string, float64, error) {
	if len(vec) != m.Dim {
		return "", 0, fmt.Errorf("%w: got %d dimensions, model trained on %d",
			common.ErrDimensionMismatch, len(vec), m.Dim)
	}

	probs := m.posteriors(vec)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return m.Classes[best], probs[best], nil
}

// posteriors computes the softmax distribution over classes for one vector.
func (m *Model) posteriors(vec []float32) []float64 {
	x := make([]float64, m.Dim)
	for i, v := range vec {
		x[i] = float64(v)
	}

	logits := make([]float64, len(m.Classes))
	for k := range m.Classes {
		logits[k] = floats.Dot(m.Weights[k*m.Dim:(k+1)*m.Dim], x) + m.Bias[k]
	}
	return softmax(logits)
}

// fit runs full-batch gradient descent with class-balanced sample weights
// and L2 regularization, returning row-major class weights and biases.
func fit(x [][]float32, y []string, trainIdx []int, classes []string, classIndex map[string]int, dim int, cfg TrainConfig) ([]float64, []float64) {
	n := len(trainIdx)
	k := len(classes)

	xt := mat.NewDense(n, dim, nil)
	target := make([]int, n)
	for i, idx := range trainIdx {
		for j, v := range x[idx] {
			xt.Set(i, j, float64(v))
		}
		target[i] = classIndex[y[idx]]
	}

	// Balanced weighting: n / (k * count(class)), computed on the train split.
	counts := make([]float64, k)
	for _, t := range target {
		counts[t]++
	}
	sampleW := make([]float64, n)
	var sumW float64
	for i, t := range target {
		sampleW[i] = float64(n) / (float64(k) * counts[t])
		sumW += sampleW[i]
	}

	w := mat.NewDense(dim, k, nil)
	bias := make([]float64, k)

	logits := mat.NewDense(n, k, nil)
	grad := mat.NewDense(n, k, nil)
	gradW := mat.NewDense(dim, k, nil)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		logits.Mul(xt, w)

		// grad rows: (softmax(logits) - onehot(target)) * sampleW / sumW
		for i := 0; i < n; i++ {
			probs := softmax(logits.RawRowView(i))
			for j := 0; j < k; j++ {
				g := probs[j]
				if j == target[i] {
					g--
				}
				grad.Set(i, j, g*sampleW[i]/sumW)
			}
		}

		gradW.Mul(xt.T(), grad)
		gradW.Apply(func(r, c int, v float64) float64 {
			return v + cfg.L2*w.At(r, c)
		}, gradW)

		w.Apply(func(r, c int, v float64) float64 {
			return v - cfg.LearnRate*gradW.At(r, c)
		}, w)
		for j := 0; j < k; j++ {
			var colSum float64
			for i := 0; i < n; i++ {
				colSum += grad.At(i, j)
			}
			bias[j] -= cfg.LearnRate * colSum
		}
	}

	// Export as row-major class weights.
	flat := make([]float64, k*dim)
	for j := 0; j < k; j++ {
		for d := 0; d < dim; d++ {
			flat[j*dim+d] = w.At(d, j)
		}
	}
	return flat, bias
}

// stratifiedSplit partitions sample indices per category so each category
// keeps the configured train/test proportion. Every category contributes at
// least one training sample.
func stratifiedSplit(y []string, classIndex map[string]int, testFraction float64, rng *rand.Rand) (train, test []int) {
	byClass := make([][]int, len(classIndex))
	for i, label := range y {
		c := classIndex[label]
		byClass[c] = append(byClass[c], i)
	}

	for _, idxs := range byClass {
		rng.Shuffle(len(idxs), func(a, b int) { idxs[a], idxs[b] = idxs[b], idxs[a] })
		nTest := int(math.Round(float64(len(idxs)) * testFraction))
		if nTest >= len(idxs) {
			nTest = len(idxs) - 1
		}
		test = append(test, idxs[:nTest]...)
		train = append(train, idxs[nTest:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func uniqueSorted(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}
