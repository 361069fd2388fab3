package classifier

import "log/slog"

// Metrics summarizes the held-out evaluation of a training run.
type Metrics struct {
	PerClass  []ClassReport `json:"per_class"`
	Accuracy  float64       `json:"accuracy"`
	MacroF1   float64       `json:"macro_f1"`
	TrainSize int           `json:"train_size"`
	TestSize  int           `json:"test_size"`
}

// ClassReport holds per-category precision, recall and F1 on the test split.
type ClassReport struct {
	Category  string  `json:"category"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// evaluate scores the model on the held-out indices and builds the report.
func evaluate(m *Model, x [][]float32, y []string, testIdx []int) Metrics {
	metrics := Metrics{
		TrainSize: len(x) - len(testIdx),
		TestSize:  len(testIdx),
	}
	if len(testIdx) == 0 {
		slog.Warn("No held-out samples; skipping evaluation")
		return metrics
	}

	classIndex := make(map[string]int, len(m.Classes))
	for i, c := range m.Classes {
		classIndex[c] = i
	}

	k := len(m.Classes)
	truePos := make([]int, k)
	falsePos := make([]int, k)
	falseNeg := make([]int, k)
	support := make([]int, k)

	correct := 0
	for _, idx := range testIdx {
		predicted, _, err := m.Predict(x[idx])
		if err != nil {
			continue
		}
		actual := classIndex[y[idx]]
		support[actual]++
		if predicted == y[idx] {
			correct++
			truePos[actual]++
		} else {
			falseNeg[actual]++
			falsePos[classIndex[predicted]]++
		}
	}

	metrics.Accuracy = float64(correct) / float64(len(testIdx))

	var f1Sum float64
	for i, category := range m.Classes {
		precision := safeDiv(float64(truePos[i]), float64(truePos[i]+falsePos[i]))
		recall := safeDiv(float64(truePos[i]), float64(truePos[i]+falseNeg[i]))
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		f1Sum += f1
		metrics.PerClass = append(metrics.PerClass, ClassReport{
			Category:  category,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support[i],
		})
	}
	metrics.MacroF1 = f1Sum / float64(k)

	return metrics
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
