package model

// Method indicates which decision source produced a final category.
type Method string

// Decision method constants.
const (
	MethodRule          Method = "rule"
	MethodModel         Method = "model"
	MethodLowConfidence Method = "low_confidence"
)

// SimilarExample is an advisory (reference text, cosine similarity) pair
// attached to a decision for explainability. It never influences the final
// category.
type SimilarExample struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Decision is the terminal output of the decision engine for a single
// transaction description.
//
// Invariants: Confidence is in [0,1]; Method == MethodRule implies
// Confidence == 1.0; FinalCategory == Uncertain implies
// Method == MethodLowConfidence.
type Decision struct {
	Description     string           `json:"description"`
	FinalCategory   string           `json:"final_category"`
	Method          Method           `json:"method"`
	Explanation     string           `json:"explanation"`
	SimilarExamples []SimilarExample `json:"similar_examples,omitempty"`
	Confidence      float64          `json:"confidence"`
}
