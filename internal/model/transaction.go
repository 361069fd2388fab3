package model

import "time"

// Transaction represents a single row of the training corpus.
// Category is the only field consumed by supervised training.
type Transaction struct {
	ID          string  `json:"transaction_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

// FeedbackRecord is a user-submitted correction linking an original
// prediction to a human-verified category. Records are append-only and are
// consumed read-only by the retraining pipeline.
type FeedbackRecord struct {
	CreatedAt         time.Time `json:"created_at"`
	Description       string    `json:"description"`
	PredictedCategory string    `json:"predicted_category"`
	CorrectedCategory string    `json:"corrected_category"`
	Method            string    `json:"method"`
	ID                int64     `json:"id"`
	Confidence        float64   `json:"confidence"`
}
