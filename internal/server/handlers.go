package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transactly/transactly/internal/common"
	"github.com/transactly/transactly/internal/model"
)

// classifyRequest is the transport-level classification input.
type classifyRequest struct {
	Description string `json:"description"`
}

// similarPair marshals a similar example as a [text, similarity] tuple.
type similarPair model.SimilarExample

func (p similarPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Text, p.Similarity})
}

// classifyResponse is the transport-level classification output. Confidence
// is rounded to 3 decimals at this boundary only.
type classifyResponse struct {
	Description     string        `json:"description"`
	FinalCategory   string        `json:"final_category"`
	Method          model.Method  `json:"method"`
	Confidence      float64       `json:"confidence"`
	Explanation     string        `json:"explanation"`
	SimilarExamples []similarPair `json:"similar_examples"`
}

func (s *Server) handleClassify(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}

	decision, err := s.classifier.Classify(c.Request().Context(), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrModelNotFound):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "no trained model available; run retraining first")
		case errors.Is(err, common.ErrLoad), errors.Is(err, common.ErrDimensionMismatch):
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "classification failed")
		}
	}

	similar := make([]similarPair, 0, len(decision.SimilarExamples))
	for _, ex := range decision.SimilarExamples {
		similar = append(similar, similarPair(ex))
	}

	return c.JSON(http.StatusOK, classifyResponse{
		Description:     decision.Description,
		FinalCategory:   decision.FinalCategory,
		Method:          decision.Method,
		Confidence:      round3(decision.Confidence),
		Explanation:     decision.Explanation,
		SimilarExamples: similar,
	})
}

// feedbackRequest is the transport-level feedback submission.
type feedbackRequest struct {
	Description       string  `json:"description"`
	PredictedCategory string  `json:"predicted_category"`
	CorrectedCategory string  `json:"corrected_category"`
	Method            string  `json:"method"`
	Confidence        float64 `json:"confidence"`
}

func (s *Server) handleFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}
	if req.CorrectedCategory == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "corrected_category is required")
	}

	rec := model.FeedbackRecord{
		Description:       req.Description,
		PredictedCategory: req.PredictedCategory,
		CorrectedCategory: req.CorrectedCategory,
		Method:            req.Method,
		Confidence:        req.Confidence,
	}
	if err := s.feedback.Append(c.Request().Context(), rec); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record feedback")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "feedback recorded",
		"data":    rec,
	})
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
