package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// JSONHandler writes machine readable documents, one per call
type JSONHandler struct {
	w io.Writer
}

func (h *JSONHandler) Format() string {
	return "json"
}

func (h *JSONHandler) DisplayResults(_ context.Context, assessments []models.Assessment) error {
	if assessments == nil {
		assessments = []models.Assessment{}
	}
	return h.encode(map[string]interface{}{
		"results": assessments,
		"count":   len(assessments),
	})
}

func (h *JSONHandler) DisplayRecommendations(_ context.Context, recommendations []models.Recommendation) error {
	if recommendations == nil {
		recommendations = []models.Recommendation{}
	}
	return h.encode(map[string]interface{}{
		"recommendations": recommendations,
		"count":           len(recommendations),
	})
}

func (h *JSONHandler) encode(v interface{}) error {
	encoder := json.NewEncoder(h.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
