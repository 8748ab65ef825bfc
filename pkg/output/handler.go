package output

import (
	"context"
	"fmt"
	"io"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// Handler defines the interface for output formatting
type Handler interface {
	DisplayResults(ctx context.Context, assessments []models.Assessment) error
	DisplayRecommendations(ctx context.Context, recommendations []models.Recommendation) error
	Format() string
}

// NewHandler returns the handler for a format name
func NewHandler(format string, w io.Writer) (Handler, error) {
	switch format {
	case "", "text":
		return &TextHandler{w: w}, nil
	case "json":
		return &JSONHandler{w: w}, nil
	default:
		return nil, fmt.Errorf("output must be text or json, got %q", format)
	}
}
