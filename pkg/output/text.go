package output

import (
	"context"
	"fmt"
	"io"

	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/stats"
)

// TextHandler prints human readable listings
type TextHandler struct {
	w io.Writer
}

func (h *TextHandler) Format() string {
	return "text"
}

func (h *TextHandler) DisplayResults(_ context.Context, assessments []models.Assessment) error {
	if len(assessments) == 0 {
		_, err := fmt.Fprintln(h.w, "[INFO] No candidates explored")
		return err
	}

	fmt.Fprintln(h.w, "=== Exploration Results ===")
	fmt.Fprintln(h.w)
	for i, a := range assessments {
		fmt.Fprintf(h.w, "%d. %s [%s]\n", i+1, a.Hardware, a.Verdict)
		if r := a.Result; r != nil {
			fmt.Fprintf(h.w, "   Apdex: %s ± %s\n", stats.Apdex(r.Apdex.Mean), stats.Apdex(r.Apdex.Spread))
			fmt.Fprintf(h.w, "   Error rate: %s%% ± %s%%\n",
				stats.ErrorRatePercent(r.ErrorRate.Mean), stats.ErrorRatePercent(r.ErrorRate.Spread))
			fmt.Fprintf(h.w, "   Throughput: %s req/s\n", stats.Throughput(r.Throughput.Mean))
		}
		fmt.Fprintf(h.w, "   Repeats: %d of %d succeeded\n", a.Attempts-a.Failures, a.Attempts)
		if a.Reason != "" {
			fmt.Fprintf(h.w, "   Reason: %s\n", a.Reason)
		}
		fmt.Fprintln(h.w)
	}
	return nil
}

func (h *TextHandler) DisplayRecommendations(_ context.Context, recommendations []models.Recommendation) error {
	if len(recommendations) == 0 {
		_, err := fmt.Fprintln(h.w, "[INFO] No hardware met every threshold")
		return err
	}

	fmt.Fprintln(h.w, "=== Hardware Recommendations ===")
	fmt.Fprintln(h.w)
	for _, rec := range recommendations {
		fmt.Fprintf(h.w, "%d. %s\n", rec.Rank, rec.Hardware)
		fmt.Fprintf(h.w, "   Apdex: %s\n", stats.Apdex(rec.Result.Apdex.Mean))
		fmt.Fprintf(h.w, "   Cost: $%.3f/hour, $%.2f/month\n", rec.HourlyCost, rec.MonthlyCost)
		fmt.Fprintln(h.w)
	}
	_, err := fmt.Fprintf(h.w, "Cheapest: %s at $%.2f/month\n", recommendations[0].Hardware, recommendations[0].MonthlyCost)
	return err
}
