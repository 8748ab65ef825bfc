package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/hardware-explorer/pkg/models"
)

var hw = models.Hardware{InstanceType: "c5.4xlarge", NodeCount: 3}

func assessment() models.Assessment {
	return models.Assessment{
		ExplorationResult: models.ExplorationResult{
			Hardware: hw,
			Result: &models.AggregatedResult{
				Hardware:   hw,
				Apdex:      models.Stat{Mean: 0.8125, Spread: 0.0045},
				ErrorRate:  models.Stat{Mean: 0.0123},
				Throughput: models.Stat{Mean: 14.5},
				Repeats:    2,
			},
			Attempts: 2,
		},
		Verdict: models.VerdictRecommended,
		Reason:  "Apdex 0.813 with 1.23% errors",
	}
}

func TestNewHandler(t *testing.T) {
	h, err := NewHandler("", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "text", h.Format())

	h, err = NewHandler("json", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "json", h.Format())

	_, err = NewHandler("yaml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &TextHandler{w: &buf}

	require.NoError(t, h.DisplayResults(context.Background(), []models.Assessment{assessment()}))
	out := buf.String()
	assert.Contains(t, out, "1. 3 x c5.4xlarge [RECOMMENDED]")
	assert.Contains(t, out, "Apdex: 0.813 ± 0.005")
	assert.Contains(t, out, "Error rate: 1.23% ± 0%")
	assert.Contains(t, out, "Throughput: 15 req/s")
	assert.Contains(t, out, "Repeats: 2 of 2 succeeded")

	buf.Reset()
	a := assessment()
	require.NoError(t, h.DisplayRecommendations(context.Background(), []models.Recommendation{
		{Hardware: hw, Result: a.Result, HourlyCost: 2.304, MonthlyCost: 1681.92, Rank: 1},
	}))
	assert.Contains(t, buf.String(), "Cost: $2.304/hour, $1681.92/month")
	assert.Contains(t, buf.String(), "Cheapest: 3 x c5.4xlarge at $1681.92/month")

	buf.Reset()
	require.NoError(t, h.DisplayRecommendations(context.Background(), nil))
	assert.Contains(t, buf.String(), "No hardware met every threshold")
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &JSONHandler{w: &buf}

	require.NoError(t, h.DisplayResults(context.Background(), []models.Assessment{assessment()}))

	var doc struct {
		Count   int                 `json:"count"`
		Results []models.Assessment `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, assessment(), doc.Results[0])

	buf.Reset()
	require.NoError(t, h.DisplayRecommendations(context.Background(), nil))
	assert.JSONEq(t, `{"recommendations": [], "count": 0}`, buf.String())
}
