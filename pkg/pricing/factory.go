package pricing

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// PriceTTL bounds how long a looked up price is reused
const PriceTTL = 24 * time.Hour

// NewProvider creates a pricing provider from config, layering price overrides
// on top and caching the result
func NewProvider(config Config) (Provider, error) {
	var base Provider
	switch config.Provider {
	case "", "aws":
		base = NewAWSProvider(config.Region)
	case "default":
		base = NewDefaultProvider(config.DefaultVCPUHourly)
	default:
		return nil, fmt.Errorf("unknown provider: %s", config.Provider)
	}

	if len(config.Overrides) > 0 {
		base = &overrideProvider{base: base, prices: maps.Clone(config.Overrides)}
	}
	return NewCachedProvider(base, PriceTTL), nil
}

// overrideProvider answers from fixed prices before falling back to base
type overrideProvider struct {
	base   Provider
	prices map[string]float64
}

func (o *overrideProvider) Name() string {
	return o.base.Name() + "+overrides"
}

func (o *overrideProvider) HourlyPrice(ctx context.Context, instanceType string) (*models.CostInfo, error) {
	if hourly, ok := o.prices[instanceType]; ok {
		return &models.CostInfo{
			InstanceType: instanceType,
			Region:       "override",
			HourlyUSD:    hourly,
			Provider:     o.Name(),
		}, nil
	}
	return o.base.HourlyPrice(ctx, instanceType)
}
