package pricing

import (
	"context"
	"fmt"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// HoursPerMonth is the average month AWS bills on-demand instances for
const HoursPerMonth = 730

// Provider defines the interface for instance pricing data
type Provider interface {
	HourlyPrice(ctx context.Context, instanceType string) (*models.CostInfo, error)
	Name() string
}

type Config struct {
	Provider string `yaml:"provider"`
	Region   string `yaml:"region"`
	// DefaultVCPUHourly prices instance types missing from the table
	DefaultVCPUHourly float64 `yaml:"defaultVcpuHourly"`
	// Overrides are hourly USD prices keyed by instance type
	Overrides map[string]float64 `yaml:"overrides"`
}

// Cost is what a candidate costs to run
type Cost struct {
	HourlyUSD  float64
	MonthlyUSD float64
}

// HardwareCost prices every node plus the database instance, if any
func HardwareCost(ctx context.Context, p Provider, hw models.Hardware) (Cost, error) {
	node, err := p.HourlyPrice(ctx, hw.InstanceType)
	if err != nil {
		return Cost{}, fmt.Errorf("price %s: %w", hw.InstanceType, err)
	}
	hourly := node.HourlyUSD * float64(hw.NodeCount)

	if hw.HasDatabase() {
		db, err := p.HourlyPrice(ctx, hw.DatabaseInstanceType)
		if err != nil {
			return Cost{}, fmt.Errorf("price database %s: %w", hw.DatabaseInstanceType, err)
		}
		hourly += db.HourlyUSD
	}

	return Cost{HourlyUSD: hourly, MonthlyUSD: hourly * HoursPerMonth}, nil
}
