package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// vCPUs by instance size suffix
var sizeVCPUs = map[string]int{
	"medium": 1,
	"large":  2,
	"xlarge": 4,
	"metal":  96,
}

// DefaultProvider estimates prices from the vCPU count implied by the instance size
type DefaultProvider struct {
	vcpuHourly float64
}

func NewDefaultProvider(vcpuHourly float64) *DefaultProvider {
	if vcpuHourly == 0 {
		vcpuHourly = 0.05 // Conservative default
	}
	return &DefaultProvider{vcpuHourly: vcpuHourly}
}

func (d *DefaultProvider) Name() string {
	return "default"
}

func (d *DefaultProvider) HourlyPrice(ctx context.Context, instanceType string) (*models.CostInfo, error) {
	vcpus, err := VCPUs(instanceType)
	if err != nil {
		return nil, err
	}
	return &models.CostInfo{
		InstanceType: instanceType,
		Region:       "unknown",
		HourlyUSD:    float64(vcpus) * d.vcpuHourly,
		Provider:     "default",
	}, nil
}

// VCPUs derives the vCPU count from names like c5.4xlarge
func VCPUs(instanceType string) (int, error) {
	_, size, ok := strings.Cut(instanceType, ".")
	if !ok {
		return 0, fmt.Errorf("instance type %q has no size", instanceType)
	}
	if vcpus, ok := sizeVCPUs[size]; ok {
		return vcpus, nil
	}

	multiplier, found := strings.CutSuffix(size, "xlarge")
	if !found {
		return 0, fmt.Errorf("unknown instance size %q", size)
	}
	n, err := strconv.Atoi(multiplier)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("unknown instance size %q", size)
	}
	return n * sizeVCPUs["xlarge"], nil
}
