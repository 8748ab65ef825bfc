package pricing

import (
	"context"
	"fmt"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// On-demand Linux prices in USD per hour
var awsOnDemand = map[string]map[string]float64{
	"eu-west-1": {
		"c5.large":    0.096,
		"c5.xlarge":   0.192,
		"c5.2xlarge":  0.384,
		"c5.4xlarge":  0.768,
		"c5.9xlarge":  1.728,
		"c5.18xlarge": 3.456,
		"m5.large":    0.107,
		"m5.xlarge":   0.214,
		"m5.2xlarge":  0.428,
		"m5.4xlarge":  0.856,
		"m5.12xlarge": 2.568,
		"r5.large":    0.141,
		"r5.xlarge":   0.282,
		"r5.2xlarge":  0.564,
		"r5.4xlarge":  1.128,
	},
	"us-east-1": {
		"c5.large":    0.085,
		"c5.xlarge":   0.17,
		"c5.2xlarge":  0.34,
		"c5.4xlarge":  0.68,
		"c5.9xlarge":  1.53,
		"c5.18xlarge": 3.06,
		"m5.large":    0.096,
		"m5.xlarge":   0.192,
		"m5.2xlarge":  0.384,
		"m5.4xlarge":  0.768,
		"m5.12xlarge": 2.304,
		"r5.large":    0.126,
		"r5.xlarge":   0.252,
		"r5.2xlarge":  0.504,
		"r5.4xlarge":  1.008,
	},
}

// AWSProvider implements EC2 on-demand pricing from a per-region table
type AWSProvider struct {
	region string
}

func NewAWSProvider(region string) *AWSProvider {
	if region == "" {
		region = "eu-west-1"
	}
	return &AWSProvider{region: region}
}

func (a *AWSProvider) Name() string {
	return "aws"
}

func (a *AWSProvider) HourlyPrice(ctx context.Context, instanceType string) (*models.CostInfo, error) {
	prices, ok := awsOnDemand[a.region]
	if !ok {
		return nil, fmt.Errorf("no AWS prices for region %s", a.region)
	}
	hourly, ok := prices[instanceType]
	if !ok {
		return nil, fmt.Errorf("no AWS price for %s in %s", instanceType, a.region)
	}

	return &models.CostInfo{
		InstanceType: instanceType,
		Region:       a.region,
		HourlyUSD:    hourly,
		Provider:     "aws",
	}, nil
}
