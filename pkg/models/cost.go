package models

// CostInfo represents pricing information for one instance type
type CostInfo struct {
	InstanceType string
	Region       string
	HourlyUSD    float64
	Provider     string
}
