package models

// Measurement is the raw outcome of one trial
type Measurement struct {
	// Apdex is the 0-1 user satisfaction score
	Apdex float64 `json:"apdex"`
	// ErrorRate is the 0-1 fraction of failed requests
	ErrorRate float64 `json:"error_rate"`
	// Throughput in requests per second
	Throughput float64 `json:"throughput"`
}

// Stat is a central value with a symmetric +/- band
type Stat struct {
	Mean   float64 `json:"mean"`
	Spread float64 `json:"spread"`
}

// AggregatedResult reduces the successful repeats of one candidate
type AggregatedResult struct {
	Hardware   Hardware `json:"hardware"`
	Apdex      Stat     `json:"apdex"`
	ErrorRate  Stat     `json:"error_rate"`
	Throughput Stat     `json:"throughput"`

	// Repeats counts successful measurements
	Repeats int `json:"repeats"`
}
