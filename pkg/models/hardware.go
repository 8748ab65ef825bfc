package models

import "fmt"

// Hardware is a candidate configuration under test. It is a plain value:
// two candidates with the same fields are the same candidate.
type Hardware struct {
	InstanceType         string `json:"instance_type" yaml:"instanceType"`
	NodeCount            int    `json:"node_count" yaml:"nodeCount"`
	DatabaseInstanceType string `json:"database_instance_type,omitempty" yaml:"databaseInstanceType,omitempty"`
}

// WithDatabase returns a copy of h paired with the given database instance type
func (h Hardware) WithDatabase(instanceType string) Hardware {
	h.DatabaseInstanceType = instanceType
	return h
}

// HasDatabase reports whether a database instance type is part of the candidate
func (h Hardware) HasDatabase() bool {
	return h.DatabaseInstanceType != ""
}

func (h Hardware) String() string {
	if h.HasDatabase() {
		return fmt.Sprintf("%d x %s + db %s", h.NodeCount, h.InstanceType, h.DatabaseInstanceType)
	}
	return fmt.Sprintf("%d x %s", h.NodeCount, h.InstanceType)
}
