package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// ResultCache maps candidates to previously aggregated results.
// A miss is reported as (nil, nil).
type ResultCache interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	List(ctx context.Context) ([]*Record, error)
	Close() error
}

// Record is one persisted cache entry
type Record struct {
	Key      string                   `json:"key"`
	Workload string                   `json:"workload"`
	Hardware models.Hardware          `json:"hardware"`
	Result   *models.AggregatedResult `json:"result"`
	Attempts int                      `json:"attempts"`
	Failures int                      `json:"failures"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord builds the cache entry for an exploration result
func NewRecord(scale models.WorkloadScale, result models.ExplorationResult) *Record {
	return &Record{
		Key:       Key(scale, result.Hardware),
		Workload:  scale.Label,
		Hardware:  result.Hardware,
		Result:    result.Result,
		Attempts:  result.Attempts,
		Failures:  result.Failures,
		UpdatedAt: time.Now().UTC(),
	}
}

// ExplorationResult converts the record back into the form guidance observes
func (r *Record) ExplorationResult() models.ExplorationResult {
	return models.ExplorationResult{
		Hardware: r.Hardware,
		Result:   r.Result,
		Attempts: r.Attempts,
		Failures: r.Failures,
	}
}

func (r *Record) clone() *Record {
	copied := *r
	if r.Result != nil {
		result := *r.Result
		copied.Result = &result
	}
	return &copied
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9.\-]+`)

// Key derives the stable cache key of a candidate under a workload.
// It only contains characters safe for file names and object keys. The
// workload segment carries a digest of the raw label, so labels that
// sanitize alike stay apart.
func Key(scale models.WorkloadScale, hw models.Hardware) string {
	db := "none"
	if hw.HasDatabase() {
		db = sanitize(hw.DatabaseInstanceType)
	}
	return fmt.Sprintf("%s/%s/nodes-%d/db-%s",
		workloadSegment(scale.Label), sanitize(hw.InstanceType), hw.NodeCount, db)
}

func workloadSegment(label string) string {
	sum := sha256.Sum256([]byte(label))
	return sanitize(label) + "-" + hex.EncodeToString(sum[:6])
}

func sanitize(s string) string {
	s = unsafeKeyChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unnamed"
	}
	return s
}

// Config selects and configures a cache backend
type Config struct {
	Type string // bolt, postgres, s3, memory
	Path string
	URL  string

	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}
