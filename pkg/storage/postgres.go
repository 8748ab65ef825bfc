package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/opscart/hardware-explorer/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements ResultCache using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		dsn: dsn,
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations
func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

const selectColumns = `
	cache_key, workload, instance_type, node_count, database_instance_type,
	has_result, apdex_mean, apdex_spread, error_rate_mean, error_rate_spread,
	throughput_mean, throughput_spread, repeats, attempts, failures, updated_at
`

// Put upserts a record, the last writer wins
func (s *PostgresStore) Put(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO hardware_results (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (cache_key) DO UPDATE SET
			has_result = EXCLUDED.has_result,
			apdex_mean = EXCLUDED.apdex_mean,
			apdex_spread = EXCLUDED.apdex_spread,
			error_rate_mean = EXCLUDED.error_rate_mean,
			error_rate_spread = EXCLUDED.error_rate_spread,
			throughput_mean = EXCLUDED.throughput_mean,
			throughput_spread = EXCLUDED.throughput_spread,
			repeats = EXCLUDED.repeats,
			attempts = EXCLUDED.attempts,
			failures = EXCLUDED.failures,
			updated_at = EXCLUDED.updated_at
	`

	var apdex, apdexSpread, errorRate, errorRateSpread, throughput, throughputSpread sql.NullFloat64
	repeats := 0
	if r := rec.Result; r != nil {
		apdex = sql.NullFloat64{Float64: r.Apdex.Mean, Valid: true}
		apdexSpread = sql.NullFloat64{Float64: r.Apdex.Spread, Valid: true}
		errorRate = sql.NullFloat64{Float64: r.ErrorRate.Mean, Valid: true}
		errorRateSpread = sql.NullFloat64{Float64: r.ErrorRate.Spread, Valid: true}
		throughput = sql.NullFloat64{Float64: r.Throughput.Mean, Valid: true}
		throughputSpread = sql.NullFloat64{Float64: r.Throughput.Spread, Valid: true}
		repeats = r.Repeats
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.Key, rec.Workload, rec.Hardware.InstanceType, rec.Hardware.NodeCount,
		rec.Hardware.DatabaseInstanceType, rec.Result != nil,
		apdex, apdexSpread, errorRate, errorRateSpread, throughput, throughputSpread,
		repeats, rec.Attempts, rec.Failures, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", rec.Key, err)
	}
	return nil
}

// Get retrieves a record by key
func (s *PostgresStore) Get(ctx context.Context, key string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM hardware_results WHERE cache_key = $1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List retrieves every record ordered by key
func (s *PostgresStore) List(ctx context.Context) ([]*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM hardware_results ORDER BY cache_key`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var hasResult bool
	var apdex, apdexSpread, errorRate, errorRateSpread, throughput, throughputSpread sql.NullFloat64
	var repeats int

	err := row.Scan(
		&rec.Key, &rec.Workload, &rec.Hardware.InstanceType, &rec.Hardware.NodeCount,
		&rec.Hardware.DatabaseInstanceType, &hasResult,
		&apdex, &apdexSpread, &errorRate, &errorRateSpread, &throughput, &throughputSpread,
		&repeats, &rec.Attempts, &rec.Failures, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if hasResult {
		rec.Result = &models.AggregatedResult{
			Hardware:   rec.Hardware,
			Apdex:      models.Stat{Mean: apdex.Float64, Spread: apdexSpread.Float64},
			ErrorRate:  models.Stat{Mean: errorRate.Float64, Spread: errorRateSpread.Float64},
			Throughput: models.Stat{Mean: throughput.Float64, Spread: throughputSpread.Float64},
			Repeats:    repeats,
		}
	}

	return &rec, nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
