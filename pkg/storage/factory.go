package storage

import (
	"context"
	"fmt"
)

// New opens the cache backend named by config.Type. Remote backends are
// fronted by a MemoryStore so repeated lookups in one run stay local.
func New(ctx context.Context, config Config) (ResultCache, error) {
	var (
		cache ResultCache
		err   error
	)

	switch config.Type {
	case "", "bolt":
		cache, err = NewBoltStore(config.Path)
	case "postgres":
		var pg *PostgresStore
		if pg, err = NewPostgresStore(config.URL); err == nil {
			cache = NewLayered(NewMemoryStore(), pg)
		}
	case "s3":
		var remote *S3Store
		if remote, err = NewS3Store(ctx, config); err == nil {
			cache = NewLayered(NewMemoryStore(), remote)
		}
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	return cache, nil
}
