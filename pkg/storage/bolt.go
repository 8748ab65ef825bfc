package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var resultsBucket = []byte("results")

// BoltStore persists records in a local bbolt file. Each Put is a single
// transaction so a reader sees either the previous record or the new one.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the cache file at path
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(resultsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(ctx context.Context, key string) (*Record, error) {
	var rec *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(resultsBucket).Get([]byte(key))
		if data == nil {
			return nil
		}

		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("unmarshal record %s: %w", key, err)
		}
		rec = &r
		return nil
	})
	return rec, err
}

func (b *BoltStore) Put(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.Key, err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(resultsBucket).Put([]byte(rec.Key), data)
	})
}

func (b *BoltStore) List(ctx context.Context) ([]*Record, error) {
	var records []*Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(resultsBucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal record %s: %w", k, err)
			}
			records = append(records, &rec)
			return nil
		})
	})
	return records, err
}

func (b *BoltStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
