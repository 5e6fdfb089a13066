// Package boltdb implements storage.Store on top of a single bbolt file:
// one bucket per collection, JSON values keyed by record key.
package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/checkkeeper/internal/server/storage"
)

// Storage represents BoltDB storage implementation of the record store
type Storage struct {
	db *bbolt.DB
}

var _ storage.Store = (*Storage)(nil)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Таймаут на случай, если файл уже заблокирован другим процессом
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает bucket для каждой коллекции, если его нет
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range storage.Collections {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// Create stores value under key, failing if the key is already present
func (s *Storage) Create(ctx context.Context, collection, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", collection, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := collectionBucket(tx, collection)
		if err != nil {
			return err
		}

		// Проверка и запись в одной транзакции: bbolt допускает только одного писателя
		if bucket.Get([]byte(key)) != nil {
			return storage.ErrAlreadyExists
		}

		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to save %s record: %w", collection, err)
		}

		return nil
	})
}

// Read decodes the record stored under key into dst
func (s *Storage) Read(ctx context.Context, collection, key string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := collectionBucket(tx, collection)
		if err != nil {
			return err
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrNotFound
		}

		// data валиден только внутри транзакции, поэтому декодируем здесь
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("failed to unmarshal %s record: %w", collection, err)
		}

		return nil
	})
}

// Update replaces the record stored under key
func (s *Storage) Update(ctx context.Context, collection, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", collection, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := collectionBucket(tx, collection)
		if err != nil {
			return err
		}

		if bucket.Get([]byte(key)) == nil {
			return storage.ErrNotFound
		}

		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to update %s record: %w", collection, err)
		}

		return nil
	})
}

// Delete removes the record stored under key
func (s *Storage) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := collectionBucket(tx, collection)
		if err != nil {
			return err
		}

		if bucket.Get([]byte(key)) == nil {
			return storage.ErrNotFound
		}

		if err := bucket.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete %s record: %w", collection, err)
		}

		return nil
	})
}

func collectionBucket(tx *bbolt.Tx, collection string) (*bbolt.Bucket, error) {
	bucket := tx.Bucket([]byte(collection))
	if bucket == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownCollection, collection)
	}
	return bucket, nil
}
