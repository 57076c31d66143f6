package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("cache")

// Bolt is a file-backed cache. Expired entries are dropped on read.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt cache: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, key string) ([]byte, bool, error) {
	var e entry
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(key))
		if raw == nil {
			return nil
		}
		// raw is only valid inside the transaction; Unmarshal copies it.
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	if e.expired(time.Now()) {
		_ = b.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketName).Delete([]byte(key))
		})
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (b *Bolt) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	raw, err := json.Marshal(entry{Expires: expiry(ttl), Value: value})
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), raw)
	})
}

func (b *Bolt) Clear(_ context.Context) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
