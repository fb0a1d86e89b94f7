// Package bolt keeps idempotency records in an embedded BoltDB file. It
// serves as the read-through cache in front of Postgres and as a standalone
// record store for single-process deployments.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	boltdb "go.etcd.io/bbolt"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

var (
	recordsBucket = []byte("idempotency_records")
	cacheBucket   = []byte("idempotency_cache")
)

// ErrClaimNotHeld is returned by Complete when the record is no longer a
// PENDING claim of the caller.
var ErrClaimNotHeld = errors.New("idempotency claim is not held by caller")

// Store is safe for concurrent use; bolt serializes writers.
type Store struct {
	db  *boltdb.DB
	ttl time.Duration
	now func() time.Time
}

// cacheEntry is a cached record with its expiry.
type cacheEntry struct {
	Record    recordDoc `json:"record"`
	ExpiresAt time.Time `json:"expires_at"`
}

type recordDoc struct {
	Endpoint     string                   `json:"endpoint"`
	Key          string                   `json:"key"`
	RequestHash  string                   `json:"request_hash"`
	Status       domain.IdempotencyStatus `json:"status"`
	StoredResult json.RawMessage          `json:"stored_result,omitempty"`
	Failure      *domain.RecordedFailure  `json:"failure,omitempty"`
	Owner        string                   `json:"owner"`
	LockedAt     time.Time                `json:"locked_at"`
	RecordedAt   *time.Time               `json:"recorded_at,omitempty"`
}

// Open opens (or creates) the database at path. Cached records are served
// for ttl after they were put.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := boltdb.Open(path, 0600, &boltdb.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *boltdb.Tx) error {
		for _, name := range [][]byte{recordsBucket, cacheBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bolt buckets: %w", err)
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func recordKey(endpoint, key string) []byte {
	return []byte(endpoint + "\x00" + key)
}

func (s *Store) Find(ctx context.Context, endpoint, key string) (*domain.IdempotencyRecord, error) {
	var doc recordDoc
	err := s.db.View(func(tx *boltdb.Tx) error {
		v := tx.Bucket(recordsBucket).Get(recordKey(endpoint, key))
		if v == nil {
			return application.ErrIdempotencyRecordNotFound
		}
		return json.Unmarshal(v, &doc)
	})
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// Claim writes the record only if the key is free. The check and the write
// share one bolt write transaction.
func (s *Store) Claim(ctx context.Context, record *domain.IdempotencyRecord) (bool, error) {
	claimed := false
	err := s.db.Update(func(tx *boltdb.Tx) error {
		b := tx.Bucket(recordsBucket)
		k := recordKey(record.Endpoint, record.Key)
		if b.Get(k) != nil {
			return nil
		}
		data, err := json.Marshal(fromDomain(record))
		if err != nil {
			return err
		}
		claimed = true
		return b.Put(k, data)
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (s *Store) Complete(ctx context.Context, record *domain.IdempotencyRecord) error {
	return s.db.Update(func(tx *boltdb.Tx) error {
		b := tx.Bucket(recordsBucket)
		k := recordKey(record.Endpoint, record.Key)
		held, err := heldBy(b.Get(k), record.Owner)
		if err != nil {
			return err
		}
		if !held {
			return fmt.Errorf("%w: %s/%s", ErrClaimNotHeld, record.Endpoint, record.Key)
		}
		data, err := json.Marshal(fromDomain(record))
		if err != nil {
			return err
		}
		return b.Put(k, data)
	})
}

// Release deletes a PENDING claim of owner. Anything else is left alone.
func (s *Store) Release(ctx context.Context, endpoint, key, owner string) error {
	return s.db.Update(func(tx *boltdb.Tx) error {
		b := tx.Bucket(recordsBucket)
		k := recordKey(endpoint, key)
		held, err := heldBy(b.Get(k), owner)
		if err != nil || !held {
			return err
		}
		return b.Delete(k)
	})
}

func heldBy(v []byte, owner string) (bool, error) {
	if v == nil {
		return false, nil
	}
	var doc recordDoc
	if err := json.Unmarshal(v, &doc); err != nil {
		return false, err
	}
	return doc.Status == domain.IdempotencyStatusPending && doc.Owner == owner, nil
}

// Get returns a cached record that has not expired yet.
func (s *Store) Get(ctx context.Context, endpoint, key string) (*domain.IdempotencyRecord, error) {
	var entry cacheEntry
	err := s.db.View(func(tx *boltdb.Tx) error {
		v := tx.Bucket(cacheBucket).Get(recordKey(endpoint, key))
		if v == nil {
			return application.ErrIdempotencyRecordNotFound
		}
		return json.Unmarshal(v, &entry)
	})
	if err != nil {
		return nil, err
	}
	if !s.now().Before(entry.ExpiresAt) {
		return nil, application.ErrIdempotencyRecordNotFound
	}
	return entry.Record.toDomain(), nil
}

// Put caches a completed record. Pending claims are never cached.
func (s *Store) Put(ctx context.Context, record *domain.IdempotencyRecord) error {
	if !record.IsCompleted() {
		return fmt.Errorf("refusing to cache pending record %s/%s", record.Endpoint, record.Key)
	}
	data, err := json.Marshal(cacheEntry{Record: fromDomain(record), ExpiresAt: s.now().Add(s.ttl)})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *boltdb.Tx) error {
		return tx.Bucket(cacheBucket).Put(recordKey(record.Endpoint, record.Key), data)
	})
}

// PurgeExpired drops up to limit cache entries that expired before now.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	purged := 0
	err := s.db.Update(func(tx *boltdb.Tx) error {
		b := tx.Bucket(cacheBucket)
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if len(expired) == limit {
				return nil
			}
			var entry cacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			if !now.Before(entry.ExpiresAt) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		// Deleting while a cursor walks the bucket skips entries.
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		purged = len(expired)
		return nil
	})
	return purged, err
}

func fromDomain(r *domain.IdempotencyRecord) recordDoc {
	return recordDoc{
		Endpoint:     r.Endpoint,
		Key:          r.Key,
		RequestHash:  r.RequestHash,
		Status:       r.Status,
		StoredResult: r.StoredResult,
		Failure:      r.Failure,
		Owner:        r.Owner,
		LockedAt:     r.LockedAt,
		RecordedAt:   r.RecordedAt,
	}
}

func (d recordDoc) toDomain() *domain.IdempotencyRecord {
	return &domain.IdempotencyRecord{
		Endpoint:     d.Endpoint,
		Key:          d.Key,
		RequestHash:  d.RequestHash,
		Status:       d.Status,
		StoredResult: d.StoredResult,
		Failure:      d.Failure,
		Owner:        d.Owner,
		LockedAt:     d.LockedAt,
		RecordedAt:   d.RecordedAt,
	}
}

var (
	_ application.IdempotencyStore = (*Store)(nil)
	_ application.RecordCache      = (*Store)(nil)
)
