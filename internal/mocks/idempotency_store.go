package mocks

import (
	"context"
	"sync"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

// MockIdempotencyStore is an in-memory IdempotencyStore and RecordCache.
// FindErr, when set, is returned by every Find and Get; CompleteErr by
// every Complete and Put.
type MockIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]domain.IdempotencyRecord
	finds   int

	FindErr     error
	CompleteErr error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{records: make(map[string]domain.IdempotencyRecord)}
}

func recordKey(endpoint, key string) string { return endpoint + "\x00" + key }

func (s *MockIdempotencyStore) Find(_ context.Context, endpoint, key string) (*domain.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	rec, ok := s.records[recordKey(endpoint, key)]
	if !ok {
		return nil, application.ErrIdempotencyRecordNotFound
	}
	return &rec, nil
}

func (s *MockIdempotencyStore) Claim(_ context.Context, record *domain.IdempotencyRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey(record.Endpoint, record.Key)
	if _, ok := s.records[k]; ok {
		return false, nil
	}
	s.records[k] = *record
	return true, nil
}

func (s *MockIdempotencyStore) Complete(_ context.Context, record *domain.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CompleteErr != nil {
		return s.CompleteErr
	}
	s.records[recordKey(record.Endpoint, record.Key)] = *record
	return nil
}

func (s *MockIdempotencyStore) Release(_ context.Context, endpoint, key, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey(endpoint, key)
	if rec, ok := s.records[k]; ok && !rec.IsCompleted() && rec.Owner == owner {
		delete(s.records, k)
	}
	return nil
}

func (s *MockIdempotencyStore) Get(ctx context.Context, endpoint, key string) (*domain.IdempotencyRecord, error) {
	return s.Find(ctx, endpoint, key)
}

func (s *MockIdempotencyStore) Put(ctx context.Context, record *domain.IdempotencyRecord) error {
	return s.Complete(ctx, record)
}

// Seed stores record as-is.
func (s *MockIdempotencyStore) Seed(record domain.IdempotencyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey(record.Endpoint, record.Key)] = record
}

func (s *MockIdempotencyStore) Has(endpoint, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[recordKey(endpoint, key)]
	return ok
}

// Finds reports how many lookups reached the store.
func (s *MockIdempotencyStore) Finds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds
}

func (s *MockIdempotencyStore) snapshot() func() {
	s.mu.Lock()
	saved := make(map[string]domain.IdempotencyRecord, len(s.records))
	for k, v := range s.records {
		saved[k] = v
	}
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.records = saved
		s.mu.Unlock()
	}
}

var (
	_ application.IdempotencyStore = (*MockIdempotencyStore)(nil)
	_ application.RecordCache      = (*MockIdempotencyStore)(nil)
)
