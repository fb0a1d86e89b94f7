package domain

import (
	"encoding/json"
	"time"
)

type IdempotencyStatus string

const (
	IdempotencyStatusPending   IdempotencyStatus = "PENDING"
	IdempotencyStatusCompleted IdempotencyStatus = "COMPLETED"
)

// RecordedFailure is a terminal command failure stored so that replays
// return the same outcome as the first attempt.
type RecordedFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IdempotencyRecord is unique per (Endpoint, Key). It starts as a PENDING
// claim held by Owner and is completed exactly once; a completed record is
// never changed.
type IdempotencyRecord struct {
	Endpoint     string
	Key          string
	RequestHash  string
	Status       IdempotencyStatus
	StoredResult json.RawMessage
	Failure      *RecordedFailure
	Owner        string
	LockedAt     time.Time
	RecordedAt   *time.Time
}

func NewIdempotencyClaim(endpoint, key, requestHash, owner string, now time.Time) *IdempotencyRecord {
	return &IdempotencyRecord{
		Endpoint:    endpoint,
		Key:         key,
		RequestHash: requestHash,
		Status:      IdempotencyStatusPending,
		Owner:       owner,
		LockedAt:    now,
	}
}

func (r *IdempotencyRecord) IsCompleted() bool {
	return r.Status == IdempotencyStatusCompleted
}

func (r *IdempotencyRecord) CompleteWithResult(result json.RawMessage, at time.Time) error {
	if r.IsCompleted() {
		return ErrIdempotencyRecordFinal
	}
	r.StoredResult = result
	r.Status = IdempotencyStatusCompleted
	r.RecordedAt = &at
	return nil
}

func (r *IdempotencyRecord) CompleteWithFailure(failure RecordedFailure, at time.Time) error {
	if r.IsCompleted() {
		return ErrIdempotencyRecordFinal
	}
	r.Failure = &failure
	r.Status = IdempotencyStatusCompleted
	r.RecordedAt = &at
	return nil
}
