// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package statestore

import (
	"context"
	"sync"
	"time"

	"github.com/henskjold73/hydropi/window"
)

// MemoryStore is a Store that lives only as long as the process. Optional
// errors can be injected to simulate failing writes.
type MemoryStore struct {
	mu       sync.Mutex
	lastTime *time.Time
	last     window.Result

	// TimeErr and AggregateErr, when set, are returned by the corresponding
	// save without modifying the record.
	TimeErr      error
	AggregateErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadLastTime(context.Context) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastTime == nil {
		return time.Time{}, false
	}
	return *s.lastTime, true
}

func (s *MemoryStore) SaveLastTime(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.TimeErr != nil {
		return s.TimeErr
	}
	s.lastTime = &t
	return nil
}

func (s *MemoryStore) LoadLastAggregate(
	context.Context,
) (window.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return nil, false
	}
	return s.last.Clone(), true
}

func (s *MemoryStore) SaveLastAggregate(
	_ context.Context,
	res window.Result,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AggregateErr != nil {
		return s.AggregateErr
	}
	if res == nil {
		res = window.Result{}
	}
	s.last = res.Clone()
	return nil
}
