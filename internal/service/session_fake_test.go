package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
)

// fakeSession runs fn with a nil transaction and counts commits and rollbacks.
type fakeSession struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
	closed    bool
	closeErr  error
}

func (s *fakeSession) WithTx(_ context.Context, fn func(pgx.Tx) error) error {
	err := fn(nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}
