// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

// Package credstore holds the engine process's live delegation-token
// set. The store is process-lifetime state: seeded once at startup
// from the ambient security context, read by every request-handling
// goroutine that authenticates downstream, and written only through
// the reconciler's batch apply. There is no teardown and no
// persistence — the tokens feed an in-process auth layer and die with
// the process.
package credstore

import (
	"sync"
	"time"

	"github.com/sqlward/sqlward/lib/token"
)

// Store is a thread-safe map of alias to held token. Writers use
// ApplyAll so concurrent readers never observe a partially applied
// update set.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]token.Token
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tokens: make(map[string]token.Token),
	}
}

// Seed loads the initial token set. Intended for process startup;
// it overwrites existing entries unconditionally (the external
// authority resetting the store is outside the no-regression rule).
func (s *Store) Seed(tokens []token.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range tokens {
		s.tokens[entry.Alias] = entry
	}
}

// Get returns the token held under alias.
func (s *Store) Get(alias string) (token.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	held, ok := s.tokens[alias]
	return held, ok
}

// AmbientPrimary returns the engine's default metastore token: the
// primary-kind token stored under the empty alias. The reconciler
// anchors metastore replacement to this entry.
func (s *Store) AmbientPrimary() (token.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	held, ok := s.tokens[token.AmbientAlias]
	if !ok || held.Kind != token.KindMetastore {
		return token.Token{}, false
	}
	return held, true
}

// ApplyAll installs every entry of updates in one critical section.
// Readers observe either none or all of the batch. An empty updates
// map leaves the store untouched.
func (s *Store) ApplyAll(updates map[string]token.Token) {
	if len(updates) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for alias, entry := range updates {
		s.tokens[alias] = entry
	}
}

// Len returns the number of held tokens.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Snapshot returns a copy of the held token set. The copy is
// consistent (taken under one read lock) and safe for the caller to
// inspect without further locking.
func (s *Store) Snapshot() map[string]token.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]token.Token, len(s.tokens))
	for alias, entry := range s.tokens {
		snapshot[alias] = entry
	}
	return snapshot
}

// Aging returns the aliases of tokens whose issue date is older than
// maxAge as of now. Tokens with unknown issue dates are never
// reported — there is nothing to measure their age against. The
// engine daemon logs the result periodically so operators notice a
// gateway that has stopped renewing.
func (s *Store) Aging(now time.Time, maxAge time.Duration) []string {
	cutoff := now.Add(-maxAge).UnixMilli()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var aged []string
	for alias, entry := range s.tokens {
		if entry.HasIssueDate() && entry.IssueDate < cutoff {
			aged = append(aged, alias)
		}
	}
	return aged
}
