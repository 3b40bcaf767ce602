// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package credstore

import (
	"sync"
	"testing"
	"time"

	"github.com/sqlward/sqlward/lib/token"
)

func TestSeedAndGet(t *testing.T) {
	store := New()
	store.Seed([]token.Token{
		{Kind: token.KindMetastore, Alias: "", IssueDate: 1000, Payload: []byte("ms")},
		{Kind: "hdfs", Alias: "hdfs://nn:8020", IssueDate: 2000, Payload: []byte("dfs")},
	})

	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}

	held, ok := store.Get("hdfs://nn:8020")
	if !ok {
		t.Fatal("Get missed a seeded alias")
	}
	if held.IssueDate != 2000 {
		t.Errorf("IssueDate = %d, want 2000", held.IssueDate)
	}

	if _, ok := store.Get("absent"); ok {
		t.Error("Get returned a token for an absent alias")
	}
}

func TestAmbientPrimary(t *testing.T) {
	store := New()
	if _, ok := store.AmbientPrimary(); ok {
		t.Error("empty store reported an ambient primary token")
	}

	// A non-metastore token under the empty alias does not count.
	store.Seed([]token.Token{{Kind: "hdfs", Alias: "", Payload: []byte("x")}})
	if _, ok := store.AmbientPrimary(); ok {
		t.Error("non-metastore empty-alias token reported as ambient primary")
	}

	store.Seed([]token.Token{{Kind: token.KindMetastore, Alias: "", IssueDate: 42, Payload: []byte("ms")}})
	held, ok := store.AmbientPrimary()
	if !ok {
		t.Fatal("ambient primary token not found after seeding")
	}
	if held.IssueDate != 42 {
		t.Errorf("IssueDate = %d, want 42", held.IssueDate)
	}
}

func TestApplyAll_EmptyIsNoop(t *testing.T) {
	store := New()
	store.Seed([]token.Token{{Kind: "hdfs", Alias: "a", IssueDate: 1, Payload: []byte("p")}})

	before := store.Snapshot()
	store.ApplyAll(nil)
	store.ApplyAll(map[string]token.Token{})
	after := store.Snapshot()

	if len(before) != len(after) {
		t.Fatalf("store size changed: %d -> %d", len(before), len(after))
	}
	if after["a"].IssueDate != 1 {
		t.Errorf("token mutated by empty apply")
	}
}

// TestApplyAll_AtomicVisibility hammers the store with a reader that
// checks batch consistency while a writer applies paired updates.
// The two aliases are always written together with matching issue
// dates; a reader observing mismatched dates has seen a torn batch.
func TestApplyAll_AtomicVisibility(t *testing.T) {
	store := New()
	store.ApplyAll(map[string]token.Token{
		"left":  {Kind: "k", Alias: "left", IssueDate: 1, Payload: []byte("l")},
		"right": {Kind: "k", Alias: "right", IssueDate: 1, Payload: []byte("r")},
	})

	done := make(chan struct{})
	var readerErr error
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			snapshot := store.Snapshot()
			if snapshot["left"].IssueDate != snapshot["right"].IssueDate {
				readerErr = &tornBatchError{left: snapshot["left"].IssueDate, right: snapshot["right"].IssueDate}
				return
			}
		}
	}()

	for issue := int64(2); issue <= 200; issue++ {
		store.ApplyAll(map[string]token.Token{
			"left":  {Kind: "k", Alias: "left", IssueDate: issue, Payload: []byte("l")},
			"right": {Kind: "k", Alias: "right", IssueDate: issue, Payload: []byte("r")},
		})
	}
	close(done)
	wg.Wait()

	if readerErr != nil {
		t.Fatalf("reader observed torn batch: %v", readerErr)
	}
}

type tornBatchError struct {
	left, right int64
}

func (e *tornBatchError) Error() string {
	return "left=" + time.UnixMilli(e.left).String() + " right=" + time.UnixMilli(e.right).String()
}

func TestAging(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	store := New()
	store.Seed([]token.Token{
		{Kind: "hdfs", Alias: "old", IssueDate: now.Add(-2 * time.Hour).UnixMilli(), Payload: []byte("o")},
		{Kind: "hdfs", Alias: "fresh", IssueDate: now.Add(-time.Minute).UnixMilli(), Payload: []byte("f")},
		{Kind: "hdfs", Alias: "undated", Payload: []byte("u")},
	})

	aged := store.Aging(now, time.Hour)
	if len(aged) != 1 || aged[0] != "old" {
		t.Errorf("Aging = %v, want [old]", aged)
	}
}
