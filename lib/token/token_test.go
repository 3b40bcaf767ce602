// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"testing"
)

func TestNewerThan_KnownDates(t *testing.T) {
	tests := []struct {
		name      string
		candidate int64
		held      int64
		want      bool
	}{
		{"strictly newer", 2000, 1000, true},
		{"equal dates", 1000, 1000, false},
		{"strictly older", 1000, 2000, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			candidate := Token{IssueDate: test.candidate}
			held := Token{IssueDate: test.held}
			if got := candidate.NewerThan(held); got != test.want {
				t.Errorf("NewerThan(%d over %d) = %v, want %v",
					test.candidate, test.held, got, test.want)
			}
		})
	}
}

// TestNewerThan_UnknownDates pins the update-favoring asymmetry: an
// unknown issue date on EITHER side means the candidate wins,
// including unknown-over-unknown. This is intentional behavior, not
// an oversight — if this test starts failing, someone has "fixed"
// the comparison rule and changed the engine's security posture.
func TestNewerThan_UnknownDates(t *testing.T) {
	known := Token{IssueDate: 5000}
	unknown := Token{}

	if !unknown.NewerThan(known) {
		t.Error("unknown-date candidate must win over known-date held token")
	}
	if !known.NewerThan(unknown) {
		t.Error("known-date candidate must win over unknown-date held token")
	}
	if !unknown.NewerThan(unknown) {
		t.Error("unknown-date candidate must win over unknown-date held token")
	}
}

func TestIntersectsLocations(t *testing.T) {
	candidate := Token{
		Kind:      KindMetastore,
		Locations: []string{"thrift://ms-a:9083", "thrift://ms-b:9083"},
	}

	overlapping := map[string]struct{}{
		"thrift://ms-b:9083": {},
		"thrift://ms-c:9083": {},
	}
	if !candidate.IntersectsLocations(overlapping) {
		t.Error("expected intersection with overlapping reference set")
	}

	disjoint := map[string]struct{}{
		"thrift://ms-x:9083": {},
	}
	if candidate.IntersectsLocations(disjoint) {
		t.Error("expected no intersection with disjoint reference set")
	}

	if candidate.IntersectsLocations(map[string]struct{}{}) {
		t.Error("expected no intersection with empty reference set")
	}
}

func TestFingerprint(t *testing.T) {
	first := Token{Payload: []byte("payload-one")}
	second := Token{Payload: []byte("payload-two")}

	if first.Fingerprint() != first.Fingerprint() {
		t.Error("fingerprint is not stable for identical payloads")
	}
	if first.Fingerprint() == second.Fingerprint() {
		t.Error("distinct payloads produced identical fingerprints")
	}
	if length := len(first.Fingerprint()); length != 16 {
		t.Errorf("fingerprint length = %d, want 16 hex characters", length)
	}
}
