// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

// sampleRequest is a representative renew-socket request using cbor
// struct tags.
type sampleRequest struct {
	Action      string `cbor:"action"`
	Credentials string `cbor:"credentials,omitempty"`
	Count       int    `cbor:"count"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRequest{
		Action:      "renew",
		Credentials: "c3FsZ2F0ZQ==",
		Count:       3,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleRequest
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	// Map encoding must be byte-identical regardless of insertion
	// order — fingerprints and store comparisons depend on it.
	first := map[string]int{"alpha": 1, "beta": 2, "gamma": 3}
	second := map[string]int{"gamma": 3, "alpha": 1, "beta": 2}

	firstBytes, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal first: %v", err)
	}
	secondBytes, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal second: %v", err)
	}
	if !bytes.Equal(firstBytes, secondBytes) {
		t.Errorf("deterministic encoding violated: %x != %x", firstBytes, secondBytes)
	}
}

func TestDecodeIntoAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"key": "value"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	asMap, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if asMap["key"] != "value" {
		t.Errorf("decoded[key] = %v, want value", asMap["key"])
	}
}

func TestStreamEncoderDecoder(t *testing.T) {
	var buffer bytes.Buffer
	if err := NewEncoder(&buffer).Encode(sampleRequest{Action: "status"}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded sampleRequest
	if err := NewDecoder(&buffer).Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Action != "status" {
		t.Errorf("Action = %q, want status", decoded.Action)
	}
}
