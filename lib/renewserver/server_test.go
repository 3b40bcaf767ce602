// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package renewserver

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/sqlward/sqlward/lib/credstore"
	"github.com/sqlward/sqlward/lib/reconcile"
	"github.com/sqlward/sqlward/lib/testutil"
	"github.com/sqlward/sqlward/lib/token"
)

// startTestServer runs a server over a seeded store and returns the
// socket path. The server is shut down and drained in cleanup.
func startTestServer(t *testing.T) (string, *credstore.Store) {
	t.Helper()

	store := credstore.New()
	store.Seed([]token.Token{
		{Kind: token.KindMetastore, Alias: token.AmbientAlias, IssueDate: 1000, Payload: []byte("held-ms")},
		{Kind: "hdfs", Alias: "hdfs://nn:8020", IssueDate: 1000, Payload: []byte("held-hdfs")},
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reconciler := reconcile.New(store,
		reconcile.NewLocationMatcher([]string{"thrift://ms-a:9083"}, store, logger), logger)

	socketPath := filepath.Join(t.TempDir(), "engine.sock")
	server := New(socketPath, logger)
	api := &API{Reconciler: reconciler, Store: store, Logger: logger}
	api.Register(server)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "waiting for Serve to return"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})

	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server ready")
	return socketPath, store
}

func encodeBundle(t *testing.T, tokens ...token.Token) string {
	t.Helper()
	encoded, err := token.EncodeBundle(&token.Bundle{Tokens: tokens}, token.CompressionNone)
	if err != nil {
		t.Fatalf("EncodeBundle: %v", err)
	}
	return encoded
}

func call(t *testing.T, socketPath string, request any) *Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	response, err := Call(ctx, socketPath, request)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	return response
}

func TestRenewAppliesTokens(t *testing.T) {
	socketPath, store := startTestServer(t)

	response := call(t, socketPath, RenewRequest{
		Action: "renew",
		Credentials: encodeBundle(t,
			token.Token{Kind: "hdfs", Alias: "hdfs://nn:8020", IssueDate: 2000, Payload: []byte("renewed")},
		),
	})
	if !response.OK {
		t.Fatalf("renew failed: %s", response.Error)
	}

	var applied AppliedResponse
	if err := response.DecodeData(&applied); err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if applied.Applied != 1 {
		t.Errorf("Applied = %d, want 1", applied.Applied)
	}

	held, _ := store.Get("hdfs://nn:8020")
	if held.IssueDate != 2000 {
		t.Errorf("store not updated: IssueDate = %d", held.IssueDate)
	}
}

func TestRenewMalformedBundleFailsRequest(t *testing.T) {
	socketPath, store := startTestServer(t)
	before := store.Snapshot()

	response := call(t, socketPath, RenewRequest{
		Action:      "renew",
		Credentials: "definitely not a bundle",
	})
	if response.OK {
		t.Fatal("renew succeeded on a malformed bundle")
	}
	if response.Error == "" {
		t.Error("failure response carries no error message")
	}

	after := store.Snapshot()
	if len(before) != len(after) {
		t.Error("store mutated by a malformed bundle")
	}
}

func TestRenewMissingCredentials(t *testing.T) {
	socketPath, _ := startTestServer(t)

	response := call(t, socketPath, RenewRequest{Action: "renew"})
	if response.OK {
		t.Fatal("renew succeeded without credentials")
	}
}

func TestOpenSessionWithCredentials(t *testing.T) {
	socketPath, store := startTestServer(t)

	response := call(t, socketPath, OpenSessionRequest{
		Action: "open-session",
		User:   "analyst",
		Config: map[string]string{
			"some.engine.knob": "on",
			SessionCredentialsKey: encodeBundle(t,
				token.Token{Kind: "hdfs", Alias: "hdfs://nn:8020", IssueDate: 3000, Payload: []byte("session-renewed")},
			),
		},
	})
	if !response.OK {
		t.Fatalf("open-session failed: %s", response.Error)
	}

	var applied AppliedResponse
	if err := response.DecodeData(&applied); err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if applied.Applied != 1 {
		t.Errorf("Applied = %d, want 1", applied.Applied)
	}
	held, _ := store.Get("hdfs://nn:8020")
	if held.IssueDate != 3000 {
		t.Errorf("store not updated via session config: IssueDate = %d", held.IssueDate)
	}
}

func TestOpenSessionWithoutCredentialsIsNoop(t *testing.T) {
	socketPath, store := startTestServer(t)
	before := store.Snapshot()

	response := call(t, socketPath, OpenSessionRequest{
		Action: "open-session",
		User:   "analyst",
		Config: map[string]string{"some.engine.knob": "on"},
	})
	if !response.OK {
		t.Fatalf("open-session failed: %s", response.Error)
	}

	var applied AppliedResponse
	if err := response.DecodeData(&applied); err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if applied.Applied != 0 {
		t.Errorf("Applied = %d, want 0", applied.Applied)
	}
	if len(before) != len(store.Snapshot()) {
		t.Error("store mutated by a session without credentials")
	}
}

func TestStatusReportsMetadataNotPayloads(t *testing.T) {
	socketPath, _ := startTestServer(t)

	response := call(t, socketPath, struct {
		Action string `cbor:"action"`
	}{Action: "status"})
	if !response.OK {
		t.Fatalf("status failed: %s", response.Error)
	}

	var status StatusResponse
	if err := response.DecodeData(&status); err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if status.Held != 2 {
		t.Errorf("Held = %d, want 2", status.Held)
	}
	for _, entry := range status.Tokens {
		if entry.Fingerprint == "" {
			t.Errorf("token %q has no fingerprint", entry.Alias)
		}
	}
}

func TestUnknownAction(t *testing.T) {
	socketPath, _ := startTestServer(t)

	response := call(t, socketPath, struct {
		Action string `cbor:"action"`
	}{Action: "drop-all-tokens"})
	if response.OK {
		t.Fatal("unknown action succeeded")
	}
}
