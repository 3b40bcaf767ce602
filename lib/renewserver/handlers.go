// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package renewserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sqlward/sqlward/lib/codec"
	"github.com/sqlward/sqlward/lib/credstore"
	"github.com/sqlward/sqlward/lib/reconcile"
)

// SessionCredentialsKey is the reserved session-configuration key
// under which a session-open request may carry an encoded credential
// bundle. The gateway sets it when opening a session on behalf of a
// user whose credentials it has just renewed.
const SessionCredentialsKey = "sqlward.session.credentials"

// RenewRequest is a dedicated renew-token request.
type RenewRequest struct {
	Action      string `cbor:"action"`
	Credentials string `cbor:"credentials"`
}

// OpenSessionRequest is a session-open request. Session bookkeeping
// itself happens in the gateway; the engine side only extracts the
// reserved credentials key, if present, and reconciles it.
type OpenSessionRequest struct {
	Action string            `cbor:"action"`
	User   string            `cbor:"user"`
	Config map[string]string `cbor:"config,omitempty"`
}

// AppliedResponse reports how many tokens a reconciliation applied.
type AppliedResponse struct {
	Applied int `cbor:"applied"`
}

// StatusToken is the per-alias metadata in a status response. It
// carries the payload fingerprint, never the payload.
type StatusToken struct {
	Kind        string `cbor:"kind"`
	Alias       string `cbor:"alias"`
	IssueDate   int64  `cbor:"issue_date,omitempty"`
	Fingerprint string `cbor:"fingerprint"`
}

// StatusResponse describes the held token set.
type StatusResponse struct {
	Held   int           `cbor:"held"`
	Tokens []StatusToken `cbor:"tokens,omitempty"`
}

// API wires the reconciler and store into socket actions.
type API struct {
	Reconciler *reconcile.Reconciler
	Store      *credstore.Store
	Logger     *slog.Logger
}

// Register installs the renew, open-session, and status actions.
func (a *API) Register(server *Server) {
	server.Handle("renew", a.handleRenew)
	server.Handle("open-session", a.handleOpenSession)
	server.Handle("status", a.handleStatus)
}

func (a *API) handleRenew(ctx context.Context, raw []byte) (any, error) {
	var request RenewRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding renew request: %w", err)
	}
	if request.Credentials == "" {
		return nil, fmt.Errorf("missing required field: credentials")
	}

	started := time.Now()
	applied, err := a.Reconciler.Reconcile(request.Credentials)
	if err != nil {
		// Malformed bundle: surface as a request-level failure.
		return nil, err
	}

	a.Logger.Debug("renew request handled",
		"applied", applied,
		"elapsed", time.Since(started),
	)
	return AppliedResponse{Applied: applied}, nil
}

func (a *API) handleOpenSession(ctx context.Context, raw []byte) (any, error) {
	var request OpenSessionRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding open-session request: %w", err)
	}
	if request.User == "" {
		return nil, fmt.Errorf("missing required field: user")
	}

	encoded, ok := request.Config[SessionCredentialsKey]
	if !ok {
		// Session without piggybacked credentials: nothing to do.
		return AppliedResponse{}, nil
	}

	applied, err := a.Reconciler.Reconcile(encoded)
	if err != nil {
		return nil, err
	}

	a.Logger.Debug("session credentials reconciled",
		"user", request.User,
		"applied", applied,
	)
	return AppliedResponse{Applied: applied}, nil
}

func (a *API) handleStatus(ctx context.Context, raw []byte) (any, error) {
	snapshot := a.Store.Snapshot()

	response := StatusResponse{Held: len(snapshot)}
	for _, held := range snapshot {
		response.Tokens = append(response.Tokens, StatusToken{
			Kind:        string(held.Kind),
			Alias:       held.Alias,
			IssueDate:   held.IssueDate,
			Fingerprint: held.Fingerprint(),
		})
	}
	return response, nil
}
