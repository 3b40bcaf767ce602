// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"log/slog"
	"sync"

	"github.com/sqlward/sqlward/lib/credstore"
	"github.com/sqlward/sqlward/lib/token"
)

// Reconciler merges inbound credential bundles into the store. Safe
// for concurrent use: calls serialize on an internal mutex so one
// call's apply never interleaves with another's.
type Reconciler struct {
	mu      sync.Mutex
	store   *credstore.Store
	matcher PrimaryMatcher
	logger  *slog.Logger
}

// New creates a Reconciler writing to store. The matcher decides
// which inbound metastore token pertains to this engine; use
// [NewLocationMatcher] for the standard policy.
func New(store *credstore.Store, matcher PrimaryMatcher, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		matcher: matcher,
		logger:  logger,
	}
}

// Reconcile decodes an encoded credential bundle and applies every
// token that wins its match to the store in one atomic batch.
// Returns the number of tokens applied.
//
// The only error is a [*token.DecodeError] for a malformed bundle, in
// which case the store is untouched and the caller should fail the
// triggering request. All other misses — unmatched metastore
// endpoints, unknown aliases, stale issue dates — are logged and
// skipped; the call succeeds with a possibly-zero count.
func (r *Reconciler) Reconcile(encoded string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bundle, err := token.DecodeBundle(encoded)
	if err != nil {
		return 0, err
	}

	var primary, other []token.Token
	for _, inbound := range bundle.Tokens {
		if inbound.Kind == token.KindMetastore {
			primary = append(primary, inbound)
		} else {
			other = append(other, inbound)
		}
	}

	updates := make(map[string]token.Token)
	r.stagePrimary(primary, updates)
	r.stageOther(other, updates)

	r.store.ApplyAll(updates)

	r.logger.Info("credential bundle reconciled",
		"received", len(bundle.Tokens),
		"applied", len(updates),
	)
	return len(updates), nil
}

// stagePrimary runs the metastore-class matching. The selected
// candidate is staged under the held token's alias — not its own
// inbound alias — so it replaces the ambient token in place.
func (r *Reconciler) stagePrimary(candidates []token.Token, updates map[string]token.Token) {
	if len(candidates) == 0 {
		return
	}

	candidate, held, stageAlias, ok := r.matcher.Select(candidates)
	if !ok {
		return
	}

	if !candidate.NewerThan(held) {
		r.logger.Warn("metastore token is not newer than held token, skipping",
			"inbound_issue_date", candidate.IssueDate,
			"held_issue_date", held.IssueDate,
			"fingerprint", candidate.Fingerprint(),
		)
		return
	}

	staged := candidate
	staged.Alias = stageAlias
	updates[stageAlias] = staged

	r.logger.Debug("metastore token staged",
		"alias", stageAlias,
		"inbound_issue_date", candidate.IssueDate,
		"held_issue_date", held.IssueDate,
		"fingerprint", candidate.Fingerprint(),
	)
}

// stageOther runs exact-alias matching for every non-metastore token.
// An alias the store does not already hold is never auto-adopted: the
// engine only refreshes credentials it was provisioned with.
func (r *Reconciler) stageOther(candidates []token.Token, updates map[string]token.Token) {
	for _, candidate := range candidates {
		held, ok := r.store.Get(candidate.Alias)
		if !ok {
			r.logger.Warn("token alias not held by this engine, skipping",
				"kind", candidate.Kind,
				"alias", candidate.Alias,
				"fingerprint", candidate.Fingerprint(),
			)
			continue
		}

		if !candidate.NewerThan(held) {
			r.logger.Warn("token is not newer than held token, skipping",
				"kind", candidate.Kind,
				"alias", candidate.Alias,
				"inbound_issue_date", candidate.IssueDate,
				"held_issue_date", held.IssueDate,
			)
			continue
		}

		updates[candidate.Alias] = candidate

		r.logger.Debug("token staged",
			"kind", candidate.Kind,
			"alias", candidate.Alias,
			"inbound_issue_date", candidate.IssueDate,
			"held_issue_date", held.IssueDate,
		)
	}
}
