// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"log/slog"

	"github.com/sqlward/sqlward/lib/credstore"
	"github.com/sqlward/sqlward/lib/token"
)

// PrimaryMatcher selects which inbound metastore token, if any,
// pertains to this engine. Select returns the chosen candidate, the
// held token it should replace, and the alias to stage it under.
// ok=false means the metastore class is skipped for this call; the
// matcher logs the reason.
//
// The matcher decides relevance only — staleness comparison stays in
// the reconciler so alternate matching policies cannot weaken the
// no-regression rule.
type PrimaryMatcher interface {
	Select(candidates []token.Token) (candidate, held token.Token, stageAlias string, ok bool)
}

// LocationMatcher is the default metastore matching policy: the first
// inbound token whose endpoint set intersects the engine's own
// configured endpoints replaces the held ambient (empty-alias) token,
// in place. Intersection rather than equality because clusters list
// the same metastore under differently ordered, differently spelled
// endpoint lists.
type LocationMatcher struct {
	reference map[string]struct{}
	store     *credstore.Store
	logger    *slog.Logger
}

// NewLocationMatcher builds a LocationMatcher over the engine's
// reference endpoint set. An empty reference set is valid and means
// the engine has no metastore of its own: Select will skip the
// metastore class without complaint.
func NewLocationMatcher(referenceEndpoints []string, store *credstore.Store, logger *slog.Logger) *LocationMatcher {
	reference := make(map[string]struct{}, len(referenceEndpoints))
	for _, endpoint := range referenceEndpoints {
		if endpoint != "" {
			reference[endpoint] = struct{}{}
		}
	}
	return &LocationMatcher{
		reference: reference,
		store:     store,
		logger:    logger,
	}
}

// Select implements PrimaryMatcher.
func (m *LocationMatcher) Select(candidates []token.Token) (token.Token, token.Token, string, bool) {
	if len(m.reference) == 0 {
		// Not an error: an engine without metastore endpoints has no
		// use for this credential class.
		m.logger.Info("no metastore endpoints configured, skipping metastore tokens",
			"candidates", len(candidates),
		)
		return token.Token{}, token.Token{}, "", false
	}

	held, ok := m.store.AmbientPrimary()
	if !ok {
		// Nothing to anchor a replacement to. Adopting an inbound
		// metastore token under a fresh alias would leave the auth
		// client still finding no ambient token.
		m.logger.Info("no ambient metastore token held, skipping metastore tokens",
			"candidates", len(candidates),
		)
		return token.Token{}, token.Token{}, "", false
	}

	for _, candidate := range candidates {
		if candidate.IntersectsLocations(m.reference) {
			return candidate, held, held.Alias, true
		}
		m.logger.Debug("metastore token does not cover this engine",
			"locations", candidate.Locations,
			"fingerprint", candidate.Fingerprint(),
		)
	}

	m.logger.Warn("no inbound metastore token matches engine endpoints",
		"candidates", len(candidates),
	)
	return token.Token{}, token.Token{}, "", false
}

var _ PrimaryMatcher = (*LocationMatcher)(nil)
