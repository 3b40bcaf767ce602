// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile merges credential bundles pushed by the gateway
// into the engine's live token store.
//
// Each Reconcile call is a single-shot transaction: decode the
// encoded bundle, partition tokens into the metastore class and
// everything else, match each inbound token against a held token,
// keep only the strictly-newer ones, and apply the survivors to the
// store in one atomic batch. A malformed bundle is the only failure;
// every matching miss degrades to a logged skip, and the call still
// succeeds with whatever count did apply.
//
// Two guarantees hold at all times:
//
//   - The store never regresses: an alias is only ever overwritten by
//     a token that wins the issue-date comparison
//     ([token.Token.NewerThan], including its deliberate unknown-wins
//     asymmetry).
//   - Readers never see a torn update: the whole update set lands in
//     one store write, and concurrent Reconcile calls serialize
//     against each other.
//
// Metastore tokens are matched by a pluggable [PrimaryMatcher]. The
// default [LocationMatcher] recognizes the engine's own token by
// intersecting the token's endpoint list with the engine's configured
// endpoints, and anchors the replacement to the held ambient
// (empty-alias) token so the downstream auth client keeps finding it
// where it looks.
package reconcile
