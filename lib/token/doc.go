// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

// Package token defines the delegation-token data model and the
// encoded wire format for credential bundles pushed from the gateway
// to a running engine process.
//
// # Model
//
// A [Token] is an opaque credential identified by a [Kind] tag and an
// alias. The alias is the key under which the engine's credential
// store holds the token. Metastore tokens (the distinguished primary
// kind) additionally carry a set of endpoint locations that act as a
// multi-valued alias surrogate: a cluster's metastore token is
// recognized by endpoint-set intersection rather than exact alias
// equality, because different deployments list the same endpoints in
// different orders and under multiple valid names.
//
// Tokens are compared only on (Kind, Alias, IssueDate). Payload bytes
// are opaque to this package and to the reconciler; they are consumed
// by the downstream authentication layer.
//
// # Issue-date comparison
//
// [Token.NewerThan] implements the replacement rule used throughout
// sqlward: a token is newer than another unless BOTH issue dates are
// known AND the candidate's date is not strictly greater. A token
// with an unknown issue date therefore always wins, in both
// directions, including against another unknown date. This
// asymmetric, update-favoring rule is deliberate and load-bearing:
// changing it would silently change the engine's security posture.
// Tests in this package pin every branch of it.
//
// # Wire format
//
// An encoded bundle is the standard-base64 string of:
//
//	[1 byte magic 0x53] [1 byte compression tag] [4 bytes big-endian
//	uncompressed size] [compressed CBOR bundle]
//
// CBOR uses Core Deterministic Encoding via lib/codec. The
// compression tag selects none, lz4, or zstd; encoders fall back to
// none when compression does not shrink the payload. Every decode
// failure — bad base64, bad magic, unknown tag, size mismatch, bad
// CBOR — is reported as a [*DecodeError] so callers can distinguish
// a malformed bundle (request-level failure, no store mutation) from
// anything else.
package token
