// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Kind tags a credential type. The reconciler applies different
// matching rules per kind: metastore tokens match by endpoint-set
// intersection, everything else by exact alias.
type Kind string

// KindMetastore is the distinguished primary kind. A metastore token
// carries Locations and is matched against the engine's own
// configured endpoint set rather than by alias.
const KindMetastore Kind = "metastore"

// AmbientAlias is the alias under which the engine's default
// metastore token is stored: the empty service alias. The downstream
// authentication client selects the empty-alias token when no
// explicit service is named, so a renewed metastore token must
// replace this entry in place — staging it under its own inbound
// alias would leave the ambient token stale.
const AmbientAlias = ""

// Token is one delegation token. Reconciliation looks only at Kind,
// Alias, Locations, and IssueDate; Payload is opaque bytes handed to
// the downstream authentication layer.
type Token struct {
	// Kind selects the matching rule.
	Kind Kind `cbor:"1,keyasint"`

	// Alias is the credential-store key. Empty for the ambient
	// metastore token.
	Alias string `cbor:"2,keyasint"`

	// Locations is the endpoint-URI set carried by metastore
	// tokens. Nil for other kinds.
	Locations []string `cbor:"3,keyasint,omitempty"`

	// IssueDate is the Unix-millisecond issue timestamp, or 0 when
	// the issuer did not stamp one ("unknown age").
	IssueDate int64 `cbor:"4,keyasint,omitempty"`

	// Payload is the opaque credential material.
	Payload []byte `cbor:"5,keyasint"`
}

// HasIssueDate reports whether the token carries a known issue date.
func (t Token) HasIssueDate() bool {
	return t.IssueDate != 0
}

// NewerThan reports whether t should replace held. The rule:
//
//	newer(t, held) = !(known(t) && known(held) && t.IssueDate <= held.IssueDate)
//
// so t loses only when both dates are known and t is not strictly
// later. An unknown date on either side means t wins. Do not "fix"
// the asymmetry — see the package documentation.
func (t Token) NewerThan(held Token) bool {
	return !(t.HasIssueDate() && held.HasIssueDate() && t.IssueDate <= held.IssueDate)
}

// IntersectsLocations reports whether any of the token's locations
// appears in the given reference endpoint set.
func (t Token) IntersectsLocations(reference map[string]struct{}) bool {
	for _, location := range t.Locations {
		if _, ok := reference[location]; ok {
			return true
		}
	}
	return false
}

// payloadDomainKey is the BLAKE3 keyed-hash domain key for payload
// fingerprints. The ASCII encoding of the domain name, zero-padded
// to 32 bytes, so the key is readable in hex dumps. Changing it
// changes every logged fingerprint.
var payloadDomainKey = [32]byte{
	's', 'q', 'l', 'w', 'a', 'r', 'd', '.',
	't', 'o', 'k', 'e', 'n', '.',
	'p', 'a', 'y', 'l', 'o', 'a', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint returns a short hex digest of the payload for log
// lines. Payload bytes themselves must never be logged; the keyed
// BLAKE3 digest identifies a payload without revealing it.
func (t Token) Fingerprint() string {
	hasher, err := blake3.NewKeyed(payloadDomainKey[:])
	if err != nil {
		// NewKeyed fails only on a wrong key length, which is a
		// compile-time constant here.
		panic("token: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write(t.Payload)
	digest := hasher.Sum(nil)
	return hex.EncodeToString(digest[:8])
}
