// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/sqlward/sqlward/lib/codec"
)

// bundleMagic is the first byte of every encoded bundle. It catches
// callers handing us something that was never a bundle (a session
// config value under the wrong key, truncated copy-paste) before the
// CBOR decoder produces a confusing error.
const bundleMagic = 0x53

// headerSize is magic (1) + compression tag (1) + big-endian
// uncompressed size (4).
const headerSize = 6

// maxBundleSize caps the decoded CBOR payload. Bundles carry at most
// a few dozen tokens; 16 MB is far beyond any legitimate bundle and
// bounds what a hostile size field can make us allocate.
const maxBundleSize = 16 << 20

// Bundle is a decoded credential bundle: an ordered list of tokens as
// produced by the gateway. Immutable once decoded — reconciliation
// reads it and discards it.
type Bundle struct {
	// Tokens in gateway order. Order matters for metastore
	// matching: the first intersecting token wins.
	Tokens []Token `cbor:"1,keyasint"`
}

// DecodeError reports a malformed encoded bundle. It is the only
// failure the reconciler propagates; everything else degrades to
// skip-and-log. Stage names which decode step rejected the input.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding credential bundle (%s): %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is (or wraps) a *DecodeError.
func IsDecodeError(err error) bool {
	var decodeError *DecodeError
	return errors.As(err, &decodeError)
}

// EncodeBundle encodes a bundle into its transport string form using
// the requested compression. If the payload is incompressible the
// encoder silently falls back to CompressionNone — the tag in the
// header always reflects what was actually applied.
func EncodeBundle(bundle *Bundle, tag CompressionTag) (string, error) {
	payload, err := codec.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("encoding credential bundle: %w", err)
	}
	if len(payload) > math.MaxUint32 {
		return "", fmt.Errorf("encoding credential bundle: payload %d bytes exceeds format limit", len(payload))
	}

	compressed, err := compress(payload, tag)
	if errors.Is(err, errIncompressible) {
		tag = CompressionNone
		compressed = payload
	} else if err != nil {
		return "", fmt.Errorf("compressing credential bundle: %w", err)
	}

	framed := make([]byte, headerSize+len(compressed))
	framed[0] = bundleMagic
	framed[1] = byte(tag)
	binary.BigEndian.PutUint32(framed[2:headerSize], uint32(len(payload)))
	copy(framed[headerSize:], compressed)

	return base64.StdEncoding.EncodeToString(framed), nil
}

// DecodeBundle decodes a transport string into a Bundle. Every
// failure is a *DecodeError; the caller must treat it as a
// request-level failure and must not touch the credential store.
func DecodeBundle(encoded string) (*Bundle, error) {
	framed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &DecodeError{Stage: "base64", Err: err}
	}
	if len(framed) < headerSize {
		return nil, &DecodeError{Stage: "header", Err: fmt.Errorf("%d bytes, need at least %d", len(framed), headerSize)}
	}
	if framed[0] != bundleMagic {
		return nil, &DecodeError{Stage: "header", Err: fmt.Errorf("bad magic byte 0x%02x", framed[0])}
	}

	tag := CompressionTag(framed[1])
	uncompressedSize := binary.BigEndian.Uint32(framed[2:headerSize])
	if uncompressedSize > maxBundleSize {
		return nil, &DecodeError{Stage: "header", Err: fmt.Errorf("declared size %d exceeds limit %d", uncompressedSize, maxBundleSize)}
	}

	payload, err := decompress(framed[headerSize:], tag, int(uncompressedSize))
	if err != nil {
		return nil, &DecodeError{Stage: "decompress", Err: err}
	}

	var bundle Bundle
	if err := codec.Unmarshal(payload, &bundle); err != nil {
		return nil, &DecodeError{Stage: "cbor", Err: err}
	}
	return &bundle, nil
}
