// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides sqlward's standard CBOR encoding. All wire
// types (credential bundles, renew-socket requests and responses) go
// through this package so the encoder configuration lives in exactly
// one place.
package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. The same bundle always
// encodes to identical bytes, which keeps payload fingerprints and
// store equality checks stable across processes.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are silently ignored so older engines can decode
// bundles produced by newer gateways.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Session-open requests carry a map[string]any configuration
		// object. CBOR's default concrete type for any-typed map
		// targets is map[interface{}]interface{}, which nothing else
		// in Go wants to consume. Force string keys; struct field
		// decoding is unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Decoder = cbor.Decoder

// RawMessage is a raw encoded CBOR value. The renew socket server
// uses it to route on the action field before handing the full
// request to the action handler.
type RawMessage = cbor.RawMessage

// NewEncoder returns a CBOR encoder that writes to w using sqlward's
// standard Core Deterministic Encoding configuration.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder that reads from r using sqlward's
// standard decoding configuration.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for
// data. Used by sqlward-credentials inspect for debugging bundles.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
