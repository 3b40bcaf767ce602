// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

// Package renewserver exposes the engine's credential-renewal trigger
// surface: a CBOR request/response Unix socket. The gateway-facing
// RPC layer proper (Thrift/REST session management) lives outside
// this process; what arrives here is the already-extracted encoded
// credential bundle, either via a dedicated renew request or embedded
// in a session-open request's configuration map under
// [SessionCredentialsKey].
//
// Each connection is one request/response cycle: the client writes a
// CBOR value with an "action" field, the server dispatches to the
// registered handler and writes a CBOR [Response]. A malformed bundle
// fails the request (ok=false) without touching the credential store;
// every other reconciliation miss is reflected only in logs and the
// applied count.
package renewserver
