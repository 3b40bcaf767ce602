// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package renewserver

import (
	"context"
	"fmt"
	"net"

	"github.com/sqlward/sqlward/lib/codec"
)

// Call performs one request-response cycle against a renew socket:
// dial, write the CBOR request, read the CBOR response, close. The
// request must carry the "action" field in its CBOR encoding.
//
// A transport failure returns an error; a handler failure returns the
// Response with OK=false and no error — the caller distinguishes
// "could not ask" from "asked and was refused".
func Call(ctx context.Context, socketPath string, request any) (*Response, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}

// DecodeData unmarshals the response's data field into v. Fails if
// the response carries no data.
func (r *Response) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response has no data field")
	}
	return codec.Unmarshal(r.Data, v)
}
