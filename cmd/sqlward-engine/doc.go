// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

// sqlward-engine is the engine-side credential daemon. It seeds the
// process credential store from a provisioned (optionally age-sealed)
// bundle, serves the renew socket for the gateway's credential pushes,
// and periodically logs tokens the gateway has stopped renewing.
package main
