// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

// sqlward-credentials is the operator CLI for credential bundles:
// generate age keypairs for bundle sealing, build encoded bundles
// from a YAML token manifest, and inspect bundles without revealing
// payload bytes.
package main
