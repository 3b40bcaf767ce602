// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/sqlward/sqlward/lib/codec"
	"github.com/sqlward/sqlward/lib/sealed"
	"github.com/sqlward/sqlward/lib/secret"
	"github.com/sqlward/sqlward/lib/token"
)

// runInspect decodes a bundle file and prints per-token metadata.
// Payload bytes are never printed; tokens are identified by their
// keyed fingerprint.
func runInspect(args []string) error {
	flags := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	bundlePath := flags.String("bundle", "", "file containing the encoded bundle (required)")
	identityPath := flags.String("identity", "", "age identity key file, for sealed bundles")
	diagnose := flags.Bool("diagnose", false, "print the bundle's CBOR diagnostic notation (reveals payload bytes)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *bundlePath == "" {
		return fmt.Errorf("--bundle is required")
	}

	raw, err := os.ReadFile(*bundlePath)
	if err != nil {
		return fmt.Errorf("reading bundle: %w", err)
	}
	encoded := strings.TrimSpace(string(raw))

	if *identityPath != "" {
		identity, err := secret.ReadFromPath(*identityPath)
		if err != nil {
			return fmt.Errorf("reading identity key: %w", err)
		}
		defer identity.Close()

		plaintext, err := sealed.Decrypt(encoded, identity)
		if err != nil {
			return fmt.Errorf("unsealing bundle: %w", err)
		}
		defer plaintext.Close()
		encoded = strings.TrimSpace(plaintext.String())
	}

	bundle, err := token.DecodeBundle(encoded)
	if err != nil {
		return err
	}

	fmt.Printf("tokens: %d\n", len(bundle.Tokens))
	for index, entry := range bundle.Tokens {
		fmt.Printf("[%d] kind=%s alias=%q issue_date=%s fingerprint=%s\n",
			index, entry.Kind, entry.Alias, formatIssueDate(entry.IssueDate), entry.Fingerprint())
		if len(entry.Locations) > 0 {
			fmt.Printf("    locations: %s\n", strings.Join(entry.Locations, ", "))
		}
	}

	if *diagnose {
		// Deterministic encoding means re-marshaling reproduces the
		// bundle's exact CBOR payload.
		payload, err := codec.Marshal(bundle)
		if err != nil {
			return fmt.Errorf("re-encoding bundle: %w", err)
		}
		notation, err := codec.Diagnose(payload)
		if err != nil {
			return fmt.Errorf("diagnosing bundle: %w", err)
		}
		fmt.Println(notation)
	}
	return nil
}

func formatIssueDate(issueDate int64) string {
	if issueDate == 0 {
		return "unknown"
	}
	return time.UnixMilli(issueDate).UTC().Format(time.RFC3339)
}
