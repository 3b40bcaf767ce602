// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/sqlward/sqlward/lib/sealed"
)

// runKeygen generates an age keypair. The public key goes to stdout
// (it belongs in provisioning config); the private key is written to
// a 0600 file, never to stdout where it would land in shell history
// and pipe buffers.
func runKeygen(args []string) error {
	flags := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	output := flags.String("output", "", "file to write the private key to (required)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		return fmt.Errorf("--output is required")
	}

	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return err
	}
	defer keypair.Close()

	if err := os.WriteFile(*output, append(keypair.PrivateKey.Bytes(), '\n'), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	fmt.Println(keypair.PublicKey)
	fmt.Fprintf(os.Stderr, "private key written to %s\n", *output)
	return nil
}
