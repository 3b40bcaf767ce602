// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch args[0] {
	case "keygen":
		return runKeygen(args[1:])
	case "encode":
		return runEncode(args[1:])
	case "inspect":
		return runInspect(args[1:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", args[0])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: sqlward-credentials <subcommand> [flags]

Subcommands:
  keygen     Generate an age keypair for bundle sealing
  encode     Build an encoded bundle from a YAML token manifest
  inspect    Decode a bundle and print token metadata

Run 'sqlward-credentials <subcommand> --help' for subcommand flags.
`)
}
