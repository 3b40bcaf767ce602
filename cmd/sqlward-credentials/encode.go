// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sqlward/sqlward/lib/sealed"
	"github.com/sqlward/sqlward/lib/token"
)

// manifest is the YAML input for the encode subcommand.
type manifest struct {
	Tokens []manifestToken `yaml:"tokens"`
}

// manifestToken describes one token. Payload comes from a file
// (payload_file, relative paths resolved against the manifest) or
// inline (payload, for test fixtures).
type manifestToken struct {
	Kind        string   `yaml:"kind"`
	Alias       string   `yaml:"alias"`
	Locations   []string `yaml:"locations,omitempty"`
	IssueDateMS int64    `yaml:"issue_date_ms,omitempty"`
	PayloadFile string   `yaml:"payload_file,omitempty"`
	Payload     string   `yaml:"payload,omitempty"`
}

func runEncode(args []string) error {
	flags := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	manifestPath := flags.String("manifest", "", "YAML token manifest (required)")
	compression := flags.String("compression", "zstd", "bundle compression: none, lz4, or zstd")
	recipients := flags.StringArray("recipient", nil, "age public key to seal the bundle to (repeatable)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *manifestPath == "" {
		return fmt.Errorf("--manifest is required")
	}

	tag, err := token.ParseCompressionTag(*compression)
	if err != nil {
		return err
	}

	bundle, err := loadManifest(*manifestPath)
	if err != nil {
		return err
	}

	encoded, err := token.EncodeBundle(bundle, tag)
	if err != nil {
		return err
	}

	if len(*recipients) > 0 {
		for _, recipient := range *recipients {
			if err := sealed.ParsePublicKey(recipient); err != nil {
				return err
			}
		}
		encoded, err = sealed.Encrypt([]byte(encoded), *recipients)
		if err != nil {
			return err
		}
	}

	fmt.Println(encoded)
	return nil
}

// loadManifest parses the manifest and resolves payloads into a
// Bundle.
func loadManifest(path string) (*token.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var parsed manifest
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(parsed.Tokens) == 0 {
		return nil, fmt.Errorf("manifest %s declares no tokens", path)
	}

	baseDir := filepath.Dir(path)
	bundle := &token.Bundle{Tokens: make([]token.Token, 0, len(parsed.Tokens))}
	for index, entry := range parsed.Tokens {
		if entry.Kind == "" {
			return nil, fmt.Errorf("manifest token %d: kind is required", index)
		}

		var payload []byte
		switch {
		case entry.PayloadFile != "" && entry.Payload != "":
			return nil, fmt.Errorf("manifest token %d: payload_file and payload are mutually exclusive", index)
		case entry.PayloadFile != "":
			payloadPath := entry.PayloadFile
			if !filepath.IsAbs(payloadPath) {
				payloadPath = filepath.Join(baseDir, payloadPath)
			}
			payload, err = os.ReadFile(payloadPath)
			if err != nil {
				return nil, fmt.Errorf("manifest token %d: reading payload: %w", index, err)
			}
		case entry.Payload != "":
			payload = []byte(entry.Payload)
		default:
			return nil, fmt.Errorf("manifest token %d: payload_file or payload is required", index)
		}

		bundle.Tokens = append(bundle.Tokens, token.Token{
			Kind:      token.Kind(entry.Kind),
			Alias:     entry.Alias,
			Locations: entry.Locations,
			IssueDate: entry.IssueDateMS,
			Payload:   payload,
		})
	}
	return bundle, nil
}
