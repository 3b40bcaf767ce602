// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"strings"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	ciphertext, err := Encrypt([]byte("encoded-credential-bundle"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	plaintext, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer plaintext.Close()

	if plaintext.String() != "encoded-credential-bundle" {
		t.Errorf("roundtrip = %q, want original plaintext", plaintext.String())
	}
}

func TestEncryptToMultipleRecipients(t *testing.T) {
	engine, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair engine: %v", err)
	}
	defer engine.Close()

	escrow, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair escrow: %v", err)
	}
	defer escrow.Close()

	ciphertext, err := Encrypt([]byte("bundle"), []string{engine.PublicKey, escrow.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	for name, keypair := range map[string]*Keypair{"engine": engine, "escrow": escrow} {
		plaintext, err := Decrypt(ciphertext, keypair.PrivateKey)
		if err != nil {
			t.Fatalf("Decrypt with %s key: %v", name, err)
		}
		if plaintext.String() != "bundle" {
			t.Errorf("%s decrypt = %q, want bundle", name, plaintext.String())
		}
		plaintext.Close()
	}
}

func TestEncryptRequiresRecipients(t *testing.T) {
	if _, err := Encrypt([]byte("bundle"), nil); err == nil {
		t.Error("Encrypt accepted zero recipients")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	right, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer right.Close()

	wrong, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer wrong.Close()

	ciphertext, err := Encrypt([]byte("bundle"), []string{right.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := Decrypt(ciphertext, wrong.PrivateKey); err == nil {
		t.Error("Decrypt succeeded with the wrong key")
	}
}

func TestParsePublicKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey rejected a valid key: %v", err)
	}
	if err := ParsePublicKey("not-an-age-key"); err == nil {
		t.Error("ParsePublicKey accepted garbage")
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("public key %q does not look like an age key", keypair.PublicKey)
	}
}
