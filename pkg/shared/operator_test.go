package shared

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func writeKeypairFile(t *testing.T, key solana.PrivateKey) string {
	t.Helper()

	values := make([]int, len(key))
	for index, value := range key {
		values[index] = int(value)
	}
	content, err := json.Marshal(values)
	if err != nil {
		t.Fatalf("failed to marshal keypair: %v", err)
	}

	path := filepath.Join(t.TempDir(), "id.json")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write keypair: %v", err)
	}
	return path
}

func TestParsePrivateKeyEmpty(t *testing.T) {
	for _, input := range []string{"", "   "} {
		if _, err := ParsePrivateKey(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestParsePrivateKeyInvalid(t *testing.T) {
	if _, err := ParsePrivateKey("0OIl-not-base58"); err == nil {
		t.Fatal("expected error for invalid key")
	}
	if _, err := ParsePrivateKey("[1,2,3]"); err == nil {
		t.Fatal("expected error for short JSON key")
	}
	if _, err := ParsePrivateKey("[256" + ",0" + "]"); err == nil {
		t.Fatal("expected error for out-of-range byte")
	}
}

func TestParsePrivateKeyBase58(t *testing.T) {
	wallet := solana.NewWallet()

	key, err := ParsePrivateKey(wallet.PrivateKey.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !key.PublicKey().Equals(wallet.PublicKey()) {
		t.Fatalf("expected public key %s, got %s", wallet.PublicKey(), key.PublicKey())
	}
}

func TestParsePrivateKeyRejectsMismatchedHalves(t *testing.T) {
	first := solana.NewWallet().PrivateKey
	second := solana.NewWallet().PrivateKey

	spliced := make(solana.PrivateKey, 64)
	copy(spliced[:32], first[:32])
	copy(spliced[32:], second[32:])

	if _, err := ParsePrivateKey(spliced.String()); err == nil {
		t.Fatal("expected error for spliced key")
	}
}

func TestLoadKeypairFile(t *testing.T) {
	wallet := solana.NewWallet()
	path := writeKeypairFile(t, wallet.PrivateKey)

	key, err := LoadKeypairFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !key.PublicKey().Equals(wallet.PublicKey()) {
		t.Fatalf("unexpected public key: %s", key.PublicKey())
	}
}

func TestLoadKeypairFileErrors(t *testing.T) {
	if _, err := LoadKeypairFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := LoadKeypairFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	garbage := filepath.Join(t.TempDir(), "garbage.json")
	if err := os.WriteFile(garbage, []byte("not json"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadKeypairFile(garbage); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestLoadOperatorKeyPrefersInlineKey(t *testing.T) {
	inline := solana.NewWallet()
	fromFile := solana.NewWallet()

	key, err := LoadOperatorKey(Config{
		PrivateKey:  inline.PrivateKey.String(),
		KeypairPath: writeKeypairFile(t, fromFile.PrivateKey),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !key.PublicKey().Equals(inline.PublicKey()) {
		t.Fatalf("expected inline key to win")
	}

	key, err = LoadOperatorKey(Config{KeypairPath: writeKeypairFile(t, fromFile.PrivateKey)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !key.PublicKey().Equals(fromFile.PublicKey()) {
		t.Fatalf("expected keypair file key")
	}
}
