package shared

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ParsePrivateKey parses an operator key given either as base58 text or as
// the JSON byte array written by solana-keygen.
func ParsePrivateKey(raw string) (solana.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}

	if strings.HasPrefix(candidate, "[") {
		return privateKeyFromJSON([]byte(candidate))
	}

	key, err := solana.PrivateKeyFromBase58(candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key as base58: %w", err)
	}
	if err := validatePrivateKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadKeypairFile reads a solana-keygen JSON keypair file.
func LoadKeypairFile(path string) (solana.PrivateKey, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("keypair path is required")
	}

	content, err := os.ReadFile(expandHome(trimmed))
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file %s: %w", trimmed, err)
	}

	key, err := privateKeyFromJSON(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair from %s: %w", trimmed, err)
	}
	return key, nil
}

// LoadOperatorKey resolves the signing key from config, preferring an inline
// private key over the keypair file.
func LoadOperatorKey(config Config) (solana.PrivateKey, error) {
	if strings.TrimSpace(config.PrivateKey) != "" {
		return ParsePrivateKey(config.PrivateKey)
	}
	return LoadKeypairFile(config.KeypairPath)
}

func privateKeyFromJSON(content []byte) (solana.PrivateKey, error) {
	var raw []int
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("keypair must be a JSON byte array: %w", err)
	}
	values := make([]byte, 0, len(raw))
	for _, value := range raw {
		if value < 0 || value > 255 {
			return nil, fmt.Errorf("keypair byte %d out of range", value)
		}
		values = append(values, byte(value))
	}
	if len(values) != 64 {
		return nil, fmt.Errorf("keypair must contain 64 bytes, got %d", len(values))
	}

	key := solana.PrivateKey(values)
	if err := validatePrivateKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// validatePrivateKey checks that the trailing public half matches the seed.
func validatePrivateKey(key solana.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return fmt.Errorf("invalid private key: expected %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
		return fmt.Errorf("invalid private key: public key does not match seed")
	}
	return nil
}
