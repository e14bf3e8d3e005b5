package favcolor

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signer signs a transaction envelope and hands it to the network. It is the
// only component that touches key material.
type Signer interface {
	SignAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

type TransactionSender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// KeypairSigner signs with a local ed25519 key and broadcasts through sender.
type KeypairSigner struct {
	key    solana.PrivateKey
	sender TransactionSender
}

// NewKeypairSigner creates a new KeypairSigner.
func NewKeypairSigner(key solana.PrivateKey, sender TransactionSender) (*KeypairSigner, error) {
	if len(key) != 64 {
		return nil, fmt.Errorf("private key must be 64 bytes, got %d", len(key))
	}
	if sender == nil {
		return nil, fmt.Errorf("transaction sender is required")
	}
	return &KeypairSigner{key: key, sender: sender}, nil
}

// PublicKey returns the identity this signer signs for.
func (s *KeypairSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// SignAndSend signs tx once. A retried envelope already carries its
// signatures and is resent byte for byte.
func (s *KeypairSigner) SignAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if tx == nil {
		return solana.Signature{}, fmt.Errorf("transaction is required")
	}
	if len(tx.Signatures) == 0 {
		publicKey := s.key.PublicKey()
		_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
			if key.Equals(publicKey) {
				return &s.key
			}
			return nil
		})
		if err != nil {
			tx.Signatures = nil
			return solana.Signature{}, fmt.Errorf("%w: %v", ErrSignerMismatch, err)
		}
	}
	return s.sender.SendTransaction(ctx, tx)
}
