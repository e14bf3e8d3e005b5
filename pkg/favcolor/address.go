package favcolor

import (
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// DeriveAddress computes the storage address of owner's record under program.
// It uses the seeds ["user-color", owner] and the canonical (highest) bump.
func DeriveAddress(owner solana.PublicKey, program solana.PublicKey) (solana.PublicKey, uint8, error) {
	if owner.IsZero() {
		return solana.PublicKey{}, 0, newError(ErrorCodeInvalidIdentity, "owner identity is required")
	}
	if program.IsZero() {
		return solana.PublicKey{}, 0, newError(ErrorCodeInvalidIdentity, "program identity is required")
	}

	address, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte(SeedTag), owner.Bytes()},
		program,
	)
	if err != nil {
		return solana.PublicKey{}, 0, &Error{
			Code:    ErrorCodeInvalidIdentity,
			Message: "no viable bump for storage address",
			Cause:   err,
		}
	}
	return address, bump, nil
}

// ParseIdentity decodes a base58 public key.
func ParseIdentity(value string) (solana.PublicKey, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return solana.PublicKey{}, newError(ErrorCodeInvalidIdentity, "identity is required")
	}
	decoded, err := base58.Decode(trimmed)
	if err != nil {
		return solana.PublicKey{}, &Error{
			Code:    ErrorCodeInvalidIdentity,
			Message: "identity is not valid base58",
			Cause:   err,
		}
	}
	return IdentityFromBytes(decoded)
}

// IdentityFromBytes requires exactly 32 bytes and a non-zero key.
func IdentityFromBytes(raw []byte) (solana.PublicKey, error) {
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, newError(
			ErrorCodeInvalidIdentity,
			"identity must be %d bytes, got %d",
			solana.PublicKeyLength,
			len(raw),
		)
	}
	identity := solana.PublicKeyFromBytes(raw)
	if identity.IsZero() {
		return solana.PublicKey{}, newError(ErrorCodeInvalidIdentity, "identity must not be the zero key")
	}
	return identity, nil
}
