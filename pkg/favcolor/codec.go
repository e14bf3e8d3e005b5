package favcolor

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	// AccountDiscriminator tags an initialized UserColor record.
	AccountDiscriminator = [DiscriminatorSize]byte{174, 38, 223, 146, 225, 235, 44, 64}

	InitializeDiscriminator  = [DiscriminatorSize]byte{175, 175, 109, 31, 13, 152, 155, 237}
	UpdateColorDiscriminator = [DiscriminatorSize]byte{241, 180, 54, 166, 175, 158, 88, 131}
)

// DecodeAccount parses the stored account layout
// [8 discriminator][32 owner][4 LE length][length bytes color].
// Bytes after the color are the unused tail of the fixed allocation and are
// ignored.
func DecodeAccount(raw []byte) (*ColorAccount, error) {
	if len(raw) < AccountHeaderSize {
		return nil, newError(
			ErrorCodeCorruptAccount,
			"account data is %d bytes, shorter than the %d byte header",
			len(raw),
			AccountHeaderSize,
		)
	}

	decoder := bin.NewBorshDecoder(raw)
	discriminator, err := decoder.ReadNBytes(DiscriminatorSize)
	if err != nil {
		return nil, corrupt("read discriminator", err)
	}
	if !bytes.Equal(discriminator, AccountDiscriminator[:]) {
		return nil, newError(ErrorCodeCorruptAccount, "unknown account discriminator %v", discriminator)
	}

	ownerBytes, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, corrupt("read owner", err)
	}
	length, err := decoder.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, corrupt("read color length", err)
	}
	if int64(length) > int64(decoder.Remaining()) {
		return nil, newError(
			ErrorCodeCorruptAccount,
			"declared color length %d exceeds the %d remaining bytes",
			length,
			decoder.Remaining(),
		)
	}
	if length > MaxColorBytes {
		return nil, newError(ErrorCodeCorruptAccount, "declared color length %d exceeds %d", length, MaxColorBytes)
	}
	colorBytes, err := decoder.ReadNBytes(int(length))
	if err != nil {
		return nil, corrupt("read color", err)
	}
	if !utf8.Valid(colorBytes) {
		return nil, newError(ErrorCodeCorruptAccount, "stored color is not valid UTF-8")
	}

	account := &ColorAccount{
		Owner: solana.PublicKeyFromBytes(ownerBytes),
		Color: string(colorBytes),
	}
	copy(account.Discriminator[:], discriminator)
	return account, nil
}

// DecodeAccountFor decodes raw and rejects records whose stored owner is not
// owner. A mismatch means the data sits at the wrong address or belongs to
// someone else.
func DecodeAccountFor(raw []byte, owner solana.PublicKey) (*ColorAccount, error) {
	account, err := DecodeAccount(raw)
	if err != nil {
		return nil, err
	}
	if !account.Owner.Equals(owner) {
		return nil, newError(
			ErrorCodeOwnerMismatch,
			"record owner %s does not match expected owner %s",
			account.Owner,
			owner,
		)
	}
	return account, nil
}

// EncodeAccount produces the stored layout for owner and color without
// trailing slack.
func EncodeAccount(owner solana.PublicKey, color string) ([]byte, error) {
	if err := ValidateColor(color); err != nil {
		return nil, err
	}
	buffer := new(bytes.Buffer)
	encoder := bin.NewBorshEncoder(buffer)
	if err := encoder.WriteBytes(AccountDiscriminator[:], false); err != nil {
		return nil, err
	}
	if err := encoder.WriteBytes(owner.Bytes(), false); err != nil {
		return nil, err
	}
	if err := writeString(encoder, color); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// EncodeInitializePayload builds the instruction data of the create path.
func EncodeInitializePayload(color string) ([]byte, error) {
	return encodeInstruction(InitializeDiscriminator, color)
}

// EncodeUpdatePayload builds the instruction data of the update path.
func EncodeUpdatePayload(color string) ([]byte, error) {
	return encodeInstruction(UpdateColorDiscriminator, color)
}

func encodeInstruction(discriminator [DiscriminatorSize]byte, color string) ([]byte, error) {
	if err := ValidateColor(color); err != nil {
		return nil, err
	}
	buffer := bytes.NewBuffer(make([]byte, 0, DiscriminatorSize+4+len(color)))
	encoder := bin.NewBorshEncoder(buffer)
	if err := encoder.WriteBytes(discriminator[:], false); err != nil {
		return nil, err
	}
	if err := writeString(encoder, color); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func writeString(encoder *bin.Encoder, value string) error {
	if err := encoder.WriteUint32(uint32(len(value)), binary.LittleEndian); err != nil {
		return err
	}
	return encoder.WriteBytes([]byte(value), false)
}

func corrupt(step string, cause error) *Error {
	return &Error{
		Code:    ErrorCodeCorruptAccount,
		Message: step + " failed",
		Cause:   cause,
	}
}
