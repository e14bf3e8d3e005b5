package favcolor

import "unicode/utf8"

// ValidateColor enforces the program's limit of 50 UTF-8 bytes. Length is
// measured in bytes, not characters.
func ValidateColor(color string) error {
	if !utf8.ValidString(color) {
		return newError(ErrorCodeInvalidValue, "color must be valid UTF-8")
	}
	if len(color) > MaxColorBytes {
		return newError(
			ErrorCodeValueTooLarge,
			"color is %d bytes, the limit is %d",
			len(color),
			MaxColorBytes,
		)
	}
	return nil
}
