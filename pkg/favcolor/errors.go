package favcolor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

type ErrorCode string

const (
	ErrorCodeInvalidIdentity   ErrorCode = "invalid_identity"
	ErrorCodeInvalidValue      ErrorCode = "invalid_value"
	ErrorCodeValueTooLarge     ErrorCode = "value_too_large"
	ErrorCodeCorruptAccount    ErrorCode = "corrupt_account"
	ErrorCodeOwnerMismatch     ErrorCode = "owner_mismatch"
	ErrorCodeRejected          ErrorCode = "rejected"
	ErrorCodeSubmissionError   ErrorCode = "submission_error"
	ErrorCodeFailed            ErrorCode = "failed"
	ErrorCodeExpired           ErrorCode = "expired"
	ErrorCodeLedgerUnavailable ErrorCode = "ledger_unavailable"
	ErrorCodeCanceled          ErrorCode = "canceled"
)

// Sentinels for errors.Is. They match any *Error carrying the same code.
var (
	ErrInvalidIdentity   = &Error{Code: ErrorCodeInvalidIdentity}
	ErrInvalidValue      = &Error{Code: ErrorCodeInvalidValue}
	ErrValueTooLarge     = &Error{Code: ErrorCodeValueTooLarge}
	ErrCorruptAccount    = &Error{Code: ErrorCodeCorruptAccount}
	ErrOwnerMismatch     = &Error{Code: ErrorCodeOwnerMismatch}
	ErrRejected          = &Error{Code: ErrorCodeRejected}
	ErrSubmission        = &Error{Code: ErrorCodeSubmissionError}
	ErrFailed            = &Error{Code: ErrorCodeFailed}
	ErrExpired           = &Error{Code: ErrorCodeExpired}
	ErrLedgerUnavailable = &Error{Code: ErrorCodeLedgerUnavailable}
	ErrCanceled          = &Error{Code: ErrorCodeCanceled}
)

// ErrSignerMismatch is returned by signers asked to sign for a key they do
// not hold. The pipeline never retries it.
var ErrSignerMismatch = errors.New("signer does not hold the required key")

// Error is the typed outcome of every failing operation in this package.
// Detail holds the raw ledger error payload and Logs the program logs, when
// the ledger reported them.
type Error struct {
	Code      ErrorCode
	Message   string
	Signature solana.Signature
	Detail    any
	Logs      []string
	Submitted bool
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return "favorite color operation failed"
	}

	var builder strings.Builder
	builder.WriteString(string(e.Code))
	if e.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Message)
	}
	if e.Detail != nil {
		builder.WriteString(" (ledger error: ")
		builder.WriteString(renderDetail(e.Detail))
		builder.WriteString(")")
	}
	if !e.Signature.IsZero() {
		builder.WriteString(" [signature ")
		builder.WriteString(e.Signature.String())
		builder.WriteString("]")
	}
	if e.Cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Cause.Error())
	}
	return builder.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok || e == nil || other == nil {
		return false
	}
	return other.Code == e.Code && other.Message == ""
}

// IsAmbiguous reports whether err describes a transaction that was handed to
// the network but whose fate was never observed. Callers must re-read the
// account before deciding to retry.
func IsAmbiguous(err error) bool {
	var typed *Error
	if !errors.As(err, &typed) {
		return false
	}
	if !typed.Submitted {
		return false
	}
	return typed.Code != ErrorCodeFailed
}

// CodeOf returns the error code carried by err, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return ""
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func renderDetail(detail any) string {
	if text, ok := detail.(string); ok {
		return text
	}
	encoded, err := json.Marshal(detail)
	if err != nil {
		return fmt.Sprintf("%v", detail)
	}
	return string(encoded)
}
