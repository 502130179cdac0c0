package ledger

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a ledger operation was refused.
type FailureKind string

const (
	AccountNotFound   FailureKind = "AccountNotFound"
	SameAccount       FailureKind = "SameAccount"
	InvalidAmount     FailureKind = "InvalidAmount"
	InsufficientFunds FailureKind = "InsufficientFunds"
	DuplicateTransfer FailureKind = "DuplicateTransfer"
)

// TransferError is a refused ledger operation. It is an expected outcome,
// not a fault: nothing was changed.
type TransferError struct {
	Kind    FailureKind
	Message string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches another TransferError of the same kind, so callers can write
// errors.Is(err, &ledger.TransferError{Kind: ledger.SameAccount}).
func (e *TransferError) Is(target error) bool {
	t, ok := target.(*TransferError)
	return ok && t.Kind == e.Kind
}

func refuse(kind FailureKind, format string, args ...any) *TransferError {
	return &TransferError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the failure kind carried by err, if any.
func KindOf(err error) (FailureKind, bool) {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}

// ErrCorruptSnapshot is returned when the accounts or transactions handed to
// the engine are malformed. It indicates a bug upstream, not user error.
var ErrCorruptSnapshot = errors.New("ledger: corrupt snapshot")
