package swap

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientUTXO    = errors.New("insufficient utxo")
	ErrIntegrityViolation  = errors.New("integrity violation")
	ErrIncompleteSignature = errors.New("incomplete signature")
	ErrStaleReference      = errors.New("stale reference")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrBroadcastRejected   = errors.New("broadcast rejected")
	ErrNotFound            = errors.New("not found")
)

// Error is a swap failure with a human readable message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, v...)}
}
