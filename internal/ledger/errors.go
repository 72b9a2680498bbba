package ledger

import (
	"errors"
	"fmt"

	"fintrack/internal/core"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferFailed      = errors.New("transfer failed")
	// ErrPersistence means the storage write failed. The engine's state is
	// the state before the call.
	ErrPersistence = errors.New("persistence failed")

	ErrUnknownCategory = fmt.Errorf("%w: unknown category", core.ErrValidation)
	ErrDuplicateID     = fmt.Errorf("%w: duplicate id", core.ErrValidation)
	ErrMissingID       = fmt.Errorf("%w: id is required", core.ErrValidation)
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func transferFailed(cause error) error {
	return fmt.Errorf("%w: %w", ErrTransferFailed, cause)
}
