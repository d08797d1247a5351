package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrValidationFailed   = errors.New("Validation failed")
	ErrNotFound           = errors.New("Not found")
	ErrInvalidAmount      = errors.New("Invalid amount")
	ErrIneligibleHolding  = errors.New("Holding does not pay dividends")
	ErrDivisionDegenerate = errors.New("Performance of -100% leaves no cost basis to derive")
	ErrNoPendingQuote     = errors.New("No pending divestment to confirm")
)

// ValidationError lists every violated rule, not only the first one.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// Validation returns nil when reasons is empty.
func Validation(reasons []string) error {
	if len(reasons) == 0 {
		return nil
	}
	return &ValidationError{Reasons: reasons}
}

// NotFoundError names the entity kind and id that could not be resolved for the user.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Message is the user-facing form, without the id.
func (e *NotFoundError) Message() string { return e.Kind + " not found" }

func NotFound(kind string, id uuid.UUID) error {
	return &NotFoundError{Kind: kind, ID: id}
}

type InvalidAmountError struct {
	Reason string
}

func (e *InvalidAmountError) Error() string { return ErrInvalidAmount.Error() + ": " + e.Reason }

func (e *InvalidAmountError) Is(target error) bool { return target == ErrInvalidAmount }

func InvalidAmount(reason string) error {
	return &InvalidAmountError{Reason: reason}
}
