package services

import (
	"errors"
	"fmt"
)

// Service-level error conditions. Handlers map these onto HTTP statuses:
// validation → 400, not found → 404, not configured → 400 (feature
// unavailable), transaction → 500. Per-recipient provider failures never
// surface as errors; they are recorded in the batch result.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotConfigured = errors.New("whatsapp service not configured")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransactionError wraps a failed multi-table write after rollback.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed during %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsTransaction(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}
