package billing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common settlement errors
var (
	// ErrNotFound is returned when the requested invoice, payment or sale does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when the record exists but belongs to another admin.
	ErrForbidden = errors.New("record belongs to another user")

	// ErrAlreadyPaid is returned when a payment targets a completed invoice.
	ErrAlreadyPaid = errors.New("invoice is already fully paid")

	// ErrAlreadySettled is returned when a concurrent completion already recorded the sale.
	ErrAlreadySettled = errors.New("invoice has already been settled")

	// ErrHasDependents is returned when a delete is blocked by a referencing sale.
	ErrHasDependents = errors.New("record has dependent records and cannot be deleted")

	// ErrSaleImmutable is returned for every attempt to change or delete a sale.
	ErrSaleImmutable = errors.New("sales are immutable once recorded")

	// ErrIdentifierExhausted is returned when no free invoice or receipt number
	// was found within the retry budget. Retrying the whole request is safe.
	ErrIdentifierExhausted = errors.New("could not reserve a unique number, retry")

	// ErrDuplicate is what storage adapters return for a unique constraint violation.
	ErrDuplicate = errors.New("unique constraint violation")
)

// OpError wraps a failure with the settlement operation it happened in.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("billing: %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Err: err}
}

// ValidationErrors collects field level messages for rejected input.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
