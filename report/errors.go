package report

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record exists for a date.
	ErrNotFound = errors.New("report not found")

	// ErrInvalidDate is returned when a date cannot be understood.
	ErrInvalidDate = errors.New("invalid report date")

	// ErrMissingDate is returned when a record has no date.
	ErrMissingDate = errors.New("report date is required")
)

// DateError carries the input that failed to parse.
type DateError struct {
	Input string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid report date %q (use YYYY-MM-DD, today, yesterday...)", e.Input)
}

func (e *DateError) Unwrap() error {
	return ErrInvalidDate
}

// Validate checks the fields the stores rely on.
func Validate(r Record) error {
	if r.Date == "" {
		return ErrMissingDate
	}
	return nil
}
