package number

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedFormat = errors.New("unrecognized phone number format")
	ErrNumberNotFound     = errors.New("phone number not found on WhatsApp")
)

// UnrecognizedFormatError is returned when the cleaned digits fit no known shape.
// No probe is sent for such input.
type UnrecognizedFormatError struct {
	Raw    string
	Digits string
}

func (e *UnrecognizedFormatError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("%s: %q (%d digits)", ErrUnrecognizedFormat, e.Digits, len(e.Digits))
	}
	return fmt.Sprintf("%s: %q (%d digits)", ErrUnrecognizedFormat, e.Raw, len(e.Digits))
}

func (e *UnrecognizedFormatError) Unwrap() error {
	return ErrUnrecognizedFormat
}

// NumberNotFoundError is returned when every candidate was probed and none confirmed.
type NumberNotFoundError struct {
	Raw        string
	Candidates []string
}

func (e *NumberNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNumberNotFound, e.Raw)
}

func (e *NumberNotFoundError) Unwrap() error {
	return ErrNumberNotFound
}
