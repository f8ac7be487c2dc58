package payload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
)

var (
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrUnsupportedVersion = errors.New("unsupported payload version")
)

// Violation describes one field that does not conform to the schema.
type Violation struct {
	Path    jp.Expr
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path.String(), v.Message)
}

// ValidationError lists every violation found in a payload.
type ValidationError struct {
	Version    int // the version the payload was checked against, 0 if none applied
	Violations []Violation
	cause      error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrInvalidPayload, e.cause}
	}
	return []error{ErrInvalidPayload}
}

// SizeError is returned when a payload exceeds the byte ceiling. It is
// reported before any structural check took place.
type SizeError struct {
	Size  int
	Limit int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds limit of %d bytes",
		ErrPayloadTooLarge, e.Size, e.Limit)
}

func (e *SizeError) Unwrap() error {
	return ErrPayloadTooLarge
}
