package pricing

import (
	"errors"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrInvalidInput marks a field that is non-numeric, non-finite or out of range.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDegenerateComputation marks an extraction rate of zero, which would divide by zero.
	ErrDegenerateComputation = errors.New("degenerate computation")
)

// FieldError describes why a single input field was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Kind    error  `json:"-"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// ValidationError lists every rejected field of one request. It matches ErrInvalidInput and
// ErrDegenerateComputation through errors.Is when any of its fields carries that kind.
type ValidationError struct {
	Fields []*FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	for _, f := range e.Fields {
		if f.Kind == target {
			return true
		}
	}
	return false
}

// Field returns the error recorded for field, or nil.
func (e *ValidationError) Field(field string) *FieldError {
	for _, f := range e.Fields {
		if f.Field == field {
			return f
		}
	}
	return nil
}

func invalidField(field, msg string) error {
	return &FieldError{Field: field, Kind: ErrInvalidInput, Message: msg}
}

func degenerateField(field, msg string) error {
	return &FieldError{Field: field, Kind: ErrDegenerateComputation, Message: msg}
}

// validationError turns an error built with multierr.Append into a *ValidationError, or nil.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	ve := &ValidationError{}
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if errors.As(e, &fe) {
			ve.Fields = append(ve.Fields, fe)
			continue
		}
		ve.Fields = append(ve.Fields, &FieldError{Kind: ErrInvalidInput, Message: e.Error()})
	}
	return ve
}
