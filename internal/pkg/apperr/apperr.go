package apperr

import (
	"errors"
	"fmt"
)

// Category sentinels. Every rejection a service produces wraps exactly one
// of these, so callers branch with errors.Is instead of string matching.
var (
	// ErrUnauthorized: caller lacks the required role, activation, or ownership.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound: the referenced batch/offer/shipment/chain/code does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the entity exists but is in the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation: malformed or duplicate input.
	ErrValidation = errors.New("validation failed")
)

type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is lets errors.Is match both the category sentinel and a wrapped cause.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target) || (e.Err != nil && errors.Is(e.Err, target))
}

func Unauthorizedf(format string, args ...interface{}) error {
	return &Error{Kind: ErrUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidStatef(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind error, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
