package model

import (
	"errors"
	"strings"
)

// ErrUploadWarning marks a run whose upload succeeded but whose secondary
// steps (thumbnail, captions, policy claim) did not. The adapter has already
// recorded the warning in the registry message; the workflow finishes as
// active without overwriting it.
var ErrUploadWarning = errors.New("upload succeeded with warnings")

// ChainError is an error carrying its own message plus the error that caused
// it. Unlike fmt.Errorf wrapping, the cause is not folded into the message,
// so a chain can be flattened link by link into the registry message field.
type ChainError struct {
	msg   string
	cause error
}

// WrapError attaches msg as a new link in front of cause.
func WrapError(msg string, cause error) *ChainError {
	return &ChainError{msg: msg, cause: cause}
}

func (e *ChainError) Error() string {
	return FlattenError(e)
}

func (e *ChainError) Unwrap() error {
	return e.cause
}

// FlattenError renders an error chain as a single line, outermost message
// first, links joined by " | ". Links that are not ChainErrors terminate the
// walk because their Error text already includes anything they wrap.
func FlattenError(err error) string {
	var parts []string
	for err != nil {
		chain, ok := err.(*ChainError)
		if !ok {
			parts = append(parts, err.Error())
			break
		}
		parts = append(parts, chain.msg)
		err = chain.cause
	}
	return strings.Join(parts, " | ")
}
