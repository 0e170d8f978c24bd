package tmplstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for rendering and registry operations.
var (
	ErrInvalidSlotValue       = errors.New("tmplstream: invalid slot value")
	ErrInvalidComponentOutput = errors.New("tmplstream: invalid component output")
	ErrClosed                 = errors.New("tmplstream: stream closed")

	ErrNotFound         = errors.New("tmplstream: resource not found")
	ErrDecryptFailed    = errors.New("tmplstream: parameter decryption failed")
	ErrSignatureInvalid = errors.New("tmplstream: signature verification failed")
	ErrInvalidFormat    = errors.New("tmplstream: invalid parameter format")
	ErrHydrationFailed  = errors.New("tmplstream: hydration failed")
)

// invalidTemplateMessage is the user-facing text of InvalidComponentOutputError.
const invalidTemplateMessage = "Invalid template."

// InvalidSlotValueError reports a slot value that matched none of the
// resolvable shapes. Value is the offending value, unchanged.
type InvalidSlotValueError struct {
	Value any
}

func (e *InvalidSlotValueError) Error() string {
	return fmt.Sprintf("tmplstream: invalid slot value of type %T: %#v", e.Value, e.Value)
}

// Is reports whether target is ErrInvalidSlotValue.
func (e *InvalidSlotValueError) Is(target error) bool {
	return target == ErrInvalidSlotValue
}

// InvalidComponentOutputError reports a component whose return value did not
// reduce to one or more templates.
type InvalidComponentOutputError struct {
	Output any
}

func (e *InvalidComponentOutputError) Error() string {
	return invalidTemplateMessage
}

// Is reports whether target is ErrInvalidComponentOutput.
func (e *InvalidComponentOutputError) Is(target error) bool {
	return target == ErrInvalidComponentOutput
}

// IsInvalidSlotValue checks if err is an invalid slot value error.
func IsInvalidSlotValue(err error) bool {
	return errors.Is(err, ErrInvalidSlotValue)
}

// IsInvalidComponentOutput checks if err is an invalid component output error.
func IsInvalidComponentOutput(err error) bool {
	return errors.Is(err, ErrInvalidComponentOutput)
}

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrInvalidFormat)
}
