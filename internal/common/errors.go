package common

import (
	"errors"
	"fmt"
)

// BusinessError is a business-rule rejection: the collaborator answered,
// but the operation is not allowed. Transport and persistence failures are
// plain wrapped errors and never of this type.
type BusinessError struct {
	Code    string
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// NewBusinessError creates a business-rule rejection with a stable code.
func NewBusinessError(code, format string, args ...interface{}) *BusinessError {
	return &BusinessError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsBusinessError reports whether err (or anything it wraps) is a
// business-rule rejection.
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
