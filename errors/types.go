package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Transport errors
	ErrCodeAddressInvalid ErrorCode = "ADDRESS_INVALID"
	ErrCodeConnectFailed  ErrorCode = "CONNECT_FAILED"
	ErrCodeDisconnected   ErrorCode = "DISCONNECTED"
	ErrCodeSendFailed     ErrorCode = "SEND_FAILED"

	// Protocol errors
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
	ErrCodeEncodeFailed ErrorCode = "ENCODE_FAILED"

	// Session errors
	ErrCodeConnectionRefused ErrorCode = "CONNECTION_REFUSED"
	ErrCodeNotConnected      ErrorCode = "NOT_CONNECTED"
	ErrCodeSlotDataInvalid   ErrorCode = "SLOT_DATA_INVALID"

	// Cache errors
	ErrCodeCacheDirUnavailable ErrorCode = "CACHE_DIR_UNAVAILABLE"
	ErrCodeCacheReadFailed     ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWriteFailed    ErrorCode = "CACHE_WRITE_FAILED"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error represents a structured error with context
type Error struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *Error) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific Error code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	coded, ok := err.(*Error)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return coded.Code
}

// As returns the first *Error in the chain of err.
func As(err error) (*Error, bool) {
	for err != nil {
		if coded, ok := err.(*Error); ok {
			return coded, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
