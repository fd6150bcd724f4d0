package ir

import (
	"errors"
	"fmt"
)

// ErrorKind is the taxonomy a caller uses to render a failure.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth"
	KindValidation      ErrorKind = "validation"
	KindConflict        ErrorKind = "conflict"
	KindNotFound        ErrorKind = "not_found"
	KindAlreadyRemoved  ErrorKind = "already_removed"
	KindIndexOutOfRange ErrorKind = "index_out_of_range"
	KindUnknown         ErrorKind = "unknown"
)

// ErrorCode identifies a registry failure. Values match the revert strings
// the registries have always reported, so UIs can keep their message tables.
type ErrorCode string

const (
	CodeAuthFailed             ErrorCode = "APP_AUTH_FAILED"
	CodeInvalidValue           ErrorCode = "ERROR_INVALID_VALUE"
	CodeInvalidAddress         ErrorCode = "ERROR_INVALID_ADDRESS"
	CodeInvalidType            ErrorCode = "ERROR_INVALID_TYPE"
	CodeOwnerEmpty             ErrorCode = "ERROR_OWNER_EMPTY"
	CodeDomainEmpty            ErrorCode = "ERROR_DOMAIN_EMPTY"
	CodeOwnerInUse             ErrorCode = "ERROR_OWNER_IN_USE"
	CodeDomainInUse            ErrorCode = "ERROR_DOMAIN_IN_USE"
	CodeValuePartOfList        ErrorCode = "ERROR_VALUE_PART_OF_THE_LIST"
	CodeValueNotPartOfList     ErrorCode = "ERROR_VALUE_NOT_PART_OF_THE_LIST"
	CodeCatalystNotFound       ErrorCode = "ERROR_CATALYST_NOT_FOUND"
	CodeCatalystAlreadyRemoved ErrorCode = "ERROR_CATALYST_ALREADY_REMOVED"
	CodeInvalidIndex           ErrorCode = "ERROR_INVALID_INDEX"
)

// Kind maps the code onto the error taxonomy.
func (c ErrorCode) Kind() ErrorKind {
	switch c {
	case CodeAuthFailed:
		return KindAuth
	case CodeInvalidValue, CodeInvalidAddress, CodeInvalidType, CodeOwnerEmpty, CodeDomainEmpty:
		return KindValidation
	case CodeOwnerInUse, CodeDomainInUse, CodeValuePartOfList:
		return KindConflict
	case CodeValueNotPartOfList, CodeCatalystNotFound:
		return KindNotFound
	case CodeCatalystAlreadyRemoved:
		return KindAlreadyRemoved
	case CodeInvalidIndex:
		return KindIndexOutOfRange
	default:
		return KindUnknown
	}
}

// Error is a deterministic registry failure.
//
// A registry operation that returns an *Error made no state change.
// Errors compare equal under errors.Is when their codes match, so the
// package-level sentinels below can be used as targets.
type Error struct {
	// Code identifies the failure.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (offending value, index, ...).
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Kind returns the taxonomy kind of the error.
func (e *Error) Kind() ErrorKind {
	return e.Code.Kind()
}

// Sentinels for errors.Is checks.
var (
	ErrAuthFailed             = &Error{Code: CodeAuthFailed}
	ErrInvalidValue           = &Error{Code: CodeInvalidValue}
	ErrInvalidAddress         = &Error{Code: CodeInvalidAddress}
	ErrInvalidType            = &Error{Code: CodeInvalidType}
	ErrOwnerEmpty             = &Error{Code: CodeOwnerEmpty}
	ErrDomainEmpty            = &Error{Code: CodeDomainEmpty}
	ErrOwnerInUse             = &Error{Code: CodeOwnerInUse}
	ErrDomainInUse            = &Error{Code: CodeDomainInUse}
	ErrValuePartOfList        = &Error{Code: CodeValuePartOfList}
	ErrValueNotPartOfList     = &Error{Code: CodeValueNotPartOfList}
	ErrCatalystNotFound       = &Error{Code: CodeCatalystNotFound}
	ErrCatalystAlreadyRemoved = &Error{Code: CodeCatalystAlreadyRemoved}
	ErrInvalidIndex           = &Error{Code: CodeInvalidIndex}
)

// NewError creates an Error with a message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithDetails creates an Error with a message and a single detail.
func NewErrorWithDetails(code ErrorCode, message, key, value string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: map[string]string{key: value},
	}
}

// IndexError creates the out-of-range error for a positional query.
func IndexError(i, size int) *Error {
	return &Error{
		Code:    CodeInvalidIndex,
		Message: fmt.Sprintf("index %d out of range (size %d)", i, size),
		Details: map[string]string{
			"index": fmt.Sprintf("%d", i),
			"size":  fmt.Sprintf("%d", size),
		},
	}
}

// CodeOf extracts the error code, or "" when err is not a registry error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// KindOf extracts the taxonomy kind, or KindUnknown when err is not a
// registry error.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind()
	}
	return KindUnknown
}

// IsRegistryError reports whether err (or anything it wraps) is an *Error.
func IsRegistryError(err error) bool {
	var re *Error
	return errors.As(err, &re)
}
