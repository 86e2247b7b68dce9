package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/mezonai/lightsync/jsonx"
)

// ErrorCode is the machine readable kind of a SyncStateError
type ErrorCode string

const (
	// Backend and storage
	ErrCodeBackend                ErrorCode = "backend_error"
	ErrCodeMissingFinalizedHeader ErrorCode = "missing_finalized_header"
	ErrCodeBlockWeightMissing     ErrorCode = "block_weight_missing"

	// Chain spec document
	ErrCodeExtensionNotFound    ErrorCode = "extension_not_found"
	ErrCodeSerializationFailure ErrorCode = "serialization_failure"

	// Encoding
	ErrCodeEncodingFailure ErrorCode = "encoding_failure"

	// Call policy and request shape
	ErrCodeUnsafeCallRejected ErrorCode = "unsafe_call_rejected"
	ErrCodeInvalidParams      ErrorCode = "invalid_params"
)

// Error message constants
const (
	ErrMsgMissingFinalizedHeader = "Header for finalized block %s is missing"
	ErrMsgBlockWeightMissing     = "Failed to load the block weight for block %s"
	ErrMsgExtensionNotFound      = "The light sync state extension is not provided by the chain spec"
	ErrMsgEncodingFailure        = "Failed to encode %s"
	ErrMsgUnsafeCallRejected     = "RPC call is unsafe to be called externally"
	ErrMsgSerializationFailure   = "Failed to serialize chain spec"
	ErrMsgInvalidParams          = "Invalid parameters"
)

// SyncStateError carries a kind and a human readable message, plus an optional cause.
type SyncStateError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	cause error
}

// Error implements the error interface
func (e *SyncStateError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *SyncStateError) Unwrap() error {
	return e.cause
}

// Is matches any SyncStateError with the same code, so sentinels below work with errors.Is.
func (e *SyncStateError) Is(target error) bool {
	t, ok := target.(*SyncStateError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// JSON returns the wire form {"code": ..., "message": ...}.
func (e *SyncStateError) JSON() []byte {
	out, _ := jsonx.Marshal(SyncStateError{
		Code:    e.Code,
		Message: e.Error(),
	})
	return out
}

// Sentinels for errors.Is checks
var (
	ErrBackend                = &SyncStateError{Code: ErrCodeBackend}
	ErrMissingFinalizedHeader = &SyncStateError{Code: ErrCodeMissingFinalizedHeader}
	ErrBlockWeightMissing     = &SyncStateError{Code: ErrCodeBlockWeightMissing}
	ErrExtensionNotFound      = &SyncStateError{Code: ErrCodeExtensionNotFound}
	ErrEncodingFailure        = &SyncStateError{Code: ErrCodeEncodingFailure}
	ErrUnsafeCallRejected     = &SyncStateError{Code: ErrCodeUnsafeCallRejected}
	ErrSerializationFailure   = &SyncStateError{Code: ErrCodeSerializationFailure}
	ErrInvalidParams          = &SyncStateError{Code: ErrCodeInvalidParams}
)

// NewError creates a new SyncStateError and returns it as error interface
func NewError(code ErrorCode, message string) error {
	return &SyncStateError{
		Code:    code,
		Message: message,
	}
}

// Wrap tags cause with code. An existing SyncStateError is passed through unchanged.
func Wrap(code ErrorCode, cause error, message string) error {
	if cause == nil {
		return NewError(code, message)
	}
	var existing *SyncStateError
	if stderrors.As(cause, &existing) {
		return cause
	}
	return &SyncStateError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// CodeOf returns the code of the first SyncStateError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *SyncStateError
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func MissingFinalizedHeader(hash fmt.Stringer) error {
	return NewError(ErrCodeMissingFinalizedHeader, fmt.Sprintf(ErrMsgMissingFinalizedHeader, hash))
}

func BlockWeightMissing(hash fmt.Stringer) error {
	return NewError(ErrCodeBlockWeightMissing, fmt.Sprintf(ErrMsgBlockWeightMissing, hash))
}

func ExtensionNotFound() error {
	return NewError(ErrCodeExtensionNotFound, ErrMsgExtensionNotFound)
}

func EncodingFailure(what string, cause error) error {
	return Wrap(ErrCodeEncodingFailure, cause, fmt.Sprintf(ErrMsgEncodingFailure, what))
}

func UnsafeCallRejected() error {
	return NewError(ErrCodeUnsafeCallRejected, ErrMsgUnsafeCallRejected)
}

func SerializationFailure(cause error) error {
	return Wrap(ErrCodeSerializationFailure, cause, ErrMsgSerializationFailure)
}

func InvalidParams(cause error) error {
	return Wrap(ErrCodeInvalidParams, cause, ErrMsgInvalidParams)
}
