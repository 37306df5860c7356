package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Configuration errors
	ErrConfigParse   ErrorType = "CONFIG_PARSE_ERROR"
	ErrConfigInvalid ErrorType = "CONFIG_INVALID_ERROR"

	// AWS errors
	ErrAWSProfile     ErrorType = "AWS_PROFILE_ERROR"
	ErrRegionScan     ErrorType = "REGION_SCAN_ERROR"
	ErrMalformedInput ErrorType = "MALFORMED_INPUT_ERROR"

	// Output errors
	ErrOutput ErrorType = "OUTPUT_ERROR"

	// Log retention errors
	ErrEvaluation   ErrorType = "EVALUATION_ERROR"
	ErrNotification ErrorType = "NOTIFICATION_ERROR"

	// Inspector and Identity Center errors
	ErrFindings       ErrorType = "FINDINGS_ERROR"
	ErrIdentityCenter ErrorType = "IDENTITY_CENTER_ERROR"
)

// CustomError represents a custom error with additional context
type CustomError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	WrappedErr error
}

// New creates a new custom error
func New(errorType ErrorType, message string, context map[string]interface{}, wrappedErr error) *CustomError {
	return &CustomError{
		Type:       errorType,
		Message:    message,
		Context:    context,
		WrappedErr: wrappedErr,
	}
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.WrappedErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.WrappedErr)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *CustomError) Unwrap() error {
	return e.WrappedErr
}

// Is reports whether any error in err's chain is a CustomError of errType.
func Is(err error, errType ErrorType) bool {
	for err != nil {
		var customErr *CustomError
		if !stderrors.As(err, &customErr) {
			return false
		}
		if customErr.Type == errType {
			return true
		}
		err = customErr.WrappedErr
	}
	return false
}

// APICode returns the AWS API error code carried by err (for example
// "UnauthorizedOperation" or "OptInRequired"), or "" when err did not come
// from an AWS service response.
func APICode(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
