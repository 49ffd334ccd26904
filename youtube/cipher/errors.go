package cipher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ytget/sigsolver/errs"
)

// Error codes
const (
	ErrCodeNetwork          = "PLAYER_DOWNLOAD_FAILED"
	ErrCodeSyntax           = "PLAYER_PARSE_FAILED"
	ErrCodeStructure        = "PLAYER_STRUCTURE_UNEXPECTED"
	ErrCodeAmbiguous        = "FUNCTION_AMBIGUOUS"
	ErrCodeEvaluation       = "JS_EXECUTION_FAILED"
	ErrCodeMissingSolver    = "SOLVER_MISSING"
	ErrCodeMissingParameter = "PARAMETER_MISSING"
	ErrCodeStsNotFound      = "STS_NOT_FOUND"
	ErrCodeInvalidURL       = "URL_INVALID"
	ErrCodeCancelled        = "REQUEST_CANCELLED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// codes maps taxonomy sentinels to error codes, most specific first.
var codes = []struct {
	sentinel error
	code     string
}{
	{errs.ErrNetwork, ErrCodeNetwork},
	{errs.ErrSyntax, ErrCodeSyntax},
	{errs.ErrStructure, ErrCodeStructure},
	{errs.ErrAmbiguous, ErrCodeAmbiguous},
	{errs.ErrEvaluation, ErrCodeEvaluation},
	{errs.ErrMissingSolver, ErrCodeMissingSolver},
	{errs.ErrMissingParameter, ErrCodeMissingParameter},
	{errs.ErrStsNotFound, ErrCodeStsNotFound},
	{errs.ErrInvalidURL, ErrCodeInvalidURL},
	{context.Canceled, ErrCodeCancelled},
	{context.DeadlineExceeded, ErrCodeCancelled},
}

// Error represents a structured error with code and details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`

	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, so errors.Is matches the errs
// sentinels it wraps.
func (e *Error) Unwrap() error { return e.cause }

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// NewError creates a new Error with the given code and message
func NewError(code string, message string, details ...any) *Error {
	e := &Error{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// wrap turns err into an *Error coded after the first taxonomy sentinel it
// matches, or ErrCodeInternal when none does. Errors that already are
// *Error, and nil, pass through.
func wrap(err error, details any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	code := ErrCodeInternal
	for _, c := range codes {
		if errors.Is(err, c.sentinel) {
			code = c.code
			break
		}
	}
	return &Error{Code: code, Message: err.Error(), Details: details, cause: err}
}

// codeOf returns the code of the first *Error in err's chain.
func codeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsClientError reports whether err is deterministic given the caller's
// input and should not be retried.
func IsClientError(err error) bool {
	if errs.IsClientError(err) {
		return true
	}
	switch codeOf(err) {
	case ErrCodeMissingSolver, ErrCodeMissingParameter, ErrCodeInvalidURL:
		return true
	}
	return false
}

// IsNotFound reports whether the requested value is absent from the player.
func IsNotFound(err error) bool {
	return errors.Is(err, errs.ErrStsNotFound) || codeOf(err) == ErrCodeStsNotFound
}

// IsPipelineError reports whether err aborted solver construction.
func IsPipelineError(err error) bool {
	for _, s := range []error{errs.ErrNetwork, errs.ErrSyntax, errs.ErrStructure, errs.ErrAmbiguous, errs.ErrEvaluation} {
		if errors.Is(err, s) {
			return true
		}
	}
	switch codeOf(err) {
	case ErrCodeNetwork, ErrCodeSyntax, ErrCodeStructure, ErrCodeAmbiguous, ErrCodeEvaluation:
		return true
	}
	return false
}

// IsCancelled reports whether err ended because the caller's context was
// cancelled or timed out.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		codeOf(err) == ErrCodeCancelled
}

// IsJSError reports whether err came from parsing or running player code.
func IsJSError(err error) bool {
	switch codeOf(err) {
	case ErrCodeEvaluation, ErrCodeSyntax:
		return true
	}
	return false
}
