package errs

import "strings"

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "lastName", "error": "is required" }
type FieldError struct {
	// Field is the JSON field name the error relates to.
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// ActionType is a string-based enum describing what the client should do.
type ActionType string

const (
	// ActionTypeRedirect tells the client it should redirect somewhere.
	// Usually "Value" holds the URL or route.
	ActionTypeRedirect ActionType = "redirect"

	// ActionTypeRetry tells the client it may retry the request later.
	// "Value" holds the suggested wait in seconds.
	ActionTypeRetry ActionType = "retry"
)

// Action describes an optional "what the client should do next" instruction.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the main custom error type for API responses.
//
// It implements the `error` interface via Error() and is serialized directly
// to JSON. Every error response therefore carries a "message".
// Fields:
//   - Code: machine-friendly error code (e.g. "MISSING_DATA").
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Override: flag letting clients know the message is safe to display.
//   - Errors: list of per-field errors (validation).
//   - Action: client instruction, action to be taken (optional).
//   - Detail: underlying error text, only ever set in development.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	// Errors holds field-level validation errors.
	Errors []FieldError `json:"errors"`

	// Action is an optional client instruction.
	Action *Action `json:"action"`

	Detail string `json:"detail,omitempty"`
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is customizes how errors.Is(...) treats HTTPError.
//
// It does NOT compare Code/Status; it only checks whether target is also
// a *HTTPError.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Errors:   e.Errors,
		Action:   e.Action,
		Detail:   e.Detail,
	}
}

// WithDetail returns a copy of this HTTPError carrying detail.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	clone := e.WithMessage(e.Message)
	clone.Detail = detail
	return clone
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
