package supervisor

import "fmt"

// Error is a run control failure reported to the caller.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Error codes
const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeState          = "STATE_ERROR"
	CodeAlreadyRunning = "ALREADY_RUNNING"
	CodeProcessControl = "PROCESS_CONTROL"
)

// Sentinels for errors.Is.
var (
	ErrInvalidInput   = &Error{Code: CodeInvalidInput}
	ErrState          = &Error{Code: CodeState}
	ErrAlreadyRunning = &Error{Code: CodeAlreadyRunning}
	ErrProcessControl = &Error{Code: CodeProcessControl}
)

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
