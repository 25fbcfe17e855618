package cli

import "fmt"

// Process exit codes returned through ExitError.
const (
	exitConfig  = 1
	exitRuntime = 2
)

// ExitError tells main which process exit code a failed command wants.
// Commands return it from RunE instead of calling os.Exit directly.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// exitError formats a message into an ExitError.
func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}
