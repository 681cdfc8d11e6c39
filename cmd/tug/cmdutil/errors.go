package cmdutil

import (
	"context"
	"errors"
	"fmt"

	"tug/internal/engine"
	"tug/internal/lifecycle"
	"tug/internal/project"
)

// ExitCodeError carries the status of a child process the command ran in
// the foreground. Nothing is printed for it.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode returns the process status for err: 0 for nil, the child status
// for an ExitCodeError with a positive code, and 1 otherwise.
func ExitCode(err error) int {
	var exitErr *ExitCodeError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr) && exitErr.Code > 0:
		return exitErr.Code
	default:
		return 1
	}
}

// Outcome decides what the process prints and how it exits once the command
// returns. aborted reports whether an interrupt arrived while it ran, which
// fails the run even when the command itself returned nil.
func Outcome(err error, aborted bool) (message string, code int) {
	var exitErr *ExitCodeError
	switch {
	case aborted:
		return Describe(context.Canceled), 1
	case err == nil:
		return "", 0
	case errors.As(err, &exitErr):
		return "", ExitCode(err)
	default:
		return Describe(err), ExitCode(err)
	}
}

// Describe turns a command failure into the single line printed before
// exiting.
func Describe(err error) string {
	var (
		cfgErr   *project.ConfigurationError
		svcErr   *project.NoSuchServiceError
		buildErr *lifecycle.BuildError
		apiErr   *engine.APIError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return "Aborting."
	case errors.As(err, &buildErr):
		return buildErr.Error()
	case errors.As(err, &cfgErr):
		return cfgErr.Error()
	case errors.As(err, &svcErr):
		return svcErr.Error()
	case errors.As(err, &apiErr):
		return engine.Explain(apiErr)
	default:
		return "error: " + err.Error()
	}
}
