package engine

import (
	"errors"
	"strings"
)

var (
	// ErrUnavailable indicates the engine could not be reached at all.
	ErrUnavailable = errors.New("container engine is unavailable")
	// ErrNotFound indicates the referenced container or image does not exist.
	ErrNotFound = errors.New("not found")
	// ErrWaitTimeout is returned by ContainerWait when the container is still
	// running after the requested timeout.
	ErrWaitTimeout = errors.New("timed out waiting for container to exit")
)

// APIError is an engine call that failed or was rejected. Explanation carries
// the engine's own message and is what users see.
type APIError struct {
	Op          string
	Target      string
	Explanation string
	Err         error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Target != "" {
		b.WriteString(" ")
		b.WriteString(e.Target)
	}
	b.WriteString(": ")
	b.WriteString(e.Explanation)
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Explain returns the engine explanation of err when it carries one, and the
// plain error text otherwise.
func Explain(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Explanation != "" {
		return apiErr.Explanation
	}
	return err.Error()
}

// IsNotFound reports whether err means the target no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
