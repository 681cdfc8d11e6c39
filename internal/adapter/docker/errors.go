package docker

import (
	"fmt"
	"strings"

	"tug/internal/engine"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/client"
)

const daemonErrorPrefix = "Error response from daemon: "

// wrapErr converts a Docker client error into an engine.APIError, tagging
// refused connections and missing objects with the engine sentinels.
func wrapErr(op, target string, err error) error {
	if err == nil {
		return nil
	}
	apiErr := &engine.APIError{
		Op:          op,
		Target:      target,
		Explanation: explanation(err),
		Err:         err,
	}
	switch {
	case client.IsErrConnectionFailed(err):
		apiErr.Err = fmt.Errorf("%w: %w", engine.ErrUnavailable, err)
	case isNotFound(err):
		apiErr.Err = fmt.Errorf("%w: %w", engine.ErrNotFound, err)
	}
	return apiErr
}

func isNotFound(err error) bool {
	return errdefs.IsNotFound(err)
}

func explanation(err error) string {
	msg := strings.TrimSpace(err.Error())
	return strings.TrimPrefix(msg, daemonErrorPrefix)
}
