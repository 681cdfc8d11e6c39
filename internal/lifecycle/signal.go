package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// DefaultSignal is sent by kill, down and cull.
const DefaultSignal = "SIGTERM"

// NormalizeSignal validates a signal given by name ("TERM", "sigkill") or
// number and returns its canonical SIG-prefixed name.
func NormalizeSignal(sig string) (string, error) {
	sig = strings.ToUpper(strings.TrimSpace(sig))
	if sig == "" {
		return DefaultSignal, nil
	}
	if n, err := strconv.Atoi(sig); err == nil {
		name := unix.SignalName(syscall.Signal(n))
		if name == "" {
			return "", fmt.Errorf("invalid signal %q", sig)
		}
		return name, nil
	}
	if !strings.HasPrefix(sig, "SIG") {
		sig = "SIG" + sig
	}
	if unix.SignalNum(sig) == 0 {
		return "", fmt.Errorf("invalid signal %q", sig)
	}
	return sig, nil
}
