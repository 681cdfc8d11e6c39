package fake

import "sync"

// Call is one Engine method invocation as the double saw it. Args holds the
// arguments after the context, in declaration order.
type Call struct {
	Method string
	Args   []any
}

// Target returns the container ID or image reference the call acted on, or
// "" for calls without one.
func (c Call) Target() string {
	if len(c.Args) == 0 {
		return ""
	}
	s, _ := c.Args[0].(string)
	return s
}

// CallRecorder logs Engine calls in order so tests can assert what a
// convergence or reclaim touched.
type CallRecorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *CallRecorder) record(method string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: method, Args: args})
}

// Calls returns the calls to method. An empty method returns every call.
func (r *CallRecorder) Calls(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, 0, len(r.calls))
	for _, c := range r.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Methods lists the methods called on target in order. An empty target
// lists every call.
func (r *CallRecorder) Methods(target string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, c := range r.calls {
		if target == "" || c.Target() == target {
			out = append(out, c.Method)
		}
	}
	return out
}

// Reset forgets every recorded call, typically after seeding containers.
func (r *CallRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
