package progress

import (
	"strings"
	"sync"
)

// Status is the lifecycle state of a step.
type Status string

const (
	Pending Status = "pending"
	Running Status = "running"
	Done    Status = "done"
	Failed  Status = "failed"
)

// Step is one unit of work within a command, such as recreating a service.
type Step struct {
	ID      string
	Title   string
	Message string
	Status  Status
}

// Snapshot is the state of all steps, emitted on every change.
type Snapshot struct {
	Steps []Step
}

// Active returns the title of the most recently started running step.
func (s Snapshot) Active() string {
	for i := len(s.Steps) - 1; i >= 0; i-- {
		if s.Steps[i].Status == Running {
			return s.Steps[i].Title
		}
	}
	return ""
}

// Reporter receives a snapshot whenever a step transitions.
type Reporter func(Snapshot)

// Tracker records steps as a command runs. A nil *Tracker is valid and
// records nothing.
type Tracker struct {
	mu       sync.Mutex
	steps    []Step
	byID     map[string]int
	reporter Reporter
}

// New creates a tracker that reports to reporter.
func New(reporter Reporter) *Tracker {
	return &Tracker{byID: make(map[string]int), reporter: reporter}
}

// Start marks a step running, adding it if unseen, and returns its end
// handle. Call the handle with nil on success or the failure otherwise.
func (t *Tracker) Start(id, title string) func(error) {
	if t == nil {
		return func(error) {}
	}
	id = normalizeID(id)

	t.mu.Lock()
	idx, ok := t.byID[id]
	if !ok {
		idx = len(t.steps)
		t.byID[id] = idx
		t.steps = append(t.steps, Step{ID: id})
	}
	if strings.TrimSpace(title) == "" {
		title = id
	}
	t.steps[idx].Title = title
	t.steps[idx].Message = ""
	t.steps[idx].Status = Running
	t.emitLocked()
	t.mu.Unlock()

	var once sync.Once
	return func(err error) {
		once.Do(func() { t.finish(idx, err) })
	}
}

// Do is Start, fn, then end(err).
func (t *Tracker) Do(id, title string, fn func() error) error {
	end := t.Start(id, title)
	err := fn()
	end(err)
	return err
}

// Snapshot returns the current state of every step.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) finish(idx int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.steps[idx].Status = Failed
		t.steps[idx].Message = strings.TrimSpace(err.Error())
	} else {
		t.steps[idx].Status = Done
	}
	t.emitLocked()
}

func (t *Tracker) emitLocked() {
	if t.reporter == nil {
		return
	}
	t.reporter(t.snapshotLocked())
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := make([]Step, len(t.steps))
	copy(snap, t.steps)
	return Snapshot{Steps: snap}
}

func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "unnamed"
	}
	return id
}
