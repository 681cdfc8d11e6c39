package lifecycle

import "fmt"

// Transition is a lifecycle operation applied to a set of services.
type Transition int

const (
	// Kill signals running replicas.
	Kill Transition = iota + 1
	// Down terminates running replicas and stops them.
	Down
	// Remove deletes stopped replicas.
	Remove
	// Cull terminates, stops and deletes every replica.
	Cull
	// Recreate restarts every replica.
	Recreate
)

// Transitions lists every transition in command order.
func Transitions() []Transition {
	return []Transition{Kill, Down, Remove, Cull, Recreate}
}

// String returns the command name of the transition.
func (t Transition) String() string {
	switch t {
	case Kill:
		return "kill"
	case Down:
		return "down"
	case Remove:
		return "rm"
	case Cull:
		return "cull"
	case Recreate:
		return "recreate"
	default:
		return fmt.Sprintf("transition(%d)", int(t))
	}
}

// Summary is the one-line help text of the transition's command.
func (t Transition) Summary() string {
	switch t {
	case Kill:
		return "Gracefully terminate services"
	case Down:
		return "Stop services"
	case Remove:
		return "Delete stopped services"
	case Cull:
		return "Stop and delete services"
	case Recreate:
		return "Restart services"
	default:
		return ""
	}
}

// ParseTransition resolves a command name.
func ParseTransition(name string) (Transition, error) {
	for _, t := range Transitions() {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%s command not found", name)
}
