package converge

// Reason explains why a plan chose its action.
type Reason uint8

const (
	ReasonUnknown Reason = iota
	ReasonNoContainers
	ReasonConfigChanged
	ReasonConfigHashMissing
	ReasonForced
	ReasonStopped
	ReasonUpToDate
	ReasonScaleUp
)

func (r Reason) String() string {
	switch r {
	case ReasonNoContainers:
		return "no containers"
	case ReasonConfigChanged:
		return "config changed"
	case ReasonConfigHashMissing:
		return "config hash missing"
	case ReasonForced:
		return "forced recreate"
	case ReasonStopped:
		return "not running"
	case ReasonUpToDate:
		return "up to date"
	case ReasonScaleUp:
		return "scaling up"
	default:
		return "unknown"
	}
}
