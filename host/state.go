package host

// State is the lifecycle state of a Host.
type State int

const (
	Unloaded State = iota
	Loading
	Rendering
	Paused
	Unloading
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Loading:
		return "Loading"
	case Rendering:
		return "Rendering"
	case Paused:
		return "Paused"
	case Unloading:
		return "Unloading"
	default:
		return "Unknown"
	}
}
