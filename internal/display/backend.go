package display

// Request carries the desired state for a single display to the backend.
// When Enabled is false only the identity matters.
type Request struct {
	Identity Identity
	Enabled  bool
	Mode     Mode
	X        int
	Y        int
	Primary  bool
}

// Backend abstracts the OS display-configuration interface. Implementations
// are not safe for concurrent topology mutation; callers must serialize
// SetState against Enumerate of the same backend.
type Backend interface {
	// Enumerate returns all known displays, including connected-but-disabled
	// ones, in adapter order. A failed query wraps into EnumerationError.
	Enumerate() ([]State, error)

	// SetState applies the requested state to one display. The call may block
	// for the duration of a monitor re-sync.
	SetState(req Request) error

	// Detect forces a hardware re-probe so physically connected but disabled
	// displays re-enumerate before an enable.
	Detect() error
}
