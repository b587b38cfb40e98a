package reconcile

import (
	"fmt"

	"github.com/1broseidon/displaysnap/internal/display"
)

// OpKind identifies a plan operation.
type OpKind string

const (
	OpEnable     OpKind = "enable"
	OpDisable    OpKind = "disable"
	OpReposition OpKind = "reposition"
	OpSetPrimary OpKind = "set-primary"
)

// Operation is one step of a plan. Target is the live identity the hardware
// currently knows the display by, which can differ from the identity recorded
// in the profile when the device path drifted. Mode and position carry the
// full desired state so the applier can re-assert it in one call; on a
// disable they carry the display's last observed geometry instead, used only
// for mid-plan re-identification.
type Operation struct {
	Kind    OpKind           `json:"kind"`
	Target  display.Identity `json:"target"`
	Mode    display.Mode     `json:"mode,omitempty"`
	X       int              `json:"x"`
	Y       int              `json:"y"`
	Primary bool             `json:"primary,omitempty"`
}

func (op Operation) String() string {
	switch op.Kind {
	case OpDisable:
		return fmt.Sprintf("disable %s", op.Target)
	case OpEnable:
		return fmt.Sprintf("enable %s %s at (%d,%d)", op.Target, op.Mode, op.X, op.Y)
	case OpReposition:
		return fmt.Sprintf("move %s to (%d,%d)", op.Target, op.X, op.Y)
	case OpSetPrimary:
		return fmt.Sprintf("set primary %s", op.Target)
	}
	return string(op.Kind)
}

// Request converts the operation into a backend request.
func (op Operation) Request() display.Request {
	return display.Request{
		Identity: op.Target,
		Enabled:  op.Kind != OpDisable,
		Mode:     op.Mode,
		X:        op.X,
		Y:        op.Y,
		Primary:  op.Kind == OpSetPrimary || op.Primary,
	}
}

// Plan is a total order of operations: later operations may assume earlier
// ones already landed. Warnings carry non-fatal findings (absent displays,
// overlapping target geometry).
type Plan struct {
	Ops      []Operation `json:"ops"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Empty reports whether the plan performs no work.
func (p *Plan) Empty() bool {
	return len(p.Ops) == 0
}

// InvalidPlanError reports a plan that would produce an unsafe topology. It
// is raised at plan-construction time, before any OS mutation.
type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("invalid plan: %s", e.Reason)
}
