package apply

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/1broseidon/displaysnap/internal/display"
	"github.com/1broseidon/displaysnap/internal/reconcile"
)

// Applier executes a reconciliation plan against the OS display interface.
// Operations run strictly in plan order: the display subsystem is not safe
// for concurrent topology mutation and intermediate states must stay valid.
type Applier struct {
	backend display.Backend
	logger  *slog.Logger
}

// New creates an applier. A nil logger disables logging.
func New(backend display.Backend, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{backend: backend, logger: logger}
}

// Apply executes the plan and reports per-operation outcomes. A single
// failed operation never aborts the plan; independent operations keep
// executing and failures accumulate in the report. After the full plan ran,
// failed enable/reposition operations get exactly one best-effort retry
// (transient driver busy-states are common). Disable failures are not
// retried: a monitor that refuses to disable is left enabled. There is no
// automatic rollback.
//
// The context is consulted between operations only; an in-flight OS call is
// not cancellable.
func (a *Applier) Apply(ctx context.Context, plan *reconcile.Plan) (*Report, error) {
	report := &Report{Warnings: plan.Warnings}
	ops := make([]reconcile.Operation, len(plan.Ops))
	copy(ops, plan.Ops)

	// Identifiers may be reassigned after a topology mutation; re-validate
	// targets against a fresh enumeration whenever the previous operation
	// enabled or disabled a display.
	needRefresh := false

	for i := range ops {
		if err := ctx.Err(); err != nil {
			report.Steps = append(report.Steps, StepResult{
				Op: ops[i], Outcome: Skipped, Reason: "canceled",
			})
			continue
		}

		if needRefresh {
			resolved, reason, err := a.refreshTarget(&ops[i])
			if err != nil {
				// A failed mid-plan enumeration leaves us blind; skip the
				// rest rather than mutate displays we cannot identify.
				for j := i; j < len(ops); j++ {
					report.Steps = append(report.Steps, StepResult{
						Op: ops[j], Outcome: Skipped, Reason: "enumeration failed",
					})
				}
				return report, err
			}
			if !resolved {
				report.Steps = append(report.Steps, StepResult{
					Op: ops[i], Outcome: Skipped, Reason: reason,
				})
				continue
			}
		}

		report.Steps = append(report.Steps, a.execute(ops[i]))

		if ops[i].Kind == reconcile.OpEnable || ops[i].Kind == reconcile.OpDisable {
			needRefresh = true
		}
	}

	a.retryFailed(ctx, report)
	return report, nil
}

// execute runs one operation, probing for detached hardware before enables.
func (a *Applier) execute(op reconcile.Operation) StepResult {
	if op.Kind == reconcile.OpEnable {
		// A monitor that was detached may need a hardware re-probe before
		// the server will drive it again.
		if err := a.backend.Detect(); err != nil {
			a.logger.Warn("hardware re-probe failed", "error", err)
		}
	}

	a.logger.Info("applying operation", "op", op.String())
	if err := a.backend.SetState(op.Request()); err != nil {
		a.logger.Warn("operation failed", "op", op.String(), "error", err)
		return StepResult{Op: op, Outcome: Failed, Reason: err.Error()}
	}
	return StepResult{Op: op, Outcome: Succeeded}
}

// refreshTarget re-resolves an operation's target identity against a fresh
// enumeration, following the same fallback matching policy as planning.
// Returns resolved=false with a reason when the display is gone.
func (a *Applier) refreshTarget(op *reconcile.Operation) (resolved bool, reason string, err error) {
	live, err := a.backend.Enumerate()
	if err != nil {
		return false, "", fmt.Errorf("mid-plan enumeration: %w", err)
	}

	if display.FindByDevicePath(live, op.Target.DevicePath) != -1 {
		return true, "", nil
	}

	want := display.State{
		Identity: op.Target,
		Enabled:  op.Kind != reconcile.OpDisable,
		Mode:     op.Mode,
		X:        op.X,
		Y:        op.Y,
	}
	id, ok := reconcile.ResolveIdentity(live, want)
	if !ok {
		return false, "not connected", nil
	}
	if id != op.Target {
		a.logger.Info("identity drifted mid-plan",
			"from", op.Target.String(), "to", id.String())
		op.Target = id
	}
	return true, "", nil
}

// retryFailed gives failed enable/reposition steps one more chance.
func (a *Applier) retryFailed(ctx context.Context, report *Report) {
	for _, i := range report.FailedSteps() {
		step := &report.Steps[i]
		kind := step.Op.Kind
		if kind != reconcile.OpEnable && kind != reconcile.OpReposition {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		a.logger.Info("retrying failed operation", "op", step.Op.String())
		if err := a.backend.SetState(step.Op.Request()); err != nil {
			step.Reason = err.Error()
			step.Retried = true
			continue
		}
		step.Outcome = Succeeded
		step.Reason = ""
		step.Retried = true
	}
}
