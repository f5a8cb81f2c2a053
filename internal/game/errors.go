package game

import "fmt"

// GuardError reports an operation requested while its preconditions were
// unmet. It is an ordinary failure result, not an exceptional condition:
// the state is left unchanged and the message names the specific guard so
// the operator surface can show something actionable.
type GuardError struct {
	Op     string
	Phase  Phase
	Reason string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s refused in phase %q: %s", e.Op, e.Phase, e.Reason)
}

func refuse(op string, phase Phase, format string, args ...any) error {
	return &GuardError{Op: op, Phase: phase, Reason: fmt.Sprintf(format, args...)}
}
