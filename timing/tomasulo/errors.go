package tomasulo

import "fmt"

// EngineError reports an invariant violation (spec §7 kind 3): a
// reservation station found in a state that violates the invariants of
// spec §3, or a CDB producer whose tag fails to resolve. These are
// programming bugs, not user errors — the engine aborts the step
// without advancing the cycle.
type EngineError struct {
	Cycle   int
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("tomasulo: invariant violated at cycle %d: %s", e.Cycle, e.Message)
}

func engineErrorf(cycle int, format string, args ...any) *EngineError {
	return &EngineError{Cycle: cycle, Message: fmt.Sprintf(format, args...)}
}
