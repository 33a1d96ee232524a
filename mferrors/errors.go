// Package mferrors defines the Kind-tagged error type shared across every
// mapflow package (spec §7).
//
// Error policy (explicit and strict):
//   - Only sentinel Kind values are exposed as part of the public contract.
//   - Callers branch on semantics with errors.Is / errors.As against *Error
//     or against the Kind sentinels below.
//   - Implementations attach context with Wrap(kind, op, err); sentinels are
//     never hand-formatted into ad-hoc strings at the call site.
//
// lvlath/builder's own error policy is flatter (package-level sentinel
// vars plus a private errorf helper, no Kind or wrapped-struct type); this
// package keeps that policy's "only sentinels, never ad-hoc strings" spirit
// but layers a Kind enum on top so callers can group errors by category
// (spec §7) without a long errors.Is chain against every sentinel.
package mferrors

import (
	"errors"
	"fmt"
)

// Kind classifies a mapflow error per spec §7.
type Kind int

const (
	// InvalidConfiguration indicates contradictory or out-of-range options.
	InvalidConfiguration Kind = iota
	// InvalidGraph indicates negative weight, unknown endpoint, or a
	// duplicate state id with conflicting physical id.
	InvalidGraph
	// FlowModelUnsupported indicates a flow-model/option combination with
	// no implementation (e.g. rawdir + bipartite adjustment).
	FlowModelUnsupported
	// NonconvergedFlow indicates the power iteration exhausted its budget;
	// surfaced as a warning alongside the best available flow, never fatal.
	NonconvergedFlow
	// InternalConsistency indicates an invariant of the data model (§3) was
	// violated; this is a programmer error, not a user input error.
	InternalConsistency
)

// String renders the Kind for log lines and error messages.
func (k Kind) String() string {
	switch k {
	case InvalidConfiguration:
		return "invalid configuration"
	case InvalidGraph:
		return "invalid graph"
	case FlowModelUnsupported:
		return "flow model unsupported"
	case NonconvergedFlow:
		return "flow did not converge"
	case InternalConsistency:
		return "internal consistency violated"
	default:
		return "unknown error"
	}
}

// Error is a Kind-tagged, op-scoped error. Op names the failing operation
// (e.g. "statenet.AddLink", "flowmodel.Calculate") so a caller can locate
// the fault without parsing the message.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mapflow: %s: %s: %v", e.Op, e.Kind, e.Err)
	}

	return fmt.Sprintf("mapflow: %s: %s", e.Op, e.Kind)
}

// Unwrap exposes the wrapped error to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, mferrors.New(mferrors.InvalidGraph, "", nil)) or,
// more idiomatically, errors.Is(err, mferrors.InvalidGraph) via KindError.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}

	return false
}

// New constructs an *Error with the given Kind, operation name, and
// (optionally nil) wrapped cause.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap attaches operation context to err under the given Kind. If err is
// already an *Error of the same Kind produced at a deeper Op, it is wrapped
// again rather than collapsed, preserving the call chain in Op.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return 0, false
}
