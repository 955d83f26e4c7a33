package opentui

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind names a failure mode by cause rather than by Go type, per
// spec §7's taxonomy — every kind here maps to exactly one recovery
// policy, enforced by the callers that construct these, not by the
// error type itself.
type ErrorKind string

const (
	KindGeometryClip       ErrorKind = "geometry-clip"
	KindMalformedInput     ErrorKind = "malformed-input"
	KindLayoutFailure      ErrorKind = "layout-failure"
	KindCapabilityMissing  ErrorKind = "capability-missing"
	KindIOWrite            ErrorKind = "io-write"
	KindIOClosed           ErrorKind = "io-closed"
	KindFatalInternal      ErrorKind = "fatal-internal"
)

// Error carries a Kind alongside the usual wrapped cause, so callers can
// switch on Kind without string-matching or type-asserting a concrete
// error type (REDESIGN FLAGS "typed exception hierarchy → explicit
// discriminated error kind").
type Error struct {
	Kind ErrorKind
	Op   string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.err }

// newError builds an Error wrapping cause with errors.WithStack so a
// later errors.Cause/%+v can recover the originating frame, matching the
// pack's general preference for pkg/errors over bare fmt.Errorf chains.
func newError(kind ErrorKind, op string, cause error) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Kind: kind, Op: op, err: cause}
}

// KindOf reports the Kind of err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// layoutFailure records a per-node layout error, surfaced once via
// logging by the caller rather than propagated, per the `layout-failure`
// policy of keeping the previous layout and flagging the node.
func layoutFailure(n *Node, cause error) *Error {
	return newError(KindLayoutFailure, fmt.Sprintf("layout(%s)", n.ID), cause)
}
