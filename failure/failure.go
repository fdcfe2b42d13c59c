// Package failure - Error taxonomy for a capture-to-classification attempt.
//
// Every failure is terminal for the capture attempt that produced it. Callers
// branch on the Kind, never on the message text.
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which stage of a capture attempt failed.
type Kind string

const (
	// KindNone is reported for errors that did not come from this taxonomy.
	KindNone Kind = ""
	// KindCapture is a capture source that could not deliver a photo.
	KindCapture Kind = "capture_failure"
	// KindRendering is an undecodable source or an unavailable scaling surface.
	KindRendering Kind = "rendering_failure"
	// KindBufferAllocation is a pixel buffer that could not be allocated.
	KindBufferAllocation Kind = "buffer_allocation_failure"
	// KindContextCreation is a drawing context that could not bind to buffer memory.
	KindContextCreation Kind = "context_creation_failure"
	// KindInference is a classifier that could not produce a label.
	KindInference Kind = "inference_failure"
)

// Kinds lists every failure kind in pipeline order.
var Kinds = []Kind{
	KindCapture,
	KindRendering,
	KindBufferAllocation,
	KindContextCreation,
	KindInference,
}

// Sentinels for errors.Is comparisons. They match any *Error of the same Kind.
var (
	ErrCapture          = &Error{Kind: KindCapture}
	ErrRendering        = &Error{Kind: KindRendering}
	ErrBufferAllocation = &Error{Kind: KindBufferAllocation}
	ErrContextCreation  = &Error{Kind: KindContextCreation}
	ErrInference        = &Error{Kind: KindInference}
)

// Error is a tagged failure of a single pipeline operation.
type Error struct {
	// Kind is the failure class.
	Kind Kind
	// Op is the operation that failed, e.g. "preprocess.Resize".
	Op string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a tagged failure.
//
// Arguments:
//   - kind: The failure class.
//   - op: The operation that failed.
//   - err: The underlying cause (may be nil).
//
// Returns:
//   - error: The tagged failure.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates a tagged failure with a formatted cause.
func Newf(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindNone.
//
// Arguments:
//   - err: The error to inspect.
//
// Returns:
//   - Kind: The failure kind.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNone
}

// Tag wraps err as a failure of kind unless it already carries a Kind.
//
// Arguments:
//   - kind: The failure class to apply.
//   - op: The operation that failed.
//   - err: The error to tag.
//
// Returns:
//   - error: nil if err is nil, err itself if already tagged, otherwise a new *Error.
func Tag(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindNone {
		return err
	}
	return New(kind, op, err)
}
