package failure

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := New(KindRendering, "preprocess.Resize", errors.New("empty bounds"))

	assert.True(t, errors.Is(err, ErrRendering))
	assert.False(t, errors.Is(err, ErrInference))
	assert.Equal(t, KindRendering, KindOf(err))
	assert.Equal(t, "preprocess.Resize: rendering_failure: empty bounds", err.Error())
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	base := New(KindBufferAllocation, "pixelbuf.NewBuffer", nil)
	wrapped := errors.Wrap(fmt.Errorf("outer: %w", base), "pipeline")

	assert.Equal(t, KindBufferAllocation, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrBufferAllocation))
	assert.Equal(t, KindNone, KindOf(errors.New("plain")))
	assert.Equal(t, KindNone, KindOf(nil))
}

func TestTag(t *testing.T) {
	assert.Nil(t, Tag(KindInference, "op", nil))

	plain := errors.New("session run failed")
	tagged := Tag(KindInference, "inference.Classify", plain)
	assert.Equal(t, KindInference, KindOf(tagged))
	assert.ErrorIs(t, tagged, plain)

	already := New(KindContextCreation, "pixelbuf.NewContext", nil)
	assert.Same(t, already, Tag(KindInference, "inference.Classify", already))
}

func TestErrorStrings(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "kind only", err: &Error{Kind: KindCapture}, want: "capture_failure"},
		{name: "with op", err: &Error{Kind: KindCapture, Op: "camera.Capture"}, want: "camera.Capture: capture_failure"},
		{name: "with cause", err: &Error{Kind: KindCapture, Err: errors.New("no frame")}, want: "capture_failure: no frame"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
