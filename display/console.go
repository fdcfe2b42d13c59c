// Package display - Presents capture results to the user.
package display

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/nvr-ai/go-snapclass/pipeline"
)

// NoLabel is shown when a capture produced no classification.
const NoLabel = "no label available"

// Busy is shown when a shutter press was ignored because a capture was in flight.
const Busy = "capture in progress, shutter ignored"

// Console writes one line per result, plus the ranked predictions when
// TopK is set.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	topK bool
}

// NewConsole creates a console display.
//
// Arguments:
//   - w: The output, usually os.Stdout.
//   - topK: Whether to list every ranked prediction.
//
// Returns:
//   - *Console: The display.
func NewConsole(w io.Writer, topK bool) *Console {
	return &Console{w: w, topK: topK}
}

// Show presents r.
func (c *Console) Show(r pipeline.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Rejected() {
		_, err := fmt.Fprintln(c.w, Busy)
		return err
	}
	if !r.OK() {
		reason := string(r.Kind)
		if r.Kind == failure.KindNone {
			reason = r.Err.Error()
		}
		_, err := fmt.Fprintf(c.w, "%s (%s)\n", NoLabel, reason)
		return err
	}
	if r.Label == "" {
		_, err := fmt.Fprintln(c.w, NoLabel)
		return err
	}

	if _, err := fmt.Fprintf(c.w, "%s %.1f%% [%s]\n", r.Label, r.Confidence*100, r.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	if !c.topK {
		return nil
	}
	for i, p := range r.TopK {
		if _, err := fmt.Fprintf(c.w, "  %d. %-30s %6.2f%%\n", i+1, p.Label, p.Confidence*100); err != nil {
			return err
		}
	}
	return nil
}
