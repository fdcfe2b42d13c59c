package benchmark

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/nvr-ai/go-snapclass/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner replays results in order, cycling.
type scriptedRunner struct {
	results []pipeline.Result
	calls   int
}

func (s *scriptedRunner) Run(context.Context) pipeline.Result {
	r := s.results[s.calls%len(s.results)]
	s.calls++
	return r
}

func TestSummarize(t *testing.T) {
	var ds []time.Duration
	for i := 100; i >= 1; i-- {
		ds = append(ds, time.Duration(i)*time.Millisecond)
	}

	s := Summarize(ds)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 100*time.Millisecond, s.Max)
	assert.Equal(t, 50500*time.Microsecond, s.Mean)
	assert.Equal(t, 50*time.Millisecond, s.P50)
	assert.Equal(t, 95*time.Millisecond, s.P95)
	assert.Equal(t, 99*time.Millisecond, s.P99)

	assert.Equal(t, LatencyStats{}, Summarize(nil))

	one := Summarize([]time.Duration{7 * time.Millisecond})
	assert.Equal(t, 7*time.Millisecond, one.P50)
	assert.Equal(t, 7*time.Millisecond, one.P99)
}

func TestRun(t *testing.T) {
	runner := &scriptedRunner{results: []pipeline.Result{
		{Label: "tabby", Duration: 10 * time.Millisecond},
		{Label: "tabby", Duration: 20 * time.Millisecond},
		{Kind: failure.KindInference, Err: failure.ErrInference, Duration: 5 * time.Millisecond},
		{Label: "daisy", Duration: 30 * time.Millisecond},
	}}

	m, err := Run(context.Background(), runner, Scenario{Name: "mixed", Iterations: 4, WarmupRuns: 4})
	require.NoError(t, err)

	assert.Equal(t, 8, runner.calls)
	assert.Equal(t, map[string]int{"tabby": 2, "daisy": 1}, m.Labels)
	assert.Equal(t, map[failure.Kind]int{failure.KindInference: 1}, m.Failures)
	assert.InDelta(t, 0.25, m.ErrorRate, 1e-9)
	assert.Equal(t, 5*time.Millisecond, m.Latency.Min)
	assert.Equal(t, 30*time.Millisecond, m.Latency.Max)
	assert.Positive(t, m.NumCPU)
}

func TestRunInvalidScenario(t *testing.T) {
	runner := &scriptedRunner{results: []pipeline.Result{{}}}

	_, err := Run(context.Background(), runner, Scenario{Name: "none"})
	assert.Error(t, err)

	_, err = Run(context.Background(), runner, Scenario{Name: "neg", Iterations: 1, WarmupRuns: -1})
	assert.Error(t, err)
	assert.Zero(t, runner.calls)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &scriptedRunner{results: []pipeline.Result{{}}}, Scenario{Iterations: 3})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	results := []*PerformanceMetrics{{
		Scenario: Scenario{Name: "quick", Iterations: 2},
		Latency:  LatencyStats{P50: 1500 * time.Microsecond},
		Failures: map[failure.Kind]int{},
	}}

	path, err := SaveResults(dir, results)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []PerformanceMetrics
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "quick", decoded[0].Scenario.Name)

	csvFiles, err := filepath.Glob(filepath.Join(dir, "benchmark_summary_*.csv"))
	require.NoError(t, err)
	require.Len(t, csvFiles, 1)
	summary, err := os.ReadFile(csvFiles[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(summary), "quick,2,1.500,"), string(summary))
}
