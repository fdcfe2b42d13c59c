// Package benchmark - Latency benchmarks of the capture pipeline.
package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/nvr-ai/go-snapclass/pipeline"
)

// Runner performs one capture event.
type Runner interface {
	Run(ctx context.Context) pipeline.Result
}

// Scenario defines a specific test configuration.
type Scenario struct {
	Name       string `json:"name" yaml:"name"`
	Iterations int    `json:"iterations" yaml:"iterations"`
	WarmupRuns int    `json:"warmup_runs" yaml:"warmupRuns"`
}

// LatencyStats summarises capture durations.
type LatencyStats struct {
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
}

// MemoryMetrics captures memory usage statistics.
type MemoryMetrics struct {
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	NumGC           uint32 `json:"num_gc"`
}

// PerformanceMetrics captures the outcome of one scenario.
type PerformanceMetrics struct {
	Scenario          Scenario             `json:"scenario"`
	Timestamp         time.Time            `json:"timestamp"`
	TotalDuration     time.Duration        `json:"total_duration"`
	Latency           LatencyStats         `json:"latency"`
	CapturesPerSecond float64              `json:"captures_per_second"`
	Failures          map[failure.Kind]int `json:"failures"`
	ErrorRate         float64              `json:"error_rate"`
	Labels            map[string]int       `json:"labels"`
	Memory            MemoryMetrics        `json:"memory"`
	NumCPU            int                  `json:"num_cpu"`
}

// Run executes a scenario against runner. Warmup runs are not measured.
//
// Arguments:
//   - ctx: Cancels the benchmark between iterations.
//   - runner: The pipeline under test.
//   - s: The scenario.
//
// Returns:
//   - *PerformanceMetrics: The measured results.
//   - error: An error if the scenario is invalid or ctx is cancelled.
func Run(ctx context.Context, runner Runner, s Scenario) (*PerformanceMetrics, error) {
	if s.Iterations <= 0 {
		return nil, fmt.Errorf("scenario %q: iterations must be positive, got %d", s.Name, s.Iterations)
	}
	if s.WarmupRuns < 0 {
		return nil, fmt.Errorf("scenario %q: warmup runs must not be negative, got %d", s.Name, s.WarmupRuns)
	}

	for i := 0; i < s.WarmupRuns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runner.Run(ctx)
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	m := &PerformanceMetrics{
		Scenario:  s,
		Timestamp: time.Now(),
		Failures:  make(map[failure.Kind]int),
		Labels:    make(map[string]int),
		NumCPU:    runtime.NumCPU(),
	}

	durations := make([]time.Duration, 0, s.Iterations)
	start := time.Now()
	for i := 0; i < s.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := runner.Run(ctx)
		durations = append(durations, r.Duration)
		if r.OK() {
			m.Labels[r.Label]++
		} else {
			m.Failures[r.Kind]++
		}
	}
	m.TotalDuration = time.Since(start)

	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)
	m.Memory = MemoryMetrics{
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		HeapAllocBytes:  endMem.HeapAlloc,
		NumGC:           endMem.NumGC - startMem.NumGC,
	}

	m.Latency = Summarize(durations)
	if m.TotalDuration > 0 {
		m.CapturesPerSecond = float64(s.Iterations) / m.TotalDuration.Seconds()
	}
	failed := 0
	for _, n := range m.Failures {
		failed += n
	}
	m.ErrorRate = float64(failed) / float64(s.Iterations)

	return m, nil
}

// Summarize computes latency statistics. Percentiles use the nearest-rank method.
func Summarize(durations []time.Duration) LatencyStats {
	if len(durations) == 0 {
		return LatencyStats{}
	}

	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return LatencyStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: total / time.Duration(len(sorted)),
		P50:  percentile(sorted, 50),
		P95:  percentile(sorted, 95),
		P99:  percentile(sorted, 99),
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// SaveResults writes results as JSON and a CSV summary into dir.
//
// Returns:
//   - string: The JSON file path.
//   - error: An error if the files cannot be written.
func SaveResults(dir string, results []*PerformanceMetrics) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(dir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write results file: %w", err)
	}

	summaryFile := filepath.Join(dir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return "", fmt.Errorf("failed to save summary CSV: %w", err)
	}
	return resultsFile, nil
}

func saveSummaryCSV(filename string, results []*PerformanceMetrics) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{{"scenario", "iterations", "p50_ms", "p95_ms", "p99_ms", "captures_per_second", "error_rate"}}
	for _, r := range results {
		rows = append(rows, []string{
			r.Scenario.Name,
			strconv.Itoa(r.Scenario.Iterations),
			ms(r.Latency.P50),
			ms(r.Latency.P95),
			ms(r.Latency.P99),
			strconv.FormatFloat(r.CapturesPerSecond, 'f', 2, 64),
			strconv.FormatFloat(r.ErrorRate, 'f', 4, 64),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func ms(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}
