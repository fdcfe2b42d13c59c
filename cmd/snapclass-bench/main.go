// Command snapclass-bench measures capture-to-label latency over a set of
// photos.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/go-snapclass/benchmark"
	"github.com/nvr-ai/go-snapclass/capture"
	"github.com/nvr-ai/go-snapclass/config"
	"github.com/nvr-ai/go-snapclass/inference"
	"github.com/nvr-ai/go-snapclass/logger"
	"github.com/nvr-ai/go-snapclass/metrics"
	"github.com/nvr-ai/go-snapclass/pipeline"
	"github.com/nvr-ai/go-snapclass/preprocess"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "snapclass-bench:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		testImages = flag.String("images", "", "Path to test images directory or file")
		modelPath  = flag.String("model", "", "Path to ONNX model file")
		outputDir  = flag.String("output", "./benchmark_results", "Output directory for results")
		iterations = flag.Int("iterations", 100, "Measured captures")
		warmup     = flag.Int("warmup", 5, "Unmeasured warmup captures")
	)
	flag.Parse()

	if *testImages == "" {
		return fmt.Errorf("test images path is required (-images)")
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		return err
	}
	cfg.Capture.Source = config.SourceFile
	cfg.Capture.Path = *testImages
	if *modelPath != "" {
		cfg.Inference.Model.Path = *modelPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Initialize(logger.New(cfg.Log.Level, logger.ParseFormat(cfg.Log.Format)))
	defer func() { _ = logger.Sync() }()
	log := logger.For(logger.ComponentCLI)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := capture.NewFileSource(*testImages)
	if err != nil {
		return err
	}
	defer src.Close()

	pre, err := preprocess.New(cfg.Preprocess)
	if err != nil {
		return err
	}

	engine, err := inference.NewEngineBuilder().
		WithProvider(cfg.Inference.Provider).
		WithModel(cfg.Inference.Model).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	p, err := pipeline.New(src, pre, engine, pipeline.WithMetrics(metrics.NewRecorder()))
	if err != nil {
		return err
	}

	scenario := benchmark.Scenario{
		Name:       fmt.Sprintf("%s-%s", cfg.Inference.Model.Name, cfg.Inference.Provider.Backend),
		Iterations: *iterations,
		WarmupRuns: *warmup,
	}
	m, err := benchmark.Run(ctx, p, scenario)
	if err != nil {
		return err
	}

	path, err := benchmark.SaveResults(*outputDir, []*benchmark.PerformanceMetrics{m})
	if err != nil {
		return err
	}

	log.Infow("benchmark complete",
		"scenario", scenario.Name,
		"p50", m.Latency.P50,
		"p95", m.Latency.P95,
		"p99", m.Latency.P99,
		"capturesPerSecond", m.CapturesPerSecond,
		"errorRate", m.ErrorRate,
		"results", path)
	return nil
}
