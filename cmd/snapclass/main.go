// Command snapclass takes a photo, classifies it and shows the label.
//
// Each line read from stdin is a shutter press. With -once a single capture
// is classified and the program exits.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvr-ai/go-snapclass/capture"
	"github.com/nvr-ai/go-snapclass/capture/camera"
	"github.com/nvr-ai/go-snapclass/config"
	"github.com/nvr-ai/go-snapclass/display"
	"github.com/nvr-ai/go-snapclass/inference"
	"github.com/nvr-ai/go-snapclass/logger"
	"github.com/nvr-ai/go-snapclass/metrics"
	"github.com/nvr-ai/go-snapclass/pipeline"
	"github.com/nvr-ai/go-snapclass/preprocess"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "snapclass:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		envFile    string
		imagePath  string
		device     string
		modelPath  string
		once       bool
		showTopK   bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&envFile, "env", ".env", "Path to .env file")
	flag.StringVar(&imagePath, "image", "", "Classify an image file or directory instead of the camera")
	flag.StringVar(&device, "device", "", "Camera device index or stream URL")
	flag.StringVar(&modelPath, "model", "", "Path to the ONNX model file")
	flag.BoolVar(&once, "once", false, "Take a single photo and exit")
	flag.BoolVar(&showTopK, "topk", false, "Show every ranked prediction")
	flag.Parse()

	cfg, err := config.Read(configPath, envFile)
	if err != nil {
		return err
	}
	switch {
	case imagePath != "":
		cfg.Capture.Source = config.SourceFile
		cfg.Capture.Path = imagePath
	case device != "":
		cfg.Capture.Source = config.SourceCamera
		cfg.Capture.Camera.Device = device
	}
	if modelPath != "" {
		cfg.Inference.Model.Path = modelPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Initialize(logger.New(cfg.Log.Level, logger.ParseFormat(cfg.Log.Format)))
	defer func() { _ = logger.Sync() }()
	log := logger.For(logger.ComponentCLI)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(cfg.Capture)
	if err != nil {
		return err
	}
	defer src.Close()

	pre, err := preprocess.New(cfg.Preprocess, preprocess.WithLogger(logger.For(logger.ComponentPreprocess)))
	if err != nil {
		return err
	}

	engine, err := inference.NewEngineBuilder().
		WithProvider(cfg.Inference.Provider).
		WithModel(cfg.Inference.Model).
		WithLogger(logger.For(logger.ComponentInference)).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	rec := metrics.NewRecorder()
	if cfg.Metrics.Addr != "" {
		serveMetrics(ctx, cfg.Metrics.Addr, rec, logger.For(logger.ComponentMetrics))
	}

	p, err := pipeline.New(src, pre, engine,
		pipeline.WithMetrics(rec),
		pipeline.WithTimeouts(cfg.Capture.Timeout, cfg.Inference.Timeout))
	if err != nil {
		return err
	}

	console := display.NewConsole(os.Stdout, showTopK)
	if once {
		return console.Show(p.Run(ctx))
	}

	log.Infow("ready", "source", cfg.Capture.Source, "model", cfg.Inference.Model.Name)
	fmt.Fprintln(os.Stderr, "press Enter to take a photo, Ctrl-D to quit")
	return loop(ctx, p, console, shutter(ctx, os.Stdin), log)
}

func openSource(cfg config.CaptureConfig) (capture.Source, error) {
	if cfg.Source == config.SourceFile {
		src, err := capture.NewFileSource(cfg.Path)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	cam, err := camera.Open(cfg.Camera)
	if err != nil {
		return nil, err
	}
	return cam, nil
}

// shutter emits one value per input line and closes on EOF.
func shutter(ctx context.Context, r io.Reader) <-chan struct{} {
	presses := make(chan struct{})
	go func() {
		defer close(presses)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case presses <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return presses
}

// loop owns the display: results are only shown from this goroutine.
func loop(ctx context.Context, p *pipeline.Pipeline, console *display.Console, presses <-chan struct{}, log *zap.SugaredLogger) error {
	results := make(chan pipeline.Result)
	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-presses:
			if !ok {
				if !pending {
					return nil
				}
				select {
				case r := <-results:
					return console.Show(r)
				case <-ctx.Done():
					return nil
				}
			}
			if err := p.Trigger(ctx, results); err != nil {
				if errors.Is(err, pipeline.ErrCaptureInFlight) {
					log.Warnw("shutter ignored", "reason", err)
					continue
				}
				return err
			}
			pending = true
		case r := <-results:
			pending = false
			if err := console.Show(r); err != nil {
				return err
			}
		}
	}
}

func serveMetrics(ctx context.Context, addr string, rec *metrics.Recorder, log *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infow("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
