package main

import (
	"bytes"
	"context"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/nvr-ai/go-snapclass/capture"
	"github.com/nvr-ai/go-snapclass/display"
	"github.com/nvr-ai/go-snapclass/images"
	"github.com/nvr-ai/go-snapclass/models"
	"github.com/nvr-ai/go-snapclass/pipeline"
	"github.com/nvr-ai/go-snapclass/pixelbuf"
	"github.com/nvr-ai/go-snapclass/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type labelClassifier string

func (l labelClassifier) Classify(context.Context, *pixelbuf.Buffer) (*models.Classification, error) {
	return &models.Classification{Prediction: models.Prediction{Label: string(l), Confidence: 0.5}}, nil
}

func TestShutter(t *testing.T) {
	presses := shutter(context.Background(), strings.NewReader("\n\nsnap\n"))

	n := 0
	for range presses {
		n++
	}
	assert.Equal(t, 3, n)
}

func TestLoopShowsPendingResultOnEOF(t *testing.T) {
	photo, err := images.Encode(image.NewRGBA(image.Rect(0, 0, 8, 8)), images.FormatPNG)
	require.NoError(t, err)

	pre, err := preprocess.New(preprocess.DefaultConfig())
	require.NoError(t, err)
	p, err := pipeline.New(capture.NewStaticSource(photo), pre, labelClassifier("daisy"))
	require.NoError(t, err)

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	presses := shutter(ctx, strings.NewReader("\n"))
	require.NoError(t, loop(ctx, p, display.NewConsole(&out, false), presses, zap.NewNop().Sugar()))
	assert.True(t, strings.HasPrefix(out.String(), "daisy 50.0%"), out.String())
}
