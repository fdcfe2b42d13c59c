package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftmax(t *testing.T) {
	p := Softmax([]float32{1, 2, 3})
	require.Len(t, p, 3)

	var sum float32
	for _, v := range p {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.InDelta(t, 0.0900, p[0], 1e-4)
	assert.InDelta(t, 0.2447, p[1], 1e-4)
	assert.InDelta(t, 0.6652, p[2], 1e-4)

	large := Softmax([]float32{1000, 1000})
	assert.InDelta(t, 0.5, large[0], 1e-6)
	assert.InDelta(t, 0.5, large[1], 1e-6)

	assert.Empty(t, Softmax(nil))
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float32
		expected int
	}{
		{name: "first", scores: []float32{9, 1, 2}, expected: 0},
		{name: "middle", scores: []float32{0.1, 0.7, 0.2}, expected: 1},
		{name: "last", scores: []float32{-3, -2, -1}, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Argmax(tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := Argmax(nil)
	assert.Error(t, err)
}

func TestTopK(t *testing.T) {
	scores := []float32{0.1, 0.4, 0.2, 0.4, 0.05}
	assert.Equal(t, []int{1, 3, 2}, TopK(scores, 3))
	assert.Equal(t, []int{1, 3, 2, 0, 4}, TopK(scores, 10))
	assert.Nil(t, TopK(scores, 0))
}

func TestClassify(t *testing.T) {
	labels := NewLabels([]string{"tench", "goldfish", "tabby"})

	c, err := Classify([]float32{0.2, 0.1, 0.7}, labels, 2)
	require.NoError(t, err)
	assert.Equal(t, "tabby", c.Label)
	assert.Equal(t, 2, c.Index)
	assert.InDelta(t, 0.7, c.Confidence, 1e-6)
	require.Len(t, c.TopK, 2)
	assert.Equal(t, "tench", c.TopK[1].Label)

	_, err = Classify([]float32{0.5, 0.5}, labels, 1)
	assert.Error(t, err)
}
