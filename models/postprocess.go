package models

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"
	"gorgonia.org/tensor"
)

// Prediction is one ranked class.
type Prediction struct {
	Index      int     `json:"index" yaml:"index"`
	Label      string  `json:"label" yaml:"label"`
	Confidence float32 `json:"confidence" yaml:"confidence"`
}

// Classification is the outcome of classifying one image.
type Classification struct {
	Prediction
	// TopK holds the best predictions in descending confidence order.
	TopK []Prediction `json:"topK" yaml:"topK"`
}

// Softmax converts logits to probabilities. The maximum logit is subtracted
// before exponentiation to keep the result finite.
func Softmax(logits []float32) []float32 {
	out := make([]float32, len(logits))
	if len(logits) == 0 {
		return out
	}

	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}

	var sum float32
	for i, v := range logits {
		out[i] = math32.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the index of the highest score.
func Argmax(scores []float32) (int, error) {
	if len(scores) == 0 {
		return -1, fmt.Errorf("argmax of empty scores")
	}

	t := tensor.New(tensor.WithShape(len(scores)), tensor.WithBacking(scores))
	am, err := t.Argmax(0)
	if err != nil {
		return -1, fmt.Errorf("argmax: %w", err)
	}

	switch v := am.Data().(type) {
	case int:
		return v, nil
	case []int:
		if len(v) > 0 {
			return v[0], nil
		}
	}
	return -1, fmt.Errorf("argmax: unexpected result %v", am.Data())
}

// TopK returns the k highest scores in descending order. Ties keep index order.
func TopK(scores []float32, k int) []int {
	if k > len(scores) {
		k = len(scores)
	}
	if k <= 0 {
		return nil
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx[:k]
}

// Classify ranks scores and attaches labels.
//
// Arguments:
//   - scores: Per-class scores, typically probabilities.
//   - labels: The class labels, one per score.
//   - k: The number of ranked predictions to keep.
//
// Returns:
//   - *Classification: The best prediction and the top k.
//   - error: An error if scores and labels disagree.
func Classify(scores []float32, labels *Labels, k int) (*Classification, error) {
	if labels == nil || labels.Len() != len(scores) {
		return nil, fmt.Errorf("have %d scores but labels do not match", len(scores))
	}

	best, err := Argmax(scores)
	if err != nil {
		return nil, err
	}

	predict := func(i int) Prediction {
		name, _ := labels.Name(i)
		return Prediction{Index: i, Label: name, Confidence: scores[i]}
	}

	c := &Classification{Prediction: predict(best)}
	for _, i := range TopK(scores, k) {
		c.TopK = append(c.TopK, predict(i))
	}
	return c, nil
}
