package models

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// synsetPrefix matches a leading WordNet id such as "n01440764 ".
var synsetPrefix = regexp.MustCompile(`^n\d{8}\s+`)

// Labels maps class indices to human-readable names.
type Labels struct {
	names []string
}

// NewLabels creates a label set from names in index order.
func NewLabels(names []string) *Labels {
	out := make([]string, len(names))
	copy(out, names)
	return &Labels{names: out}
}

// NewIndexLabels creates n placeholder labels "class_0" ... "class_<n-1>".
func NewIndexLabels(n int) *Labels {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("class_%d", i)
	}
	return &Labels{names: names}
}

// ParseLabels reads one label per line. Blank lines are skipped and a leading
// WordNet synset id is stripped.
//
// Arguments:
//   - r: The reader to parse.
//
// Returns:
//   - *Labels: The parsed labels.
//   - error: A read error, or an error if no labels were found.
func ParseLabels(r io.Reader) (*Labels, error) {
	var names []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		names = append(names, strings.TrimSpace(synsetPrefix.ReplaceAllString(line, "")))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no labels found")
	}

	return &Labels{names: names}, nil
}

// Len returns the number of labels.
func (l *Labels) Len() int {
	return len(l.names)
}

// Name returns the label at index idx.
func (l *Labels) Name(idx int) (string, error) {
	if idx < 0 || idx >= len(l.names) {
		return "", fmt.Errorf("index %d out of range for %d labels", idx, len(l.names))
	}
	return l.names[idx], nil
}

// Index returns the index of a label, or -1.
func (l *Labels) Index(name string) int {
	for i, n := range l.names {
		if n == name {
			return i
		}
	}
	return -1
}
