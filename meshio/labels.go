package meshio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMalformedLabels is returned when a label file lacks an integer
// "labels" array.
var ErrMalformedLabels = errors.New("malformed label file")

type labelFile struct {
	Labels *[]int `json:"labels"`
}

// ReadLabels decodes a JSON document of the form {"labels": [0, 1, ...]}.
func ReadLabels(r io.Reader) ([]int, error) {
	var lf labelFile
	if err := json.NewDecoder(r).Decode(&lf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLabels, err)
	}
	if lf.Labels == nil {
		return nil, fmt.Errorf("%w: missing \"labels\" key", ErrMalformedLabels)
	}
	return *lf.Labels, nil
}

// ReadLabelsFile reads the JSON label file at path.
func ReadLabelsFile(path string) ([]int, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadLabels(fp)
}

// WriteLabels encodes labels in the format read by ReadLabels.
func WriteLabels(w io.Writer, labels []int) error {
	if labels == nil {
		labels = []int{}
	}
	return json.NewEncoder(w).Encode(labelFile{Labels: &labels})
}
