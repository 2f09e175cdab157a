// Package validate implements the Embedding Validator (C4): shape,
// dtype and finiteness checks over a batch of normalized items'
// embeddings, plus a non-fatal warning for values with |x| above a
// threshold. Vector L2 norms are not checked.
package validate

import (
	"math"

	"clustering-service/internal/apierr"
	"clustering-service/internal/core"
)

// LargeValueWarnThreshold matches §4.4's "warns if any |x| > 100".
const LargeValueWarnThreshold = 100

// Result carries the validated matrix plus any non-fatal warning.
type Result struct {
	Matrix  [][]float32
	Warning string
}

// Embeddings enforces the hard checks of §4.4 and returns the warning
// (if any) for the caller to log — it is never fatal.
func Embeddings(items []core.NormalizedItem, expectedDim int) (*Result, error) {
	n := len(items)
	if n < 1 {
		return nil, apierr.InvalidEmbeddings("at least one item is required", nil)
	}

	matrix := make([][]float32, n)
	var warn string

	for i, it := range items {
		if len(it.Embedding) != expectedDim {
			return nil, apierr.InvalidEmbeddings(
				"embedding dimension mismatch",
				map[string]any{"index": i, "expected": expectedDim, "actual": len(it.Embedding)},
			)
		}

		row := make([]float32, expectedDim)
		for j, v := range it.Embedding {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, apierr.InvalidEmbeddings(
					"embedding contains non-finite values",
					map[string]any{"index": i, "dim": j},
				)
			}
			if warn == "" && math.Abs(f) > LargeValueWarnThreshold {
				warn = "embedding values exceeding the sanity threshold were detected"
			}
			row[j] = v
		}
		matrix[i] = row
	}

	return &Result{Matrix: matrix, Warning: warn}, nil
}
