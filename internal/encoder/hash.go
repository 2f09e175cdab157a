package encoder

import (
	"context"
	"hash/fnv"
)

// HashEncoder is a deterministic, network-free Encoder: it hashes each
// text into a seeded pseudo-random unit vector. It is the default when
// no encoder credential is configured, and the backend used by tests
// throughout the rest of the pipeline so they never depend on network
// access (mirrors the teacher's own test doubles in internal/search/mock.go).
type HashEncoder struct {
	dim   int
	model string
}

func NewHashEncoder(dim int, model string) *HashEncoder {
	if dim <= 0 {
		dim = 384
	}
	if model == "" {
		model = "hash-fallback"
	}
	return &HashEncoder{dim: dim, model: model}
}

func (h *HashEncoder) Dimensions() int   { return h.dim }
func (h *HashEncoder) ModelName() string { return h.model }

func (h *HashEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = l2Normalize(hashVector(t, h.dim))
	}
	return out, nil
}

// hashVector expands a 64-bit FNV hash of s into dim pseudo-random
// components via a simple linear-congruential walk seeded by the hash.
func hashVector(s string, dim int) []float32 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(s))
	state := hasher.Sum64()
	if state == 0 {
		state = 1
	}

	v := make([]float32, dim)
	for i := 0; i < dim; i++ {
		state = state*6364136223846793005 + 1442695040888963407
		// Map the top bits to [-1, 1).
		normalized := float64(state>>11) / float64(1<<53)
		v[i] = float32(normalized*2 - 1)
	}
	return v
}
