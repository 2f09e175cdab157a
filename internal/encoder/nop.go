package encoder

import (
	"context"
	"fmt"
)

// NopEncoder always fails; it simulates §4.3's "failure to load the
// model is fatal" path for tests exercising ENCODER_UNAVAILABLE.
type NopEncoder struct {
	dim   int
	model string
}

func NewNopEncoder(dim int, model string) *NopEncoder {
	return &NopEncoder{dim: dim, model: model}
}

func (n *NopEncoder) Dimensions() int   { return n.dim }
func (n *NopEncoder) ModelName() string { return n.model }

func (n *NopEncoder) Encode(_ context.Context, _ []string) ([][]float32, error) {
	return nil, fmt.Errorf("encoder unavailable")
}
