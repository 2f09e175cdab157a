package encoder

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultEmbeddingModel mirrors the teacher's llm.DefaultEmbeddingModel
// constant but names the model this service actually targets.
const DefaultEmbeddingModel = "gemini-embedding-001"

// GenAIEncoder calls the Gemini embedding endpoint one text at a time
// per batch, exactly the call shape of the teacher's
// internal/llm/llm.go GenerateEmbedding, with the §4.3 batching/
// truncation/normalization contract layered around it.
type GenAIEncoder struct {
	client        *genai.Client
	model         string
	dims          int
	batchSize     int
	maxTextLength int
}

func NewGenAIEncoder(ctx context.Context, opts Options) (*GenAIEncoder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := opts.ModelName
	if model == "" {
		model = DefaultEmbeddingModel
	}
	dims := opts.Dimensions
	if dims <= 0 {
		dims = 384
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	maxTextLength := opts.MaxTextLength
	if maxTextLength <= 0 {
		maxTextLength = 512
	}

	return &GenAIEncoder{
		client:        client,
		model:         model,
		dims:          dims,
		batchSize:     batchSize,
		maxTextLength: maxTextLength,
	}, nil
}

func (g *GenAIEncoder) Dimensions() int   { return g.dims }
func (g *GenAIEncoder) ModelName() string { return g.model }

// Encode batches texts at g.batchSize, truncates each to
// g.maxTextLength runes, calls EmbedContent once per text within a
// batch (the SDK's EmbedContent takes a single Content per call in the
// teacher's usage), and L2-normalizes every resulting vector locally.
func (g *GenAIEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		for i := start; i < end; i++ {
			vec, err := g.embedOne(ctx, truncateRunes(texts[i], g.maxTextLength))
			if err != nil {
				return nil, fmt.Errorf("embedding text %d: %w", i, err)
			}
			out[i] = l2Normalize(vec)
		}
	}

	return out, nil
}

func (g *GenAIEncoder) embedOne(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
		Role:  "user",
	}}

	dims := int32(g.dims)
	config := &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embedding values returned from API")
	}

	return resp.Embeddings[0].Values, nil
}
