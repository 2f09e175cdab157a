package ingest

import (
	"fmt"
	"strings"
	"time"

	"clustering-service/internal/core"

	"github.com/google/uuid"
)

// Adapt normalizes a homogeneous batch (already tagged by Detect) into
// the (items, embeddingsPresent) pair C11 needs to decide whether C3
// must run. Embeddings for plain_text items are left nil.
func Adapt(tag core.Tag, items []core.RawItem) ([]core.NormalizedItem, bool, error) {
	out := make([]core.NormalizedItem, 0, len(items))

	for _, raw := range items {
		var ni core.NormalizedItem
		switch tag {
		case core.TagSimpleVector:
			ni = adaptSimpleVector(raw)
		case core.TagExtendedVector:
			ni = adaptExtendedVector(raw)
		case core.TagArticle:
			ni = adaptArticle(raw)
		case core.TagVectorWithText:
			ni = adaptVectorWithText(raw)
		case core.TagPlainText:
			ni = adaptPlainText(raw)
		default:
			// Detect already rejects TagUnknown before Adapt is called.
			ni = core.NormalizedItem{ID: idOf(raw), Metadata: map[string]any{}}
		}
		out = append(out, ni)
	}

	embeddingsPresent := tag != core.TagPlainText
	return out, embeddingsPresent, nil
}

func idOf(raw core.RawItem) string {
	if v, ok := raw["id"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return uuid.NewString()
}

func embeddingOf(raw core.RawItem) []float32 {
	v, ok := raw["embedding"]
	if !ok {
		return nil
	}
	slice, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, len(slice))
	for i, e := range slice {
		out[i] = toFloat32(e)
	}
	return out
}

func toFloat32(v any) float32 {
	switch n := v.(type) {
	case float64:
		return float32(n)
	case float32:
		return n
	case int:
		return float32(n)
	default:
		return 0
	}
}

func stringOf(raw core.RawItem, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func adaptSimpleVector(raw core.RawItem) core.NormalizedItem {
	id := idOf(raw)
	return core.NormalizedItem{
		ID:        id,
		Text:      "",
		Embedding: embeddingOf(raw),
		Metadata:  map[string]any{"id": id},
	}
}

func adaptExtendedVector(raw core.RawItem) core.NormalizedItem {
	id := idOf(raw)
	title := stringOf(raw, "title")
	text := title
	if text == "" {
		text = "Article " + id
	}

	metadata := map[string]any{}
	for _, k := range []string{"title", "url", "publish_date", "content", "status"} {
		if v, ok := raw[k]; ok {
			metadata[k] = v
		}
	}

	return core.NormalizedItem{
		ID:        id,
		Text:      text,
		Embedding: embeddingOf(raw),
		Metadata:  metadata,
	}
}

func adaptArticle(raw core.RawItem) core.NormalizedItem {
	id := idOf(raw)
	title := stringOf(raw, "title")
	content := stringOf(raw, "content")

	truncated := content
	if len(truncated) > 500 {
		truncated = truncated[:500] + "..."
	}
	text := title
	if truncated != "" {
		text = fmt.Sprintf("%s\n\n%s", title, truncated)
	}

	metadata := map[string]any{}
	for k, v := range raw {
		metadata[k] = v
	}

	ni := core.NormalizedItem{
		ID:        id,
		Text:      text,
		Embedding: embeddingOf(raw),
		Metadata:  metadata,
	}
	ni.PublishDate = parsePublishDate(stringOf(raw, "publishDate"))
	return ni
}

func adaptVectorWithText(raw core.RawItem) core.NormalizedItem {
	id := idOf(raw)
	metadata := map[string]any{}
	if v, ok := raw["metadata"]; ok {
		if m, ok := v.(map[string]any); ok {
			metadata = m
		}
	}
	return core.NormalizedItem{
		ID:        id,
		Text:      stringOf(raw, "text"),
		Embedding: embeddingOf(raw),
		Metadata:  metadata,
	}
}

func adaptPlainText(raw core.RawItem) core.NormalizedItem {
	id := idOf(raw)
	metadata := map[string]any{}
	if v, ok := raw["metadata"]; ok {
		if m, ok := v.(map[string]any); ok {
			metadata = m
		}
	}
	return core.NormalizedItem{
		ID:       id,
		Text:     stringOf(raw, "text"),
		Metadata: metadata,
	}
}

// parsePublishDate implements the spec's Open Question decision: strict
// RFC3339 only, malformed or missing dates are treated as absent rather
// than as a request error.
func parsePublishDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
