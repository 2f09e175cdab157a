package validate

import (
	"math"
	"testing"

	"clustering-service/internal/apierr"
	"clustering-service/internal/core"
)

func itemsWithEmbeddings(vecs ...[]float32) []core.NormalizedItem {
	out := make([]core.NormalizedItem, len(vecs))
	for i, v := range vecs {
		out[i] = core.NormalizedItem{ID: "x", Embedding: v}
	}
	return out
}

func TestEmbeddingsValid(t *testing.T) {
	items := itemsWithEmbeddings([]float32{0.1, 0.2}, []float32{0.3, 0.4})
	res, err := Embeddings(items, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Warning != "" {
		t.Errorf("unexpected warning: %q", res.Warning)
	}
	if len(res.Matrix) != 2 {
		t.Fatalf("len(Matrix) = %d, want 2", len(res.Matrix))
	}
}

func TestEmbeddingsRejectsEmptyBatch(t *testing.T) {
	_, err := Embeddings(nil, 2)
	if err == nil {
		t.Fatal("expected an error for an empty batch")
	}
}

func TestEmbeddingsRejectsDimensionMismatch(t *testing.T) {
	items := itemsWithEmbeddings([]float32{0.1, 0.2, 0.3})
	_, err := Embeddings(items, 2)
	if err == nil {
		t.Fatal("expected a dimension mismatch error")
	}
	apiErr, ok := err.(*apierr.Error)
	if !ok || apiErr.Code != apierr.CodeInvalidEmbeddings {
		t.Errorf("expected INVALID_EMBEDDINGS, got %v", err)
	}
}

func TestEmbeddingsRejectsNonFiniteValues(t *testing.T) {
	items := itemsWithEmbeddings([]float32{float32(math.NaN()), 0.2})
	_, err := Embeddings(items, 2)
	if err == nil {
		t.Fatal("expected a non-finite-value error")
	}

	items = itemsWithEmbeddings([]float32{float32(math.Inf(1)), 0.2})
	_, err = Embeddings(items, 2)
	if err == nil {
		t.Fatal("expected a non-finite-value error for +Inf")
	}
}

func TestEmbeddingsWarnsOnLargeValues(t *testing.T) {
	items := itemsWithEmbeddings([]float32{101, 0.2})
	res, err := Embeddings(items, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Warning == "" {
		t.Error("expected a warning for a value exceeding the sanity threshold")
	}
}
