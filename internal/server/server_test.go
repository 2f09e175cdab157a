package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clustering-service/internal/config"
	"clustering-service/internal/core"
	"clustering-service/internal/encoder"
	"clustering-service/internal/logger"
	"clustering-service/internal/orchestrator"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:                        "0.0.0.0",
		Port:                        8080,
		ReadTimeout:                 30 * time.Second,
		WriteTimeout:                30 * time.Second,
		ExpectedEmbeddingDimensions: 3,
		BatchSize:                   32,
		MaxTextLength:               512,
	}
}

func newTestServer(enc encoder.Encoder) *Server {
	orch := orchestrator.New(enc, logger.Get(), 3)
	return New(orch, enc, testConfig())
}

func TestHandleHealthOK(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("Status = %q, want ok", body.Status)
	}
}

func TestHandleHealthUnavailableWithoutEncoder(t *testing.T) {
	srv := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandlePing(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleEmbeddingsRejectsEmptyTexts(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	body, _ := json.Marshal(map[string]any{"texts": []string{}})
	req := httptest.NewRequest(http.MethodPost, "/embeddings", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleEmbeddingsSuccess(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	body, _ := json.Marshal(map[string]any{"texts": []string{"hello", "world"}})
	req := httptest.NewRequest(http.MethodPost, "/embeddings", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp embeddingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Embeddings) != 2 {
		t.Errorf("len(Embeddings) = %d, want 2", len(resp.Embeddings))
	}
	if resp.Dimensions != 3 {
		t.Errorf("Dimensions = %d, want 3", resp.Dimensions)
	}
}

func TestHandleClusteringAutoRejectsEmptyItems(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	body, _ := json.Marshal(clusteringRequest{Items: nil})
	req := httptest.NewRequest(http.MethodPost, "/clustering/auto", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleClusteringAutoWithPrecomputedEmbeddings(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	items := []core.RawItem{
		{"id": "1", "embedding": []any{0.1, 0.2, 0.3}},
		{"id": "2", "embedding": []any{0.4, 0.5, 0.6}},
		{"id": "3", "embedding": []any{0.1, 0.2, 0.3}},
		{"id": "4", "embedding": []any{0.4, 0.5, 0.6}},
	}
	body, _ := json.Marshal(clusteringRequest{Items: items})
	req := httptest.NewRequest(http.MethodPost, "/clustering/auto", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandleClusteringAutoReturnsEmbeddingsWhenRequested(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	items := []core.RawItem{
		{"id": "1", "embedding": []any{0.1, 0.2, 0.3}},
		{"id": "2", "embedding": []any{0.4, 0.5, 0.6}},
		{"id": "3", "embedding": []any{0.1, 0.2, 0.3}},
		{"id": "4", "embedding": []any{0.4, 0.5, 0.6}},
	}
	body, _ := json.Marshal(clusteringRequest{Items: items})
	req := httptest.NewRequest(http.MethodPost, "/clustering/auto?return_embeddings=true&return_reduced_embeddings=true", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp core.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Embeddings) != len(items) {
		t.Errorf("len(Embeddings) = %d, want %d when return_embeddings=true", len(resp.Embeddings), len(items))
	}
	if len(resp.ReducedEmbeddings) != len(items) {
		t.Errorf("len(ReducedEmbeddings) = %d, want %d when return_reduced_embeddings=true", len(resp.ReducedEmbeddings), len(items))
	}
}

func TestHandleClusteringAutoOmitsEmbeddingsByDefault(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	items := []core.RawItem{
		{"id": "1", "embedding": []any{0.1, 0.2, 0.3}},
		{"id": "2", "embedding": []any{0.4, 0.5, 0.6}},
		{"id": "3", "embedding": []any{0.1, 0.2, 0.3}},
		{"id": "4", "embedding": []any{0.4, 0.5, 0.6}},
	}
	body, _ := json.Marshal(clusteringRequest{Items: items})
	req := httptest.NewRequest(http.MethodPost, "/clustering/auto", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	var resp core.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Embeddings != nil || resp.ReducedEmbeddings != nil {
		t.Error("embeddings fields should be omitted unless their query flags are set")
	}
}

func TestRequireAPITokenAllowsWhenUnconfigured(t *testing.T) {
	srv := newTestServer(encoder.NewHashEncoder(3, "hash-test"))
	body, _ := json.Marshal(map[string]any{"texts": []string{"hi"}})
	req := httptest.NewRequest(http.MethodPost, "/embeddings", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code == http.StatusUnauthorized {
		t.Error("a token-protected route must not require a token when no API token is configured")
	}
}

func TestRequireAPITokenRejectsMissingToken(t *testing.T) {
	cfg := testConfig()
	cfg.APIToken = "secret"
	orch := orchestrator.New(encoder.NewHashEncoder(3, "hash-test"), logger.Get(), 3)
	srv := New(orch, encoder.NewHashEncoder(3, "hash-test"), cfg)

	body, _ := json.Marshal(map[string]any{"texts": []string{"hi"}})
	req := httptest.NewRequest(http.MethodPost, "/embeddings", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAPITokenAcceptsValidBearerToken(t *testing.T) {
	cfg := testConfig()
	cfg.APIToken = "secret"
	orch := orchestrator.New(encoder.NewHashEncoder(3, "hash-test"), logger.Get(), 3)
	srv := New(orch, encoder.NewHashEncoder(3, "hash-test"), cfg)

	body, _ := json.Marshal(map[string]any{"texts": []string{"hi"}})
	req := httptest.NewRequest(http.MethodPost, "/embeddings", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}
