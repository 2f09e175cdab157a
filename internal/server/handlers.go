package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"clustering-service/internal/apierr"
	"clustering-service/internal/core"
	"clustering-service/internal/ingest"
)

var serverStartTime = time.Now()

// HealthResponse is GET /health's body.
type HealthResponse struct {
	Status                string    `json:"status"`
	EmbeddingModel        string    `json:"embedding_model,omitempty"`
	ClusteringAvailable   bool      `json:"clustering_available"`
	OptimizationAvailable bool      `json:"optimization_available"`
	Timestamp             time.Time `json:"timestamp"`
}

// rootResponse is GET /'s service descriptor.
type rootResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	model, ok := probeEncoder(s.encoder)
	if !ok {
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now(),
		})
		return
	}

	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:                "ok",
		EmbeddingModel:        model,
		ClusteringAvailable:   true,
		OptimizationAvailable: true,
		Timestamp:             time.Now(),
	})
}

// handlePing is a liveness-only check with no dependency probing,
// restored from original_source/.../main.py per SPEC_FULL.md §6.1.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, rootResponse{
		Name:    "clustering-service",
		Version: "1.0.0",
		Endpoints: []string{
			"GET /health",
			"GET /ping",
			"POST /embeddings",
			"POST /ai-worker/clustering",
			"POST /clustering/auto",
			"POST /embeddings-and-clustering",
		},
	})
}

// embeddingsRequest is POST /embeddings's body.
type embeddingsRequest struct {
	Texts     []string `json:"texts"`
	ModelName string   `json:"model_name,omitempty"`
	Normalize *bool    `json:"normalize,omitempty"`
}

type embeddingsResponse struct {
	Embeddings     [][]float32 `json:"embeddings"`
	ModelName      string      `json:"model_name"`
	Dimensions     int         `json:"dimensions"`
	ProcessingTime int64       `json:"processing_time_ms"`
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, apierr.BadInputFormat("invalid JSON body", err.Error()))
		return
	}
	if len(req.Texts) == 0 {
		s.respondError(w, apierr.InvalidEmbeddings("texts must be a non-empty list", nil))
		return
	}
	if s.encoder == nil {
		s.respondError(w, apierr.EncoderUnavailable("no text encoder is configured"))
		return
	}

	start := time.Now()
	vectors, err := s.encoder.Encode(r.Context(), req.Texts)
	if err != nil {
		s.respondError(w, apierr.EncoderUnavailable(err.Error()))
		return
	}

	s.respondJSON(w, http.StatusOK, embeddingsResponse{
		Embeddings:     vectors,
		ModelName:      s.encoder.ModelName(),
		Dimensions:     s.encoder.Dimensions(),
		ProcessingTime: time.Since(start).Milliseconds(),
	})
}

// clusteringRequest is the shared body shape for /ai-worker/clustering
// and /clustering/auto.
type clusteringRequest struct {
	Items           []core.RawItem           `json:"items"`
	Config          *core.ClusteringConfig   `json:"config,omitempty"`
	Optimization    *core.OptimizationConfig `json:"optimization,omitempty"`
	ContentAnalysis *bool                    `json:"content_analysis,omitempty"`
}

func (s *Server) handleAIWorkerClustering(w http.ResponseWriter, r *http.Request) {
	s.runClustering(w, r, []core.Tag{
		core.TagSimpleVector, core.TagExtendedVector, core.TagArticle, core.TagVectorWithText,
	})
}

func (s *Server) handleClusteringAuto(w http.ResponseWriter, r *http.Request) {
	s.runClustering(w, r, nil)
}

func (s *Server) handleEmbeddingsAndClustering(w http.ResponseWriter, r *http.Request) {
	// one-shot convenience endpoint (encode + cluster), restored from
	// original_source/.../main.py per SPEC_FULL.md §6.1 — it is a thin
	// wrapper around the same orchestrator path since the orchestrator
	// already encodes internally when an item batch has no embeddings.
	s.runClustering(w, r, nil)
}

func (s *Server) runClustering(w http.ResponseWriter, r *http.Request, allowedTags []core.Tag) {
	// Decode the config over the defaults so fields the request omits
	// keep their default values.
	defaultCfg := core.DefaultClusteringConfig()
	req := clusteringRequest{Config: &defaultCfg}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, apierr.BadInputFormat("invalid JSON body", err.Error()))
		return
	}
	if len(req.Items) == 0 {
		s.respondError(w, apierr.InvalidEmbeddings("items must be a non-empty list", nil))
		return
	}

	if allowedTags != nil {
		tag, err := ingest.Detect(req.Items)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if !tagAllowed(tag, allowedTags) {
			s.respondError(w, apierr.BadInputFormat("input tag not accepted by this endpoint", string(tag)))
			return
		}
	}

	cfg := core.DefaultClusteringConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	optCfg := core.DefaultOptimizationConfig()
	if req.Optimization != nil {
		optCfg = *req.Optimization
	}

	returnEmbeddings := parseBoolQuery(r, "return_embeddings")
	returnReducedEmbeddings := parseBoolQuery(r, "return_reduced_embeddings")

	resp, err := s.orchestrator.Run(r.Context(), req.Items, cfg, optCfg, returnEmbeddings, returnReducedEmbeddings)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// parseBoolQuery reads a §6 boolean query flag (e.g. return_embeddings);
// absent or unrecognized values default to false.
func parseBoolQuery(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return false
	}
	return v
}

func tagAllowed(tag core.Tag, allowed []core.Tag) bool {
	for _, a := range allowed {
		if tag == a {
			return true
		}
	}
	return false
}

// respondJSON writes a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes the §7 error envelope, mapping apierr.Error's
// Status, or falling back to 500 INTERNAL for anything else.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*apierr.Error)
	if !ok {
		apiErr = apierr.Internal(err.Error())
	}
	s.respondJSON(w, apiErr.Status, apierr.Envelope{Error: apiErr})
}
