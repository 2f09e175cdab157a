// Package core holds the data model shared by every stage of the
// clustering pipeline: the normalized item, the hyperparameter configs,
// and the response shape the HTTP adapter ultimately serializes.
//
// Nothing library-specific (no matrix types, no clustering-library
// structs) crosses into this package — it is the one boundary where
// plain primitives are produced, matched by json tags, and nothing else.
package core

import "time"

// Tag identifies which of the five input shapes a batch was detected as.
type Tag string

const (
	TagSimpleVector   Tag = "simple_vector"
	TagExtendedVector Tag = "extended_vector"
	TagArticle        Tag = "article"
	TagVectorWithText Tag = "vector_with_text"
	TagPlainText      Tag = "plain_text"
	TagUnknown        Tag = "unknown"
)

// RawItem is one input record, still in its wire shape: a flat map
// decoded from JSON. The Format Detector and Input Adapter inspect and
// consume it; nothing downstream ever sees a RawItem again.
type RawItem map[string]any

// NormalizedItem is the common shape every input tag is adapted to.
// D is implied by len(Embedding) and must equal the configured
// dimensionality by the time C4 has run.
type NormalizedItem struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata"`

	// PublishDate is parsed only for the article tag; the zero value
	// means "absent or unparseable", never an error.
	PublishDate time.Time `json:"-"`
}

// ClusteringConfig carries the UMAP and HDBSCAN hyperparameters a
// request may override; fields a request leaves out keep their
// DefaultClusteringConfig values.
type ClusteringConfig struct {
	// UMAP
	NComponents int     `json:"n_components"`
	NNeighbors  int     `json:"n_neighbors"`
	MinDist     float64 `json:"min_dist"`
	UMAPMetric  string  `json:"umap_metric"` // cosine | euclidean | manhattan

	// HDBSCAN
	MinClusterSize          int     `json:"min_cluster_size"`
	MinSamples              int     `json:"min_samples"`
	HDBSCANMetric           string  `json:"hdbscan_metric"` // euclidean | manhattan | chebyshev
	ClusterSelectionEpsilon float64 `json:"cluster_selection_epsilon"`
	SelectionMethod         string  `json:"selection_method"` // eom | leaf

	NormalizeEmbeddings bool `json:"normalize_embeddings"`
	RemoveOutliers      bool `json:"remove_outliers"`
}

// DefaultClusteringConfig mirrors the defaults documented in the
// original source's ClusteringConfig dataclass.
func DefaultClusteringConfig() ClusteringConfig {
	return ClusteringConfig{
		NComponents:             5,
		NNeighbors:              15,
		MinDist:                 0.1,
		UMAPMetric:              "cosine",
		MinClusterSize:          5,
		MinSamples:              1,
		HDBSCANMetric:           "euclidean",
		ClusterSelectionEpsilon: 0.0,
		SelectionMethod:         "eom",
		NormalizeEmbeddings:     true,
		RemoveOutliers:          false,
	}
}

// OptimizationConfig describes the grid-search axes for C9.
type OptimizationConfig struct {
	Enabled                    bool      `json:"enabled"`
	UMAPNNeighborsRange        []int     `json:"umap_n_neighbors_range"`
	HDBSCANMinClusterSizeRange []int     `json:"hdbscan_min_cluster_size_range"`
	HDBSCANMinSamplesRange     []int     `json:"hdbscan_min_samples_range"`
	HDBSCANEpsilonRange        []float64 `json:"hdbscan_epsilon_range"`
	MaxCombinations            int       `json:"max_combinations"`
}

// DefaultOptimizationConfig mirrors the grid documented in the source.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		Enabled:                    false,
		UMAPNNeighborsRange:        []int{5, 10, 15, 20},
		HDBSCANMinClusterSizeRange: []int{3, 5, 8, 10},
		HDBSCANMinSamplesRange:     []int{1, 2, 3},
		HDBSCANEpsilonRange:        []float64{0.0, 0.1, 0.2},
		MaxCombinations:            50,
	}
}

// ClusterDescriptor is one group of NormalizedItems sharing a label, or
// the outlier group when ClusterID == -1.
type ClusterDescriptor struct {
	ClusterID             int              `json:"cluster_id"`
	Size                  int              `json:"size"`
	Items                 []NormalizedItem `json:"items"`
	Centroid              []float64        `json:"centroid,omitempty"`
	RepresentativeContent []string         `json:"representative_content"`
	Keywords              []string         `json:"keywords"`
	Summary               *string          `json:"summary,omitempty"`
}

// ClusteringStats summarizes a labeling; see I1-I3 in the testable
// properties for the invariants it must satisfy.
type ClusteringStats struct {
	NSamples     int            `json:"n_samples"`
	NClusters    int            `json:"n_clusters"`
	NOutliers    int            `json:"n_outliers"`
	OutlierRatio float64        `json:"outlier_ratio"`
	ClusterSizes map[int]int    `json:"cluster_sizes"`
	DBCVScore    *float64       `json:"dbcv_score"`
}

// OptimizationResult reports whether the grid search ran and what it found.
type OptimizationResult struct {
	Used                 bool              `json:"used"`
	BestParams           *ClusteringConfig `json:"best_params,omitempty"`
	BestScore            *float64          `json:"best_score"`
	EvaluatedCombinations int              `json:"evaluated_combinations,omitempty"`
	Truncated            bool              `json:"truncated,omitempty"`
	Fallback             bool              `json:"fallback,omitempty"`
}

// ModelInfo surfaces bookkeeping about this run's non-determinism
// escape hatches: encoder identity and any fallback flags (§4.7).
type ModelInfo struct {
	EmbeddingModel   string `json:"embedding_model"`
	Dimensions       int    `json:"dimensions"`
	ReducerFallback  bool   `json:"reducer_fallback,omitempty"`
	ClustererFallback bool  `json:"clusterer_fallback,omitempty"`
}

// StageTiming records how long one named orchestrator step took.
type StageTiming struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
}

// Response is the top-level wire shape returned by the clustering
// endpoints.
type Response struct {
	Clusters            []ClusterDescriptor `json:"clusters"`
	ClusteringStats     ClusteringStats     `json:"clustering_stats"`
	OptimizationResult  OptimizationResult  `json:"optimization_result"`
	ConfigUsed          ClusteringConfig    `json:"config_used"`
	Embeddings          [][]float32         `json:"embeddings,omitempty"`
	ReducedEmbeddings   [][]float64         `json:"reduced_embeddings,omitempty"`
	ProcessingTimeMS    int64               `json:"processing_time_ms"`
	ModelInfo           ModelInfo           `json:"model_info"`
	Stages              []StageTiming       `json:"stages,omitempty"`
}
