// Package orchestrator implements C11: the single Run entry point that
// threads a request through detect -> adapt -> encode -> validate ->
// fit/optimize -> assemble, timing every stage.
package orchestrator

import (
	"context"
	"log/slog"
	"math"
	"time"

	"clustering-service/internal/apierr"
	"clustering-service/internal/assemble"
	"clustering-service/internal/clustering"
	"clustering-service/internal/core"
	"clustering-service/internal/encoder"
	"clustering-service/internal/ingest"
	"clustering-service/internal/validate"
)

// Orchestrator is constructed once at server startup, mirroring the
// teacher's StrategySelector/AdaptiveClusterer construction style: a
// small struct holding the collaborators a request needs, with no
// per-request mutable state of its own.
type Orchestrator struct {
	encoder     encoder.Encoder
	logger      *slog.Logger
	expectedDim int
}

func New(enc encoder.Encoder, logger *slog.Logger, expectedDim int) *Orchestrator {
	return &Orchestrator{encoder: enc, logger: logger, expectedDim: expectedDim}
}

// Run executes the full pipeline for a batch of raw items against cfg/
// optCfg, returning the wire-shaped Response. returnEmbeddings and
// returnReducedEmbeddings mirror §6's return_embeddings/
// return_reduced_embeddings query flags: when set, the validated input
// embeddings and/or the UMAP-reduced points are included on the
// response instead of being discarded after use.
func (o *Orchestrator) Run(ctx context.Context, items []core.RawItem, cfg core.ClusteringConfig, optCfg core.OptimizationConfig, returnEmbeddings, returnReducedEmbeddings bool) (*core.Response, error) {
	start := time.Now()
	var stages []core.StageTiming

	timeStage := func(name string, fn func() error) error {
		stageStart := time.Now()
		err := fn()
		stages = append(stages, core.StageTiming{
			Name:       name,
			DurationMS: time.Since(stageStart).Milliseconds(),
		})
		return err
	}

	var tag core.Tag
	if err := timeStage("detect", func() error {
		var err error
		tag, err = ingest.Detect(items)
		return err
	}); err != nil {
		return nil, err
	}

	var normalized []core.NormalizedItem
	var embeddingsPresent bool
	if err := timeStage("adapt", func() error {
		var err error
		normalized, embeddingsPresent, err = ingest.Adapt(tag, items)
		return err
	}); err != nil {
		return nil, err
	}

	fallbackInfo := core.ModelInfo{}

	if !embeddingsPresent {
		if err := timeStage("encode", func() error {
			if o.encoder == nil {
				return apierr.EncoderUnavailable("no text encoder is configured")
			}
			texts := make([]string, len(normalized))
			for i, n := range normalized {
				texts[i] = n.Text
			}
			vectors, err := o.encoder.Encode(ctx, texts)
			if err != nil {
				return apierr.EncoderUnavailable(err.Error())
			}
			for i := range normalized {
				normalized[i].Embedding = vectors[i]
			}
			fallbackInfo.EmbeddingModel = o.encoder.ModelName()
			fallbackInfo.Dimensions = o.encoder.Dimensions()
			return nil
		}); err != nil {
			return nil, err
		}
	}

	var matrix [][]float32
	if err := timeStage("validate", func() error {
		result, err := validate.Embeddings(normalized, o.expectedDim)
		if err != nil {
			return err
		}
		matrix = result.Matrix
		if result.Warning != "" {
			o.logger.Warn("embedding validation warning", "detail", result.Warning)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	points := toFloat64Matrix(matrix, cfg.NormalizeEmbeddings)
	n := len(points)
	d := 0
	if n > 0 {
		d = len(points[0])
	}

	var reducedPoints [][]float64
	var labels []int
	optResult := core.OptimizationResult{Used: optCfg.Enabled}
	reducerFallback := false
	clustererFallback := false

	if optCfg.Enabled {
		if err := timeStage("optimize", func() error {
			result := clustering.Optimize(points, n, d, cfg, optCfg)
			reducedPoints = result.Points
			labels = result.Labels
			cfg = result.Params
			if !result.Fallback {
				optResult.BestParams = &result.Params
			}
			optResult.BestScore = result.Score
			optResult.EvaluatedCombinations = result.Evaluated
			optResult.Truncated = result.Truncated
			optResult.Fallback = result.Fallback
			return nil
		}); err != nil {
			return nil, err
		}
	} else {
		if err := timeStage("fit", func() error {
			sp := clustering.Resolve(n, d, cfg)
			reduced := clustering.Reduce(points, sp, clustering.UMAPMetric(cfg.UMAPMetric))
			reducerFallback = reduced.Fallback
			reducedPoints = reduced.Points

			result := clustering.RunHDBSCAN(reducedPoints, sp, clustering.HDBSCANMetric(cfg.HDBSCANMetric))
			clustererFallback = result.Fallback
			labels = result.Labels

			cfg.NNeighbors = sp.NNeighbors
			cfg.NComponents = sp.NComponents
			cfg.MinClusterSize = sp.MinClusterSize
			cfg.MinSamples = sp.MinSamples
			return nil
		}); err != nil {
			return nil, err
		}
	}

	var stats core.ClusteringStats
	var descriptors []core.ClusterDescriptor
	if err := timeStage("assemble", func() error {
		stats, descriptors = assemble.Build(normalized, reducedPoints, labels, cfg.RemoveOutliers)
		if score, ok := clustering.DBCV(reducedPoints, labels, clustering.HDBSCANMetric(cfg.HDBSCANMetric)); ok {
			stats.DBCVScore = &score
		}
		return nil
	}); err != nil {
		return nil, err
	}

	fallbackInfo.ReducerFallback = reducerFallback
	fallbackInfo.ClustererFallback = clustererFallback

	resp := &core.Response{
		Clusters:           descriptors,
		ClusteringStats:    stats,
		OptimizationResult: optResult,
		ConfigUsed:         cfg,
		ProcessingTimeMS:   time.Since(start).Milliseconds(),
		ModelInfo:          fallbackInfo,
		Stages:             stages,
	}
	if returnEmbeddings {
		resp.Embeddings = matrix
	}
	if returnReducedEmbeddings {
		resp.ReducedEmbeddings = reducedPoints
	}
	return resp, nil
}

// toFloat64Matrix converts the validated float32 matrix to float64 for
// the clustering package, optionally L2-normalizing each row first.
func toFloat64Matrix(matrix [][]float32, normalize bool) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = float64(v)
		}
		if normalize {
			r = l2NormalizeFloat64(r)
		}
		out[i] = r
	}
	return out
}

func l2NormalizeFloat64(v []float64) []float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
