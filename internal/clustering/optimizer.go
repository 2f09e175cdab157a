package clustering

import "clustering-service/internal/core"

// OptimizeResult is C9's output.
type OptimizeResult struct {
	Params    core.ClusteringConfig
	Score     *float64
	Evaluated int
	Truncated bool
	Fallback  bool
	Points    [][]float64
	Labels    []int
}

// Optimize grid-searches n_neighbors x min_cluster_size x min_samples x
// epsilon, reusing one reducer fit per n_neighbors value across every
// inner HDBSCAN combination — the same fit-once-per-n_neighbors
// structure as original_source's optimize_clusters. Combinations that
// produce an all-outlier result, or for which DBCV is undefined, are
// skipped; ties keep the first combination seen, in the order the
// configured ranges list their values (n_neighbors outermost, then
// min_cluster_size, min_samples, epsilon), matching the Python loop's
// strict ">" comparison.
//
// n <= 5 short-circuits to the safety-clamped default configuration
// with no search, exactly as optimize_clusters does, and reports
// Fallback=true.
func Optimize(points [][]float64, n, d int, req core.ClusteringConfig, opt core.OptimizationConfig) OptimizeResult {
	if n <= 5 {
		sp := Resolve(n, d, req)
		params := req
		params.NNeighbors = sp.NNeighbors
		params.NComponents = sp.NComponents
		params.MinClusterSize = sp.MinClusterSize
		params.MinSamples = sp.MinSamples

		reduced := Reduce(points, sp, UMAPMetric(req.UMAPMetric))
		labels := RunHDBSCAN(reduced.Points, sp, HDBSCANMetric(req.HDBSCANMetric))

		return OptimizeResult{
			Params:   params,
			Score:    nil,
			Fallback: true,
			Points:   reduced.Points,
			Labels:   labels.Labels,
		}
	}

	neighborCandidates := dedupInts(opt.UMAPNNeighborsRange)
	sizeCandidates := dedupInts(opt.HDBSCANMinClusterSizeRange)

	var best *OptimizeResult
	evaluated := 0
	truncated := false

combinations:
	for _, nNeighbors := range neighborCandidates {
		sp := Resolve(n, d, core.ClusteringConfig{
			NNeighbors:  nNeighbors,
			NComponents: req.NComponents,
		})
		reduced := Reduce(points, sp, UMAPMetric(req.UMAPMetric))

		for _, minClusterSize := range sizeCandidates {
			clusterSP := sp
			clusterSP.MinClusterSize = clampMinClusterSize(n, minClusterSize)

			for _, minSamples := range opt.HDBSCANMinSamplesRange {
				safeMinSamples := clampInt(minSamples, 1, clusterSP.MinClusterSize-1, n-1)

				for _, epsilon := range opt.HDBSCANEpsilonRange {
					if opt.MaxCombinations > 0 && evaluated >= opt.MaxCombinations {
						truncated = true
						break combinations
					}
					evaluated++

					runSP := clusterSP
					runSP.MinSamples = safeMinSamples

					labels := RunHDBSCAN(reduced.Points, runSP, HDBSCANMetric(req.HDBSCANMetric))
					if labels.Fallback || allOutliers(labels.Labels) {
						continue
					}

					merged := mergeByEpsilon(reduced.Points, labels.Labels, epsilon)

					score, ok := DBCV(reduced.Points, merged, HDBSCANMetric(req.HDBSCANMetric))
					if !ok {
						continue
					}

					if best == nil || score > *best.Score {
						params := req
						params.NNeighbors = nNeighbors
						params.NComponents = sp.NComponents
						params.MinClusterSize = clusterSP.MinClusterSize
						params.MinSamples = safeMinSamples
						params.ClusterSelectionEpsilon = epsilon

						s := score
						best = &OptimizeResult{
							Params: params,
							Score:  &s,
							Points: reduced.Points,
							Labels: merged,
						}
					}
				}
			}
		}
	}

	if best == nil {
		sp := Resolve(n, d, req)
		params := req
		params.NNeighbors = sp.NNeighbors
		params.NComponents = sp.NComponents
		params.MinClusterSize = sp.MinClusterSize
		params.MinSamples = sp.MinSamples

		reduced := Reduce(points, sp, UMAPMetric(req.UMAPMetric))
		labels := RunHDBSCAN(reduced.Points, sp, HDBSCANMetric(req.HDBSCANMetric))

		return OptimizeResult{
			Params:    params,
			Score:     nil,
			Evaluated: evaluated,
			Truncated: truncated,
			Fallback:  true,
			Points:    reduced.Points,
			Labels:    labels.Labels,
		}
	}

	best.Evaluated = evaluated
	best.Truncated = truncated
	return *best
}

func dedupInts(xs []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

func clampMinClusterSize(n, requested int) int {
	switch {
	case n <= 5:
		return 2
	case n <= 10:
		return min(3, requested)
	default:
		return requested
	}
}

func clampInt(v int, lowerFloor int, upperBounds ...int) int {
	for _, u := range upperBounds {
		v = min(v, u)
	}
	return max(lowerFloor, v)
}

func allOutliers(labels []int) bool {
	for _, l := range labels {
		if l != -1 {
			return false
		}
	}
	return true
}

// mergeByEpsilon merges clusters whose centroids (in reduced space)
// are within epsilon of each other, realizing cluster_selection_epsilon
// as a post-process per DESIGN.md's HDBSCAN Open Question decision.
func mergeByEpsilon(points [][]float64, labels []int, epsilon float64) []int {
	if epsilon <= 0 {
		return labels
	}

	centroids := map[int][]float64{}
	counts := map[int]int{}
	for i, l := range labels {
		if l < 0 {
			continue
		}
		if centroids[l] == nil {
			centroids[l] = make([]float64, len(points[i]))
		}
		for k, v := range points[i] {
			centroids[l][k] += v
		}
		counts[l]++
	}
	for l, c := range counts {
		for k := range centroids[l] {
			centroids[l][k] /= float64(c)
		}
	}

	ids := make([]int, 0, len(centroids))
	for l := range centroids {
		ids = append(ids, l)
	}

	parent := map[int]int{}
	for _, id := range ids {
		parent[id] = id
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if EuclideanDistance(centroids[ids[i]], centroids[ids[j]]) <= epsilon {
				ri, rj := find(ids[i]), find(ids[j])
				if ri != rj {
					parent[ri] = rj
				}
			}
		}
	}

	merged := make([]int, len(labels))
	for i, l := range labels {
		if l < 0 {
			merged[i] = -1
			continue
		}
		merged[i] = find(l)
	}
	return merged
}
