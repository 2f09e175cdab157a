// Package clustering implements C5-C9: safe-parameter clamping, the
// UMAP-like reducer, the HDBSCAN clusterer, the DBCV validity scorer,
// and the grid-search optimizer.
package clustering

import "clustering-service/internal/core"

// SafeParams is the clamped parameter set §4.5 derives from a requested
// ClusteringConfig and the sample count n. It is the sole mechanism
// preventing low-n crashes in the reducer and clusterer.
type SafeParams struct {
	NNeighbors     int
	NComponents    int
	MinClusterSize int
	MinSamples     int
}

// Resolve clamps req's UMAP/HDBSCAN parameters to values valid for n
// samples of dimensionality d, grounded verbatim on the original
// source's get_safe_n_neighbors/get_safe_min_cluster_size thresholds.
func Resolve(n, d int, req core.ClusteringConfig) SafeParams {
	sp := SafeParams{}

	switch {
	case n <= 3:
		sp.NNeighbors = max(1, n-1)
	case n <= 10:
		sp.NNeighbors = min(req.NNeighbors, n-2)
	default:
		sp.NNeighbors = min(req.NNeighbors, n-1)
	}
	if sp.NNeighbors < 1 {
		sp.NNeighbors = 1
	}

	sp.NComponents = min(req.NComponents, n-1, d)
	if sp.NComponents < 1 {
		sp.NComponents = 1
	}

	switch {
	case n <= 5:
		sp.MinClusterSize = 2
	case n <= 10:
		sp.MinClusterSize = min(3, req.MinClusterSize)
	default:
		sp.MinClusterSize = req.MinClusterSize
	}
	if sp.MinClusterSize < 2 {
		sp.MinClusterSize = 2
	}

	sp.MinSamples = max(1, min(req.MinSamples, sp.MinClusterSize-1, n-1))

	return sp
}
