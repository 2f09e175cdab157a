package clustering

import "math"

// DBCV computes the Density-Based Clustering Validation index (Moulavi
// et al.) for a labeled point set: mutual-reachability distance, a
// minimum spanning tree per cluster, and a size-weighted aggregate of
// each cluster's density separation against density sparseness. Built
// the way the teacher structures a validity scorer (distance matrix
// once, then a per-cluster/per-point score, then a weighted aggregate)
// but implementing the real DBCV formula rather than silhouette.
//
// Returns (score, ok). ok is false when there are fewer than two
// distinct non-outlier labels or fewer than two non-outlier points —
// DBCV is undefined in that case, and the caller must treat it as "no
// score" rather than a zero score.
func DBCV(points [][]float64, labels []int, metric DistanceFunc) (float64, bool) {
	clusters := nonOutlierClusters(labels)
	if len(clusters) < 2 {
		return 0, false
	}

	dist := DistanceMatrix(points, metric)
	coreDist := coreDistances(dist, labels)
	mrd := mutualReachabilityMatrix(dist, coreDist)

	internalEdges := map[int][][3]float64{} // cluster -> list of {i, j, mrd}
	for label, idxs := range clusters {
		internalEdges[label] = clusterMST(idxs, mrd)
	}

	sparseness := map[int]float64{}
	for label, edges := range internalEdges {
		sparseness[label] = maxEdgeWeight(edges)
	}

	separation := map[int]float64{}
	for label := range clusters {
		separation[label] = minSeparationTo(label, clusters, mrd)
	}

	totalPoints := 0
	var weighted float64
	for label, idxs := range clusters {
		vc := validityOfCluster(sparseness[label], separation[label])
		weighted += float64(len(idxs)) * vc
		totalPoints += len(idxs)
	}

	if totalPoints == 0 {
		return 0, false
	}
	return weighted / float64(totalPoints), true
}

func validityOfCluster(sparseness, separation float64) float64 {
	denom := math.Max(sparseness, separation)
	if denom == 0 {
		return 0
	}
	return (separation - sparseness) / denom
}

func nonOutlierClusters(labels []int) map[int][]int {
	clusters := map[int][]int{}
	for i, l := range labels {
		if l < 0 {
			continue
		}
		clusters[l] = append(clusters[l], i)
	}
	return clusters
}

// coreDistances computes, for each point, the distance to its
// (|cluster|-1)-th nearest neighbor within its own cluster — HDBSCAN's
// core distance with min_samples implicitly set to the full cluster,
// the conservative choice documented in DESIGN.md's HDBSCAN
// min_samples note.
func coreDistances(dist [][]float64, labels []int) []float64 {
	n := len(dist)
	core := make([]float64, n)

	clusters := nonOutlierClusters(labels)
	for _, idxs := range clusters {
		for _, i := range idxs {
			if len(idxs) <= 1 {
				core[i] = 0
				continue
			}
			neighborDists := make([]float64, 0, len(idxs)-1)
			for _, j := range idxs {
				if j == i {
					continue
				}
				neighborDists = append(neighborDists, dist[i][j])
			}
			core[i] = maxOf(neighborDists)
		}
	}

	return core
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func mutualReachabilityMatrix(dist [][]float64, core []float64) [][]float64 {
	n := len(dist)
	mrd := make([][]float64, n)
	for i := range mrd {
		mrd[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Max(dist[i][j], math.Max(core[i], core[j]))
			mrd[i][j] = d
			mrd[j][i] = d
		}
	}
	return mrd
}

// clusterMST builds a minimum spanning tree over idxs using mutual
// reachability distance as edge weight (Prim's algorithm), returning
// the edges chosen.
func clusterMST(idxs []int, mrd [][]float64) [][3]float64 {
	if len(idxs) <= 1 {
		return nil
	}

	inTree := map[int]bool{idxs[0]: true}
	edges := make([][3]float64, 0, len(idxs)-1)

	for len(inTree) < len(idxs) {
		best := -1
		bestFrom := -1
		bestWeight := math.Inf(1)

		for from := range inTree {
			for _, to := range idxs {
				if inTree[to] {
					continue
				}
				w := mrd[from][to]
				if w < bestWeight {
					bestWeight = w
					best = to
					bestFrom = from
				}
			}
		}

		if best == -1 {
			break
		}
		inTree[best] = true
		edges = append(edges, [3]float64{float64(bestFrom), float64(best), bestWeight})
	}

	return edges
}

func maxEdgeWeight(edges [][3]float64) float64 {
	m := 0.0
	for _, e := range edges {
		if e[2] > m {
			m = e[2]
		}
	}
	return m
}

// minSeparationTo finds the minimum mutual-reachability distance
// between any point of label's cluster and any point of any other
// cluster — DBCV's density separation.
func minSeparationTo(label int, clusters map[int][]int, mrd [][]float64) float64 {
	min := math.Inf(1)
	for other, otherIdxs := range clusters {
		if other == label {
			continue
		}
		for _, i := range clusters[label] {
			for _, j := range otherIdxs {
				if mrd[i][j] < min {
					min = mrd[i][j]
				}
			}
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}
