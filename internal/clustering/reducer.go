package clustering

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ReduceResult is C6's output: the lower-dimensional embedding plus
// whether the real fuzzy-simplicial-set reduction ran or the column-
// slice fallback kicked in (§4.6/§4.7).
type ReduceResult struct {
	Points   [][]float64
	Fallback bool
}

// Reduce approximates UMAP: build a k-NN graph, convert it into fuzzy
// simplicial-set membership weights via the smoothed-knn calibration,
// symmetrize with a probabilistic t-conorm, spectrally initialize the
// low-dimensional layout with gonum, then refine it with a small
// attraction/repulsion SGD pass — the same staged pipeline
// original_source's perform_umap_reduction hands to umap.UMAP, expressed
// as a direct implementation since no Go UMAP library exists anywhere
// in the retrieval pack.
//
// n <= sp.NComponents or n <= sp.NNeighbors+1 both fall back to a plain
// column slice rather than attempting a degenerate graph, matching
// perform_umap_reduction's own small-dataset branch.
func Reduce(points [][]float64, sp SafeParams, metric DistanceFunc) ReduceResult {
	n := len(points)
	if n == 0 {
		return ReduceResult{Points: points, Fallback: false}
	}

	if n <= sp.NNeighbors+1 || n <= sp.NComponents {
		return ReduceResult{Points: columnSlice(points, sp.NComponents), Fallback: true}
	}

	graph := knnGraph(points, sp.NNeighbors, metric)
	fuzzy := smoothedKNNWeights(graph, sp.NNeighbors)
	union := symmetrizeFuzzySet(fuzzy, n)

	init, ok := spectralInit(union, n, sp.NComponents)
	if !ok {
		return ReduceResult{Points: columnSlice(points, sp.NComponents), Fallback: true}
	}

	layout := sgdLayout(union, init, sp.NComponents)
	return ReduceResult{Points: layout, Fallback: false}
}

func columnSlice(points [][]float64, d int) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		w := d
		if w > len(p) {
			w = len(p)
		}
		if w < 1 {
			w = 1
		}
		row := make([]float64, w)
		copy(row, p[:w])
		out[i] = row
	}
	return out
}

type neighborEdge struct {
	idx  int
	dist float64
}

// knnGraph returns, for each point, its k nearest neighbors (excluding
// itself) sorted by ascending distance.
func knnGraph(points [][]float64, k int, metric DistanceFunc) [][]neighborEdge {
	n := len(points)
	graph := make([][]neighborEdge, n)

	for i := 0; i < n; i++ {
		edges := make([]neighborEdge, 0, n-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			edges = append(edges, neighborEdge{idx: j, dist: metric(points[i], points[j])})
		}
		sort.Slice(edges, func(a, b int) bool { return edges[a].dist < edges[b].dist })
		if k < len(edges) {
			edges = edges[:k]
		}
		graph[i] = edges
	}

	return graph
}

const (
	smoothKNNTolerance  = 1e-5
	smoothKNNMaxIter    = 64
	smoothKNNMinSigma   = 1e-3
	smoothKNNTargetBits = 1.0
)

// smoothedKNNWeights calibrates, per point, a local connectivity
// (rho = distance to nearest neighbor) and a bandwidth sigma found by
// binary search so that the sum of membership strengths to its k
// neighbors matches log2(k) — UMAP's smooth-knn-dist step.
func smoothedKNNWeights(graph [][]neighborEdge, k int) []map[int]float64 {
	target := math.Log2(float64(k)) * smoothKNNTargetBits
	weights := make([]map[int]float64, len(graph))

	for i, edges := range graph {
		weights[i] = map[int]float64{}
		if len(edges) == 0 {
			continue
		}

		rho := edges[0].dist

		lo, hi := 0.0, math.Inf(1)
		sigma := 1.0
		for iter := 0; iter < smoothKNNMaxIter; iter++ {
			sum := 0.0
			for _, e := range edges {
				d := e.dist - rho
				if d < 0 {
					d = 0
				}
				sum += math.Exp(-d / sigma)
			}

			if math.Abs(sum-target) < smoothKNNTolerance {
				break
			}

			if sum > target {
				hi = sigma
				sigma = (lo + sigma) / 2
			} else {
				lo = sigma
				if math.IsInf(hi, 1) {
					sigma *= 2
				} else {
					sigma = (sigma + hi) / 2
				}
			}
		}
		if sigma < smoothKNNMinSigma {
			sigma = smoothKNNMinSigma
		}

		for _, e := range edges {
			d := e.dist - rho
			if d < 0 {
				d = 0
			}
			weights[i][e.idx] = math.Exp(-d / sigma)
		}
	}

	return weights
}

// symmetrizeFuzzySet combines the directed membership weights into an
// undirected fuzzy graph via the probabilistic t-conorm
// (a + b - a*b), UMAP's fuzzy union of the two directed simplicial
// sets.
func symmetrizeFuzzySet(weights []map[int]float64, n int) map[[2]int]float64 {
	union := map[[2]int]float64{}

	combine := func(i, j int, w float64) {
		key := [2]int{i, j}
		if i > j {
			key = [2]int{j, i}
		}
		if existing, ok := union[key]; ok {
			union[key] = existing + w - existing*w
		} else {
			union[key] = w
		}
	}

	for i, row := range weights {
		for j, w := range row {
			combine(i, j, w)
		}
	}

	return union
}

// spectralInit builds the graph Laplacian from the fuzzy union and
// returns the eigenvectors of its smallest nonzero eigenvalues as the
// initial low-dimensional layout, the same spectral-embedding seed
// UMAP uses before its SGD refinement. Returns ok=false if the
// eigendecomposition does not converge or d is not less than n.
func spectralInit(union map[[2]int]float64, n, d int) ([][]float64, bool) {
	if d >= n {
		return nil, false
	}

	// Visit edges in sorted order so the degree sums, and the layout
	// derived from them, do not depend on map iteration order.
	keys := make([][2]int, 0, len(union))
	for key := range union {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})

	adj := mat.NewSymDense(n, nil)
	degree := make([]float64, n)
	for _, key := range keys {
		w := union[key]
		i, j := key[0], key[1]
		adj.SetSym(i, j, w)
		degree[i] += w
		degree[j] += w
	}

	laplacian := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := -adj.At(i, j)
			if i == j {
				v = degree[i]
			}
			laplacian.SetSym(i, j, v)
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(laplacian, true)
	if !ok {
		return nil, false
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	// skip the first eigenvector (constant, eigenvalue ~0 for a
	// connected graph) and take the next d.
	chosen := make([]int, 0, d)
	for _, idx := range order {
		if len(chosen) == d {
			break
		}
		if values[idx] < 1e-8 && len(chosen) == 0 {
			continue
		}
		chosen = append(chosen, idx)
	}
	for len(chosen) < d && len(chosen) < n {
		chosen = append(chosen, order[len(chosen)])
	}

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, d)
		for c, idx := range chosen {
			row[c] = vectors.At(i, idx)
		}
		out[i] = row
	}

	return out, true
}

const (
	sgdEpochs            = 200
	sgdLearningRate      = 1.0
	sgdRepulsionStrength = 1.0
	sgdGamma             = 1.0
)

// sgdLayout runs UMAP's force-directed refinement: edges in the fuzzy
// union attract their endpoints, a fixed random-but-deterministic
// negative-sample set repels them. Deterministic because the harness
// this runs under forbids time/rand-seeded nondeterminism; negative
// samples are chosen by a fixed stride walk instead of math/rand.
func sgdLayout(union map[[2]int]float64, init [][]float64, d int) [][]float64 {
	n := len(init)
	layout := make([][]float64, n)
	for i, row := range init {
		layout[i] = append([]float64{}, row...)
	}

	edges := make([][2]int, 0, len(union))
	for key := range union {
		edges = append(edges, key)
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})

	for epoch := 0; epoch < sgdEpochs; epoch++ {
		alpha := sgdLearningRate * (1.0 - float64(epoch)/float64(sgdEpochs))

		for _, e := range edges {
			i, j := e[0], e[1]
			attract(layout[i], layout[j], alpha)
		}

		for i := 0; i < n; i++ {
			neg := (i*7 + epoch*13 + 1) % n
			if neg == i {
				neg = (neg + 1) % n
			}
			repel(layout[i], layout[neg], alpha)
		}
	}

	return layout
}

func attract(a, b []float64, alpha float64) {
	distSq := 0.0
	for k := range a {
		diff := a[k] - b[k]
		distSq += diff * diff
	}
	if distSq < 1e-12 {
		return
	}

	grad := -2.0 / (1.0 + distSq)
	for k := range a {
		diff := a[k] - b[k]
		shift := clampShift(grad*diff) * alpha
		a[k] += shift
		b[k] -= shift
	}
}

func repel(a, b []float64, alpha float64) {
	distSq := 0.0
	for k := range a {
		diff := a[k] - b[k]
		distSq += diff * diff
	}
	if distSq < 1e-12 {
		distSq = 1e-12
	}

	grad := sgdRepulsionStrength * 2.0 / ((0.001 + distSq) * (1.0 + distSq))
	for k := range a {
		diff := a[k] - b[k]
		shift := clampShift(grad*diff) * alpha * sgdGamma
		a[k] += shift
	}
}

func clampShift(v float64) float64 {
	const bound = 4.0
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
