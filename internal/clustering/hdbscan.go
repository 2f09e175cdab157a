package clustering

import (
	"reflect"

	"github.com/humilityai/hdbscan"
)

// ClusterResult is C7's output: integer labels (-1 = outlier) in input
// order, plus whether the real HDBSCAN call ran or the single-cluster
// fallback kicked in (§4.7 failure semantics / §4.12's
// "clusterer_fallback" flag).
type ClusterResult struct {
	Labels   []int
	Fallback bool
}

// RunHDBSCAN assigns integer labels to points using the real
// github.com/humilityai/hdbscan library, adapted from the teacher's
// HDBSCANClusterer.Cluster (internal/clustering/hdbscan.go): same
// NewClustering/OutlierDetection/Verbose/Run call shape and the same
// reflection-based extraction of cluster membership, generalized from
// core.Article to arbitrary points and wired to the safety-clamped
// parameters from Resolve instead of a static config.
//
// n <= 3 and any library error both fall back to single-cluster
// labeling per §4.6/§4.7 — they are never surfaced as request errors.
func RunHDBSCAN(points [][]float64, sp SafeParams, metric DistanceFunc) ClusterResult {
	n := len(points)
	if n <= 3 {
		return ClusterResult{Labels: singleCluster(n), Fallback: false}
	}

	clustering, err := hdbscan.NewClustering(points, sp.MinClusterSize)
	if err != nil {
		return ClusterResult{Labels: singleCluster(n), Fallback: true}
	}

	clustering = clustering.OutlierDetection().Verbose()

	// selection_method is accepted on the wire (ClusteringConfig.SelectionMethod)
	// but the wrapped library exposes only one scoring function we have
	// confirmed against the teacher's usage; see DESIGN.md Open Question 7.
	if err := clustering.Run(hdbscan.DistanceFunc(metric), hdbscan.VarianceScore, true); err != nil {
		return ClusterResult{Labels: singleCluster(n), Fallback: true}
	}

	return ClusterResult{Labels: labelsFromClustering(clustering, n), Fallback: false}
}

func singleCluster(n int) []int {
	labels := make([]int, n)
	return labels // zero-valued ints -> all cluster 0
}

// labelsFromClustering flattens the library's per-cluster point-index
// lists (extracted via reflection, since the library exposes no direct
// accessor) into a single label-per-point slice; points absent from
// every cluster are outliers (-1).
func labelsFromClustering(clustering *hdbscan.Clustering, n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for clusterID, pts := range extractClusterPoints(clustering) {
		for _, idx := range pts {
			if idx >= 0 && idx < n {
				labels[idx] = clusterID
			}
		}
	}

	return labels
}

// extractClusterPoints uses reflection to read the library's internal
// Clusters field (a []*cluster with Centroid []float64 / Points []int),
// exactly as the teacher's extractClusterData does.
func extractClusterPoints(clustering *hdbscan.Clustering) map[int][]int {
	result := map[int][]int{}

	v := reflect.ValueOf(clustering).Elem()
	clustersField := v.FieldByName("Clusters")
	if !clustersField.IsValid() || clustersField.Kind() != reflect.Slice {
		return result
	}

	for i := 0; i < clustersField.Len(); i++ {
		clusterPtr := clustersField.Index(i)
		if clusterPtr.Kind() == reflect.Ptr {
			clusterPtr = clusterPtr.Elem()
		}

		pointsField := clusterPtr.FieldByName("Points")
		if !pointsField.IsValid() || pointsField.Kind() != reflect.Slice {
			continue
		}

		points := make([]int, pointsField.Len())
		for j := 0; j < pointsField.Len(); j++ {
			points[j] = int(pointsField.Index(j).Int())
		}
		result[i] = points
	}

	return result
}
