package clustering

import (
	"testing"

	"clustering-service/internal/core"
)

func TestOptimizeTinyNFallsBackWithNoScore(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	req := core.DefaultClusteringConfig()
	opt := core.DefaultOptimizationConfig()

	result := Optimize(points, len(points), 2, req, opt)
	if !result.Fallback {
		t.Error("n <= 5 must fall back to the safety-clamped default, not search")
	}
	if result.Score != nil {
		t.Error("a fallback result must not report a score")
	}
	if result.Evaluated != 0 {
		t.Errorf("Evaluated = %d, want 0 for the fallback path", result.Evaluated)
	}
}

func TestOptimizeRespectsMaxCombinations(t *testing.T) {
	points := make([][]float64, 40)
	for i := range points {
		points[i] = []float64{float64(i % 10), float64((i * 3) % 7)}
	}
	req := core.DefaultClusteringConfig()
	opt := core.DefaultOptimizationConfig()
	opt.MaxCombinations = 3

	result := Optimize(points, len(points), 2, req, opt)
	if result.Evaluated > opt.MaxCombinations {
		t.Errorf("Evaluated = %d, must not exceed MaxCombinations = %d", result.Evaluated, opt.MaxCombinations)
	}
	if !result.Truncated {
		t.Error("Truncated should be true once MaxCombinations is hit by a larger grid")
	}
}

func TestDedupInts(t *testing.T) {
	got := dedupInts([]int{5, 5, 3, 3, 3, 7})
	want := []int{5, 3, 7}
	if len(got) != len(want) {
		t.Fatalf("dedupInts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupInts[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMergeByEpsilonZeroIsNoOp(t *testing.T) {
	labels := []int{0, 0, 1, 1}
	points := [][]float64{{0, 0}, {0, 0}, {100, 100}, {100, 100}}
	merged := mergeByEpsilon(points, labels, 0)
	for i := range labels {
		if merged[i] != labels[i] {
			t.Errorf("merged[%d] = %d, want unchanged %d", i, merged[i], labels[i])
		}
	}
}

func TestMergeByEpsilonMergesCloseCentroids(t *testing.T) {
	labels := []int{0, 0, 1, 1}
	points := [][]float64{{0, 0}, {0.1, 0}, {0.2, 0}, {0.3, 0}}
	merged := mergeByEpsilon(points, labels, 10.0)
	if merged[0] != merged[2] {
		t.Errorf("clusters with nearby centroids should merge under a large epsilon: %v", merged)
	}
}

func TestMergeByEpsilonPreservesOutliers(t *testing.T) {
	labels := []int{0, -1, 0}
	points := [][]float64{{0, 0}, {50, 50}, {0.1, 0}}
	merged := mergeByEpsilon(points, labels, 5.0)
	if merged[1] != -1 {
		t.Errorf("outlier label must never be merged into a cluster, got %d", merged[1])
	}
}

func TestAllOutliers(t *testing.T) {
	if !allOutliers([]int{-1, -1, -1}) {
		t.Error("all-outlier slice should report true")
	}
	if allOutliers([]int{-1, 0, -1}) {
		t.Error("a slice with one real cluster should report false")
	}
}
