package clustering

import "testing"

func TestDBCVRequiresAtLeastTwoClusters(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	labels := []int{0, 0, 0}

	_, ok := DBCV(points, labels, EuclideanDistance)
	if ok {
		t.Error("a single cluster should not produce a DBCV score")
	}
}

func TestDBCVAllOutliersHasNoScore(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 1}}
	labels := []int{-1, -1}

	_, ok := DBCV(points, labels, EuclideanDistance)
	if ok {
		t.Error("all-outlier labeling should not produce a DBCV score")
	}
}

func TestDBCVWellSeparatedClustersScoreHigh(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0.1}, {0.2, 0}, {0, 0.2},
		{10, 10}, {10.1, 10.1}, {10.2, 10}, {10, 10.2},
	}
	labels := []int{0, 0, 0, 0, 1, 1, 1, 1}

	score, ok := DBCV(points, labels, EuclideanDistance)
	if !ok {
		t.Fatal("expected a DBCV score for two well-separated clusters")
	}
	if score < 0.5 {
		t.Errorf("score = %v, want a high validity score (>=0.5) for well-separated clusters", score)
	}
	if score > 1.0 || score < -1.0 {
		t.Errorf("score = %v, out of the [-1, 1] range", score)
	}
}

func TestDBCVIgnoresOutlierPointsInScoring(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0.1}, {0.2, 0}, {0, 0.2},
		{10, 10}, {10.1, 10.1}, {10.2, 10}, {10, 10.2},
		{500, 500}, // outlier, far from everything
	}
	labels := []int{0, 0, 0, 0, 1, 1, 1, 1, -1}

	score, ok := DBCV(points, labels, EuclideanDistance)
	if !ok {
		t.Fatal("expected a DBCV score when outliers are present alongside real clusters")
	}
	if score < 0.5 {
		t.Errorf("an outlier point should not drag down the score of otherwise well-separated clusters, got %v", score)
	}
}
