package core

import "testing"

func TestDefaultClusteringConfig(t *testing.T) {
	cfg := DefaultClusteringConfig()

	if cfg.NComponents != 5 {
		t.Errorf("NComponents = %d, want 5", cfg.NComponents)
	}
	if cfg.NNeighbors != 15 {
		t.Errorf("NNeighbors = %d, want 15", cfg.NNeighbors)
	}
	if cfg.UMAPMetric != "cosine" {
		t.Errorf("UMAPMetric = %q, want cosine", cfg.UMAPMetric)
	}
	if cfg.HDBSCANMetric != "euclidean" {
		t.Errorf("HDBSCANMetric = %q, want euclidean", cfg.HDBSCANMetric)
	}
	if cfg.SelectionMethod != "eom" {
		t.Errorf("SelectionMethod = %q, want eom", cfg.SelectionMethod)
	}
	if !cfg.NormalizeEmbeddings {
		t.Error("NormalizeEmbeddings should default to true")
	}
	if cfg.RemoveOutliers {
		t.Error("RemoveOutliers should default to false")
	}
}

func TestDefaultOptimizationConfig(t *testing.T) {
	opt := DefaultOptimizationConfig()

	if opt.Enabled {
		t.Error("Enabled should default to false")
	}
	if len(opt.UMAPNNeighborsRange) == 0 {
		t.Error("UMAPNNeighborsRange should not be empty")
	}
	if opt.MaxCombinations != 50 {
		t.Errorf("MaxCombinations = %d, want 50", opt.MaxCombinations)
	}
}

func TestTagConstants(t *testing.T) {
	tags := []Tag{TagSimpleVector, TagExtendedVector, TagArticle, TagVectorWithText, TagPlainText, TagUnknown}
	seen := map[Tag]bool{}
	for _, tag := range tags {
		if tag == "" {
			t.Error("tag must not be the empty string")
		}
		if seen[tag] {
			t.Errorf("duplicate tag value %q", tag)
		}
		seen[tag] = true
	}
}
