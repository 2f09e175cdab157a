package clustering

import (
	"testing"

	"clustering-service/internal/core"
)

func TestResolveClampsSmallN(t *testing.T) {
	req := core.DefaultClusteringConfig()

	sp := Resolve(3, 10, req)
	if sp.NNeighbors < 1 {
		t.Errorf("NNeighbors must be >= 1, got %d", sp.NNeighbors)
	}
	if sp.MinClusterSize < 2 {
		t.Errorf("MinClusterSize must be >= 2, got %d", sp.MinClusterSize)
	}
	if sp.NComponents > 2 {
		t.Errorf("NComponents must be <= n-1, got %d", sp.NComponents)
	}
	if sp.MinSamples > sp.MinClusterSize-1 {
		t.Errorf("MinSamples (%d) must be < MinClusterSize (%d)", sp.MinSamples, sp.MinClusterSize)
	}
}

func TestResolveNeverExceedsSampleCount(t *testing.T) {
	req := core.DefaultClusteringConfig()
	for _, n := range []int{1, 2, 5, 10, 50, 1000} {
		sp := Resolve(n, 20, req)
		if n > 1 && sp.NNeighbors > n-1 {
			t.Errorf("n=%d: NNeighbors = %d, must be <= n-1", n, sp.NNeighbors)
		}
		if sp.NComponents > n {
			t.Errorf("n=%d: NComponents = %d, must be <= n", n, sp.NComponents)
		}
		if sp.MinSamples > n-1 && n > 1 {
			t.Errorf("n=%d: MinSamples = %d, must be <= n-1", n, sp.MinSamples)
		}
	}
}

func TestResolveLargeNUsesRequestedValues(t *testing.T) {
	req := core.DefaultClusteringConfig()
	sp := Resolve(10000, 50, req)
	if sp.NNeighbors != req.NNeighbors {
		t.Errorf("NNeighbors = %d, want the requested %d for large n", sp.NNeighbors, req.NNeighbors)
	}
	if sp.MinClusterSize != req.MinClusterSize {
		t.Errorf("MinClusterSize = %d, want the requested %d for large n", sp.MinClusterSize, req.MinClusterSize)
	}
}

func TestResolveNComponentsNeverExceedsDimensionality(t *testing.T) {
	req := core.DefaultClusteringConfig()
	req.NComponents = 50
	sp := Resolve(1000, 3, req)
	if sp.NComponents > 3 {
		t.Errorf("NComponents = %d, must be <= d=3", sp.NComponents)
	}
}
