package profilesim

import "testing"

func TestKMeans_SeparatesDistinctClumps(t *testing.T) {
	vectors := map[string][]float64{
		"a1": {0, 0},
		"a2": {0.1, -0.1},
		"a3": {10, 10},
		"a4": {10.2, 9.8},
	}
	clusters := KMeans(vectors, 2, 20)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}

	memberCluster := func(id string) int {
		for i, c := range clusters {
			for _, m := range c.Members {
				if m == id {
					return i
				}
			}
		}
		return -1
	}

	if memberCluster("a1") != memberCluster("a2") {
		t.Errorf("expected a1 and a2 (near origin) in the same cluster")
	}
	if memberCluster("a3") != memberCluster("a4") {
		t.Errorf("expected a3 and a4 (near (10,10)) in the same cluster")
	}
	if memberCluster("a1") == memberCluster("a3") {
		t.Errorf("expected the two distinct clumps to land in different clusters")
	}
}

func TestKMeans_KGreaterThanPopulationClampsDown(t *testing.T) {
	vectors := map[string][]float64{
		"a1": {0, 0},
		"a2": {1, 1},
	}
	clusters := KMeans(vectors, 5, 10)
	if len(clusters) != 2 {
		t.Fatalf("expected k clamped to population size (2), got %d clusters", len(clusters))
	}
}

func TestKMeans_EmptyInputReturnsNil(t *testing.T) {
	if clusters := KMeans(map[string][]float64{}, 3, 10); clusters != nil {
		t.Errorf("expected nil clusters for empty input, got %v", clusters)
	}
}

func TestKMeans_Deterministic(t *testing.T) {
	vectors := map[string][]float64{
		"a1": {0, 0}, "a2": {1, 1}, "a3": {5, 5}, "a4": {6, 6}, "a5": {2, 2},
	}
	first := KMeans(vectors, 2, 20)
	second := KMeans(vectors, 2, 20)
	if len(first) != len(second) {
		t.Fatalf("expected repeated runs over the same input to agree on cluster count")
	}
	for i := range first {
		if len(first[i].Members) != len(second[i].Members) {
			t.Errorf("expected deterministic membership across runs for cluster %d", i)
		}
	}
}

func TestStableUint64_DeterministicAndDistinct(t *testing.T) {
	a := stableUint64("agent-1")
	b := stableUint64("agent-1")
	c := stableUint64("agent-2")
	if a != b {
		t.Errorf("expected stableUint64 to be deterministic for the same input")
	}
	if a == c {
		t.Errorf("expected stableUint64 to differ across distinct agent IDs")
	}
}
