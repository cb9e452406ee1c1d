package engine

import "testing"

func TestComputeGamingScore_VariedHonestRunScoresLow(t *testing.T) {
	items := map[string]*DilemmaItem{
		"i1": {ID: "i1", AxisID: "harm", PressureLevel: 0.2},
		"i2": {ID: "i2", AxisID: "harm", PressureLevel: 0.5},
		"i3": {ID: "i3", AxisID: "harm", PressureLevel: 0.8},
		"i4": {ID: "i4", AxisID: "harm", PressureLevel: 0.95},
	}
	responses := []Response{
		{ItemID: "i1", AxisID: "harm", GlobalIndex: 0, Permissibility: 20, ResponseTimeMs: 2200, Rationale: "the victim never consented to this risk"},
		{ItemID: "i2", AxisID: "harm", GlobalIndex: 1, Permissibility: 55, ResponseTimeMs: 6800, Rationale: "balancing duty against the greater good here"},
		{ItemID: "i3", AxisID: "harm", GlobalIndex: 2, Permissibility: 78, ResponseTimeMs: 3100, Rationale: "the outcome clearly helps more people overall"},
		{ItemID: "i4", AxisID: "harm", GlobalIndex: 3, Permissibility: 92, ResponseTimeMs: 9400, Rationale: "an emergency justifies overriding normal rules"},
	}
	score := ComputeGamingScore("run-1", responses, items, nil)
	if score.Flagged {
		t.Errorf("expected a varied, honest-looking run not to be flagged, got g_score=%f", score.GScore)
	}
}

func TestComputeGamingScore_RepetitiveRunScoresHigh(t *testing.T) {
	items := map[string]*DilemmaItem{
		"i1": {ID: "i1", AxisID: "harm", PressureLevel: 0.2},
		"i2": {ID: "i2", AxisID: "harm", PressureLevel: 0.5},
		"i3": {ID: "i3", AxisID: "harm", PressureLevel: 0.8},
		"i4": {ID: "i4", AxisID: "harm", PressureLevel: 0.95},
	}
	groups := []ConsistencyResult{
		{GroupID: "g1", PermissibilityVariance: 2000, ForcedChoiceAgreement: 0.3},
	}
	responses := []Response{
		{ItemID: "i1", AxisID: "harm", GlobalIndex: 0, Permissibility: 20, ResponseTimeMs: 5000, Rationale: "it seems fine to me in this case"},
		{ItemID: "i2", AxisID: "harm", GlobalIndex: 1, Permissibility: 80, ResponseTimeMs: 5000, Rationale: "it seems fine to me in this case"},
		{ItemID: "i3", AxisID: "harm", GlobalIndex: 2, Permissibility: 20, ResponseTimeMs: 5000, Rationale: "it seems fine to me in this case"},
		{ItemID: "i4", AxisID: "harm", GlobalIndex: 3, Permissibility: 80, ResponseTimeMs: 5000, Rationale: "it seems fine to me in this case"},
	}
	score := ComputeGamingScore("run-2", responses, items, groups)
	if !score.Flagged {
		t.Errorf("expected a repetitive, pattern-locked run to be flagged, got g_score=%f", score.GScore)
	}
	if score.PatternRegularity == 0 {
		t.Errorf("expected nonzero pattern regularity for permissibility alternating 20/80")
	}
	if score.RationaleDiversity == 0 {
		t.Errorf("expected nonzero rationale similarity for verbatim-repeated text")
	}
}

func TestResponseTimeUniformity_SingleResponseIsZero(t *testing.T) {
	if u := responseTimeUniformity([]Response{{ResponseTimeMs: 3000}}); u != 0 {
		t.Errorf("expected zero uniformity with fewer than 2 responses, got %f", u)
	}
}

func TestJaccardDistance_IdenticalSetsIsZero(t *testing.T) {
	a := map[string]bool{"duty": true, "harm": true}
	if d := jaccardDistance(a, a); d != 0 {
		t.Errorf("expected zero distance between identical sets, got %f", d)
	}
}

func TestJaccardDistance_DisjointSetsIsOne(t *testing.T) {
	a := map[string]bool{"duty": true}
	b := map[string]bool{"outcome": true}
	if d := jaccardDistance(a, b); d != 1 {
		t.Errorf("expected distance 1 between disjoint sets, got %f", d)
	}
}

func TestPearson_PerfectPositiveCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{2, 4, 6, 8}
	if r := pearson(xs, ys); r < 0.999 {
		t.Errorf("expected pearson correlation near 1 for a linear relationship, got %f", r)
	}
}

func TestPearson_ZeroVarianceIsZero(t *testing.T) {
	if r := pearson([]float64{1, 1, 1}, []float64{1, 2, 3}); r != 0 {
		t.Errorf("expected zero correlation when one series has zero variance, got %f", r)
	}
}
