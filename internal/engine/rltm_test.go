package engine

import "testing"

func itemsByPressure(pressures ...float64) map[string]*DilemmaItem {
	items := map[string]*DilemmaItem{}
	for i, p := range pressures {
		id := string(rune('a' + i))
		items[id] = &DilemmaItem{ID: id, PressureLevel: p}
	}
	return items
}

func responsesFromPermissibility(items map[string]*DilemmaItem, permissibilities ...int) []Response {
	responses := make([]Response, len(permissibilities))
	for i, p := range permissibilities {
		id := string(rune('a' + i))
		responses[i] = Response{ItemID: id, AxisID: "harm", Permissibility: p, GlobalIndex: i}
	}
	_ = items
	return responses
}

func TestFitAxis_NoUsableResponsesReturnsDocumentedFallback(t *testing.T) {
	score := FitAxis("harm", map[string]*DilemmaItem{}, nil)
	if score.NItems != 0 || score.B != 0.5 || score.SEB != 0.5 {
		t.Fatalf("expected the documented empty-axis fallback, got %+v", score)
	}
	hasFewItems, hasHighUncertainty := false, false
	for _, f := range score.Flags {
		if f == FlagFewItems {
			hasFewItems = true
		}
		if f == FlagHighUncertainty {
			hasHighUncertainty = true
		}
	}
	if !hasFewItems || !hasHighUncertainty {
		t.Errorf("expected both few_items and high_uncertainty flags, got %v", score.Flags)
	}
}

func TestFitAxis_ClearThresholdRecoversMiddlingB(t *testing.T) {
	items := itemsByPressure(0.1, 0.3, 0.5, 0.7, 0.9)
	responses := responsesFromPermissibility(items, 90, 80, 50, 20, 10)
	score := FitAxis("harm", items, responses)
	if score.B < 0.3 || score.B > 0.7 {
		t.Errorf("expected a threshold near the midpoint of rising pressure, got b=%f", score.B)
	}
	if score.NItems != 5 {
		t.Errorf("expected 5 usable points, got %d", score.NItems)
	}
}

func TestFitAxis_ItemsMissingFromLookupAreSkipped(t *testing.T) {
	items := itemsByPressure(0.5)
	responses := []Response{
		{ItemID: "a", AxisID: "harm", Permissibility: 50},
		{ItemID: "unknown-item", AxisID: "harm", Permissibility: 50},
	}
	score := FitAxis("harm", items, responses)
	if score.NItems != 1 {
		t.Errorf("expected only the one response with a known item counted, got %d", score.NItems)
	}
}

func TestQuickEstimate_NoResponsesReturnsCenterFallback(t *testing.T) {
	b, se := QuickEstimate(map[string]*DilemmaItem{}, nil)
	if b != 0.5 || se != 0.5 {
		t.Errorf("expected the documented (0.5, 0.5) fallback, got (%f, %f)", b, se)
	}
}

func TestQuickEstimate_SinglePointIsWidelyUncertain(t *testing.T) {
	items := itemsByPressure(0.5)
	responses := responsesFromPermissibility(items, 50)
	_, se := QuickEstimate(items, responses)
	if se != 0.5 {
		t.Errorf("expected se=0.5 for a single-point estimate, got %f", se)
	}
}

func TestIsNonMonotonic_StrictlyIncreasingIsMonotonic(t *testing.T) {
	pts := []axisPoint{{x: 0.1, y: 0.2}, {x: 0.3, y: 0.4}, {x: 0.5, y: 0.6}, {x: 0.7, y: 0.8}}
	if isNonMonotonic(pts) {
		t.Errorf("expected a strictly increasing sequence to be monotonic")
	}
}

func TestIsNonMonotonic_RepeatedReversalsAreFlagged(t *testing.T) {
	pts := []axisPoint{{x: 0.1, y: 0.9}, {x: 0.2, y: 0.1}, {x: 0.3, y: 0.9}, {x: 0.4, y: 0.1}}
	if !isNonMonotonic(pts) {
		t.Errorf("expected repeated sign reversals to be flagged non-monotonic")
	}
}

func TestLinearRegression_PerfectLine(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{1, 3, 5, 7}
	alpha, beta := linearRegression(xs, ys)
	if beta < 1.99 || beta > 2.01 {
		t.Errorf("expected slope near 2, got %f", beta)
	}
	if alpha < 0.99 || alpha > 1.01 {
		t.Errorf("expected intercept near 1, got %f", alpha)
	}
}

func TestSigmoid_ExtremeArgumentsClampToBounds(t *testing.T) {
	if v := sigmoid(-1000); v >= 1e-8 {
		t.Errorf("expected sigmoid of a very negative argument to be near zero, got %f", v)
	}
	if v := sigmoid(1000); v <= 1-1e-8 {
		t.Errorf("expected sigmoid of a very positive argument to be near one, got %f", v)
	}
}
