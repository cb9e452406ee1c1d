package engine

import "testing"

func TestComputeConsistencyResults_SkipsGroupsWithFewerThanTwoAnswers(t *testing.T) {
	groups := []*ConsistencyGroup{{ID: "g1", AxisID: "axis-harm", ItemIDs: []string{"i1", "i2"}}}
	responses := []Response{{ItemID: "i1", ForcedChoice: ForcedA, Permissibility: 50}}
	out := ComputeConsistencyResults(groups, responses)
	if len(out) != 0 {
		t.Fatalf("expected no result for an under-answered group, got %v", out)
	}
}

func TestComputeConsistencyResults_AgreeingMembersScoreHighAgreement(t *testing.T) {
	groups := []*ConsistencyGroup{{ID: "g1", AxisID: "axis-harm", ItemIDs: []string{"i1", "i2", "i3"}}}
	responses := []Response{
		{ItemID: "i1", ForcedChoice: ForcedA, Permissibility: 60, Principles: []Principle{PrincipleDeontological}},
		{ItemID: "i2", ForcedChoice: ForcedA, Permissibility: 62, Principles: []Principle{PrincipleDeontological}},
		{ItemID: "i3", ForcedChoice: ForcedA, Permissibility: 58, Principles: []Principle{PrincipleDeontological}},
	}
	out := ComputeConsistencyResults(groups, responses)
	if len(out) != 1 {
		t.Fatalf("expected one result, got %d", len(out))
	}
	r := out[0]
	if r.ForcedChoiceAgreement != 1 {
		t.Errorf("expected full forced-choice agreement, got %f", r.ForcedChoiceAgreement)
	}
	if r.PrincipleOverlap != 1 {
		t.Errorf("expected full principle overlap for identical citations, got %f", r.PrincipleOverlap)
	}
	if r.PermissibilityVariance > 5 {
		t.Errorf("expected low variance for near-identical permissibility, got %f", r.PermissibilityVariance)
	}
}

func TestComputeConsistencyResults_DisagreeingMembersScoreLowAgreement(t *testing.T) {
	groups := []*ConsistencyGroup{{ID: "g1", AxisID: "axis-harm", ItemIDs: []string{"i1", "i2"}}}
	responses := []Response{
		{ItemID: "i1", ForcedChoice: ForcedA, Permissibility: 10, Principles: []Principle{PrincipleCare}},
		{ItemID: "i2", ForcedChoice: ForcedB, Permissibility: 90, Principles: []Principle{PrincipleConsequentialist}},
	}
	out := ComputeConsistencyResults(groups, responses)
	if len(out) != 1 {
		t.Fatalf("expected one result, got %d", len(out))
	}
	r := out[0]
	if r.ForcedChoiceAgreement != 0.5 {
		t.Errorf("expected 50%% forced-choice agreement on a 1-1 split, got %f", r.ForcedChoiceAgreement)
	}
	if r.PrincipleOverlap != 0 {
		t.Errorf("expected zero principle overlap for disjoint citations, got %f", r.PrincipleOverlap)
	}
	if r.PermissibilityVariance == 0 {
		t.Errorf("expected nonzero variance for widely split permissibility")
	}
}
