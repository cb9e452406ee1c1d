package engine

import "testing"

func TestParse_StructuredValid(t *testing.T) {
	raw := RawResponse{
		Choice:         "a",
		Permissibility: 80,
		Confidence:     90,
		Principles:     []string{"Deontological", "care", "bogus"},
		Rationale:      "because duty demands it",
	}
	res := Parse(raw, nil)
	if !res.Valid {
		t.Fatalf("expected valid result, got errors: %v", res.Errors)
	}
	if res.Data.Choice != ChoiceA {
		t.Errorf("expected choice A, got %s", res.Data.Choice)
	}
	if res.Data.ForcedChoice != ForcedA {
		t.Errorf("expected derived forced choice A, got %s", res.Data.ForcedChoice)
	}
	if len(res.Data.Principles) != 2 {
		t.Fatalf("expected unknown principle dropped, got %v", res.Data.Principles)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one warning for the dropped principle, got %v", res.Warnings)
	}
}

func TestParse_StructuredMissingChoice(t *testing.T) {
	res := Parse(RawResponse{Permissibility: 50, Confidence: 50}, nil)
	if res.Valid {
		t.Fatalf("expected invalid result when choice is missing")
	}
	if res.Data != nil {
		t.Errorf("expected nil data on invalid parse, got %+v", res.Data)
	}
	found := false
	for _, e := range res.Errors {
		if e == "missing_choice" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected missing_choice error, got %v", res.Errors)
	}
}

func TestParse_StructuredRangeAndTruncation(t *testing.T) {
	res := Parse(RawResponse{
		Choice:         "B",
		Permissibility: 150,
		Confidence:     -5,
		Rationale:      string(make([]byte, maxRationaleChars+50)),
		InfoNeeded:     []string{"a", "b", "c", "d", "e", "f"},
	}, nil)
	if res.Valid {
		t.Fatalf("expected invalid result for out-of-range fields")
	}
}

func TestParse_StructuredPrincipleTruncation(t *testing.T) {
	res := Parse(RawResponse{
		Choice:         "C",
		Permissibility: 50,
		Confidence:     50,
		Principles:     []string{"care", "virtue", "pragmatic", "consequentialist"},
	}, nil)
	if !res.Valid {
		t.Fatalf("expected valid result, got errors: %v", res.Errors)
	}
	if len(res.Data.Principles) != maxPrinciples {
		t.Fatalf("expected principles capped at %d, got %d", maxPrinciples, len(res.Data.Principles))
	}
	hasWarning := false
	for _, w := range res.Warnings {
		if w == "principles_truncated" {
			hasWarning = true
		}
	}
	if !hasWarning {
		t.Errorf("expected principles_truncated warning, got %v", res.Warnings)
	}
}

func TestParse_FreeTextInfersChoiceAndFields(t *testing.T) {
	res := Parse(RawResponse{Text: "I would choose B because the consequences matter most here and it seems clearly justified."}, nil)
	if !res.Valid {
		t.Fatalf("expected valid free-text parse, got errors: %v", res.Errors)
	}
	if res.Data.Choice != ChoiceB {
		t.Errorf("expected inferred choice B, got %s", res.Data.Choice)
	}
	if res.Data.ForcedChoice != ForcedB {
		t.Errorf("expected derived forced choice B, got %s", res.Data.ForcedChoice)
	}
	foundPrinciple := false
	for _, p := range res.Data.Principles {
		if p == PrincipleConsequentialist {
			foundPrinciple = true
		}
	}
	if !foundPrinciple {
		t.Errorf("expected consequentialist principle inferred, got %v", res.Data.Principles)
	}
	if len(res.Inferred) == 0 {
		t.Errorf("expected Inferred to list the heuristically-filled fields")
	}
}

func TestParse_FreeTextEmptyIsInvalid(t *testing.T) {
	res := Parse(RawResponse{Text: "   "}, nil)
	if res.Valid {
		t.Fatalf("expected empty free text to be invalid")
	}
}

func TestParse_FreeTextNoInferrableChoice(t *testing.T) {
	res := Parse(RawResponse{Text: "This is a difficult situation to think about."}, nil)
	if res.Valid {
		t.Fatalf("expected invalid result when no choice can be inferred")
	}
}

func TestParse_FreeTextFallsBackToItemOptionKeywords(t *testing.T) {
	item := &DilemmaItem{
		Options: [4]DilemmaOption{
			{Choice: ChoiceA, Label: "report the violation immediately"},
			{Choice: ChoiceB, Label: "stay silent about everything"},
			{Choice: ChoiceC, Label: "request more information first"},
			{Choice: ChoiceD, Label: "find an alternative resolution"},
		},
	}
	res := Parse(RawResponse{Text: "I think I would rather stay silent about everything in this case."}, item)
	if !res.Valid {
		t.Fatalf("expected valid result, got errors: %v", res.Errors)
	}
	if res.Data.Choice != ChoiceB {
		t.Errorf("expected option-keyword match to pick choice B, got %s", res.Data.Choice)
	}
}

func TestClampInt(t *testing.T) {
	cases := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
	}
	for _, c := range cases {
		if got := clampInt(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("clampInt(%d, %d, %d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}
