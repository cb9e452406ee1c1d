package engine_test

import (
	"context"
	"fmt"
	"testing"

	"mse-engine/internal/engine"
	"mse-engine/internal/storage/memory"
)

const fixtureVersionID = "v-fixture"

func fixtureAxes() []engine.Axis {
	return []engine.Axis{
		{ID: "axis-harm", Code: "harm", DisplayName: "Harm Avoidance", PoleLeft: "permissive", PoleRight: "protective", Category: "core", DisplayOrder: 1},
		{ID: "axis-fair", Code: "fair", DisplayName: "Fairness", PoleLeft: "equity", PoleRight: "merit", Category: "core", DisplayOrder: 2},
	}
}

func fixtureItems(axes []engine.Axis) []*engine.DilemmaItem {
	var items []*engine.DilemmaItem
	for _, axis := range axes {
		for i := 0; i < 16; i++ {
			items = append(items, &engine.DilemmaItem{
				ID:            fmt.Sprintf("%s-item-%02d", axis.ID, i),
				AxisID:        axis.ID,
				FamilyID:      axis.ID + "-family",
				PressureLevel: 0.3 + 0.02*float64(i),
				Params: engine.DilemmaParams{
					Severity: 0.5, Certainty: 0.6, Immediacy: 0.4, Relationship: 0.5,
					Consent: 0.5, Reversibility: 0.5, Legality: 0.7, NumAffected: 3,
				},
				Options: [4]engine.DilemmaOption{
					{Choice: engine.ChoiceA, Label: "intervene directly", Pole: engine.PoleLeft},
					{Choice: engine.ChoiceB, Label: "defer to the group", Pole: engine.PoleRight},
					{Choice: engine.ChoiceC, Label: "gather more information first", Pole: engine.PoleNeutral},
					{Choice: engine.ChoiceD, Label: "propose an alternative", Pole: engine.PoleCreative},
				},
				Prompt:        fmt.Sprintf("Scenario %d on the %s axis.", i, axis.Code),
				DilemmaType:   engine.DilemmaBase,
				ExpertDisagreement: 0.2,
			})
		}
	}
	return items
}

func newFixtureBank() *memory.Bank {
	axes := fixtureAxes()
	version := engine.ExamVersion{ID: fixtureVersionID, Code: "default", IsDefault: true, IsV2: true}
	return &memory.Bank{
		Versions: []engine.ExamVersion{version},
		Axes:     map[string][]engine.Axis{fixtureVersionID: axes},
		Items:    map[string][]*engine.DilemmaItem{fixtureVersionID: fixtureItems(axes)},
		Groups:   map[string][]*engine.ConsistencyGroup{fixtureVersionID: nil},
	}
}

// driveToCompletion repeatedly pulls the next dilemma and submits an answer
// until the selector reports every axis stopped (capped defensively so a
// selector bug can't hang the test suite).
func driveToCompletion(t *testing.T, ctx context.Context, sess *engine.Session) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if sess.IsComplete() {
			return
		}
		item, _, err := sess.NextDilemma()
		if err != nil {
			t.Fatalf("next_dilemma: %v", err)
		}
		if item == nil {
			t.Fatalf("selector ran out of items before reporting complete")
		}
		permissibility := 30 + (i%5)*15
		raw := engine.RawResponse{
			Choice:         "A",
			Permissibility: permissibility,
			Confidence:     70,
			Principles:     []string{"deontological"},
			Rationale:      "duty to protect outweighs the cost here",
		}
		if _, err := sess.SubmitResponse(ctx, item.ID, raw, 4000); err != nil {
			t.Fatalf("submit_response: %v", err)
		}
	}
	t.Fatalf("did not reach completion within the iteration cap")
}

func TestSession_FullRunReachesCompletion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := newFixtureBank()

	sess := engine.NewSession(store, bank, nil, nil)
	if err := sess.Initialize(ctx, "agent-1", engine.RunConfig{}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if sess.Status() != engine.StatusInProgress {
		t.Fatalf("expected in_progress after initialize, got %s", sess.Status())
	}

	driveToCompletion(t, ctx, sess)

	progress := sess.GetProgress()
	if progress.PercentComplete < 100 {
		t.Errorf("expected 100%% progress at completion, got %f", progress.PercentComplete)
	}

	partial := sess.GetProfile()
	if partial.ConfidenceLevel != "low" {
		t.Errorf("expected the pre-complete profile to report low confidence, got %s", partial.ConfidenceLevel)
	}

	profile, err := sess.Complete(ctx)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if profile.Status != engine.StatusCompleted {
		t.Errorf("expected completed status, got %s", profile.Status)
	}
	if len(profile.Axes) != 2 {
		t.Errorf("expected both axes scored, got %d", len(profile.Axes))
	}
	if profile.Meta == nil {
		t.Fatalf("expected profile metadata to be populated on completion")
	}
	if profile.Capacities == nil {
		t.Errorf("expected capacities to be populated on completion")
	}

	if _, err := sess.Complete(ctx); err == nil {
		t.Errorf("expected completing an already-completed run to fail")
	}
	if _, err := sess.NextDilemma(); err == nil {
		t.Errorf("expected next_dilemma on a completed run to fail")
	}
}

func TestSession_SubmitResponse_RejectsDuplicateItem(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := newFixtureBank()

	sess := engine.NewSession(store, bank, nil, nil)
	if err := sess.Initialize(ctx, "agent-1", engine.RunConfig{}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	item, _, err := sess.NextDilemma()
	if err != nil || item == nil {
		t.Fatalf("next_dilemma: item=%v err=%v", item, err)
	}
	raw := engine.RawResponse{Choice: "B", Permissibility: 50, Confidence: 60}
	if _, err := sess.SubmitResponse(ctx, item.ID, raw, 1000); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := sess.SubmitResponse(ctx, item.ID, raw, 1000); err == nil {
		t.Errorf("expected resubmitting the same item to be rejected")
	}
}

func TestSession_Cancel_TransitionsOutOfInProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := newFixtureBank()

	sess := engine.NewSession(store, bank, nil, nil)
	if err := sess.Initialize(ctx, "agent-1", engine.RunConfig{}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := sess.Cancel(ctx, "agent withdrew"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sess.Status() != engine.StatusCancelled {
		t.Errorf("expected cancelled status, got %s", sess.Status())
	}
	if err := sess.Cancel(ctx, "again"); err == nil {
		t.Errorf("expected cancelling a cancelled run to fail")
	}
}

func TestSession_Resume_RehydratesFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := newFixtureBank()

	first := engine.NewSession(store, bank, nil, nil)
	if err := first.Initialize(ctx, "agent-1", engine.RunConfig{}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	item, _, err := first.NextDilemma()
	if err != nil || item == nil {
		t.Fatalf("next_dilemma: item=%v err=%v", item, err)
	}
	raw := engine.RawResponse{Choice: "C", Permissibility: 40, Confidence: 55}
	if _, err := first.SubmitResponse(ctx, item.ID, raw, 1500); err != nil {
		t.Fatalf("submit_response: %v", err)
	}
	runID := first.RunID()

	resumed := engine.NewSession(store, bank, nil, nil)
	if err := resumed.Resume(ctx, runID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.RunID() != runID || resumed.AgentID() != "agent-1" {
		t.Errorf("expected resumed session to carry over run/agent identity")
	}
	progress := resumed.GetProgress()
	if progress.ItemsCompleted != 1 {
		t.Errorf("expected one completed item to survive resume, got %d", progress.ItemsCompleted)
	}
}

func TestEngine_StartAndCompareAgents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := newFixtureBank()
	eng := engine.NewEngine(store, store, bank, nil, nil, nil)

	for _, agentID := range []string{"agent-a", "agent-b"} {
		sess, err := eng.StartEvaluation(ctx, agentID, engine.RunConfig{})
		if err != nil {
			t.Fatalf("start_evaluation(%s): %v", agentID, err)
		}
		driveToCompletion(t, ctx, sess)
		if _, err := sess.Complete(ctx); err != nil {
			t.Fatalf("complete(%s): %v", agentID, err)
		}
		eng.Forget(sess.RunID())
	}

	profile, err := eng.GetAgentProfile(ctx, "agent-a")
	if err != nil {
		t.Fatalf("get_agent_profile: %v", err)
	}
	if profile == nil {
		t.Fatalf("expected a completed profile for agent-a")
	}

	cmp, err := eng.CompareAgents(ctx, []string{"agent-a", "agent-b"})
	if err != nil {
		t.Fatalf("compare_agents: %v", err)
	}
	if len(cmp.AxesMatrix) != 2 {
		t.Errorf("expected both agents in the axes matrix, got %d", len(cmp.AxesMatrix))
	}
	if len(cmp.Clusters) == 0 {
		t.Errorf("expected at least one cluster")
	}
}

func TestEngine_GetAgentProfile_UnknownAgentReturnsNil(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := newFixtureBank()
	eng := engine.NewEngine(store, store, bank, nil, nil, nil)

	profile, err := eng.GetAgentProfile(ctx, "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile != nil {
		t.Errorf("expected nil profile for an agent with no runs, got %+v", profile)
	}
}

func TestEngine_GetAxesAndAxisItems(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := newFixtureBank()
	eng := engine.NewEngine(store, store, bank, nil, nil, nil)

	axes, err := eng.GetAxes(ctx, "")
	if err != nil {
		t.Fatalf("get_axes: %v", err)
	}
	if len(axes) != 2 {
		t.Fatalf("expected 2 axes, got %d", len(axes))
	}

	items, err := eng.GetAxisItems(ctx, "", "axis-harm")
	if err != nil {
		t.Fatalf("get_axis_items: %v", err)
	}
	if len(items) != 16 {
		t.Errorf("expected 16 items for axis-harm, got %d", len(items))
	}
}
