package engine

import (
	"math"
	"time"
)

// itemDifficulty implements D_item = f(pressure_level, expert_disagreement,
// dilemma_type) per the documented weights in tuning.go.
func itemDifficulty(item *DilemmaItem) float64 {
	if item == nil {
		return mrDifficultyBase
	}
	bonus := mrDilemmaTypeBonus[item.DilemmaType]
	return mrDifficultyBase + item.PressureLevel*mrDifficultyPressureWeight + item.ExpertDisagreement*mrDifficultyDisagreementWeight + bonus
}

func expectedScore(mr, difficulty float64) float64 {
	return sigmoid((mr - difficulty) / 400.0)
}

func observedScore(item *DilemmaItem, r Response) float64 {
	if r.GRM != nil {
		return float64(r.GRM.Category) / 4.0
	}
	return float64(heuristicJudge(item, &r).Category) / 4.0
}

func kFactor(itemsProcessed int) float64 {
	decayed := mrKFloor + (mrKBase-mrKFloor)*math.Exp(-float64(itemsProcessed)/mrKDecayItems)
	return clampF(decayed, mrKFloor, mrKBase)
}

// mrUncertaintyFor computes mr_uncertainty on the documented 350-point
// default scale, decaying toward mrUncertaintyFloor as itemsProcessed grows.
func mrUncertaintyFor(itemsProcessed int) float64 {
	decayed := mrUncertaintyFloor + (mrUncertaintyBase-mrUncertaintyFloor)*math.Exp(-float64(itemsProcessed)/mrUncertaintyDecayItems)
	return clampF(decayed, mrUncertaintyFloor, mrUncertaintyBase)
}

// UpdateAgentRating implements C10's Elo-style update over one run's
// responses. The caller (session.complete(), step 9) MUST guard this
// against double-application via a unique (agent_id, run_id) history row;
// this function itself is a pure function of its inputs and performs no
// such guarding.
func UpdateAgentRating(current AgentRating, runID string, responses []Response, items map[string]*DilemmaItem, now time.Time) (AgentRating, RatingHistoryEntry) {
	k := kFactor(current.ItemsProcessed)

	var delta float64
	for _, r := range responses {
		item := items[r.ItemID]
		d := itemDifficulty(item)
		e := expectedScore(current.MRRating, d)
		o := observedScore(item, r)
		delta += o - e
	}
	delta *= k

	newMR := current.MRRating + delta
	newItemsProcessed := current.ItemsProcessed + len(responses)
	newPeak := current.PeakRating
	if newMR > newPeak {
		newPeak = newMR
	}

	updated := AgentRating{
		AgentID:        current.AgentID,
		MRRating:       newMR,
		MRUncertainty:  mrUncertaintyFor(newItemsProcessed),
		ItemsProcessed: newItemsProcessed,
		PeakRating:     newPeak,
	}

	entry := RatingHistoryEntry{
		AgentID:   current.AgentID,
		RunID:     runID,
		DeltaMR:   delta,
		NewMR:     newMR,
		CreatedAt: now,
	}

	return updated, entry
}

// NewAgentRating is the zero-state rating for an agent's first run.
func NewAgentRating(agentID string) AgentRating {
	return AgentRating{
		AgentID:        agentID,
		MRRating:       1000,
		MRUncertainty:  mrUncertaintyBase,
		ItemsProcessed: 0,
		PeakRating:     1000,
	}
}
