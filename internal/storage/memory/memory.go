// Package memory is an in-process Store/ContentBank implementation used by
// the engine's own test suite and by local experimentation; it trades
// durability for zero setup cost.
package memory

import (
	"context"
	"sort"
	"sync"

	"mse-engine/internal/engine"
)

type Store struct {
	mu sync.Mutex

	runs        map[string]engine.Run
	responses   map[string][]engine.Response
	axisScores  map[string][]engine.AxisScore
	consistency map[string][]engine.ConsistencyResult
	procedural  map[string]engine.ProceduralScore
	gaming      map[string]engine.GamingScore
	coherence   map[string]engine.CoherenceScore
	capacities  map[string]engine.CapacityScores
	sophistication map[string]engine.SophisticationScore
	snapshots   map[string]engine.ProfileSnapshot
	ratings     map[string]engine.AgentRating
	history     map[string]bool // key: agentID+"/"+runID
	priorSI     map[string][]float64
}

func NewStore() *Store {
	return &Store{
		runs:        map[string]engine.Run{},
		responses:   map[string][]engine.Response{},
		axisScores:  map[string][]engine.AxisScore{},
		consistency: map[string][]engine.ConsistencyResult{},
		procedural:  map[string]engine.ProceduralScore{},
		gaming:      map[string]engine.GamingScore{},
		coherence:   map[string]engine.CoherenceScore{},
		capacities:  map[string]engine.CapacityScores{},
		sophistication: map[string]engine.SophisticationScore{},
		snapshots:   map[string]engine.ProfileSnapshot{},
		ratings:     map[string]engine.AgentRating{},
		history:     map[string]bool{},
		priorSI:     map[string][]float64{},
	}
}

func (s *Store) CreateRun(ctx context.Context, run *engine.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*engine.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &r, nil
}

func (s *Store) UpdateRun(ctx context.Context, run *engine.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *Store) SaveResponse(ctx context.Context, r *engine.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[r.RunID] = append(s.responses[r.RunID], *r)
	return nil
}

func (s *Store) UpdateResponse(ctx context.Context, r *engine.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.responses[r.RunID]
	for i := range rows {
		if rows[i].ID == r.ID {
			rows[i] = *r
			return nil
		}
	}
	return engine.ErrNotFound
}

func (s *Store) ListResponses(ctx context.Context, runID string) ([]engine.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([]engine.Response(nil), s.responses[runID]...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].GlobalIndex < rows[j].GlobalIndex })
	return rows, nil
}

func (s *Store) SaveAxisScores(ctx context.Context, runID string, scores []engine.AxisScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.axisScores[runID] = scores
	return nil
}

func (s *Store) SaveConsistencyResults(ctx context.Context, runID string, results []engine.ConsistencyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consistency[runID] = results
	return nil
}

func (s *Store) SaveProceduralScore(ctx context.Context, score engine.ProceduralScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procedural[score.RunID] = score
	return nil
}

func (s *Store) SaveGamingScore(ctx context.Context, score engine.GamingScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gaming[score.RunID] = score
	return nil
}

func (s *Store) SaveCoherenceScore(ctx context.Context, score engine.CoherenceScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coherence[score.RunID] = score
	return nil
}

func (s *Store) SaveCapacityScores(ctx context.Context, score engine.CapacityScores) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacities[score.RunID] = score
	return nil
}

func (s *Store) SaveSophisticationScore(ctx context.Context, score engine.SophisticationScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sophistication[score.RunID] = score
	if s.runs[score.RunID].AgentID != "" {
		agentID := s.runs[score.RunID].AgentID
		s.priorSI[agentID] = append(s.priorSI[agentID], score.SIScore)
	}
	return nil
}

func (s *Store) SaveSnapshot(ctx context.Context, snap engine.ProfileSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.RunID] = snap
	return nil
}

func (s *Store) PriorSIScores(ctx context.Context, agentID string, beforeRunID string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.priorSI[agentID]...), nil
}

func (s *Store) PredictedAxisB(ctx context.Context, runID string) (map[string]float64, error) {
	return nil, engine.ErrNotFound
}

func (s *Store) GetAgentRating(ctx context.Context, agentID string) (engine.AgentRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratings[agentID]
	if !ok {
		return engine.NewAgentRating(agentID), nil
	}
	return r, nil
}

func (s *Store) ApplyRatingUpdate(ctx context.Context, rating engine.AgentRating, entry engine.RatingHistoryEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entry.AgentID + "/" + entry.RunID
	if s.history[key] {
		return false, nil
	}
	s.history[key] = true
	s.ratings[rating.AgentID] = rating
	return true, nil
}

func (s *Store) RunsByAgent(ctx context.Context, agentID string) ([]engine.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.Run
	for _, r := range s.runs {
		if r.AgentID == agentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) LatestSnapshot(ctx context.Context, agentID string, completedOnly bool) (*engine.ProfileSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *engine.ProfileSnapshot
	for _, snap := range s.snapshots {
		if snap.AgentID != agentID {
			continue
		}
		if completedOnly && snap.Profile.Status != engine.StatusCompleted {
			continue
		}
		if best == nil || snap.SnapshotDate.After(best.SnapshotDate) {
			s := snap
			best = &s
		}
	}
	if best == nil {
		return nil, engine.ErrNotFound
	}
	return best, nil
}

func (s *Store) SnapshotHistory(ctx context.Context, agentID string) ([]engine.ProfileSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.ProfileSnapshot
	for _, snap := range s.snapshots {
		if snap.AgentID == agentID {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotDate.Before(out[j].SnapshotDate) })
	return out, nil
}

func (s *Store) SophisticationHistory(ctx context.Context, agentID string) ([]engine.SophisticationScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.SophisticationScore
	for runID, score := range s.sophistication {
		if s.runs[runID].AgentID == agentID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	return out, nil
}

// Bank is a fixed in-memory ContentBank, typically seeded once per test.
type Bank struct {
	Versions []engine.ExamVersion
	Axes     map[string][]engine.Axis
	Items    map[string][]*engine.DilemmaItem
	Groups   map[string][]*engine.ConsistencyGroup
}

func (b *Bank) ResolveExamVersion(ctx context.Context, code string) (*engine.ExamVersion, error) {
	for _, v := range b.Versions {
		if v.Code == code {
			return &v, nil
		}
	}
	return nil, engine.ErrNotFound
}

func (b *Bank) DefaultExamVersion(ctx context.Context) (*engine.ExamVersion, error) {
	for _, v := range b.Versions {
		if v.IsDefault {
			return &v, nil
		}
	}
	return nil, engine.ErrNotFound
}

func (b *Bank) AxesForVersion(ctx context.Context, versionID string) ([]engine.Axis, error) {
	return b.Axes[versionID], nil
}

func (b *Bank) ItemsForVersion(ctx context.Context, versionID string) ([]*engine.DilemmaItem, error) {
	return b.Items[versionID], nil
}

func (b *Bank) ConsistencyGroupsForVersion(ctx context.Context, versionID string) ([]*engine.ConsistencyGroup, error) {
	return b.Groups[versionID], nil
}
