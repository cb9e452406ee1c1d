package gormstore

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"mse-engine/internal/engine"
)

func (a *Adapter) CreateRun(ctx context.Context, run *engine.Run) error {
	m, err := runToModel(run)
	if err != nil {
		return err
	}
	return a.db.WithContext(ctx).Create(m).Error
}

func (a *Adapter) GetRun(ctx context.Context, id string) (*engine.Run, error) {
	var m RunModel
	if err := a.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return m.toEngine()
}

func (a *Adapter) UpdateRun(ctx context.Context, run *engine.Run) error {
	m, err := runToModel(run)
	if err != nil {
		return err
	}
	return a.db.WithContext(ctx).Save(m).Error
}

func (a *Adapter) SaveResponse(ctx context.Context, r *engine.Response) error {
	m, err := responseToModel(r)
	if err != nil {
		return err
	}
	return a.db.WithContext(ctx).Create(m).Error
}

func (a *Adapter) UpdateResponse(ctx context.Context, r *engine.Response) error {
	m, err := responseToModel(r)
	if err != nil {
		return err
	}
	return a.db.WithContext(ctx).Save(m).Error
}

func (a *Adapter) ListResponses(ctx context.Context, runID string) ([]engine.Response, error) {
	var rows []ResponseModel
	if err := a.db.WithContext(ctx).Where("run_id = ?", runID).Order("global_index asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]engine.Response, 0, len(rows))
	for _, m := range rows {
		r, err := m.toEngine()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (a *Adapter) SaveAxisScores(ctx context.Context, runID string, scores []engine.AxisScore) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range scores {
			flags, err := json.Marshal(s.Flags)
			if err != nil {
				return err
			}
			m := AxisScoreModel{RunID: runID, AxisID: s.AxisID, B: s.B, A: s.A, SEB: s.SEB, NItems: s.NItems, Flags: flags}
			if err := tx.Save(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *Adapter) SaveConsistencyResults(ctx context.Context, runID string, results []engine.ConsistencyResult) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range results {
			m := ConsistencyResultModel{
				RunID: runID, GroupID: r.GroupID, AxisID: r.AxisID,
				ForcedChoiceAgreement: r.ForcedChoiceAgreement, PermissibilityVariance: r.PermissibilityVariance,
				PrincipleOverlap: r.PrincipleOverlap,
			}
			if err := tx.Save(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *Adapter) SaveProceduralScore(ctx context.Context, score engine.ProceduralScore) error {
	marshal := func(v engine.MethodScore) (json.RawMessage, error) { return json.Marshal(v) }
	sens, err := marshal(score.MoralSensitivity)
	if err != nil {
		return err
	}
	info, err := marshal(score.InfoSeeking)
	if err != nil {
		return err
	}
	calib, err := marshal(score.Calibration)
	if err != nil {
		return err
	}
	consist, err := marshal(score.Consistency)
	if err != nil {
		return err
	}
	diversity, err := marshal(score.PrincipleDiversity)
	if err != nil {
		return err
	}
	depth, err := marshal(score.ReasoningDepth)
	if err != nil {
		return err
	}
	m := ProceduralScoreModel{
		RunID: score.RunID, MoralSensitivity: sens, InfoSeeking: info, Calibration: calib,
		Consistency: consist, PrincipleDiversity: diversity, ReasoningDepth: depth, Transparency: score.Transparency,
	}
	return a.db.WithContext(ctx).Save(&m).Error
}

func (a *Adapter) SaveGamingScore(ctx context.Context, score engine.GamingScore) error {
	m := GamingScoreModel{
		RunID: score.RunID, ResponseTimeUniformity: score.ResponseTimeUniformity,
		RationaleDiversity: score.RationaleDiversity, PatternRegularity: score.PatternRegularity,
		ParameterSensitivity: score.ParameterSensitivity, FramingSusceptibility: score.FramingSusceptibility,
		ConsistencyScore: score.ConsistencyScore, GScore: score.GScore, Flagged: score.Flagged,
	}
	return a.db.WithContext(ctx).Save(&m).Error
}

func (a *Adapter) SaveCoherenceScore(ctx context.Context, score engine.CoherenceScore) error {
	vec, err := json.Marshal(score.OrientationVector)
	if err != nil {
		return err
	}
	m := CoherenceScoreModel{
		RunID: score.RunID, OrientationVector: vec, Dominant: score.Dominant,
		CoherenceValue: score.CoherenceValue, VarianceExplained: score.VarianceExplained,
	}
	return a.db.WithContext(ctx).Save(&m).Error
}

func (a *Adapter) SaveCapacityScores(ctx context.Context, score engine.CapacityScores) error {
	m := CapacityScoreModel{
		RunID: score.RunID, MoralPerception: score.MoralPerception, MoralImagination: score.MoralImagination,
		MoralHumility: score.MoralHumility, MoralCoherence: score.MoralCoherence, MoralResidue: score.MoralResidue,
		PerspectivalFlexibility: score.PerspectivalFlexibility, MetaEthicalAwareness: score.MetaEthicalAwareness,
	}
	return a.db.WithContext(ctx).Save(&m).Error
}

func (a *Adapter) SaveSophisticationScore(ctx context.Context, score engine.SophisticationScore) error {
	m := SophisticationScoreModel{
		RunID: score.RunID, Integration: score.Integration, Metacognition: score.Metacognition,
		Stability: score.Stability, Adaptability: score.Adaptability, SelfModelAccuracy: score.SelfModelAccuracy,
		SIScore: score.SIScore, SILevel: score.SILevel,
	}
	return a.db.WithContext(ctx).Save(&m).Error
}

func (a *Adapter) SaveSnapshot(ctx context.Context, snap engine.ProfileSnapshot) error {
	profile, err := json.Marshal(snap.Profile)
	if err != nil {
		return err
	}
	m := ProfileSnapshotModel{RunID: snap.RunID, AgentID: snap.AgentID, SnapshotDate: snap.SnapshotDate, Profile: profile}
	return a.db.WithContext(ctx).Save(&m).Error
}

// PriorSIScores returns every completed run's si_score for the agent prior
// to beforeRunID, ordered oldest-first (C9's adaptability pre-condition
// needs at least the last two).
func (a *Adapter) PriorSIScores(ctx context.Context, agentID string, beforeRunID string) ([]float64, error) {
	var before RunModel
	if err := a.db.WithContext(ctx).First(&before, "id = ?", beforeRunID).Error; err != nil {
		return nil, err
	}
	var rows []SophisticationScoreModel
	sub := a.db.WithContext(ctx).Model(&RunModel{}).Select("id").
		Where("agent_id = ? AND created_at < ? AND status = ?", agentID, before.CreatedAt, string(engine.StatusCompleted))
	if err := a.db.WithContext(ctx).
		Joins("JOIN (?) r ON r.id = sophistication_score_models.run_id", sub).
		Order("r.created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.SIScore)
	}
	return out, nil
}

// PredictedAxisB is intentionally unimplemented at the storage layer: the
// predicted-vs-observed signal (C9's self_model_accuracy) requires an
// upstream agent-elicited prediction that the current dilemma bank schema
// has no column for. Returning ErrNotFound keeps self_model_accuracy null
// rather than fabricating a prediction.
func (a *Adapter) PredictedAxisB(ctx context.Context, runID string) (map[string]float64, error) {
	return nil, engine.ErrNotFound
}

func (a *Adapter) GetAgentRating(ctx context.Context, agentID string) (engine.AgentRating, error) {
	var m AgentRatingModel
	err := a.db.WithContext(ctx).First(&m, "agent_id = ?", agentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.NewAgentRating(agentID), nil
	}
	if err != nil {
		return engine.AgentRating{}, err
	}
	return engine.AgentRating{
		AgentID: m.AgentID, MRRating: m.MRRating, MRUncertainty: m.MRUncertainty,
		ItemsProcessed: m.ItemsProcessed, PeakRating: m.PeakRating,
	}, nil
}

// RunsByAgent lists every run an agent has started, oldest first.
func (a *Adapter) RunsByAgent(ctx context.Context, agentID string) ([]engine.Run, error) {
	var rows []RunModel
	if err := a.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]engine.Run, 0, len(rows))
	for _, m := range rows {
		r, err := m.toEngine()
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// LatestSnapshot returns the most recent snapshot for an agent, optionally
// restricted to runs that finished in status "completed".
func (a *Adapter) LatestSnapshot(ctx context.Context, agentID string, completedOnly bool) (*engine.ProfileSnapshot, error) {
	q := a.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("snapshot_date desc")
	var rows []ProfileSnapshotModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		snap, err := m.toEngine()
		if err != nil {
			return nil, err
		}
		if completedOnly && snap.Profile.Status != engine.StatusCompleted {
			continue
		}
		return &snap, nil
	}
	return nil, engine.ErrNotFound
}

// SnapshotHistory returns every snapshot for an agent, oldest first.
func (a *Adapter) SnapshotHistory(ctx context.Context, agentID string) ([]engine.ProfileSnapshot, error) {
	var rows []ProfileSnapshotModel
	if err := a.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("snapshot_date asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]engine.ProfileSnapshot, 0, len(rows))
	for _, m := range rows {
		snap, err := m.toEngine()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// SophisticationHistory returns every sophistication score recorded for an
// agent's runs, oldest first.
func (a *Adapter) SophisticationHistory(ctx context.Context, agentID string) ([]engine.SophisticationScore, error) {
	var rows []SophisticationScoreModel
	if err := a.db.WithContext(ctx).
		Joins("JOIN run_models ON run_models.id = sophistication_score_models.run_id").
		Where("run_models.agent_id = ?", agentID).
		Order("run_models.created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]engine.SophisticationScore, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEngine())
	}
	return out, nil
}

// ApplyRatingUpdate persists the rating and history row inside one
// transaction; the unique index on (agent_id, run_id) turns a repeat call
// for the same run into a no-op rather than a double-applied delta.
func (a *Adapter) ApplyRatingUpdate(ctx context.Context, rating engine.AgentRating, entry engine.RatingHistoryEntry) (bool, error) {
	applied := false
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing RatingHistoryModel
		err := tx.First(&existing, "agent_id = ? AND run_id = ?", entry.AgentID, entry.RunID).Error
		if err == nil {
			return nil // already applied for this run; no-op
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hist := RatingHistoryModel{
			ID: entry.ID, AgentID: entry.AgentID, RunID: entry.RunID,
			DeltaMR: entry.DeltaMR, NewMR: entry.NewMR, CreatedAt: entry.CreatedAt,
		}
		if err := tx.Create(&hist).Error; err != nil {
			return err
		}

		ratingModel := AgentRatingModel{
			AgentID: rating.AgentID, MRRating: rating.MRRating, MRUncertainty: rating.MRUncertainty,
			ItemsProcessed: rating.ItemsProcessed, PeakRating: rating.PeakRating,
		}
		if err := tx.Save(&ratingModel).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}
