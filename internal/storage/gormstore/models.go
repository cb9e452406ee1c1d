// Package gormstore adapts the engine's Store and ContentBank capability
// interfaces onto GORM, following the single-file migrate-on-init pattern of
// the db package this module started from. It is dialector-agnostic: the
// postgres and sqlite packages each supply their own gorm.Dialector.
package gormstore

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"mse-engine/internal/engine"
)

// ExamVersionModel mirrors engine.ExamVersion.
type ExamVersionModel struct {
	ID              string `gorm:"primaryKey"`
	Code            string `gorm:"uniqueIndex"`
	IsDefault       bool
	Retired         bool
	IsV2            bool
	ComparableWith  datatypes.JSON
	BreakingChanges bool
}

func (m ExamVersionModel) toEngine() (*engine.ExamVersion, error) {
	var comparable []string
	if len(m.ComparableWith) > 0 {
		if err := json.Unmarshal(m.ComparableWith, &comparable); err != nil {
			return nil, err
		}
	}
	return &engine.ExamVersion{
		ID: m.ID, Code: m.Code, IsDefault: m.IsDefault, Retired: m.Retired,
		IsV2: m.IsV2, ComparableWith: comparable, BreakingChanges: m.BreakingChanges,
	}, nil
}

// AxisModel mirrors engine.Axis, scoped to an exam version.
type AxisModel struct {
	ID            string `gorm:"primaryKey"`
	ExamVersionID string `gorm:"index"`
	Code          string
	DisplayName   string
	PoleLeft      string
	PoleRight     string
	Category      string
	DisplayOrder  int
	Optional      bool
}

func (m AxisModel) toEngine() engine.Axis {
	return engine.Axis{
		ID: m.ID, Code: m.Code, DisplayName: m.DisplayName, PoleLeft: m.PoleLeft,
		PoleRight: m.PoleRight, Category: m.Category, DisplayOrder: m.DisplayOrder, Optional: m.Optional,
	}
}

// DilemmaItemModel mirrors engine.DilemmaItem; the variable-shape fields
// (Params, Options, NonObviousFactors) are stored as JSON columns.
type DilemmaItemModel struct {
	ID                         string `gorm:"primaryKey"`
	ExamVersionID              string `gorm:"index"`
	AxisID                     string `gorm:"index"`
	SecondaryAxisID            string
	FamilyID                   string `gorm:"index"`
	PressureLevel              float64
	Params                     datatypes.JSON
	Options                    datatypes.JSON
	IsAnchor                   bool
	Prompt                     string
	DilemmaType                string
	ConsistencyGroupID         string `gorm:"index"`
	VariantType                string
	NonObviousFactors          datatypes.JSON
	ExpertDisagreement         float64
	RequiresResidueRecognition bool
	MetaEthicalType            string
}

func (m DilemmaItemModel) toEngine() (*engine.DilemmaItem, error) {
	var params engine.DilemmaParams
	if len(m.Params) > 0 {
		if err := json.Unmarshal(m.Params, &params); err != nil {
			return nil, err
		}
	}
	var options [4]engine.DilemmaOption
	if len(m.Options) > 0 {
		if err := json.Unmarshal(m.Options, &options); err != nil {
			return nil, err
		}
	}
	var nonObvious []string
	if len(m.NonObviousFactors) > 0 {
		if err := json.Unmarshal(m.NonObviousFactors, &nonObvious); err != nil {
			return nil, err
		}
	}
	return &engine.DilemmaItem{
		ID: m.ID, AxisID: m.AxisID, SecondaryAxisID: m.SecondaryAxisID, FamilyID: m.FamilyID,
		PressureLevel: m.PressureLevel, Params: params, Options: options, IsAnchor: m.IsAnchor,
		Prompt: m.Prompt, DilemmaType: engine.DilemmaType(m.DilemmaType), ConsistencyGroupID: m.ConsistencyGroupID,
		VariantType: m.VariantType, NonObviousFactors: nonObvious, ExpertDisagreement: m.ExpertDisagreement,
		RequiresResidueRecognition: m.RequiresResidueRecognition, MetaEthicalType: m.MetaEthicalType,
	}, nil
}

// ConsistencyGroupModel mirrors engine.ConsistencyGroup.
type ConsistencyGroupModel struct {
	ID            string `gorm:"primaryKey"`
	ExamVersionID string `gorm:"index"`
	AxisID        string
	ItemIDs       datatypes.JSON
}

func (m ConsistencyGroupModel) toEngine() (*engine.ConsistencyGroup, error) {
	var itemIDs []string
	if len(m.ItemIDs) > 0 {
		if err := json.Unmarshal(m.ItemIDs, &itemIDs); err != nil {
			return nil, err
		}
	}
	return &engine.ConsistencyGroup{ID: m.ID, AxisID: m.AxisID, ItemIDs: itemIDs}, nil
}

// RunModel mirrors engine.Run; Config is flattened to a JSON blob since its
// shape is small and stable within a run's lifetime.
type RunModel struct {
	ID            string `gorm:"primaryKey"`
	AgentID       string `gorm:"index"`
	ExamVersionID string
	Config        datatypes.JSON
	Status        string
	Seed          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
	ErrorMessage  string
	CancelReason  string
}

func runToModel(r *engine.Run) (*RunModel, error) {
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return nil, err
	}
	return &RunModel{
		ID: r.ID, AgentID: r.AgentID, ExamVersionID: r.ExamVersionID, Config: cfg,
		Status: string(r.Status), Seed: r.Seed, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		CompletedAt: r.CompletedAt, ErrorMessage: r.ErrorMessage, CancelReason: r.CancelReason,
	}, nil
}

func (m RunModel) toEngine() (*engine.Run, error) {
	var cfg engine.RunConfig
	if len(m.Config) > 0 {
		if err := json.Unmarshal(m.Config, &cfg); err != nil {
			return nil, err
		}
	}
	return &engine.Run{
		ID: m.ID, AgentID: m.AgentID, ExamVersionID: m.ExamVersionID, Config: cfg,
		Status: engine.RunStatus(m.Status), Seed: m.Seed, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
		CompletedAt: m.CompletedAt, ErrorMessage: m.ErrorMessage, CancelReason: m.CancelReason,
	}, nil
}

// ResponseModel mirrors engine.Response.
type ResponseModel struct {
	ID             string `gorm:"primaryKey"`
	RunID          string `gorm:"index"`
	ItemID         string `gorm:"index"`
	AxisID         string
	GlobalIndex    int
	Choice         string
	ForcedChoice   string
	Permissibility int
	Confidence     int
	Principles     datatypes.JSON
	Rationale      string
	InfoNeeded     datatypes.JSON
	ResponseTimeMs int64
	CreatedAt      time.Time
	GRM            datatypes.JSON
}

func responseToModel(r *engine.Response) (*ResponseModel, error) {
	principles, err := json.Marshal(r.Principles)
	if err != nil {
		return nil, err
	}
	infoNeeded, err := json.Marshal(r.InfoNeeded)
	if err != nil {
		return nil, err
	}
	var grm datatypes.JSON
	if r.GRM != nil {
		b, err := json.Marshal(r.GRM)
		if err != nil {
			return nil, err
		}
		grm = b
	}
	return &ResponseModel{
		ID: r.ID, RunID: r.RunID, ItemID: r.ItemID, AxisID: r.AxisID, GlobalIndex: r.GlobalIndex,
		Choice: string(r.Choice), ForcedChoice: string(r.ForcedChoice), Permissibility: r.Permissibility,
		Confidence: r.Confidence, Principles: principles, Rationale: r.Rationale, InfoNeeded: infoNeeded,
		ResponseTimeMs: r.ResponseTimeMs, CreatedAt: r.CreatedAt, GRM: grm,
	}, nil
}

func (m ResponseModel) toEngine() (engine.Response, error) {
	var principles []engine.Principle
	if len(m.Principles) > 0 {
		if err := json.Unmarshal(m.Principles, &principles); err != nil {
			return engine.Response{}, err
		}
	}
	var infoNeeded []string
	if len(m.InfoNeeded) > 0 {
		if err := json.Unmarshal(m.InfoNeeded, &infoNeeded); err != nil {
			return engine.Response{}, err
		}
	}
	var grm *engine.GRMDetails
	if len(m.GRM) > 0 {
		grm = &engine.GRMDetails{}
		if err := json.Unmarshal(m.GRM, grm); err != nil {
			return engine.Response{}, err
		}
	}
	return engine.Response{
		ID: m.ID, RunID: m.RunID, ItemID: m.ItemID, AxisID: m.AxisID, GlobalIndex: m.GlobalIndex,
		Choice: engine.Choice(m.Choice), ForcedChoice: engine.ForcedChoice(m.ForcedChoice),
		Permissibility: m.Permissibility, Confidence: m.Confidence, Principles: principles,
		Rationale: m.Rationale, InfoNeeded: infoNeeded, ResponseTimeMs: m.ResponseTimeMs,
		CreatedAt: m.CreatedAt, GRM: grm,
	}, nil
}

// AxisScoreModel mirrors engine.AxisScore.
type AxisScoreModel struct {
	RunID  string `gorm:"primaryKey;index:idx_axis_score_run"`
	AxisID string `gorm:"primaryKey"`
	B      float64
	A      float64
	SEB    float64
	NItems int
	Flags  datatypes.JSON
}

// ConsistencyResultModel mirrors engine.ConsistencyResult.
type ConsistencyResultModel struct {
	RunID                  string `gorm:"primaryKey;index:idx_consistency_run"`
	GroupID                string `gorm:"primaryKey"`
	AxisID                 string
	ForcedChoiceAgreement  float64
	PermissibilityVariance float64
	PrincipleOverlap       float64
}

// ProceduralScoreModel mirrors engine.ProceduralScore, one row per run.
type ProceduralScoreModel struct {
	RunID              string `gorm:"primaryKey"`
	MoralSensitivity   datatypes.JSON
	InfoSeeking        datatypes.JSON
	Calibration        datatypes.JSON
	Consistency        datatypes.JSON
	PrincipleDiversity datatypes.JSON
	ReasoningDepth     datatypes.JSON
	Transparency       float64
}

// GamingScoreModel mirrors engine.GamingScore, one row per run.
type GamingScoreModel struct {
	RunID                  string `gorm:"primaryKey"`
	ResponseTimeUniformity float64
	RationaleDiversity     float64
	PatternRegularity      float64
	ParameterSensitivity   float64
	FramingSusceptibility  float64
	ConsistencyScore       float64
	GScore                 float64
	Flagged                bool
}

// CoherenceScoreModel mirrors engine.CoherenceScore, one row per run.
type CoherenceScoreModel struct {
	RunID             string `gorm:"primaryKey"`
	OrientationVector datatypes.JSON
	Dominant          string
	CoherenceValue    float64
	VarianceExplained float64
}

// CapacityScoreModel mirrors engine.CapacityScores, one row per run.
type CapacityScoreModel struct {
	RunID                   string `gorm:"primaryKey"`
	MoralPerception         float64
	MoralImagination        float64
	MoralHumility           float64
	MoralCoherence          float64
	MoralResidue            float64
	PerspectivalFlexibility float64
	MetaEthicalAwareness    float64
}

// SophisticationScoreModel mirrors engine.SophisticationScore, one row per run.
type SophisticationScoreModel struct {
	RunID             string `gorm:"primaryKey"`
	Integration       float64
	Metacognition     float64
	Stability         float64
	Adaptability      *float64
	SelfModelAccuracy *float64
	SIScore           float64
	SILevel           string
}

func (m SophisticationScoreModel) toEngine() engine.SophisticationScore {
	return engine.SophisticationScore{
		RunID: m.RunID, Integration: m.Integration, Metacognition: m.Metacognition,
		Stability: m.Stability, Adaptability: m.Adaptability, SelfModelAccuracy: m.SelfModelAccuracy,
		SIScore: m.SIScore, SILevel: m.SILevel,
	}
}

// ProfileSnapshotModel mirrors engine.ProfileSnapshot, the immutable dump.
type ProfileSnapshotModel struct {
	RunID        string `gorm:"primaryKey"`
	AgentID      string `gorm:"index"`
	SnapshotDate time.Time
	Profile      datatypes.JSON
}

func (m ProfileSnapshotModel) toEngine() (engine.ProfileSnapshot, error) {
	var profile engine.Profile
	if len(m.Profile) > 0 {
		if err := json.Unmarshal(m.Profile, &profile); err != nil {
			return engine.ProfileSnapshot{}, err
		}
	}
	return engine.ProfileSnapshot{
		AgentID: m.AgentID, RunID: m.RunID, SnapshotDate: m.SnapshotDate, Profile: profile,
	}, nil
}

// AgentRatingModel mirrors engine.AgentRating, one row per agent.
type AgentRatingModel struct {
	AgentID        string `gorm:"primaryKey"`
	MRRating       float64
	MRUncertainty  float64
	ItemsProcessed int
	PeakRating     float64
}

// RatingHistoryModel mirrors engine.RatingHistoryEntry; a unique index on
// (agent_id, run_id) backs the exactly-once ApplyRatingUpdate guard.
type RatingHistoryModel struct {
	ID        string `gorm:"primaryKey"`
	AgentID   string `gorm:"uniqueIndex:idx_rating_history_agent_run"`
	RunID     string `gorm:"uniqueIndex:idx_rating_history_agent_run"`
	DeltaMR   float64
	NewMR     float64
	CreatedAt time.Time
}

func allModels() []interface{} {
	return []interface{}{
		&ExamVersionModel{}, &AxisModel{}, &DilemmaItemModel{}, &ConsistencyGroupModel{},
		&RunModel{}, &ResponseModel{}, &AxisScoreModel{}, &ConsistencyResultModel{},
		&ProceduralScoreModel{}, &GamingScoreModel{}, &CoherenceScoreModel{}, &CapacityScoreModel{},
		&SophisticationScoreModel{}, &ProfileSnapshotModel{}, &AgentRatingModel{}, &RatingHistoryModel{},
	}
}
