// Package engine implements the Moral Spectrometry Engine: adaptive item
// selection, the RLTM axis fitter, the post-hoc scoring stack, and the
// session state machine that sequences them.
package engine

import "time"

// Pole identifies which side of an axis' tension an option or response leans.
type Pole string

const (
	PoleLeft     Pole = "left"
	PoleRight    Pole = "right"
	PoleNeutral  Pole = "neutral"
	PoleCreative Pole = "creative"
)

// Choice identifies one of the four options presented for a dilemma.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
)

// ForcedChoice is the binary collapse of Choice required on every response.
type ForcedChoice string

const (
	ForcedA ForcedChoice = "A"
	ForcedB ForcedChoice = "B"
)

// Principle is one of the closed set of ethical frameworks a response may cite.
type Principle string

const (
	PrincipleConsequentialist Principle = "consequentialist"
	PrincipleDeontological    Principle = "deontological"
	PrincipleVirtue           Principle = "virtue"
	PrincipleContractualist   Principle = "contractualist"
	PrincipleCare             Principle = "care"
	PrinciplePragmatic        Principle = "pragmatic"
)

// AllPrinciples enumerates the closed principle set in a stable order.
var AllPrinciples = []Principle{
	PrincipleConsequentialist,
	PrincipleDeontological,
	PrincipleVirtue,
	PrincipleContractualist,
	PrincipleCare,
	PrinciplePragmatic,
}

// DilemmaType classifies the v2 item taxonomy.
type DilemmaType string

const (
	DilemmaBase             DilemmaType = "base"
	DilemmaFraming          DilemmaType = "framing"
	DilemmaPressure         DilemmaType = "pressure"
	DilemmaConsistencyTrap  DilemmaType = "consistency_trap"
	DilemmaParticularist    DilemmaType = "particularist"
	DilemmaDirtyHands       DilemmaType = "dirty_hands"
	DilemmaTragic           DilemmaType = "tragic"
	DilemmaStakes           DilemmaType = "stakes"
)

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	StatusUninitialized RunStatus = "uninitialized"
	StatusInProgress    RunStatus = "in_progress"
	StatusCompleted     RunStatus = "completed"
	StatusCancelled     RunStatus = "cancelled"
	StatusError         RunStatus = "error"
)

// AxisFlag is a quality annotation attached to an AxisScore.
type AxisFlag string

const (
	FlagFewItems        AxisFlag = "few_items"
	FlagOutOfRange      AxisFlag = "out_of_range"
	FlagHighUncertainty AxisFlag = "high_uncertainty"
	FlagInconsistent    AxisFlag = "inconsistent"
	FlagNonMonotonic    AxisFlag = "non_monotonic"
)

// Axis is an immutable moral-tension dimension. Owned by the external
// dilemma bank; the engine only reads these fields.
type Axis struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	DisplayName   string `json:"display_name"`
	PoleLeft      string `json:"pole_left"`
	PoleRight     string `json:"pole_right"`
	Category      string `json:"category"`
	DisplayOrder  int    `json:"display_order"`
	Optional      bool   `json:"optional"` // true for memory axes 13-15
}

// DilemmaParams carries the scenario parameters the bank attaches to an item.
type DilemmaParams struct {
	Severity      float64 `json:"severity"`
	Certainty     float64 `json:"certainty"`
	Immediacy     float64 `json:"immediacy"`
	Relationship  float64 `json:"relationship"`
	Consent       float64 `json:"consent"`
	Reversibility float64 `json:"reversibility"`
	Legality      float64 `json:"legality"`
	NumAffected   int     `json:"num_affected"`
}

// DilemmaOption is one of the fixed four-tuple choices a dilemma offers.
type DilemmaOption struct {
	Choice Choice `json:"choice"`
	Label  string `json:"label"`
	Pole   Pole   `json:"pole"`
}

// DilemmaItem is the content record the engine consumes to present and
// schedule a dilemma. Owned by the external dilemma bank.
type DilemmaItem struct {
	ID               string  `json:"id"`
	AxisID           string  `json:"axis_id"`
	SecondaryAxisID  string  `json:"secondary_axis_id,omitempty"`
	FamilyID         string  `json:"family_id"`
	PressureLevel    float64 `json:"pressure_level"`
	Params           DilemmaParams
	Options          [4]DilemmaOption `json:"options"`
	IsAnchor         bool              `json:"is_anchor"`
	Prompt           string            `json:"prompt"`

	// v2 metadata
	DilemmaType             DilemmaType `json:"dilemma_type"`
	ConsistencyGroupID      string      `json:"consistency_group_id,omitempty"`
	VariantType             string      `json:"variant_type,omitempty"`
	NonObviousFactors       []string    `json:"non_obvious_factors,omitempty"`
	ExpertDisagreement      float64     `json:"expert_disagreement"`
	RequiresResidueRecognition bool     `json:"requires_residue_recognition"`
	MetaEthicalType         string      `json:"meta_ethical_type,omitempty"`
}

// ConsistencyGroup ties together items testing the same tension under
// different framings. Owned by the external dilemma bank.
type ConsistencyGroup struct {
	ID      string   `json:"id"`
	AxisID  string   `json:"axis_id"`
	ItemIDs []string `json:"item_ids"`
}

// ExamVersion describes a named, versioned set of axes/items the engine runs
// against. Owned by the external dilemma bank.
type ExamVersion struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	IsDefault      bool     `json:"is_default"`
	Retired        bool     `json:"retired"`
	IsV2           bool     `json:"is_v2"`
	ComparableWith []string `json:"comparable_with"`
	BreakingChanges bool    `json:"breaking_changes"`
}

// GRMDetails is the judged/heuristic sophistication record attached to a
// Response post-hoc by C4.
type GRMDetails struct {
	Category             int     `json:"category"` // 0..4
	MentionsBothPoles    bool    `json:"mentions_both_poles"`
	IdentifiesNonObvious bool    `json:"identifies_non_obvious"`
	RecognizesResidue    bool    `json:"recognizes_residue"`
	ReasoningQuality     float64 `json:"reasoning_quality"` // 0..1
	ScoringMethod        string  `json:"scoring_method"`    // llm_judge | heuristic_fallback
}

// Response is the immutable-after-save record created per presentation.
type Response struct {
	ID              string       `json:"id"`
	RunID           string       `json:"run_id"`
	ItemID          string       `json:"item_id"`
	AxisID          string       `json:"axis_id"`
	GlobalIndex     int          `json:"global_index"`
	Choice          Choice       `json:"choice"`
	ForcedChoice    ForcedChoice `json:"forced_choice"`
	Permissibility  int          `json:"permissibility"` // 0..100
	Confidence      int          `json:"confidence"`     // 0..100
	Principles      []Principle  `json:"principles"`     // <=3
	Rationale       string       `json:"rationale,omitempty"`
	InfoNeeded      []string     `json:"info_needed,omitempty"` // <=5
	ResponseTimeMs  int64        `json:"response_time_ms"`
	CreatedAt       time.Time    `json:"created_at"`

	// populated post-hoc by C4
	GRM *GRMDetails `json:"grm,omitempty"`
}

// AxisScore is one RLTM fit per (run, axis).
type AxisScore struct {
	RunID   string     `json:"run_id"`
	AxisID  string     `json:"axis_id"`
	B       float64    `json:"b"`     // threshold, [0.05, 0.95]
	A       float64    `json:"a"`     // rigidity, [0.5, 10]
	SEB     float64    `json:"se_b"`  // [0, 0.5]
	NItems  int        `json:"n_items"`
	Flags   []AxisFlag `json:"flags"`
}

// RunConfig is the per-run configuration, normalized from either snake_case
// or camelCase input keys per §6.
type RunConfig struct {
	ExamVersionCode string  `json:"version"`
	ItemsPerAxis    int     `json:"items_per_axis"`
	TargetSE        float64 `json:"target_se"`
	Adaptive        bool    `json:"adaptive"`
	Seed            string  `json:"seed"`
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MemoryEnabled   bool    `json:"memory_enabled"`
}

// Run is the session aggregate record.
type Run struct {
	ID            string    `json:"id"`
	AgentID       string    `json:"agent_id"`
	ExamVersionID string    `json:"exam_version_id"`
	Config        RunConfig `json:"config"`
	Status        RunStatus `json:"status"`
	Seed          string    `json:"seed"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CancelReason  string    `json:"cancel_reason,omitempty"`
}

// ProceduralScore is C7's six-metric procedural record for a run.
type ProceduralScore struct {
	RunID              string             `json:"run_id"`
	MoralSensitivity   MethodScore        `json:"moral_sensitivity"`
	InfoSeeking        MethodScore        `json:"info_seeking"`
	Calibration        MethodScore        `json:"calibration"`
	Consistency        MethodScore        `json:"consistency"`
	PrincipleDiversity MethodScore        `json:"principle_diversity"`
	ReasoningDepth     MethodScore        `json:"reasoning_depth"`
	Transparency       float64            `json:"transparency"`
}

// MethodScore attaches a methodology tag to a [0,1] metric, per §4.7.
type MethodScore struct {
	Value       float64 `json:"value"`
	Methodology string  `json:"methodology"` // statistical | heuristic | blended | llm_assessed
}

// CapacityScores is C7's seven-capacity record.
type CapacityScores struct {
	RunID                  string  `json:"run_id"`
	MoralPerception        float64 `json:"moral_perception"`
	MoralImagination       float64 `json:"moral_imagination"`
	MoralHumility          float64 `json:"moral_humility"`
	MoralCoherence         float64 `json:"moral_coherence"`
	MoralResidue           float64 `json:"moral_residue"`
	PerspectivalFlexibility float64 `json:"perspectival_flexibility"`
	MetaEthicalAwareness   float64 `json:"meta_ethical_awareness"`
}

// GamingScore is C5's six-metric ensemble plus composite.
type GamingScore struct {
	RunID                   string  `json:"run_id"`
	ResponseTimeUniformity  float64 `json:"response_time_uniformity"`
	RationaleDiversity      float64 `json:"rationale_diversity"`
	PatternRegularity       float64 `json:"pattern_regularity"`
	ParameterSensitivity    float64 `json:"parameter_sensitivity"`
	FramingSusceptibility   float64 `json:"framing_susceptibility"`
	ConsistencyScore        float64 `json:"consistency_score"`
	GScore                  float64 `json:"g_score"`
	Flagged                 bool    `json:"flagged"`
}

// CoherenceScore is C6's result: orientation vector, dominant, and variance.
type CoherenceScore struct {
	RunID             string             `json:"run_id"`
	OrientationVector map[string]float64 `json:"orientation_vector"` // tradition -> weight
	Dominant          string             `json:"dominant"`           // tradition name, or "mixed"
	CoherenceValue    float64            `json:"coherence_score"`
	VarianceExplained float64            `json:"variance_explained"`
}

// ConsistencyResult is the per-group trap metric computed in step 2 of
// complete().
type ConsistencyResult struct {
	GroupID                string  `json:"group_id"`
	AxisID                 string  `json:"axis_id"`
	ForcedChoiceAgreement  float64 `json:"forced_choice_agreement"`
	PermissibilityVariance float64 `json:"permissibility_variance"`
	PrincipleOverlap       float64 `json:"principle_overlap"`
}

// SophisticationScore is C9's five-dimensional composite.
type SophisticationScore struct {
	RunID         string   `json:"run_id"`
	Integration   float64  `json:"integration"`
	Metacognition float64  `json:"metacognition"`
	Stability     float64  `json:"stability"`
	Adaptability  *float64 `json:"adaptability"`         // null pre-condition not met
	SelfModelAccuracy *float64 `json:"self_model_accuracy"` // null pre-condition not met
	SIScore       float64  `json:"si_score"`
	SILevel       string   `json:"si_level"`
}

// ISMScore is C8's composite index.
type ISMScore struct {
	RunID               string  `json:"run_id"`
	ProfileRichness     float64 `json:"profile_richness"`
	ProceduralQuality   float64 `json:"procedural_quality"`
	MeasurementPrecision float64 `json:"measurement_precision"`
	Penalty             float64 `json:"penalty"`
	ISM                 float64 `json:"ism"`
	Tier                int     `json:"tier"`
}

// AgentRating is the cross-run Elo-style rating record, keyed by agent.
type AgentRating struct {
	AgentID        string  `json:"agent_id"`
	MRRating       float64 `json:"mr_rating"`
	MRUncertainty  float64 `json:"mr_uncertainty"`
	ItemsProcessed int     `json:"items_processed"`
	PeakRating     float64 `json:"peak_rating"`
}

// RatingHistoryEntry is one append-only row recording an MR update.
type RatingHistoryEntry struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	RunID     string    `json:"run_id"` // unique key guarding double-application
	DeltaMR   float64   `json:"delta_mr"`
	NewMR     float64   `json:"new_mr"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileSnapshot is the immutable denormalized dump of a finalized Run.
type ProfileSnapshot struct {
	AgentID      string    `json:"agent_id"`
	RunID        string    `json:"run_id"`
	SnapshotDate time.Time `json:"snapshot_date"`
	Profile      Profile   `json:"profile"`
}

// ScoringMetadata tags how GRM/procedural metrics were produced this run.
type ScoringMetadata struct {
	GRMMethod          string         `json:"grm_method"` // llm_judge | heuristic_fallback | mixed | none
	GRMStats           GRMStats       `json:"grm_stats"`
	ProceduralMethods  map[string]string `json:"procedural_methods"`
	VersionNote        string         `json:"version_note"`
}

// GRMStats is the per-run telemetry aggregate for C4.
type GRMStats struct {
	LLMJudged  int `json:"llm_judged"`
	Heuristic  int `json:"heuristic_fallback"`
	LLMErrors  int `json:"llm_errors"`
}

// AxisProfile is one axis entry in the wire-format Profile.
type AxisProfile struct {
	B        float64    `json:"b"`
	A        float64    `json:"a"`
	SEB      float64    `json:"se_b"`
	NItems   int        `json:"n_items"`
	Flags    []AxisFlag `json:"flags"`
	PoleLeft string     `json:"pole_left"`
	PoleRight string    `json:"pole_right"`
}

// Profile is the exposed wire format (§6).
type Profile struct {
	AgentID         string                 `json:"agent_id"`
	RunID           string                 `json:"run_id"`
	EvaluatedAt     time.Time              `json:"evaluated_at"`
	Status          RunStatus              `json:"status"`
	ExamVersion     ExamVersionRef         `json:"exam_version"`
	Axes            map[string]AxisProfile `json:"axes"`
	Procedural      ProceduralScore        `json:"procedural"`
	GlobalFlags     []string               `json:"global_flags"`
	ConfidenceLevel string                 `json:"confidence_level"` // high | medium | low
	Config          RunConfig              `json:"config"`
	ScoringMetadata ScoringMetadata        `json:"scoring_metadata"`

	// enriched-only fields (nil on the plain profile)
	Capacities *CapacityScores  `json:"capacities,omitempty"`
	Meta       *ProfileMeta     `json:"meta,omitempty"`
}

// ExamVersionRef is the minimal exam-version identity embedded in a Profile.
type ExamVersionRef struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// ProfileMeta is the enriched profile's summary block.
type ProfileMeta struct {
	SophisticationIndex float64  `json:"sophistication_index"`
	ISMScore            float64  `json:"ism_score"`
	ISMTier             int      `json:"ism_tier"`
	MRRating            float64  `json:"mr_rating"`
	MRUncertainty       float64  `json:"mr_uncertainty"`
	GamingFlags         bool     `json:"gaming_flags"`
	CoherenceScore      float64  `json:"coherence_score"`
}
