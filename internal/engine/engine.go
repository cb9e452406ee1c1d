package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mse-engine/internal/profilesim"
)

func defaultClock() time.Time { return time.Now() }

// Engine is the public engine surface (§6): the entry point a transport
// layer (HTTP, CLI, whatever) wires up once and calls for everything that
// isn't a step inside a single Session. It owns the set of Sessions
// currently in_progress so resumeEvaluation can hand back the same
// in-memory state machine a process restart would otherwise lose.
type Engine struct {
	store      Store
	reporting  Reporting
	bank       ContentBank
	provider   LLMProvider
	clock      Clock
	profiles   *profilesim.Store // optional; nil disables indexing profile vectors in qdrant

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewEngine wires an Engine to its collaborators. profiles may be nil: when
// absent, compareAgents skips indexing vectors in qdrant; it clusters
// exactly over whatever agents are passed in either way.
func NewEngine(store Store, reporting Reporting, bank ContentBank, provider LLMProvider, clock Clock, profiles *profilesim.Store) *Engine {
	if clock == nil {
		clock = defaultClock
	}
	return &Engine{
		store: store, reporting: reporting, bank: bank, provider: provider, clock: clock,
		profiles: profiles, sessions: make(map[string]*Session),
	}
}

// StartEvaluation creates a new Run and its Session, keeping the Session
// resident in memory keyed by run ID.
func (e *Engine) StartEvaluation(ctx context.Context, agentID string, cfg RunConfig) (*Session, error) {
	sess := NewSession(e.store, e.bank, e.provider, e.clock)
	if err := sess.Initialize(ctx, agentID, cfg); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.sessions[sess.run.ID] = sess
	e.mu.Unlock()
	return sess, nil
}

// ResumeEvaluation returns the resident Session for runID if the process
// never restarted, or rehydrates one from storage (Session.Resume replays
// persisted responses against a fresh selector) otherwise.
func (e *Engine) ResumeEvaluation(ctx context.Context, runID string) (*Session, error) {
	e.mu.Lock()
	sess, ok := e.sessions[runID]
	e.mu.Unlock()
	if ok {
		return sess, nil
	}

	sess = NewSession(e.store, e.bank, e.provider, e.clock)
	if err := sess.Resume(ctx, runID); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.sessions[runID] = sess
	e.mu.Unlock()
	return sess, nil
}

// Forget drops a Session from residency once it reaches a terminal state,
// so a long-lived process doesn't accumulate finished runs in memory.
func (e *Engine) Forget(runID string) {
	e.mu.Lock()
	delete(e.sessions, runID)
	e.mu.Unlock()
}

// GetAgentProfile returns the latest *completed* profile, or nil if none.
func (e *Engine) GetAgentProfile(ctx context.Context, agentID string) (*Profile, error) {
	snap, err := e.reporting.LatestSnapshot(ctx, agentID, true)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := snap.Profile
	return &p, nil
}

// GetPartialProfile returns the latest profile regardless of run status.
func (e *Engine) GetPartialProfile(ctx context.Context, agentID string) (*Profile, error) {
	snap, err := e.reporting.LatestSnapshot(ctx, agentID, false)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := snap.Profile
	return &p, nil
}

// GetEnrichedProfile is the same lookup as GetAgentProfile; the snapshot
// already carries Capacities/Meta (assembleProfile populates both at
// completion), so enrichment is a matter of not stripping them.
func (e *Engine) GetEnrichedProfile(ctx context.Context, agentID string) (*Profile, error) {
	return e.GetAgentProfile(ctx, agentID)
}

// GetProfileHistory returns every snapshot recorded for an agent, oldest first.
func (e *Engine) GetProfileHistory(ctx context.Context, agentID string) ([]ProfileSnapshot, error) {
	return e.reporting.SnapshotHistory(ctx, agentID)
}

// GetSophisticationScore returns the most recent SophisticationScore.
func (e *Engine) GetSophisticationScore(ctx context.Context, agentID string) (*SophisticationScore, error) {
	hist, err := e.reporting.SophisticationHistory(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if len(hist) == 0 {
		return nil, nil
	}
	last := hist[len(hist)-1]
	return &last, nil
}

// GetSophisticationHistory returns every recorded score, oldest first.
func (e *Engine) GetSophisticationHistory(ctx context.Context, agentID string) ([]SophisticationScore, error) {
	return e.reporting.SophisticationHistory(ctx, agentID)
}

// GetAxes lists the axes of an exam version (the default version if code is empty).
func (e *Engine) GetAxes(ctx context.Context, versionCode string) ([]Axis, error) {
	version, err := e.resolveVersionForQuery(ctx, versionCode)
	if err != nil {
		return nil, err
	}
	return e.bank.AxesForVersion(ctx, version.ID)
}

// GetAxisItems lists every item tagged to a given axis within a version.
func (e *Engine) GetAxisItems(ctx context.Context, versionCode, axisID string) ([]*DilemmaItem, error) {
	version, err := e.resolveVersionForQuery(ctx, versionCode)
	if err != nil {
		return nil, err
	}
	items, err := e.bank.ItemsForVersion(ctx, version.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*DilemmaItem, 0, len(items))
	for _, it := range items {
		if it.AxisID == axisID || it.SecondaryAxisID == axisID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (e *Engine) resolveVersionForQuery(ctx context.Context, code string) (*ExamVersion, error) {
	if code == "" {
		return e.bank.DefaultExamVersion(ctx)
	}
	return e.bank.ResolveExamVersion(ctx, code)
}

// GetRunDetails returns the raw Run record.
func (e *Engine) GetRunDetails(ctx context.Context, runID string) (*Run, error) {
	return e.store.GetRun(ctx, runID)
}

// GetAgentRuns lists every run an agent has started.
func (e *Engine) GetAgentRuns(ctx context.Context, agentID string) ([]Run, error) {
	return e.reporting.RunsByAgent(ctx, agentID)
}

// Comparison is compareAgents' wire result (§6).
type Comparison struct {
	AxesMatrix map[string]map[string]float64 `json:"axes_matrix"` // agent_id -> axis_code -> b
	Clusters   []profilesim.Cluster          `json:"clusters"`
	ISMScores  map[string]float64            `json:"ism_scores"` // agent_id -> ism_score
}

// CompareAgents builds the axes matrix, ISM scores, and a k-means clustering
// over each agent's normalized per-axis b vector. When a qdrant-backed
// profilesim.Store is wired in and more than compareAgentsANNThreshold
// agents are compared, every vector is also upserted into qdrant. Clustering
// always runs over every compared agent; no nearest-neighbour narrowing is
// done.
const compareAgentsANNThreshold = 200

func (e *Engine) CompareAgents(ctx context.Context, agentIDs []string) (*Comparison, error) {
	axesMatrix := make(map[string]map[string]float64, len(agentIDs))
	ismScores := make(map[string]float64, len(agentIDs))
	axisCodeSet := map[string]bool{}

	for _, agentID := range agentIDs {
		snap, err := e.reporting.LatestSnapshot(ctx, agentID, true)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		byCode := make(map[string]float64, len(snap.Profile.Axes))
		for code, axis := range snap.Profile.Axes {
			byCode[code] = axis.B
			axisCodeSet[code] = true
		}
		axesMatrix[agentID] = byCode
		if snap.Profile.Meta != nil {
			ismScores[agentID] = snap.Profile.Meta.ISMScore
		}
	}

	axisCodes := make([]string, 0, len(axisCodeSet))
	for code := range axisCodeSet {
		axisCodes = append(axisCodes, code)
	}
	sort.Strings(axisCodes)

	vectors := make(map[string][]float64, len(axesMatrix))
	for agentID, byCode := range axesMatrix {
		vec := make([]float64, len(axisCodes))
		for i, code := range axisCodes {
			if b, ok := byCode[code]; ok {
				vec[i] = 2 * (b - 0.5) // b normalized to [-1, 1]
			} // else 0 for axes this agent's exam version didn't cover
		}
		vectors[agentID] = vec
	}

	if e.profiles != nil && len(vectors) > compareAgentsANNThreshold {
		if err := e.indexAndNarrow(ctx, vectors); err != nil {
			return nil, fmt.Errorf("profile similarity index: %w", err)
		}
	}

	k := clusterCount(len(vectors))
	clusters := profilesim.KMeans(vectors, k, 50)

	return &Comparison{AxesMatrix: axesMatrix, Clusters: clusters, ISMScores: ismScores}, nil
}

// indexAndNarrow keeps the qdrant collection current for every agent in
// the comparison. It only upserts; it does not call NearestNeighbors and
// does not shrink the set of vectors that CompareAgents clusters.
func (e *Engine) indexAndNarrow(ctx context.Context, vectors map[string][]float64) error {
	for agentID, vec := range vectors {
		padded := make([]float32, profilesim.AxisVectorDim)
		for i, v := range vec {
			if i >= len(padded) {
				break
			}
			padded[i] = float32(v)
		}
		if err := e.profiles.Upsert(ctx, agentID, padded); err != nil {
			return err
		}
	}
	return nil
}

func clusterCount(n int) int {
	if n <= 1 {
		return n
	}
	k := 1
	for k*k < n {
		k++
	}
	if k > 8 {
		k = 8
	}
	return k
}
