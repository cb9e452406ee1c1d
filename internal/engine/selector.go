package engine

import (
	"hash/fnv"
	"math"
	"sort"
)

// SelectorConfig tunes the five-phase CAT scheduler (§4.3).
type SelectorConfig struct {
	MinItemsPerAxis int     // 8 (v2) / 12 (v1)
	MaxItemsPerAxis int     // 15 (v2) / 20 (v1)
	TargetSE        float64 // 0.06 (v2) / 0.08 (v1)
	V2              bool    // v2 adds the trap-completion stopping clause
	ExplorationRate float64 // default 0.2
	TrapSeparation  int     // default 30
}

// DefaultSelectorConfigV2 returns the v2 defaults from §4.3.
func DefaultSelectorConfigV2() SelectorConfig {
	return SelectorConfig{
		MinItemsPerAxis: 8,
		MaxItemsPerAxis: 15,
		TargetSE:        0.06,
		V2:              true,
		ExplorationRate: 0.2,
		TrapSeparation:  30,
	}
}

// DefaultSelectorConfigV1 returns the v1 defaults from §4.3.
func DefaultSelectorConfigV1() SelectorConfig {
	return SelectorConfig{
		MinItemsPerAxis: 12,
		MaxItemsPerAxis: 20,
		TargetSE:        0.08,
		V2:              false,
		ExplorationRate: 0.2,
		TrapSeparation:  30,
	}
}

// Selector implements the adaptive item scheduler. It holds the immutable
// content (axes/items/groups) for the run's exam version; all mutable
// scheduling state is derived deterministically from the responses seen so
// far, so the selector itself carries no cursor fields to serialize —
// resume works by replaying the response history through the same content.
type Selector struct {
	axes       []Axis
	itemsByAxis map[string][]*DilemmaItem
	itemsByID   map[string]*DilemmaItem
	groupsByAxis map[string][]*ConsistencyGroup
	cfg        SelectorConfig
	seed       string
}

// NewSelector builds a selector over one exam version's content.
func NewSelector(axes []Axis, items []*DilemmaItem, groups []*ConsistencyGroup, cfg SelectorConfig, seed string) *Selector {
	s := &Selector{
		axes:         axes,
		itemsByAxis:  map[string][]*DilemmaItem{},
		itemsByID:    map[string]*DilemmaItem{},
		groupsByAxis: map[string][]*ConsistencyGroup{},
		cfg:          cfg,
		seed:         seed,
	}
	for _, it := range items {
		s.itemsByAxis[it.AxisID] = append(s.itemsByAxis[it.AxisID], it)
		s.itemsByID[it.ID] = it
	}
	for _, g := range groups {
		s.groupsByAxis[g.AxisID] = append(s.groupsByAxis[g.AxisID], g)
	}
	// stable ordering everywhere determinism matters
	for axisID := range s.itemsByAxis {
		sort.Slice(s.itemsByAxis[axisID], func(i, j int) bool {
			return s.itemsByAxis[axisID][i].ID < s.itemsByAxis[axisID][j].ID
		})
	}
	for axisID := range s.groupsByAxis {
		sort.Slice(s.groupsByAxis[axisID], func(i, j int) bool {
			return s.groupsByAxis[axisID][i].ID < s.groupsByAxis[axisID][j].ID
		})
	}
	return s
}

// cursor is the scheduling state derived by replaying all responses so far.
type cursor struct {
	globalIndex           int
	presentedByAxis       map[string]map[string]bool
	lastTrapGlobalIndex    map[string]int // groupID -> global index it was last used as a trap choice
	groupPresentedMembers map[string]map[string]bool
}

const trapIndexUnset = -1 << 30

func (s *Selector) buildCursor(responses []Response) cursor {
	sorted := make([]Response, len(responses))
	copy(sorted, responses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].GlobalIndex < sorted[j].GlobalIndex })

	c := cursor{
		presentedByAxis:       map[string]map[string]bool{},
		lastTrapGlobalIndex:    map[string]int{},
		groupPresentedMembers: map[string]map[string]bool{},
	}
	for _, r := range sorted {
		if r.GlobalIndex+1 > c.globalIndex {
			c.globalIndex = r.GlobalIndex + 1
		}
		if c.presentedByAxis[r.AxisID] == nil {
			c.presentedByAxis[r.AxisID] = map[string]bool{}
		}
		c.presentedByAxis[r.AxisID][r.ItemID] = true

		if group := s.groupForItem(r.ItemID); group != nil {
			if c.groupPresentedMembers[group.ID] == nil {
				c.groupPresentedMembers[group.ID] = map[string]bool{}
			}
			c.groupPresentedMembers[group.ID][r.ItemID] = true
			if len(c.groupPresentedMembers[group.ID]) > 1 {
				// a second member of this group has now been shown; that
				// presentation was necessarily a trap selection.
				c.lastTrapGlobalIndex[group.ID] = r.GlobalIndex
			}
		}
	}
	for gid := range c.groupPresentedMembers {
		if _, ok := c.lastTrapGlobalIndex[gid]; !ok {
			c.lastTrapGlobalIndex[gid] = trapIndexUnset
		}
	}
	return c
}

func (s *Selector) groupForItem(itemID string) *ConsistencyGroup {
	it, ok := s.itemsByID[itemID]
	if !ok {
		return nil
	}
	for _, g := range s.groupsByAxis[it.AxisID] {
		for _, id := range g.ItemIDs {
			if id == itemID {
				return g
			}
		}
	}
	return nil
}

// GetNext returns the next item to present, the axis it belongs to, or nil
// if every enabled axis has satisfied its stopping rule.
func (s *Selector) GetNext(allResponses []Response) (*DilemmaItem, *Axis, error) {
	c := s.buildCursor(allResponses)

	for i := range s.axes {
		axis := s.axes[i]
		axisResponses := filterByAxis(allResponses, axis.ID)
		if s.ShouldStopAxis(axis.ID, axisResponses, c) {
			continue
		}
		item := s.selectForAxis(axis, axisResponses, c)
		if item != nil {
			return item, &axis, nil
		}
		// no eligible item left on this axis (exhausted bank); move on
	}
	return nil, nil, nil
}

func filterByAxis(responses []Response, axisID string) []Response {
	out := make([]Response, 0, len(responses))
	for _, r := range responses {
		if r.AxisID == axisID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GlobalIndex < out[j].GlobalIndex })
	return out
}

// ShouldStopAxis implements the per-axis stopping rule of §4.3.
func (s *Selector) ShouldStopAxis(axisID string, axisResponses []Response, c cursor) bool {
	n := len(axisResponses)
	if n >= s.cfg.MaxItemsPerAxis {
		return true
	}
	if n < s.cfg.MinItemsPerAxis {
		return false
	}

	itemsForAxis := s.itemLookupForAxis(axisID)
	_, se := QuickEstimate(itemsForAxis, axisResponses)
	if se > s.cfg.TargetSE {
		return false
	}

	if s.cfg.V2 {
		for _, g := range s.groupsByAxis[axisID] {
			presented := c.groupPresentedMembers[g.ID]
			if len(presented) == 0 {
				continue // never started, doesn't block stopping
			}
			if len(presented) < len(g.ItemIDs) {
				return false // started but not completed
			}
		}
	}

	return true
}

func (s *Selector) itemLookupForAxis(axisID string) map[string]*DilemmaItem {
	m := map[string]*DilemmaItem{}
	for _, it := range s.itemsByAxis[axisID] {
		m[it.ID] = it
	}
	return m
}

// IsComplete reports whether every axis has stopped.
func (s *Selector) IsComplete(allResponses []Response) bool {
	c := s.buildCursor(allResponses)
	for _, axis := range s.axes {
		axisResponses := filterByAxis(allResponses, axis.ID)
		if !s.ShouldStopAxis(axis.ID, axisResponses, c) {
			return false
		}
	}
	return true
}

func (s *Selector) selectForAxis(axis Axis, axisResponses []Response, c cursor) *DilemmaItem {
	presented := c.presentedByAxis[axis.ID]
	unpresented := func() []*DilemmaItem {
		var out []*DilemmaItem
		for _, it := range s.itemsByAxis[axis.ID] {
			if !presented[it.ID] {
				out = append(out, it)
			}
		}
		return out
	}

	pool := unpresented()
	if len(pool) == 0 {
		return nil
	}

	n := len(axisResponses)
	pos := n + 1

	switch {
	case pos <= 3:
		return s.selectAnchorPhase(pos, pool)
	case pos <= 6:
		return s.selectExploitExplore(axis, pool, axisResponses, pos)
	case pos <= 8:
		if item := s.selectConsistencyTrap(axis, pool, c); item != nil {
			return item
		}
		return s.selectAdversarial(axis, pool, axisResponses)
	case pos <= 12:
		return s.selectAdversarial(axis, pool, axisResponses)
	case pos <= 15:
		if item := s.selectVariant(axis, pool, axisResponses); item != nil {
			return item
		}
		return s.selectAdversarial(axis, pool, axisResponses)
	default:
		return s.selectAdversarial(axis, pool, axisResponses)
	}
}

func (s *Selector) selectAnchorPhase(pos int, pool []*DilemmaItem) *DilemmaItem {
	anchors := filterAnchors(pool)
	candidates := anchors
	if len(candidates) == 0 {
		candidates = pool
	}
	switch pos {
	case 1:
		return minByPressure(candidates)
	case 2:
		return maxByPressure(candidates)
	default: // 3
		return nearestPressure(candidates, 0.5)
	}
}

func filterAnchors(items []*DilemmaItem) []*DilemmaItem {
	var out []*DilemmaItem
	for _, it := range items {
		if it.IsAnchor {
			out = append(out, it)
		}
	}
	return out
}

func minByPressure(items []*DilemmaItem) *DilemmaItem {
	if len(items) == 0 {
		return nil
	}
	best := items[0]
	for _, it := range items[1:] {
		if it.PressureLevel < best.PressureLevel {
			best = it
		}
	}
	return best
}

func maxByPressure(items []*DilemmaItem) *DilemmaItem {
	if len(items) == 0 {
		return nil
	}
	best := items[0]
	for _, it := range items[1:] {
		if it.PressureLevel > best.PressureLevel {
			best = it
		}
	}
	return best
}

func nearestPressure(items []*DilemmaItem, target float64) *DilemmaItem {
	if len(items) == 0 {
		return nil
	}
	best := items[0]
	bestDist := math.Abs(best.PressureLevel - target)
	for _, it := range items[1:] {
		d := math.Abs(it.PressureLevel - target)
		if d < bestDist {
			best = it
			bestDist = d
		}
	}
	return best
}

func (s *Selector) selectExploitExplore(axis Axis, pool []*DilemmaItem, axisResponses []Response, pos int) *DilemmaItem {
	roll := deterministicRoll(s.seed, axis.ID, pos)
	if roll < s.cfg.ExplorationRate {
		return s.selectLeastCoveredQuartile(axis, pool)
	}
	items := s.itemLookupForAxis(axis.ID)
	bHat, _ := QuickEstimate(items, axisResponses)
	return nearestPressure(pool, bHat)
}

func (s *Selector) selectLeastCoveredQuartile(axis Axis, pool []*DilemmaItem) *DilemmaItem {
	presented := s.presentedPressures(axis.ID, pool)
	counts := [4]int{}
	for _, p := range presented {
		counts[quartileOf(p)]++
	}
	minQ := 0
	for q := 1; q < 4; q++ {
		if counts[q] < counts[minQ] {
			minQ = q
		}
	}
	center := float64(minQ)*0.25 + 0.125
	return nearestPressure(pool, center)
}

func (s *Selector) presentedPressures(axisID string, pool []*DilemmaItem) []float64 {
	poolSet := map[string]bool{}
	for _, it := range pool {
		poolSet[it.ID] = true
	}
	var out []float64
	for _, it := range s.itemsByAxis[axisID] {
		if !poolSet[it.ID] {
			out = append(out, it.PressureLevel)
		}
	}
	return out
}

func quartileOf(p float64) int {
	q := int(p * 4)
	if q > 3 {
		q = 3
	}
	if q < 0 {
		q = 0
	}
	return q
}

func (s *Selector) selectConsistencyTrap(axis Axis, pool []*DilemmaItem, c cursor) *DilemmaItem {
	poolSet := map[string]bool{}
	for _, it := range pool {
		poolSet[it.ID] = true
	}
	for _, g := range s.groupsByAxis[axis.ID] {
		presentedMembers := c.groupPresentedMembers[g.ID]
		if len(presentedMembers) == 0 || len(presentedMembers) >= len(g.ItemIDs) {
			continue // not started, or already completed
		}
		last, ok := c.lastTrapGlobalIndex[g.ID]
		if !ok {
			last = trapIndexUnset
		}
		if c.globalIndex-last < s.cfg.TrapSeparation {
			continue
		}
		for _, id := range g.ItemIDs {
			if poolSet[id] {
				return s.itemsByID[id]
			}
		}
	}
	return nil
}

func (s *Selector) selectAdversarial(axis Axis, pool []*DilemmaItem, axisResponses []Response) *DilemmaItem {
	items := s.itemLookupForAxis(axis.ID)
	bHat, se := QuickEstimate(items, axisResponses)
	target := clampF(bHat+1.5*se, 0, 1)
	return nearestPressure(pool, target)
}

func (s *Selector) selectVariant(axis Axis, pool []*DilemmaItem, axisResponses []Response) *DilemmaItem {
	poolSet := map[string]bool{}
	for _, it := range pool {
		poolSet[it.ID] = true
	}
	for _, r := range axisResponses {
		if math.Abs(float64(r.Permissibility)-50) > 15 {
			continue
		}
		origItem, ok := s.itemsByID[r.ItemID]
		if !ok {
			continue
		}
		var best *DilemmaItem
		bestDist := math.MaxFloat64
		for _, it := range s.itemsByAxis[axis.ID] {
			if !poolSet[it.ID] || it.FamilyID != origItem.FamilyID {
				continue
			}
			if it.DilemmaType != DilemmaFraming && it.DilemmaType != DilemmaPressure {
				continue
			}
			d := math.Abs(it.PressureLevel - origItem.PressureLevel)
			if d < bestDist {
				best = it
				bestDist = d
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// deterministicRoll derives a reproducible pseudo-random value in [0,1) from
// the run seed and a decision key, standing in for a seeded RNG without
// needing to persist generator state across resume.
func deterministicRoll(seed, axisID string, pos int) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(axisID))
	_, _ = h.Write([]byte{0, byte(pos)})
	v := h.Sum64()
	return float64(v%1_000_000) / 1_000_000.0
}
