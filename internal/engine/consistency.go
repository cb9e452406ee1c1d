package engine

import "strings"

// ComputeConsistencyResults implements step 2 of complete(): the per-group
// trap metrics derived directly from the Responses, before any other
// scoring stage runs. Groups with fewer than two answered members are
// skipped; they contribute no signal yet.
func ComputeConsistencyResults(groups []*ConsistencyGroup, responses []Response) []ConsistencyResult {
	byItem := map[string]Response{}
	for _, r := range responses {
		byItem[r.ItemID] = r
	}

	var out []ConsistencyResult
	for _, g := range groups {
		var members []Response
		for _, id := range g.ItemIDs {
			if r, ok := byItem[id]; ok {
				members = append(members, r)
			}
		}
		if len(members) < 2 {
			continue
		}
		out = append(out, ConsistencyResult{
			GroupID:                g.ID,
			AxisID:                 g.AxisID,
			ForcedChoiceAgreement:  forcedChoiceAgreement(members),
			PermissibilityVariance: permissibilityVariance(members),
			PrincipleOverlap:       principleOverlap(members),
		})
	}
	return out
}

func forcedChoiceAgreement(members []Response) float64 {
	counts := map[ForcedChoice]int{}
	for _, m := range members {
		counts[m.ForcedChoice]++
	}
	majority := 0
	for _, c := range counts {
		if c > majority {
			majority = c
		}
	}
	return float64(majority) / float64(len(members))
}

func permissibilityVariance(members []Response) float64 {
	xs := make([]float64, len(members))
	for i, m := range members {
		xs[i] = float64(m.Permissibility)
	}
	mu := mean(xs)
	return stddev(xs, mu) * stddev(xs, mu)
}

func principleOverlap(members []Response) float64 {
	sets := make([]map[string]bool, len(members))
	for i, m := range members {
		s := map[string]bool{}
		for _, p := range m.Principles {
			s[strings.ToLower(string(p))] = true
		}
		sets[i] = s
	}
	var sum float64
	var count int
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			sum += 1 - jaccardDistance(sets[i], sets[j])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
