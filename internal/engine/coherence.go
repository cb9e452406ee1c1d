package engine

import (
	"math"
	"sort"
)

const coherenceMixedThreshold = 1.3 / 6.0 // |traditions| = 6

// ComputeCoherence implements C6: the orientation vector over the six
// ethical traditions, the dominant orientation, a range/IQR coherence
// score, and a 1D variance-explained proxy for the first principal
// component, derived from the run's per-axis b values.
func ComputeCoherence(runID string, axisScores map[string]AxisScore, axisCodeByID map[string]string) CoherenceScore {
	accum := map[Principle]float64{}
	counts := map[Principle]int{}
	var bs []float64

	for axisID, score := range axisScores {
		code, ok := axisCodeByID[axisID]
		if !ok {
			continue
		}
		poles, ok := axisTraditions[code]
		if !ok {
			continue
		}
		accum[poles.Left] += 1 - score.B
		counts[poles.Left]++
		accum[poles.Right] += score.B
		counts[poles.Right]++
		bs = append(bs, score.B)
	}

	vector := map[string]float64{}
	var total float64
	for _, p := range AllPrinciples {
		if counts[p] == 0 {
			continue
		}
		v := accum[p] / float64(counts[p])
		vector[string(p)] = v
		total += v
	}
	if total > 0 {
		for k := range vector {
			vector[k] /= total
		}
	}

	dominant := dominantOrientation(vector)

	return CoherenceScore{
		RunID:             runID,
		OrientationVector: vector,
		Dominant:          dominant,
		CoherenceValue:    coherenceFromSpread(bs),
		VarianceExplained: varianceExplained(bs),
	}
}

func dominantOrientation(vector map[string]float64) string {
	if len(vector) == 0 {
		return "mixed"
	}
	best := ""
	bestV := -1.0
	keys := make([]string, 0, len(vector))
	for k := range vector {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := vector[k]
		if v > bestV {
			best = k
			bestV = v
		}
	}
	if bestV < coherenceMixedThreshold {
		return "mixed"
	}
	return best
}

func coherenceFromSpread(bs []float64) float64 {
	if len(bs) < 3 {
		return 0.5
	}
	rng := rangeOf(bs)
	if rng < 1e-3 {
		return 1.0
	}
	iqr := interquartileRange(bs)
	return clampF(1-iqr/rng, 0, 1)
}

func rangeOf(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return sorted[len(sorted)-1] - sorted[0]
}

func interquartileRange(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	return q3 - q1
}

// percentile uses linear interpolation between closest ranks over an
// already-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func varianceExplained(bs []float64) float64 {
	if len(bs) == 0 {
		return 0.8
	}
	mu := mean(bs)
	var pos, neg []float64
	for _, b := range bs {
		if b-mu >= 0 {
			pos = append(pos, b)
		} else {
			neg = append(neg, b)
		}
	}
	if len(pos) == 0 || len(neg) == 0 {
		return 0.8
	}

	n := float64(len(bs))
	posMean, negMean := mean(pos), mean(neg)
	between := (float64(len(pos))*(posMean-mu)*(posMean-mu) + float64(len(neg))*(negMean-mu)*(negMean-mu)) / n

	var total float64
	for _, b := range bs {
		d := b - mu
		total += d * d
	}
	total /= n

	if total == 0 {
		return 0.8
	}
	return clampF(between/total, 0, 1)
}
