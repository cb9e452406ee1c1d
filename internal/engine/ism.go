package engine

import "sort"

const totalAxisCount = 15

var ismPenaltyTable = map[string]float64{
	"high":    0,
	"medium":  0.1,
	"low":     0.3,
	"partial": 0.3,
}

// ComputeISM implements C8's composite index over the run's axis scores
// and procedural scores, per §4.8.
func ComputeISM(runID string, axisScores map[string]AxisScore, procedural ProceduralScore, confidenceLevel string) ISMScore {
	var measurableB []float64
	var precisionSum float64
	var measurableCount int
	for _, s := range axisScores {
		if s.NItems == 0 {
			continue
		}
		measurableCount++
		measurableB = append(measurableB, s.B)
		precisionSum += maxF(0, 1-s.SEB/0.25)
	}

	richness := 0.0
	if measurableCount > 0 {
		richness = (float64(measurableCount) / totalAxisCount) * (1 - gini(measurableB))
	}

	quality := proceduralQualityWeightedMean(procedural)

	precision := 0.0
	if measurableCount > 0 {
		precision = precisionSum / float64(measurableCount)
	}

	penalty := ismPenaltyTable[confidenceLevel]

	ism := 0.35*richness + 0.45*quality + 0.20*precision - penalty
	ism = clampF(ism, 0, 1)

	tier := 2
	switch {
	case confidenceLevel == "high" && precision > 0.3:
		tier = 1
	case confidenceLevel == "low" || precision < 0.15:
		tier = 3
	}

	return ISMScore{
		RunID:                runID,
		ProfileRichness:      richness,
		ProceduralQuality:    quality,
		MeasurementPrecision: precision,
		Penalty:              penalty,
		ISM:                  ism,
		Tier:                 tier,
	}
}

func proceduralQualityWeightedMean(p ProceduralScore) float64 {
	type weighted struct {
		value  float64
		weight float64
	}
	terms := []weighted{
		{p.InfoSeeking.Value, 1.2},
		{p.ReasoningDepth.Value, 1.2},
		{p.MoralSensitivity.Value, 1.2},
		{p.Calibration.Value, 1.0},
		{p.Consistency.Value, 1.0},
		{p.PrincipleDiversity.Value, 0.6},
	}
	var sum, weightSum float64
	for _, t := range terms {
		sum += t.value * t.weight
		weightSum += t.weight
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// gini computes the Gini coefficient of a slice of non-negative values.
func gini(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	var sumAbsDiff, sum float64
	for i, xi := range sorted {
		for _, xj := range sorted {
			sumAbsDiff += absF(xi - xj)
		}
		sum += sorted[i]
	}
	if sum == 0 {
		return 0
	}
	return sumAbsDiff / (2 * float64(n) * sum)
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
