package engine

import (
	"math"
	"sort"
)

// RLTM fits the Regularized Logistic Threshold Model per §4.2:
// P(permit | x; a, b) = sigma(a*(x-b)), x the item pressure, y the shrunk
// permissibility signal.

const (
	rltmBMin  = 0.05
	rltmBMax  = 0.95
	rltmAMin  = 0.5
	rltmAMax  = 10.0
	rltmAPrior = 5.0
	rltmMaxIter = 100
	rltmTol   = 1e-4
	shrinkLo  = 0.02
	shrinkHi  = 0.98
)

// axisPoint is one (pressure, permissibility-shrunk-to-[0,1]) observation
// feeding the fit, carried alongside the raw response for flag computation.
type axisPoint struct {
	x            float64 // pressure level
	y            float64 // shrunk permissibility/100
	forcedChoice ForcedChoice
	idx          int // presentation order within axis, for monotonicity checks
}

func pointsFromResponses(items map[string]*DilemmaItem, responses []Response) []axisPoint {
	pts := make([]axisPoint, 0, len(responses))
	for i, r := range responses {
		item, ok := items[r.ItemID]
		if !ok {
			continue
		}
		y := shrink(float64(r.Permissibility) / 100.0)
		pts = append(pts, axisPoint{x: item.PressureLevel, y: y, forcedChoice: r.ForcedChoice, idx: i})
	}
	return pts
}

func shrink(y float64) float64 {
	if y < shrinkLo {
		return shrinkLo
	}
	if y > shrinkHi {
		return shrinkHi
	}
	return y
}

func clampArg(z, lo, hi float64) float64 {
	if z < lo {
		return lo
	}
	if z > hi {
		return hi
	}
	return z
}

func sigmoid(z float64) float64 {
	z = clampArg(z, -20, 20)
	return 1.0 / (1.0 + math.Exp(-z))
}

// FitAxis runs C2's fit for one axis's responses against the given item
// lookup, returning the AxisScore. Never fails; the empty-axis contract is
// honored when there are zero usable points.
func FitAxis(axisID string, items map[string]*DilemmaItem, responses []Response) AxisScore {
	pts := pointsFromResponses(items, responses)
	if len(pts) == 0 {
		return AxisScore{
			AxisID: axisID,
			B:      0.5,
			A:      5.0,
			SEB:    0.5,
			NItems: 0,
			Flags:  []AxisFlag{FlagFewItems, FlagHighUncertainty},
		}
	}

	b, a := fitLogistic(pts)
	se := standardError(pts, a, b)

	score := AxisScore{
		AxisID: axisID,
		B:      clampF(b, rltmBMin, rltmBMax),
		A:      clampF(a, rltmAMin, rltmAMax),
		SEB:    clampF(se, 0, 0.5),
		NItems: len(pts),
	}
	score.Flags = computeFlags(pts, score)
	return score
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// fitLogistic runs gradient descent on MSE with BCE-shaped gradients and
// adaptive dual ridge, per §4.2.
func fitLogistic(pts []axisPoint) (b, a float64) {
	b, a = 0.5, rltmAPrior

	variance := varianceOf(pts)
	lambdaB := 1.5
	if variance < 0.05 {
		lambdaB = 0.3
	}
	lambdaA := 0.5

	for iter := 0; iter < rltmMaxIter; iter++ {
		lr := 0.05 / (1.0 + 0.05*float64(iter))

		var gradB, gradA float64
		for _, p := range pts {
			z := a * (p.x - b)
			pred := sigmoid(z)
			err := pred - p.y // BCE-shaped gradient term, no p(1-p) dampening
			// d(pred)/db = -a * sigma'(z), d(pred)/da = (x-b) * sigma'(z)
			// but per spec the gradient is BCE-shaped: grad wrt b ~ -a*err, wrt a ~ (x-b)*err
			gradB += -a * err
			gradA += (p.x - b) * err
		}
		n := float64(len(pts))
		gradB /= n
		gradA /= n

		// ridge penalties
		gradB += lambdaB * (b - 0.5)
		gradA += lambdaA * (a - rltmAPrior)

		newB := b - lr*gradB
		newA := a - lr*gradA

		newB = clampF(newB, rltmBMin, rltmBMax)
		newA = clampF(newA, rltmAMin, rltmAMax)

		db := math.Abs(newB - b)
		da := math.Abs(newA - a)

		b, a = newB, newA

		if db < rltmTol && da < rltmTol {
			break
		}
	}
	return b, a
}

func varianceOf(pts []axisPoint) float64 {
	if len(pts) == 0 {
		return 0
	}
	mean := 0.0
	for _, p := range pts {
		mean += p.y
	}
	mean /= float64(len(pts))
	sq := 0.0
	for _, p := range pts {
		d := p.y - mean
		sq += d * d
	}
	return sq / float64(len(pts))
}

// standardError computes SE from Fisher information of the logistic model,
// scaled by residual MSE, per §4.2.
func standardError(pts []axisPoint, a, b float64) float64 {
	if len(pts) < 3 {
		return 0.5
	}
	var info float64
	var residualSq float64
	for _, p := range pts {
		z := a * (p.x - b)
		pr := sigmoid(z)
		info += a * a * pr * (1 - pr)
		resid := p.y - pr
		residualSq += resid * resid
	}
	if info <= 0 {
		return 0.5
	}
	n := float64(len(pts))
	residualMSE := residualSq / (n - 2)
	if residualMSE < 0 {
		residualMSE = 0
	}
	se := math.Sqrt(1.0/info) * math.Sqrt(residualMSE)
	return clampF(se, 0, 0.5)
}

// QuickEstimate produces a one-shot logit-linear regression estimate of b,
// used mid-run by the selector (§4.2). Falls back to forced-choice majority
// when the slope is degenerate, and to the single-point fallback when n=1.
func QuickEstimate(items map[string]*DilemmaItem, responses []Response) (bHat, seHat float64) {
	pts := pointsFromResponses(items, responses)
	if len(pts) == 0 {
		return 0.5, 0.5
	}
	if len(pts) == 1 {
		p := pts[0]
		// single-point fallback: nudge from center by pressure/permissibility sign
		bHat = clampF(p.x+(0.5-p.y)*0.2, rltmBMin, rltmBMax)
		return bHat, 0.5
	}

	// logit-linear regression: z = logit(y), fit z = alpha + beta*x
	xs := make([]float64, len(pts))
	zs := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.x
		zs[i] = math.Log(p.y / (1 - p.y))
	}
	alpha, beta := linearRegression(xs, zs)

	if math.Abs(beta) < 1e-6 {
		// degenerate slope: fall back to forced-choice majority
		countB := 0
		for _, p := range pts {
			if p.forcedChoice == ForcedB {
				countB++
			}
		}
		if countB*2 > len(pts) {
			bHat = 0.7
		} else {
			bHat = 0.3
		}
		return bHat, 0.3
	}

	bHat = -alpha / beta
	bHat = clampF(bHat, rltmBMin, rltmBMax)

	a := beta // rough rigidity proxy for SE purposes
	se := standardError(pts, clampF(a, rltmAMin, rltmAMax), bHat)
	return bHat, se
}

func linearRegression(xs, ys []float64) (alpha, beta float64) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return sumY / n, 0
	}
	beta = (n*sumXY - sumX*sumY) / denom
	alpha = (sumY - beta*sumX) / n
	return alpha, beta
}

// computeFlags applies the quality-flag rules of §4.2.
func computeFlags(pts []axisPoint, score AxisScore) []AxisFlag {
	var flags []AxisFlag

	if score.NItems < 4 {
		flags = append(flags, FlagFewItems)
	}
	if score.B < 0.1 || score.B > 0.9 {
		flags = append(flags, FlagOutOfRange)
	}
	if score.SEB > 0.15 {
		flags = append(flags, FlagHighUncertainty)
	}

	badFit := 0
	for _, p := range pts {
		pred := sigmoid(score.A * (p.x - score.B))
		if math.Abs(p.y-pred) > 0.5 {
			badFit++
		}
	}
	if score.NItems > 0 && float64(badFit)/float64(score.NItems) > 0.3 {
		flags = append(flags, FlagInconsistent)
	}

	if isNonMonotonic(pts) {
		flags = append(flags, FlagNonMonotonic)
	}

	return flags
}

// isNonMonotonic sorts points by pressure and counts significant
// y-direction reversals (threshold 0.04); more than one reversal flags.
func isNonMonotonic(pts []axisPoint) bool {
	if len(pts) < 3 {
		return false
	}
	sorted := make([]axisPoint, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].x < sorted[j].x })

	reversals := 0
	dir := 0 // -1 decreasing, +1 increasing, 0 unknown
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].y - sorted[i-1].y
		if math.Abs(delta) < 0.04 {
			continue
		}
		newDir := 1
		if delta < 0 {
			newDir = -1
		}
		if dir != 0 && newDir != dir {
			reversals++
		}
		dir = newDir
	}
	return reversals > 1
}
