// Package estimate computes minimum sample sizes for A/B tests on binary
// (conversion) metrics using a variance-based closed-form approximation.
//
// The core entry point is [SampleSize], which takes a baseline conversion
// rate, a relative minimum detectable effect, and a confidence level in
// percent, and returns the required sample size per variant rounded to three
// significant figures. Degenerate inputs (zero effect, baseline outside the
// open unit interval) yield [ErrNoEstimate] rather than a panic or a silently
// wrong number.
//
// [Plan] layers test-planning arithmetic on top of the core: variant
// multipliers, total sample size, and an estimated test duration derived from
// expected visitor traffic.
//
// All functions in this package are pure. Identical inputs always produce
// identical outputs, so results are safe to feed into business decisions
// about test duration and safe to call from any number of goroutines.
package estimate

import (
	"errors"
	"math"
)

// ErrNoEstimate is returned when no valid sample size exists for the given
// inputs: a zero effect size, a baseline rate outside (0, 1), or any other
// combination whose arithmetic degenerates to a non-finite or negative value.
var ErrNoEstimate = errors.New("estimate: no valid sample size for the given inputs")

// sigFigs is the number of significant figures reported sample sizes keep.
const sigFigs = 3

// SampleSize returns the minimum number of subjects needed per variant to
// detect a relative change of relativeEffect in a baseline conversion rate at
// the given confidence, rounded to three significant figures.
//
// baseline is the control-group conversion rate and must lie in (0, 1).
// relativeEffect is the smallest relative lift or drop worth detecting,
// e.g. 0.05 for a 5% relative change; its sign carries direction and must be
// nonzero. confidencePct is the confidence level in percent, e.g. 95.
//
// The estimate considers the comparison arm shifting both down and up by the
// absolute effect. Because Bernoulli variance is not symmetric around the
// baseline the two directions yield different sample sizes; the larger of the
// two is returned so that the test is never under-sized.
//
// Degenerate inputs return [ErrNoEstimate]. The function never panics for
// any real-valued arguments.
func SampleSize(baseline, relativeEffect, confidencePct float64) (float64, error) {
	absoluteEffect := baseline * relativeEffect
	theta := math.Abs(absoluteEffect)
	factor := confidencePct / 100

	down := baseline - absoluteEffect
	up := baseline + absoluteEffect

	variance1 := baseline*(1-baseline) + down*(1-down)
	variance2 := baseline*(1-baseline) + up*(1-up)

	candidate1 := candidateSize(variance1, theta, factor)
	candidate2 := candidateSize(variance2, theta, factor)

	// math.Max propagates NaN, so a degenerate candidate (negative variance)
	// poisons the selection even when its sibling is finite.
	selected := math.Max(math.Abs(candidate1), math.Abs(candidate2))

	if math.IsNaN(selected) || math.IsInf(selected, 0) || selected < 0 {
		return 0, ErrNoEstimate
	}
	return RoundSig(selected), nil
}

// candidateSize computes one closed-form sample-size candidate for a Bernoulli
// proportion difference test with the given summed variance v and absolute
// detectable difference theta.
func candidateSize(v, theta, factor float64) float64 {
	return (2 * factor * v * math.Log(1+math.Sqrt(v)/theta)) / (theta * theta)
}

// RoundSig rounds a positive value to three significant figures using the
// two-stage procedure the estimator's consumers depend on: round to a whole
// number first, rescale by a power of ten so exactly three significant digits
// remain, then round again.
//
// Inputs that round to zero or below are returned unchanged; the validation
// in [SampleSize] excludes them before rounding, and evaluating log10 there
// would be undefined.
func RoundSig(x float64) float64 {
	s := math.Round(x)
	if s <= 0 {
		return s
	}
	t := math.Pow(10, float64(sigFigs)-math.Floor(math.Log10(s))-1)
	return math.Round(math.Round(s*t) / t)
}
