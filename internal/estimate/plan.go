package estimate

import (
	"fmt"
	"math"
)

// TrafficFrequency describes the period an expected visitor volume covers.
type TrafficFrequency string

const (
	TrafficDaily   TrafficFrequency = "daily"
	TrafficWeekly  TrafficFrequency = "weekly"
	TrafficMonthly TrafficFrequency = "monthly"
)

// IsValid reports whether f is a recognised traffic frequency.
func (f TrafficFrequency) IsValid() bool {
	switch f {
	case TrafficDaily, TrafficWeekly, TrafficMonthly:
		return true
	}
	return false
}

// days returns the number of days the frequency period covers.
func (f TrafficFrequency) days() float64 {
	switch f {
	case TrafficWeekly:
		return 7
	case TrafficMonthly:
		return 30
	default:
		return 1
	}
}

// PlanRequest describes a full A/B(/n) test to be sized.
type PlanRequest struct {
	// BaselineRate is the control-group conversion rate in (0, 1).
	BaselineRate float64

	// MinimumEffect is the relative minimum detectable effect,
	// e.g. 0.05 for a 5% relative change.
	MinimumEffect float64

	// ConfidencePct is the confidence level in percent, e.g. 95.
	ConfidencePct float64

	// Variants is the number of test arms including control. Minimum 2.
	Variants int

	// TrafficVolume is the expected number of eligible visitors per
	// TrafficFrequency period.
	TrafficVolume float64

	// TrafficFrequency is the period TrafficVolume covers.
	// Defaults to daily when empty.
	TrafficFrequency TrafficFrequency
}

// PlanResult is the sized test plan.
type PlanResult struct {
	// SampleSizePerVariant is the required sample size for each variant,
	// after the multi-variant adjustment, rounded to three significant
	// figures by the core estimator before adjustment.
	SampleSizePerVariant float64 `json:"sample_size_per_variant"`

	// TotalSampleSize is SampleSizePerVariant across all variants.
	TotalSampleSize float64 `json:"total_sample_size"`

	// DurationDays is the estimated number of days the test must run given
	// the expected traffic, rounded up to whole days.
	DurationDays float64 `json:"duration_days"`

	// DurationWeeks and DurationMonths express DurationDays in coarser
	// units, rounded to one decimal place.
	DurationWeeks  float64 `json:"duration_weeks"`
	DurationMonths float64 `json:"duration_months"`
}

// Plan sizes a complete test: it runs the core estimator, applies a
// conservative multiplier when more than two variants share the traffic, and
// converts expected visitor volume into an estimated test duration.
//
// When the core estimator cannot produce a valid sample size, Plan returns
// [ErrNoEstimate] wrapped with context. Other input problems (too few
// variants, non-positive traffic) return plain validation errors.
func Plan(req PlanRequest) (PlanResult, error) {
	if req.Variants < 2 {
		return PlanResult{}, fmt.Errorf("estimate: plan requires at least 2 variants, got %d", req.Variants)
	}
	if req.TrafficVolume <= 0 {
		return PlanResult{}, fmt.Errorf("estimate: plan requires a positive traffic volume, got %g", req.TrafficVolume)
	}
	freq := req.TrafficFrequency
	if freq == "" {
		freq = TrafficDaily
	}
	if !freq.IsValid() {
		return PlanResult{}, fmt.Errorf("estimate: unknown traffic frequency %q", freq)
	}

	perVariant, err := SampleSize(req.BaselineRate, req.MinimumEffect, req.ConfidencePct)
	if err != nil {
		return PlanResult{}, fmt.Errorf("estimate: plan for baseline %g, effect %g: %w", req.BaselineRate, req.MinimumEffect, err)
	}

	// With more than two arms each pairwise comparison against control gets
	// harder; scale the per-variant requirement by variants/2 so the plan
	// stays conservative.
	if req.Variants > 2 {
		perVariant = perVariant * float64(req.Variants) / 2
	}

	total := perVariant * float64(req.Variants)

	dailyTraffic := req.TrafficVolume / freq.days()
	dailyPerVariant := dailyTraffic / float64(req.Variants)
	days := math.Ceil(perVariant / dailyPerVariant)

	return PlanResult{
		SampleSizePerVariant: perVariant,
		TotalSampleSize:      total,
		DurationDays:         days,
		DurationWeeks:        roundTenth(days / 7),
		DurationMonths:       roundTenth(days / 30),
	}, nil
}

// roundTenth rounds x to one decimal place.
func roundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}
