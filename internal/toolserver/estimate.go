package toolserver

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uplift-labs/uplift/internal/estimate"
)

// msgNoEstimate is the user-facing message for inputs with no valid sample
// size. Callers display it verbatim, so keep it stable.
const msgNoEstimate = "A sample size could not be estimated for these inputs. " +
	"Check that the baseline conversion rate is between 0 and 1 and the minimum detectable effect is not zero."

// EstimateInput is the estimate_sample_size tool input.
type EstimateInput struct {
	// BaselineRate is the control-group conversion rate in (0, 1).
	BaselineRate float64 `json:"baseline_conversion_rate"`

	// MinimumEffect is the relative minimum detectable effect, e.g. 0.05
	// for a 5% relative change.
	MinimumEffect float64 `json:"minimum_detectable_effect"`

	// ConfidencePct is the confidence level in percent. Default: 95.
	ConfidencePct float64 `json:"confidence,omitempty"`

	// Variants is the number of test arms including control. Default: 2.
	Variants int `json:"variants,omitempty"`

	// TrafficVolume is the expected number of eligible visitors per
	// TrafficFrequency period. When zero, no duration is estimated.
	TrafficVolume float64 `json:"traffic_volume,omitempty"`

	// TrafficFrequency is daily, weekly, or monthly. Default: daily.
	TrafficFrequency string `json:"traffic_frequency,omitempty"`
}

// EstimateOutput is the estimate_sample_size tool output.
type EstimateOutput struct {
	SampleSizePerVariant float64 `json:"sample_size_per_variant"`
	TotalSampleSize      float64 `json:"total_sample_size"`
	DurationDays         float64 `json:"duration_days,omitempty"`
	DurationWeeks        float64 `json:"duration_weeks,omitempty"`
	DurationMonths       float64 `json:"duration_months,omitempty"`
}

func (s *Server) estimateSampleSize(ctx context.Context, req *mcp.CallToolRequest, in EstimateInput) (res *mcp.CallToolResult, out EstimateOutput, err error) {
	defer s.observeTool(ctx, "estimate_sample_size", time.Now(), &err)

	confidence := in.ConfidencePct
	if confidence == 0 {
		confidence = 95
	}
	variants := in.Variants
	if variants == 0 {
		variants = 2
	}

	// Without traffic figures only the sample size itself is computable.
	if in.TrafficVolume == 0 {
		perVariant, serr := estimate.SampleSize(in.BaselineRate, in.MinimumEffect, confidence)
		if serr != nil {
			s.metrics.RecordEstimate(ctx, "no_estimate")
			err = errors.New(msgNoEstimate)
			return nil, EstimateOutput{}, err
		}
		if variants > 2 {
			perVariant = perVariant * float64(variants) / 2
		}
		s.metrics.RecordEstimate(ctx, "ok")
		return nil, EstimateOutput{
			SampleSizePerVariant: perVariant,
			TotalSampleSize:      perVariant * float64(variants),
		}, nil
	}

	plan, perr := estimate.Plan(estimate.PlanRequest{
		BaselineRate:     in.BaselineRate,
		MinimumEffect:    in.MinimumEffect,
		ConfidencePct:    confidence,
		Variants:         variants,
		TrafficVolume:    in.TrafficVolume,
		TrafficFrequency: estimate.TrafficFrequency(in.TrafficFrequency),
	})
	if perr != nil {
		if errors.Is(perr, estimate.ErrNoEstimate) {
			s.metrics.RecordEstimate(ctx, "no_estimate")
			err = errors.New(msgNoEstimate)
		} else {
			s.metrics.RecordEstimate(ctx, "invalid")
			err = perr
		}
		return nil, EstimateOutput{}, err
	}

	s.metrics.RecordEstimate(ctx, "ok")
	return nil, EstimateOutput{
		SampleSizePerVariant: plan.SampleSizePerVariant,
		TotalSampleSize:      plan.TotalSampleSize,
		DurationDays:         plan.DurationDays,
		DurationWeeks:        plan.DurationWeeks,
		DurationMonths:       plan.DurationMonths,
	}, nil
}
