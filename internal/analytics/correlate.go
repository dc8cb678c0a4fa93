// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package analytics turns stored stats and life events into reports,
// matchup projections and before/after significance tests.
package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinSamples is the fewest before and after scores Correlate accepts.
const MinSamples = 3

// SignificanceLevel is the p-value threshold for IsSignificant.
const SignificanceLevel = 0.05

// CorrelationResult is the outcome of comparing before and after scores.
type CorrelationResult struct {
	Coefficient   float64
	T             float64
	PValue        float64
	SampleSize    int
	MeanBefore    float64
	MeanAfter     float64
	IsSignificant bool
}

// Correlate runs a two-sample Student t-test with pooled variance on the
// before and after scores and, when both have the same length, their
// Pearson correlation. ok is false with fewer than MinSamples on either side.
func Correlate(before, after []float64) (res CorrelationResult, ok bool) {
	if len(before) < MinSamples || len(after) < MinSamples {
		return res, false
	}

	res.MeanBefore = stat.Mean(before, nil)
	res.MeanAfter = stat.Mean(after, nil)
	res.SampleSize = len(before) + len(after)
	res.T, res.PValue = StudentT(before, after)

	if len(before) == len(after) {
		r := stat.Correlation(before, after, nil)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			r = 0
		}
		res.Coefficient = r
	}
	res.IsSignificant = res.PValue < SignificanceLevel
	return res, true
}

// StudentT is the equal-variance two-sample t-test. A zero pooled variance
// yields p=1 when the means are equal and p=0 otherwise.
func StudentT(a, b []float64) (t, p float64) {
	n1, n2 := float64(len(a)), float64(len(b))
	m1, m2 := stat.Mean(a, nil), stat.Mean(b, nil)
	df := n1 + n2 - 2

	pooled := ((n1-1)*stat.Variance(a, nil) + (n2-1)*stat.Variance(b, nil)) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	if se == 0 || math.IsNaN(se) {
		if m1 == m2 {
			return 0, 1
		}
		return math.Copysign(math.Inf(1), m1-m2), 0
	}

	t = (m1 - m2) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * dist.Survival(math.Abs(t))
	if p > 1 {
		p = 1
	}
	return t, p
}
