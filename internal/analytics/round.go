// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package analytics

import (
	"strconv"
	"time"
)

// Round rounds the exact binary value of x to places decimals, ties to even.
// Round(0.25, 1) is 0.2 and Round(2.675, 2) is 2.67 because 2.675 is stored
// just below the tie.
func Round(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// daysBetween is the signed calendar-day difference a-b.
func daysBetween(a, b time.Time) int {
	return int(dateOf(a).Sub(dateOf(b)).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
