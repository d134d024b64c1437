/*
Copyright © 2023 the noaacdr authors.
This file is part of noaacdr.

noaacdr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

noaacdr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with noaacdr.  If not, see <http://www.gnu.org/licenses/>.
*/

package noaacdr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Interval is the length of the period covered by one time slice.
type Interval string

// The intervals NOAA CDRs are published at.
const (
	Yearly   Interval = "yearly"
	Monthly  Interval = "monthly"
	Pentadal Interval = "pentadal"
	Seasonal Interval = "seasonal"
)

// Intervals lists the supported intervals.
var Intervals = []Interval{Yearly, Monthly, Pentadal, Seasonal}

// ParseInterval parses the name of an interval. "pentad" is accepted as
// a synonym for "pentadal".
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yearly", "annual":
		return Yearly, nil
	case "monthly":
		return Monthly, nil
	case "pentadal", "pentad":
		return Pentadal, nil
	case "seasonal":
		return Seasonal, nil
	}
	return "", fmt.Errorf("noaacdr: invalid interval %q; valid options are yearly, monthly, pentadal, seasonal", s)
}

// Threshold maps a typical spacing between time values, in days, to an
// interval. Spacings within Tolerance days of Days match.
type Threshold struct {
	Interval  Interval
	Days      float64
	Tolerance float64
}

// DefaultThresholds are used for interval inference when no other
// thresholds are configured. NCEI pentadal files are running means stamped
// yearly, so they are normally identified by file name.
var DefaultThresholds = []Threshold{
	{Interval: Yearly, Days: 365, Tolerance: 5},
	{Interval: Monthly, Days: 30, Tolerance: 3.5},
	{Interval: Pentadal, Days: 73, Tolerance: 10},
	{Interval: Seasonal, Days: 91, Tolerance: 5},
}

// ParseThresholds parses thresholds of the form
// "yearly=365:5,monthly=30:3.5".
func ParseThresholds(s string) ([]Threshold, error) {
	var o []Threshold
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("noaacdr: invalid threshold %q", part)
		}
		iv, err := ParseInterval(kv[0])
		if err != nil {
			return nil, err
		}
		dt := strings.SplitN(kv[1], ":", 2)
		if len(dt) != 2 {
			return nil, fmt.Errorf("noaacdr: threshold %q must be of the form days:tolerance", part)
		}
		days, err := strconv.ParseFloat(strings.TrimSpace(dt[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("noaacdr: threshold %q: %v", part, err)
		}
		tol, err := strconv.ParseFloat(strings.TrimSpace(dt[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("noaacdr: threshold %q: %v", part, err)
		}
		o = append(o, Threshold{Interval: iv, Days: days, Tolerance: tol})
	}
	return o, nil
}

// intervalFromName returns the interval named by the suffix of a file
// stem, as in "heat_content_anomaly_0-700_seasonal".
func intervalFromName(stem string) (Interval, bool) {
	i := strings.LastIndex(stem, "_")
	if i < 0 {
		return "", false
	}
	switch stem[i+1:] {
	case "yearly":
		return Yearly, true
	case "monthly":
		return Monthly, true
	case "pentad", "pentadal":
		return Pentadal, true
	case "seasonal":
		return Seasonal, true
	}
	return "", false
}

// trimInterval removes an interval suffix from stem.
func trimInterval(stem string) string {
	if _, ok := intervalFromName(stem); ok {
		return stem[:strings.LastIndex(stem, "_")]
	}
	return stem
}

// inferInterval matches the median spacing of times against thresholds.
// ok is false when there are fewer than two times or no threshold
// matches.
func inferInterval(times []time.Time, thresholds []Threshold) (iv Interval, spacing float64, ok bool) {
	if len(times) < 2 {
		return "", math.NaN(), false
	}
	d := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		d[i-1] = times[i].Sub(times[i-1]).Hours() / 24
	}
	spacing = median(d)
	best := math.Inf(1)
	for _, t := range thresholds {
		dist := math.Abs(spacing - t.Days)
		if dist <= t.Tolerance && dist < best {
			iv, best, ok = t.Interval, dist, true
		}
	}
	return iv, spacing, ok
}

// median returns the empirical median of x, which is the lower of the two
// middle values when len(x) is even.
func median(x []float64) float64 {
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	return stat.Quantile(0.5, stat.Empirical, s, nil)
}

// period returns the first and last second of the interval period that
// contains t.
func (iv Interval) period(t time.Time) (start, end time.Time) {
	t = t.UTC()
	y, m := t.Year(), t.Month()
	switch iv {
	case Monthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	case Seasonal:
		q := (int(m) - 1) / 3
		start = time.Date(y, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 3, 0)
	case Pentadal:
		start = time.Date(y-2, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(5, 0, 0)
	default:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)
	}
	return start, end.Add(-time.Second)
}
