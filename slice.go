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
	"path"
	"sort"
	"strings"
	"time"
)

// TimeSlice is one output granule of a source file.
type TimeSlice struct {
	Interval Interval
	// Start and End are the first and last second of the period.
	Start time.Time
	End   time.Time

	Source string
	Stem   string
	// Index is the position of the slice on the source time axis.
	Index int
}

// ID returns the item id of the slice within the given family.
func (s TimeSlice) ID(slug string) string {
	return fmt.Sprintf("%s-%s-%s", slug, s.Interval, s.Start.Format("2006-01-02"))
}

// COGName returns the file name of the raster converted from the slice.
func (s TimeSlice) COGName() string {
	return fmt.Sprintf("%s_%s.tif", s.Stem, s.Start.Format("2006-01-02"))
}

// SplitOptions control how a time axis is split into slices.
type SplitOptions struct {
	// Interval, if set, is used instead of the file name or inference.
	Interval Interval

	// Thresholds are used for inference. DefaultThresholds are used when
	// nil.
	Thresholds []Threshold

	// Fallback is used when the interval cannot be inferred. When empty,
	// inference failure is an error.
	Fallback Interval

	// LatestOnly keeps only the last slice.
	LatestOnly bool
}

// DefaultSplitOptions returns options that infer the interval with
// DefaultThresholds and fall back to yearly.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{Thresholds: DefaultThresholds, Fallback: Yearly}
}

// ResolveInterval determines the interval of the file described by a.
func (o SplitOptions) ResolveInterval(a *RawAttributes) (Interval, error) {
	if o.Interval != "" {
		return o.Interval, nil
	}
	if iv, ok := intervalFromName(a.Stem); ok {
		return iv, nil
	}
	thresholds := o.Thresholds
	if thresholds == nil {
		thresholds = DefaultThresholds
	}
	iv, spacing, ok := inferInterval(a.Times, thresholds)
	if ok {
		return iv, nil
	}
	if o.Fallback != "" {
		return o.Fallback, nil
	}
	return "", newError(UnsupportedInterval, a.Href, "median time spacing of %.2f days matches no interval", spacing)
}

// Split enumerates the time slices of a, in chronological order.
func Split(a *RawAttributes, o SplitOptions) ([]TimeSlice, error) {
	iv, err := o.ResolveInterval(a)
	if err != nil {
		return nil, err
	}
	slices := make([]TimeSlice, len(a.Times))
	for i, t := range a.Times {
		start, end := iv.period(t)
		slices[i] = TimeSlice{
			Interval: iv,
			Start:    start,
			End:      end,
			Source:   a.Href,
			Stem:     a.Stem,
			Index:    i,
		}
	}
	sortSlices(slices)
	if o.LatestOnly && len(slices) > 0 {
		slices = slices[len(slices)-1:]
	}
	return slices, nil
}

// sortSlices orders slices by start, keeping the file order of equal
// starts.
func sortSlices(s []TimeSlice) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Start.Before(s[j].Start) })
}

// assetKey is the name of the asset that holds the data of a source file
// in an item.
func assetKey(stem string) string { return trimInterval(stem) }

// baseName returns the last element of a path or URL.
func baseName(href string) string {
	href = strings.ReplaceAll(href, "\\", "/")
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return path.Base(href)
}
