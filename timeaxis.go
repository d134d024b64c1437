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
	"strings"
	"time"
)

// timeUnit is the step of a CF "<unit> since <epoch>" time axis.
type timeUnit int

const (
	unitSeconds timeUnit = iota
	unitMinutes
	unitHours
	unitDays
	unitMonths
	unitYears
)

var timeUnitNames = map[string]timeUnit{
	"s": unitSeconds, "sec": unitSeconds, "secs": unitSeconds, "second": unitSeconds, "seconds": unitSeconds,
	"min": unitMinutes, "mins": unitMinutes, "minute": unitMinutes, "minutes": unitMinutes,
	"h": unitHours, "hr": unitHours, "hrs": unitHours, "hour": unitHours, "hours": unitHours,
	"d": unitDays, "day": unitDays, "days": unitDays,
	"month": unitMonths, "months": unitMonths,
	"yr": unitYears, "year": unitYears, "years": unitYears,
}

var epochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2 15:04:05",
	"2006-1-2 15:4:5",
	"2006-1-2",
}

// unitLength is the length in seconds of each fixed-length unit.
var unitLength = map[timeUnit]float64{
	unitSeconds: 1,
	unitMinutes: 60,
	unitHours:   3600,
	unitDays:    86400,
}

// maxOffsetSeconds bounds offsets to about 100,000 years so that whole
// seconds stay exact in a float64.
const maxOffsetSeconds = 100000 * 366 * 86400

// timeAxis decodes the numeric offsets of a CF time variable.
type timeAxis struct {
	unit  timeUnit
	epoch time.Time
}

// parseTimeUnits parses a units attribute such as
// "months since 1955-01-01 00:00:00".
func parseTimeUnits(units string) (timeAxis, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return timeAxis{}, fmt.Errorf("time units %q are not of the form '<unit> since <epoch>'", units)
	}
	u, ok := timeUnitNames[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return timeAxis{}, fmt.Errorf("unsupported time unit %q", parts[0])
	}
	ref := strings.TrimSpace(parts[1])
	ref = strings.TrimSuffix(ref, " UTC")
	ref = strings.TrimSuffix(ref, "Z")
	ref = strings.TrimSuffix(ref, ".0")
	for _, layout := range epochLayouts {
		if t, err := time.ParseInLocation(layout, ref, time.UTC); err == nil {
			return timeAxis{unit: u, epoch: t}, nil
		}
	}
	return timeAxis{}, fmt.Errorf("unsupported time epoch %q", parts[1])
}

// decode converts offset v to an instant, rounded to the second.
// Offsets are added as whole seconds so that axes with distant epochs
// such as "days since 1601-01-01" decode without overflow.
func (a timeAxis) decode(v float64) (time.Time, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, fmt.Errorf("invalid time value %g", v)
	}
	var t time.Time
	switch a.unit {
	case unitSeconds, unitMinutes, unitHours, unitDays:
		secs := v * unitLength[a.unit]
		if math.Abs(secs) > maxOffsetSeconds {
			return time.Time{}, fmt.Errorf("time value %g is out of range", v)
		}
		whole := math.Floor(secs)
		nanos := math.Round((secs - whole) * 1e9)
		t = time.Unix(a.epoch.Unix()+int64(whole), int64(nanos))
	case unitMonths, unitYears:
		if math.Abs(v) > maxOffsetSeconds/(366*86400) {
			return time.Time{}, fmt.Errorf("time value %g is out of range", v)
		}
		whole := math.Floor(v)
		frac := v - whole
		step := func(n int) time.Time {
			if a.unit == unitMonths {
				return a.epoch.AddDate(0, n, 0)
			}
			return a.epoch.AddDate(n, 0, 0)
		}
		t0, t1 := step(int(whole)), step(int(whole)+1)
		t = t0.Add(time.Duration(frac * float64(t1.Sub(t0))))
	}
	return t.Round(time.Second).UTC(), nil
}
