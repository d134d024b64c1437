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
	"testing"
	"time"
)

func TestSplitYearBoundaries(t *testing.T) {
	for _, test := range []struct {
		stem  string
		times []time.Time
		iv    Interval
	}{
		{"heat_content_anomaly_0-700_yearly", []time.Time{date(1955, 7, 1), date(1956, 7, 1), date(1957, 7, 1)}, Yearly},
		{"heat_content_anomaly_0-2000_pentad", []time.Time{date(1957, 7, 1), date(1958, 7, 1)}, Pentadal},
	} {
		a := &RawAttributes{Href: test.stem + ".nc", Stem: test.stem, Times: test.times}
		slices, err := Split(a, DefaultSplitOptions())
		if err != nil {
			t.Fatal(err)
		}
		if len(slices) != len(test.times) {
			t.Fatalf("%d slices != %d", len(slices), len(test.times))
		}
		for i, s := range slices {
			if s.Interval != test.iv {
				t.Errorf("interval %v != %v", s.Interval, test.iv)
			}
			if s.Index != i {
				t.Errorf("index %d != %d", s.Index, i)
			}
			y := s.Start.Year()
			if !s.Start.Equal(date(y, 1, 1)) {
				t.Errorf("start %v is not the start of a year", s.Start)
			}
			if !s.End.Equal(endOfDay(s.End.Year(), 12, 31)) {
				t.Errorf("end %v is not the end of a year", s.End)
			}
			if s.Start.After(test.times[i]) || s.End.Before(test.times[i]) {
				t.Errorf("slice %v–%v does not contain %v", s.Start, s.End, test.times[i])
			}
		}
	}
}

func TestSplitMonthlyAndSeasonal(t *testing.T) {
	a := &RawAttributes{
		Href:  "heat_content_anomaly_0-2000_monthly.nc",
		Stem:  "heat_content_anomaly_0-2000_monthly",
		Times: []time.Time{date(2005, 1, 16), date(2005, 2, 15), date(2005, 3, 16)},
	}
	slices, err := Split(a, DefaultSplitOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := slices[1]; !got.Start.Equal(date(2005, 2, 1)) || !got.End.Equal(endOfDay(2005, 2, 28)) {
		t.Errorf("february slice %v–%v", got.Start, got.End)
	}

	a.Stem = "heat_content_anomaly_0-2000_seasonal"
	a.Times = []time.Time{date(2005, 2, 15), date(2005, 5, 15)}
	slices, err = Split(a, DefaultSplitOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := slices[1]; !got.Start.Equal(date(2005, 4, 1)) || !got.End.Equal(endOfDay(2005, 6, 30)) {
		t.Errorf("second quarter slice %v–%v", got.Start, got.End)
	}
}

func TestSplitLatestOnly(t *testing.T) {
	a := &RawAttributes{
		Href:  "heat_content_anomaly_0-700_yearly.nc",
		Stem:  "heat_content_anomaly_0-700_yearly",
		Times: []time.Time{date(1955, 7, 1), date(1957, 7, 1), date(1956, 7, 1)},
	}
	all, err := Split(a, DefaultSplitOptions())
	if err != nil {
		t.Fatal(err)
	}
	o := DefaultSplitOptions()
	o.LatestOnly = true
	latest, err := Split(a, o)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 1 {
		t.Fatalf("%d slices", len(latest))
	}
	if latest[0] != all[len(all)-1] {
		t.Errorf("%+v != %+v", latest[0], all[len(all)-1])
	}
	if latest[0].Start.Year() != 1957 || latest[0].Index != 1 {
		t.Errorf("latest slice %+v", latest[0])
	}
}

func TestTimeSliceNames(t *testing.T) {
	s := TimeSlice{Interval: Yearly, Start: date(2005, 1, 1), Stem: "heat_content_anomaly_0-2000_yearly"}
	if id := s.ID("ocean-heat-content"); id != "ocean-heat-content-yearly-2005-01-01" {
		t.Errorf("id %s", id)
	}
	if n := s.COGName(); n != "heat_content_anomaly_0-2000_yearly_2005-01-01.tif" {
		t.Errorf("cog name %s", n)
	}
	if b := baseName("s3://bucket/cogs/x_2005-01-01.tif?versionId=3"); b != "x_2005-01-01.tif" {
		t.Errorf("base name %s", b)
	}
}
