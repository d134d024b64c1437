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
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const ohcHref = "https://example.com/derived/heat_content_anomaly_0-2000_yearly.nc"

func TestExtractAttributes(t *testing.T) {
	ds := ohcDataset("h18_hc", "10^18 joules", yearly(2005, 3)...)
	opener := &fakeOpener{datasets: map[string]*fakeDataset{ohcHref: ds}}

	a, err := ExtractAttributes(context.Background(), opener, ohcHref, testFamily())
	if err != nil {
		t.Fatal(err)
	}
	if !ds.closed {
		t.Error("dataset was not closed")
	}
	if ds.sliced {
		t.Error("data were read")
	}
	if a.Stem != "heat_content_anomaly_0-2000_yearly" {
		t.Errorf("stem %s", a.Stem)
	}
	if a.Variable != "h18_hc" {
		t.Errorf("variable %s", a.Variable)
	}
	if a.Units == nil || *a.Units != "10^18 joules" {
		t.Errorf("units %v", a.Units)
	}
	if a.FillValue != 9.96921e+36 {
		t.Errorf("fill value %g", a.FillValue)
	}
	if a.Shape != [2]int{180, 360} {
		t.Errorf("shape %v", a.Shape)
	}
	if want := [6]float64{1, 0, -180, 0, -1, 90}; a.Transform != want {
		t.Errorf("transform %v != %v", a.Transform, want)
	}
	if !a.YAscending {
		t.Error("latitudes ascend")
	}
	if want := [4]float64{-180, -90, 180, 90}; a.Bounds() != want {
		t.Errorf("bounds %v != %v", a.Bounds(), want)
	}
	if a.EPSG != 4326 {
		t.Errorf("epsg %d", a.EPSG)
	}
	wantTimes := []string{"2005-07-01", "2006-07-01", "2007-07-01"}
	var gotTimes []string
	for _, tt := range a.Times {
		gotTimes = append(gotTimes, tt.Format("2006-01-02"))
	}
	if diff := cmp.Diff(wantTimes, gotTimes); diff != "" {
		t.Errorf("times (-want +got):\n%s", diff)
	}
}

func TestExtractAttributesUnitless(t *testing.T) {
	for _, units := range []string{"", "1", "unitless", "PSU", "dimensionless"} {
		ds := ohcDataset("s_mn", units, yearly(2005, 1)...)
		opener := &fakeOpener{datasets: map[string]*fakeDataset{ohcHref: ds}}
		a, err := ExtractAttributes(context.Background(), opener, ohcHref, testFamily())
		if err != nil {
			t.Fatal(err)
		}
		if a.Units != nil {
			t.Errorf("%q: units %q should be nil", units, *a.Units)
		}
	}
}

func TestExtractAttributesNoFill(t *testing.T) {
	ds := ohcDataset("h18_hc", "10^18 joules", yearly(2005, 1)...)
	delete(ds.attrs["h18_hc"], "_FillValue")
	opener := &fakeOpener{datasets: map[string]*fakeDataset{ohcHref: ds}}
	a, err := ExtractAttributes(context.Background(), opener, ohcHref, testFamily())
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(a.FillValue) {
		t.Errorf("fill value %g should be NaN", a.FillValue)
	}
}

func TestExtractAttributesErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *fakeDataset)
		href   string
		want   error
	}{
		{
			name:   "missing title",
			modify: func(d *fakeDataset) { delete(d.attrs[""], "title") },
			want:   ErrMissingAttribute,
		},
		{
			name:   "missing summary",
			modify: func(d *fakeDataset) { delete(d.attrs[""], "summary") },
			want:   ErrMissingAttribute,
		},
		{
			name:   "missing units",
			modify: func(d *fakeDataset) { delete(d.attrs["h18_hc"], "units") },
			want:   ErrMissingAttribute,
		},
		{
			name:   "missing time units",
			modify: func(d *fakeDataset) { delete(d.attrs["time"], "units") },
			want:   ErrMissingAttribute,
		},
		{
			name:   "bad time units",
			modify: func(d *fakeDataset) { d.attrs["time"]["units"] = "fortnights since 1955-01-01" },
			want:   ErrSourceUnreadable,
		},
		{
			name:   "no grid",
			modify: func(d *fakeDataset) { delete(d.values, "lat") },
			want:   ErrSourceUnreadable,
		},
		{
			name:   "no data variable",
			modify: func(d *fakeDataset) { d.dims["h18_hc"] = []string{"time", "lon", "lat"} },
			want:   ErrSourceUnreadable,
		},
		{
			name:   "unopenable",
			modify: func(d *fakeDataset) {},
			href:   "https://example.com/missing.nc",
			want:   ErrSourceUnreadable,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ds := ohcDataset("h18_hc", "10^18 joules", yearly(2005, 2)...)
			test.modify(ds)
			opener := &fakeOpener{datasets: map[string]*fakeDataset{ohcHref: ds}}
			href := test.href
			if href == "" {
				href = ohcHref
			}
			_, err := ExtractAttributes(context.Background(), opener, href, testFamily())
			if !errors.Is(err, test.want) {
				t.Fatalf("%v is not %v", err, test.want)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatal("not an *Error")
			}
			if e.Href != href {
				t.Errorf("href %s != %s", e.Href, href)
			}
			if e.Slug != "ocean-heat-content" {
				t.Errorf("slug %s", e.Slug)
			}
			if test.href == "" && !ds.closed {
				t.Error("dataset was not closed")
			}
		})
	}
}

func TestDataVariableOverride(t *testing.T) {
	reg := DefaultRegistry()
	seaIce, err := reg.Family("sea-ice-concentration")
	if err != nil {
		t.Fatal(err)
	}
	ds := &fakeDataset{
		dims: map[string][]string{
			"melt_onset_day_cdr_seaice_conc": {"time", "ygrid", "xgrid"},
			"cdr_seaice_conc":                {"time", "ygrid", "xgrid"},
		},
		vars: []string{"melt_onset_day_cdr_seaice_conc", "cdr_seaice_conc"},
	}
	v, err := dataVariable(ds, "seaice_conc_monthly_nh_f08_198708_v04r00", seaIce)
	if err != nil {
		t.Fatal(err)
	}
	if v != "cdr_seaice_conc" {
		t.Errorf("%s != cdr_seaice_conc", v)
	}
}

func TestSeaIceGrids(t *testing.T) {
	seaIce, err := DefaultRegistry().Family("sea-ice-concentration")
	if err != nil {
		t.Fatal(err)
	}
	const (
		south = "https://example.com/seaice/seaice_conc_monthly_sh_198708_f08_v04r00.nc"
		north = "https://example.com/seaice/seaice_conc_monthly_nh_198708_f08_v04r00.nc"
	)
	ds := seaIceDataset()
	b := NewBuilder(seaIce, &fakeOpener{datasets: map[string]*fakeDataset{south: ds, north: seaIceDataset()}}, nil)

	for _, test := range []struct {
		href string
		epsg int
		bbox []float64
	}{
		{south, 3412, []float64{-180, -90, 180, -39.23}},
		{north, 3411, []float64{-180, 30.98, 180, 90}},
	} {
		item, err := b.CreateNetCDFItem(context.Background(), test.href)
		if err != nil {
			t.Fatal(err)
		}
		if item.Properties.EPSG != test.epsg {
			t.Errorf("%s: epsg %d != %d", item.ID, item.Properties.EPSG, test.epsg)
		}
		if diff := cmp.Diff(test.bbox, item.BBox); diff != "" {
			t.Errorf("%s: bbox (-want +got):\n%s", item.ID, diff)
		}
		if item.Assets["netcdf"] == nil {
			t.Errorf("%s: assets %v", item.ID, item.Assets)
		}
	}

	// A grid mapping in the file takes precedence over the registry.
	ds.attrs["cdr_seaice_conc"]["grid_mapping"] = "crs"
	ds.attrs["crs"] = map[string]interface{}{"srid": "urn:ogc:def:crs:EPSG::3976"}
	a, err := ExtractAttributes(context.Background(), b.Opener, south, seaIce)
	if err != nil {
		t.Fatal(err)
	}
	if a.EPSG != 3976 {
		t.Errorf("epsg %d != 3976", a.EPSG)
	}
}
