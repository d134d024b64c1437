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

// Package netcdftest writes small CDR-shaped NetCDF files for tests.
package netcdftest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
)

// Fixture describes a file with a single gridded data variable on a
// regular latitude/longitude grid.
type Fixture struct {
	// ID is written as the global id attribute unless it is empty.
	ID             string
	Title, Summary string

	Variable string
	// Units is written as the variable's units attribute unless it is nil.
	Units *string
	Fill  float32

	TimeUnits string
	Times     []float64

	// Lat and Lon are cell centres.
	Lat, Lon []float64
}

// OceanHeatContent returns a fixture shaped like the NCEI ocean heat
// content files: yearly values stamped at mid-year, in months since 1955,
// on a coarse global grid.
func OceanHeatContent(years int) Fixture {
	units := "10^18 joules"
	f := Fixture{
		Title:     "Ocean Heat Content anomalies from WOA09 : 0-2000m yearly",
		Summary:   "Yearly ocean heat content anomalies for the 0-2000 m layer",
		Variable:  "h18_hc",
		Units:     &units,
		Fill:      float32(math.NaN()),
		TimeUnits: "months since 1955-01-01 00:00:00",
		Lat:       []float64{-67.5, -22.5, 22.5, 67.5},
		Lon:       []float64{-157.5, -112.5, -67.5, -22.5, 22.5, 67.5, 112.5, 157.5},
	}
	for i := 0; i < years; i++ {
		f.Times = append(f.Times, float64(i*12)+6)
	}
	return f
}

// String returns a pointer to s, for Fixture.Units.
func String(s string) *string { return &s }

// Write writes f to dir/name and returns the path.
func Write(t testing.TB, dir, name string, f Fixture) string {
	t.Helper()
	path := filepath.Join(dir, name)
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{len(f.Times), len(f.Lat), len(f.Lon)})
	h.AddAttribute("", "title", f.Title)
	h.AddAttribute("", "summary", f.Summary)
	if f.ID != "" {
		h.AddAttribute("", "id", f.ID)
	}
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", f.TimeUnits)
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddVariable(f.Variable, []string{"time", "lat", "lon"}, []float32{0})
	if f.Units != nil {
		h.AddAttribute(f.Variable, "units", *f.Units)
	}
	h.AddAttribute(f.Variable, "_FillValue", []float32{f.Fill})
	h.Define()

	nc, err := cdf.Create(w, h)
	if err != nil {
		t.Fatal(err)
	}
	write := func(v string, data interface{}) {
		end := nc.Header.Lengths(v)
		if _, err := nc.Writer(v, make([]int, len(end)), nil).Write(data); err != nil {
			t.Fatalf("writing %s: %v", v, err)
		}
	}
	write("time", f.Times)
	write("lat", f.Lat)
	write("lon", f.Lon)
	data := make([]float32, len(f.Times)*len(f.Lat)*len(f.Lon))
	for i := range data {
		data[i] = float32(i)
	}
	if len(data) > 0 {
		data[0] = f.Fill
	}
	write(f.Variable, data)
	if err := cdf.UpdateNumRecs(w); err != nil {
		t.Fatal(err)
	}
	return path
}
