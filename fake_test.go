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
	"fmt"
	"sync"
)

// fakeDataset is an in-memory Dataset.
type fakeDataset struct {
	attrs  map[string]map[string]interface{}
	dims   map[string][]string
	vars   []string
	values map[string][]float64
	dtype  string

	closed bool
	sliced bool
}

func (d *fakeDataset) Attribute(variable, name string) (interface{}, bool) {
	v, ok := d.attrs[variable][name]
	return v, ok
}
func (d *fakeDataset) Variables() []string { return d.vars }
func (d *fakeDataset) Dimensions(v string) []string { return d.dims[v] }
func (d *fakeDataset) DataType(v string) string { return d.dtype }
func (d *fakeDataset) Close() error { d.closed = true; return nil }
func (d *fakeDataset) Values(v string) ([]float64, error) {
	x, ok := d.values[v]
	if !ok {
		return nil, fmt.Errorf("no variable %s", v)
	}
	return x, nil
}
func (d *fakeDataset) Slice(v string, i int) ([]float32, []int, error) {
	d.sliced = true
	return nil, nil, fmt.Errorf("not implemented")
}

func axis(first, step float64, n int) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = first + step*float64(i)
	}
	return o
}

// ohcDataset returns a dataset shaped like an ocean heat content file on
// the 1° global grid with the given time offsets in months since 1955.
func ohcDataset(variable string, units interface{}, times ...float64) *fakeDataset {
	d := &fakeDataset{
		attrs: map[string]map[string]interface{}{
			"": {
				"title":   "Ocean Heat Content anomalies from WOA09",
				"summary": "Ocean heat content anomalies",
			},
			variable: {"_FillValue": 9.96921e+36},
			"time":   {"units": "months since 1955-01-01 00:00:00"},
		},
		dims: map[string][]string{
			"time":   {"time"},
			"lat":    {"lat"},
			"lon":    {"lon"},
			"depth":  {"depth"},
			variable: {"time", "depth", "lat", "lon"},
		},
		vars: []string{"time", "depth", "lat", "lon", variable},
		values: map[string][]float64{
			"lat":   axis(-89.5, 1, 180),
			"lon":   axis(-179.5, 1, 360),
			"time":  times,
			"depth": {0},
		},
		dtype: "float32",
	}
	if units != nil {
		d.attrs[variable]["units"] = units
	}
	return d
}

// yearly returns offsets in months since 1955 for mid-year stamps of n
// years starting at year0.
func yearly(year0, n int) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = float64((year0-1955+i)*12) + 6
	}
	return o
}

// fakeOpener serves fake datasets by href.
type fakeOpener struct {
	mu       sync.Mutex
	datasets map[string]*fakeDataset
	opens    int
}

func (o *fakeOpener) Open(ctx context.Context, href string) (Dataset, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	d, ok := o.datasets[href]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", href)
	}
	d.closed = false
	return d, nil
}

// fakeConverter records jobs and returns one asset per slice.
type fakeConverter struct {
	jobs []ConversionJob
}

func (c *fakeConverter) Convert(ctx context.Context, job ConversionJob) ([]Asset, error) {
	c.jobs = append(c.jobs, job)
	o := make([]Asset, len(job.Slices))
	for i, s := range job.Slices {
		o[i] = COGAsset(job.OutputDirectory+"/"+s.COGName(), job.Attributes)
	}
	return o, nil
}

func testFamily() *DatasetFamily {
	f, err := DefaultRegistry().Family("ocean-heat-content")
	if err != nil {
		panic(err)
	}
	return f
}

// seaIceDataset returns a dataset shaped like a monthly sea ice
// concentration file on a 25 km polar stereographic grid.
func seaIceDataset() *fakeDataset {
	return &fakeDataset{
		attrs: map[string]map[string]interface{}{
			"": {
				"title":   "NOAA/NSIDC Climate Data Record of Passive Microwave Monthly Southern Hemisphere Sea Ice Concentration Version 4",
				"summary": "Monthly sea ice concentration",
				"id":      "https://doi.org/10.7265/efmz-2t65",
			},
			"cdr_seaice_conc": {"units": "1", "_FillValue": 255.0},
			"time":            {"units": "days since 1601-01-01 00:00:00"},
		},
		dims: map[string][]string{
			"time":            {"time"},
			"ygrid":           {"ygrid"},
			"xgrid":           {"xgrid"},
			"cdr_seaice_conc": {"time", "ygrid", "xgrid"},
		},
		vars: []string{"time", "ygrid", "xgrid", "cdr_seaice_conc"},
		values: map[string][]float64{
			"xgrid": axis(-3937500, 25000, 316),
			"ygrid": axis(4337500, -25000, 332),
			"time":  {141971},
		},
		dtype: "uint8",
	}
}
