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

package validate

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/google/go-cmp/cmp"
	"github.com/spatialmodel/noaacdr"
)

func validItem(t *testing.T) *noaacdr.Item {
	t.Helper()
	g, err := geojson.ToGeoJSON(geom.Polygon{{{X: -180, Y: -90}, {X: 180, Y: -90}, {X: 180, Y: 90}, {X: -180, Y: 90}, {X: -180, Y: -90}}})
	if err != nil {
		t.Fatal(err)
	}
	units := "10^18 joules"
	depth := 2000
	return &noaacdr.Item{
		Type:           "Feature",
		StacVersion:    noaacdr.StacVersion,
		StacExtensions: []string{noaacdr.ProjectionExtension, noaacdr.RasterExtension},
		ID:             "ocean-heat-content-yearly-2020-01-01",
		Geometry:       g,
		BBox:           []float64{-180, -90, 180, 90},
		Properties: noaacdr.ItemProperties{
			StartDatetime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDatetime:   time.Date(2020, 12, 31, 23, 59, 59, 0, time.UTC),
			Interval:      noaacdr.Yearly,
			MaxDepth:      &depth,
			EPSG:          4326,
			Shape:         []int{180, 360},
			Transform:     []float64{1, 0, -180, 0, -1, 90},
		},
		Links: []noaacdr.Link{},
		Assets: map[string]*noaacdr.Asset{
			"heat_content_anomaly_0-2000": {
				Href:  "heat_content_anomaly_0-2000_yearly_2020-01-01.tif",
				Type:  noaacdr.COGMediaType,
				Roles: []string{noaacdr.RoleData},
				Bands: []noaacdr.RasterBand{{Nodata: noaacdr.Nodata(math.NaN()), DataType: "float32", Unit: &units}},
			},
		},
		Collection: "noaa-cdr-ocean-heat-content",
	}
}

func TestItemValid(t *testing.T) {
	if v := Item(validItem(t)); v != nil {
		t.Errorf("unexpected violations %v", v)
	}
}

func TestItemViolations(t *testing.T) {
	const key = "heat_content_anomaly_0-2000"
	for _, test := range []struct {
		name   string
		modify func(*noaacdr.Item)
		want   []Violation
	}{
		{
			name:   "no id",
			modify: func(i *noaacdr.Item) { i.ID = "" },
			want:   []Violation{{Field: "id", Message: "is required"}},
		},
		{
			name:   "wrong type",
			modify: func(i *noaacdr.Item) { i.Type = "FeatureCollection" },
			want:   []Violation{{Field: "type", Message: `must be "Feature"`}},
		},
		{
			name: "end before start",
			modify: func(i *noaacdr.Item) {
				i.Properties.EndDatetime = i.Properties.StartDatetime.Add(-time.Second)
			},
			want: []Violation{{Field: "properties.end_datetime", Message: "must not be before StartDatetime"}},
		},
		{
			name:   "short bbox",
			modify: func(i *noaacdr.Item) { i.BBox = i.BBox[:3] },
			want:   []Violation{{Field: "bbox", Message: "must have length 4"}},
		},
		{
			name:   "inverted bbox",
			modify: func(i *noaacdr.Item) { i.BBox = []float64{-180, 90, 180, -90} },
			want:   []Violation{{Field: "bbox", Message: "start must not be after end"}},
		},
		{
			name:   "no assets",
			modify: func(i *noaacdr.Item) { i.Assets = map[string]*noaacdr.Asset{} },
			want:   []Violation{{Field: "assets", Message: "must have at least 1 entries"}},
		},
		{
			name:   "no roles",
			modify: func(i *noaacdr.Item) { i.Assets[key].Roles = nil },
			want:   []Violation{{Field: "assets[" + key + "].roles", Message: "is required"}},
		},
		{
			name:   "no media type",
			modify: func(i *noaacdr.Item) { i.Assets[key].Type = "" },
			want:   []Violation{{Field: "assets[" + key + "].type", Message: "is required"}},
		},
		{
			name:   "bad data type",
			modify: func(i *noaacdr.Item) { i.Assets[key].Bands[0].DataType = "double" },
			want: []Violation{{
				Field:   "assets[" + key + "].raster:bands[0].data_type",
				Message: "must be one of int8, int16, int32, int64, uint8, uint16, uint32, uint64, float16, float32, float64, cint16, cint32, cfloat32, cfloat64, other",
			}},
		},
		{
			name:   "bad interval",
			modify: func(i *noaacdr.Item) { i.Properties.Interval = "daily" },
			want:   []Violation{{Field: "properties.noaa_cdr:interval", Message: "must be one of yearly, monthly, pentadal, seasonal"}},
		},
		{
			name: "zero depth",
			modify: func(i *noaacdr.Item) {
				d := 0
				i.Properties.MaxDepth = &d
			},
			want: []Violation{{Field: "properties.noaa_cdr:max_depth", Message: "must be greater than 0"}},
		},
		{
			name:   "extension not a URL",
			modify: func(i *noaacdr.Item) { i.StacExtensions = []string{"projection"} },
			want:   []Violation{{Field: "stac_extensions[0]", Message: "must be a URL"}},
		},
		{
			name:   "no geometry",
			modify: func(i *noaacdr.Item) { i.Geometry = nil },
			want:   []Violation{{Field: "geometry", Message: "is required"}},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			item := validItem(t)
			test.modify(item)
			if diff := cmp.Diff(test.want, Item(item)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollection(t *testing.T) {
	reg := noaacdr.DefaultRegistry()
	cache := noaacdr.DefaultMetadataCache()
	for _, f := range reg.Families() {
		c, err := noaacdr.CreateCollection(f, cache)
		if err != nil {
			t.Fatal(err)
		}
		if v := Collection(c); v != nil {
			t.Errorf("%s: unexpected violations %v", f.Slug, v)
		}
	}

	f, err := reg.Family("ocean-heat-content")
	if err != nil {
		t.Fatal(err)
	}
	c, err := noaacdr.CreateCollection(f, cache)
	if err != nil {
		t.Fatal(err)
	}
	c.License = ""
	start := c.Extent.Temporal.Interval[0][0]
	end := start.AddDate(-1, 0, 0)
	c.Extent.Temporal.Interval[0][1] = &end
	want := []Violation{
		{Field: "license", Message: "is required"},
		{Field: "extent.temporal.interval[0]", Message: "start must not be after end"},
	}
	if diff := cmp.Diff(want, Collection(c)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	c.License = "proprietary"
	c.Extent.Temporal.Interval[0] = []*time.Time{nil, nil}
	want = []Violation{{Field: "extent.temporal.interval[0]", Message: "must have a start or an end"}}
	if diff := cmp.Diff(want, Collection(c)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestNil(t *testing.T) {
	if v := Item(nil); len(v) != 1 {
		t.Errorf("%v", v)
	}
	if v := Collection(nil); len(v) != 1 {
		t.Errorf("%v", v)
	}
}

func TestErr(t *testing.T) {
	if err := Err(nil); err != nil {
		t.Errorf("%v != nil", err)
	}
	err := Err([]Violation{{Field: "id", Message: "is required"}, {Field: "bbox", Message: "must have length 4"}})
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, s := range []string{"id: is required", "bbox: must have length 4"} {
		if !strings.Contains(err.Error(), s) {
			t.Errorf("%q does not contain %q", err.Error(), s)
		}
	}
}
