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
	"io"
	"math"
	"strconv"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/goccy/go-json"
)

// STAC constants.
const (
	StacVersion = "1.0.0"

	ProjectionExtension = "https://stac-extensions.github.io/projection/v1.1.0/schema.json"
	RasterExtension     = "https://stac-extensions.github.io/raster/v1.1.0/schema.json"
	ScientificExtension = "https://stac-extensions.github.io/scientific/v1.0.0/schema.json"

	NetCDFMediaType = "application/netcdf"
	COGMediaType    = "image/tiff; application=geotiff; profile=cloud-optimized"
)

// Asset roles.
const (
	RoleData   = "data"
	RoleSource = "source"
)

// Nodata is a raster nodata value. Non-finite values are written as the
// strings "nan", "inf" and "-inf".
type Nodata float64

// MarshalJSON implements json.Marshaler.
func (n Nodata) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"nan"`), nil
	case math.IsInf(f, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-inf"`), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nodata) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"nan"`:
		*n = Nodata(math.NaN())
		return nil
	case `"inf"`:
		*n = Nodata(math.Inf(1))
		return nil
	case `"-inf"`:
		*n = Nodata(math.Inf(-1))
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("noaacdr: invalid nodata value %s", b)
	}
	*n = Nodata(f)
	return nil
}

// RasterBand describes one band of a raster asset.
type RasterBand struct {
	Nodata   Nodata `json:"nodata"`
	DataType string `json:"data_type" validate:"oneof=int8 int16 int32 int64 uint8 uint16 uint32 uint64 float16 float32 float64 cint16 cint32 cfloat32 cfloat64 other"`
	// Unit is nil for unitless data, in which case it is left out of the
	// document.
	Unit *string `json:"unit,omitempty"`
}

// Asset is a STAC asset.
type Asset struct {
	Href        string       `json:"href" validate:"required"`
	Type        string       `json:"type,omitempty" validate:"required"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Roles       []string     `json:"roles" validate:"required,min=1,dive,required"`
	Bands       []RasterBand `json:"raster:bands,omitempty" validate:"dive"`
}

// Link is a STAC link.
type Link struct {
	Rel  string `json:"rel" validate:"required"`
	Href string `json:"href" validate:"required"`
	Type string `json:"type,omitempty"`
}

// ItemProperties are the properties of an Item.
type ItemProperties struct {
	// Datetime is always null; items cover a range.
	Datetime      *time.Time `json:"datetime"`
	StartDatetime time.Time  `json:"start_datetime" validate:"required"`
	EndDatetime   time.Time  `json:"end_datetime" validate:"required,gtefield=StartDatetime"`

	Interval Interval `json:"noaa_cdr:interval" validate:"oneof=yearly monthly pentadal seasonal"`
	MaxDepth *int     `json:"noaa_cdr:max_depth,omitempty" validate:"omitempty,gt=0"`

	EPSG      int       `json:"proj:epsg" validate:"gt=0"`
	Shape     []int     `json:"proj:shape" validate:"len=2,dive,gt=0"`
	Transform []float64 `json:"proj:transform" validate:"len=6"`
}

// Item is a STAC Item.
type Item struct {
	Type           string            `json:"type" validate:"eq=Feature"`
	StacVersion    string            `json:"stac_version" validate:"required"`
	StacExtensions []string          `json:"stac_extensions" validate:"dive,url"`
	ID             string            `json:"id" validate:"required"`
	Geometry       *geojson.Geometry `json:"geometry" validate:"required"`
	BBox           []float64         `json:"bbox" validate:"len=4"`
	Properties     ItemProperties    `json:"properties"`
	Links          []Link            `json:"links" validate:"dive"`
	Assets         map[string]*Asset `json:"assets" validate:"min=1,dive,keys,required,endkeys,required"`
	Collection     string            `json:"collection,omitempty"`
}

// SpatialExtent is the spatial extent of a collection.
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox" validate:"min=1,dive,len=4"`
}

// TemporalExtent is the temporal extent of a collection. A nil end means
// the collection is ongoing.
type TemporalExtent struct {
	Interval [][]*time.Time `json:"interval" validate:"min=1,dive,len=2"`
}

// Extent is the extent of a collection.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// Collection is a STAC Collection.
type Collection struct {
	Type           string            `json:"type" validate:"eq=Collection"`
	StacVersion    string            `json:"stac_version" validate:"required"`
	StacExtensions []string          `json:"stac_extensions" validate:"dive,url"`
	ID             string            `json:"id" validate:"required"`
	Title          string            `json:"title,omitempty"`
	Description    string            `json:"description" validate:"required"`
	Keywords       []string          `json:"keywords,omitempty"`
	License        string            `json:"license" validate:"required"`
	Extent         Extent            `json:"extent"`
	Links          []Link            `json:"links" validate:"dive"`
	Assets         map[string]*Asset `json:"assets,omitempty" validate:"dive,keys,required,endkeys,required"`

	DOI      string `json:"sci:doi,omitempty"`
	Citation string `json:"sci:citation,omitempty"`
}

// bboxGeometry returns the polygon covering bounds (west, south, east,
// north).
func bboxGeometry(b [4]float64) (*geojson.Geometry, error) {
	p := geom.Polygon{{
		{X: b[0], Y: b[1]},
		{X: b[2], Y: b[1]},
		{X: b[2], Y: b[3]},
		{X: b[0], Y: b[3]},
		{X: b[0], Y: b[1]},
	}}
	return geojson.ToGeoJSON(p)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(v); err != nil {
		return fmt.Errorf("noaacdr: encoding JSON: %w", err)
	}
	return nil
}
