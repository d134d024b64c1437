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
	"math"
	"strconv"
	"strings"
	"time"
)

// RawAttributes are the attributes of one source file that are needed to
// describe its time slices.
type RawAttributes struct {
	Href string
	// Stem is the file name without directory or extension.
	Stem string

	// ID is the optional global id attribute.
	ID      string
	Title   string
	Summary string

	// Variable is the gridded data variable.
	Variable string
	// Units is nil when the variable is unitless.
	Units     *string
	FillValue float64
	DataType  string

	// Shape is the (rows, columns) size of the grid.
	Shape [2]int
	// Transform is the north-up affine transform of the grid, in GDAL
	// order.
	Transform [6]float64
	EPSG      int
	// YAscending is true when the first row of the stored grid is the
	// southernmost one.
	YAscending bool

	TimeUnits  string
	TimeValues []float64
	// Times are TimeValues decoded to UTC instants.
	Times []time.Time
}

// IsFloat reports whether the data variable has a floating point type.
func (a *RawAttributes) IsFloat() bool {
	return a.DataType == "float32" || a.DataType == "float64"
}

// Nodata returns the nodata value of rasters converted from the file.
// Fill cells of floating point variables are masked to NaN.
func (a *RawAttributes) Nodata() float64 {
	if a.IsFloat() {
		return math.NaN()
	}
	return a.FillValue
}

var unitless = map[string]bool{
	"":              true,
	"1":             true,
	"unitless":      true,
	"dimensionless": true,
	"psu":           true,
}

// IsUnitless reports whether a units attribute value denotes a
// dimensionless quantity.
func IsUnitless(units string) bool {
	return unitless[strings.ToLower(strings.TrimSpace(units))]
}

// ExtractAttributes opens href and reads the attributes of its data
// variable. Only coordinate axes are read; the data array is not.
func ExtractAttributes(ctx context.Context, opener Opener, href string, family *DatasetFamily) (*RawAttributes, error) {
	ds, err := opener.Open(ctx, href)
	if err != nil {
		return nil, withContext(withHref(err, href, SourceUnreadable), family.Slug, "")
	}
	defer ds.Close()
	a, err := readAttributes(ds, href, family)
	if err != nil {
		return nil, withContext(err, family.Slug, "")
	}
	return a, nil
}

// withHref makes sure err is an *Error that refers to href.
func withHref(err error, href string, kind ErrorKind) error {
	if e, ok := err.(*Error); ok {
		if e.Href == "" {
			e.Href = href
		}
		return e
	}
	return &Error{Kind: kind, Href: href, Err: err}
}

func readAttributes(ds Dataset, href string, family *DatasetFamily) (*RawAttributes, error) {
	a := &RawAttributes{
		Href: href,
		Stem: stem(href),
		EPSG: family.EPSG,
	}
	var err error
	if a.Title, err = textAttribute(ds, "", "title", href); err != nil {
		return nil, err
	}
	if a.Summary, err = textAttribute(ds, "", "summary", href); err != nil {
		return nil, err
	}

	if id, ok := ds.Attribute("", "id"); ok {
		if text, ok := id.(string); ok {
			a.ID = strings.TrimSpace(text)
		}
	}

	if a.Variable, err = dataVariable(ds, a.Stem, family); err != nil {
		return nil, &Error{Kind: SourceUnreadable, Href: href, Err: err}
	}
	units, err := textAttribute(ds, a.Variable, "units", href)
	if err != nil {
		return nil, err
	}
	if !IsUnitless(units) {
		a.Units = &units
	}
	a.FillValue = math.NaN()
	for _, name := range []string{"_FillValue", "missing_value"} {
		if v, ok := ds.Attribute(a.Variable, name); ok {
			if f, ok := firstNumber(v); ok {
				a.FillValue = f
				break
			}
		}
	}
	a.DataType = ds.DataType(a.Variable)
	if g, ok := family.grid(a.Stem); ok {
		a.EPSG = g.EPSG
	}
	if epsg, ok := gridMappingEPSG(ds, a.Variable); ok {
		a.EPSG = epsg
	}

	if err := a.readGrid(ds, family); err != nil {
		return nil, &Error{Kind: SourceUnreadable, Href: href, Err: err}
	}
	if err := a.readTime(ds); err != nil {
		return nil, err
	}
	return a, nil
}

func textAttribute(ds Dataset, variable, name, href string) (string, error) {
	v, ok := ds.Attribute(variable, name)
	if !ok {
		where := "global attribute"
		if variable != "" {
			where = variable + " attribute"
		}
		return "", newError(MissingAttribute, href, "%s %q is missing", where, name)
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case float64:
		return fmt.Sprint(t), nil
	}
	return "", newError(MissingAttribute, href, "attribute %q is not text (%T)", name, v)
}

func firstNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case []float64:
		if len(t) > 0 {
			return t[0], true
		}
	}
	return 0, false
}

// gridMappingEPSG returns the EPSG code named by the CF grid mapping
// variable of variable, from its epsg_code ("EPSG:3411") or srid
// ("urn:ogc:def:crs:EPSG::3411") attribute.
func gridMappingEPSG(ds Dataset, variable string) (int, bool) {
	gm, ok := ds.Attribute(variable, "grid_mapping")
	if !ok {
		return 0, false
	}
	name, ok := gm.(string)
	if !ok {
		return 0, false
	}
	for _, attr := range []string{"epsg_code", "srid"} {
		v, ok := ds.Attribute(strings.TrimSpace(name), attr)
		if !ok {
			continue
		}
		text, ok := v.(string)
		if !ok {
			continue
		}
		code := text[strings.LastIndex(text, ":")+1:]
		if epsg, err := strconv.Atoi(strings.TrimSpace(code)); err == nil && epsg > 0 {
			return epsg, true
		}
	}
	return 0, false
}

// dataVariable chooses the gridded variable of a file: the family's
// configured variable for the file name if there is one, otherwise the
// first variable laid out as (time, ..., y, x).
func dataVariable(ds Dataset, stem string, family *DatasetFamily) (string, error) {
	if v := family.variable(stem); v != "" {
		if ds.Dimensions(v) == nil {
			return "", fmt.Errorf("configured data variable %q is not in the file", v)
		}
		return v, nil
	}
	for _, v := range ds.Variables() {
		dims := ds.Dimensions(v)
		n := len(dims)
		if n >= 3 && dims[0] == "time" && dims[n-2] == family.YAxis && dims[n-1] == family.XAxis {
			return v, nil
		}
	}
	return "", fmt.Errorf("no variable with dimensions (time, %s, %s)", family.YAxis, family.XAxis)
}

func (a *RawAttributes) readGrid(ds Dataset, family *DatasetFamily) error {
	ys, err := ds.Values(family.YAxis)
	if err != nil {
		return fmt.Errorf("reading y axis: %w", err)
	}
	xs, err := ds.Values(family.XAxis)
	if err != nil {
		return fmt.Errorf("reading x axis: %w", err)
	}
	if len(ys) < 2 || len(xs) < 2 {
		return fmt.Errorf("grid of %d×%d cells is too small to georeference", len(ys), len(xs))
	}
	dx := math.Abs(xs[len(xs)-1]-xs[0]) / float64(len(xs)-1)
	dy := math.Abs(ys[len(ys)-1]-ys[0]) / float64(len(ys)-1)
	a.Shape = [2]int{len(ys), len(xs)}
	a.YAscending = ys[len(ys)-1] > ys[0]
	west := math.Min(xs[0], xs[len(xs)-1]) - dx/2
	north := math.Max(ys[0], ys[len(ys)-1]) + dy/2
	a.Transform = [6]float64{dx, 0, west, 0, -dy, north}
	return nil
}

func (a *RawAttributes) readTime(ds Dataset) error {
	units, err := textAttribute(ds, "time", "units", a.Href)
	if err != nil {
		return err
	}
	axis, err := parseTimeUnits(units)
	if err != nil {
		return &Error{Kind: SourceUnreadable, Href: a.Href, Err: err}
	}
	values, err := ds.Values("time")
	if err != nil {
		return &Error{Kind: SourceUnreadable, Href: a.Href, Err: err}
	}
	if len(values) == 0 {
		return newError(SourceUnreadable, a.Href, "time axis is empty")
	}
	a.TimeUnits = units
	a.TimeValues = values
	a.Times = make([]time.Time, len(values))
	for i, v := range values {
		if a.Times[i], err = axis.decode(v); err != nil {
			return &Error{Kind: SourceUnreadable, Href: a.Href, Err: err}
		}
	}
	return nil
}

// Bounds returns the west, south, east and north edges of the grid.
func (a *RawAttributes) Bounds() [4]float64 {
	t := a.Transform
	return [4]float64{
		t[2],
		t[5] + t[4]*float64(a.Shape[0]),
		t[2] + t[0]*float64(a.Shape[1]),
		t[5],
	}
}
