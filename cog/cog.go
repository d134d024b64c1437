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

// Package cog converts the time slices of CDR NetCDF files into
// Cloud-Optimized GeoTIFFs using GDAL.
package cog

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/noaacdr"
)

// DefaultOptions are the GDAL COG driver creation options used by New.
var DefaultOptions = []string{"COMPRESS=DEFLATE"}

// Converter writes one COG per time slice. It implements
// noaacdr.RasterConverter.
type Converter struct {
	Opener noaacdr.Opener

	// Options are GDAL COG driver creation options.
	Options []string

	Log logrus.FieldLogger
}

// New returns a Converter that reads source files through opener.
func New(opener noaacdr.Opener) *Converter {
	return &Converter{
		Opener:  opener,
		Options: DefaultOptions,
		Log:     logrus.StandardLogger(),
	}
}

func (c *Converter) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Convert writes the slices of job into job.OutputDirectory, named
// after noaacdr.TimeSlice.COGName. Slices with a raster of that name among
// job.Existing are not converted; the existing raster is returned instead.
func (c *Converter) Convert(ctx context.Context, job noaacdr.ConversionJob) ([]noaacdr.Asset, error) {
	if job.OutputDirectory == "" {
		return nil, fmt.Errorf("cog: an output directory is required")
	}
	existing := make(map[string]string, len(job.Existing))
	for _, h := range job.Existing {
		existing[filepath.Base(h)] = h
	}

	assets := make([]noaacdr.Asset, len(job.Slices))
	var todo []int
	for i, s := range job.Slices {
		if h, ok := existing[s.COGName()]; ok {
			assets[i] = noaacdr.COGAsset(h, job.Attributes)
			continue
		}
		todo = append(todo, i)
	}
	if len(todo) == 0 {
		return assets, nil
	}

	if err := os.MkdirAll(job.OutputDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("cog: creating output directory: %w", err)
	}
	ds, err := c.Opener.Open(ctx, job.Source)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	w, err := newWriter(job.Attributes, c.Options)
	if err != nil {
		return nil, err
	}
	for _, i := range todo {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := job.Slices[i]
		data, err := readSlice(ds, job.Attributes, s.Index)
		if err != nil {
			return nil, &noaacdr.Error{Kind: noaacdr.SourceUnreadable, Href: job.Source, Interval: s.Interval, Err: err}
		}
		path := filepath.Join(job.OutputDirectory, s.COGName())
		if err := w.write(path, data); err != nil {
			return nil, err
		}
		assets[i] = noaacdr.COGAsset(path, job.Attributes)
		c.log().WithFields(logrus.Fields{
			"source": job.Source,
			"index":  s.Index,
			"path":   path,
		}).Debug("wrote COG")
	}
	c.log().WithFields(logrus.Fields{
		"source":    job.Source,
		"converted": len(todo),
		"reused":    len(job.Slices) - len(todo),
	}).Info("converted source file")
	return assets, nil
}

// readSlice reads time index i of the data variable and returns it as
// north-up rows. Fill values of floating point variables become NaN.
func readSlice(ds noaacdr.Dataset, a *noaacdr.RawAttributes, i int) ([]float32, error) {
	data, shape, err := ds.Slice(a.Variable, i)
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 || shape[0] != a.Shape[0] || shape[1] != a.Shape[1] {
		return nil, fmt.Errorf("slice %d of %s has shape %v; expected %v", i, a.Variable, shape, a.Shape)
	}
	if a.YAscending {
		flipRows(data, shape[0], shape[1])
	}
	if a.IsFloat() {
		maskFill(data, a.FillValue)
	}
	return data, nil
}

// maskFill replaces cells equal to fill with NaN.
func maskFill(data []float32, fill float64) {
	if math.IsNaN(fill) {
		return
	}
	f := float32(fill)
	for i, v := range data {
		if v == f {
			data[i] = float32(math.NaN())
		}
	}
}

// flipRows reverses the order of the rows of a row-major grid in place.
func flipRows(data []float32, rows, cols int) {
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := data[top*cols : (top+1)*cols]
		b := data[bottom*cols : (bottom+1)*cols]
		for j := range a {
			a[j], b[j] = b[j], a[j]
		}
	}
}
