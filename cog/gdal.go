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

package cog

import (
	"fmt"
	"os"

	"github.com/lukeroth/gdal"
	"github.com/spatialmodel/noaacdr"
)

var gdalTypes = map[string]gdal.DataType{
	"uint8":   gdal.Byte,
	"int16":   gdal.Int16,
	"uint16":  gdal.UInt16,
	"int32":   gdal.Int32,
	"uint32":  gdal.UInt32,
	"float32": gdal.Float32,
	"float64": gdal.Float64,
}

// writer writes grids with the georeferencing of one source file.
type writer struct {
	rows, cols int
	dataType   gdal.DataType
	transform  [6]float64
	wkt        string
	nodata     float64
	options    []string
}

func newWriter(a *noaacdr.RawAttributes, options []string) (*writer, error) {
	sr := gdal.CreateSpatialReference("")
	defer sr.Destroy()
	if err := sr.FromEPSG(a.EPSG); err != nil {
		return nil, fmt.Errorf("cog: EPSG:%d: %w", a.EPSG, err)
	}
	wkt, err := sr.ToWKT()
	if err != nil {
		return nil, fmt.Errorf("cog: EPSG:%d: %w", a.EPSG, err)
	}
	dt, ok := gdalTypes[a.DataType]
	if !ok {
		dt = gdal.Float32
	}
	return &writer{
		rows:      a.Shape[0],
		cols:      a.Shape[1],
		dataType:  dt,
		transform: a.Transform,
		wkt:       wkt,
		nodata:    a.Nodata(),
		options:   options,
	}, nil
}

// write builds the grid in memory and copies it to path with the COG
// driver.
func (w *writer) write(path string, data []float32) error {
	mem, err := gdal.GetDriverByName("MEM")
	if err != nil {
		return fmt.Errorf("cog: %w", err)
	}
	src := mem.Create("", w.cols, w.rows, 1, w.dataType, nil)
	defer src.Close()
	if err := src.SetGeoTransform(w.transform); err != nil {
		return fmt.Errorf("cog: setting geotransform: %w", err)
	}
	if err := src.SetProjection(w.wkt); err != nil {
		return fmt.Errorf("cog: setting projection: %w", err)
	}
	band := src.RasterBand(1)
	if err := band.SetNoDataValue(w.nodata); err != nil {
		return fmt.Errorf("cog: setting nodata: %w", err)
	}
	if err := band.IO(gdal.Write, 0, 0, w.cols, w.rows, data, w.cols, w.rows, 0, 0); err != nil {
		return fmt.Errorf("cog: writing band: %w", err)
	}

	driver, err := gdal.GetDriverByName("COG")
	if err != nil {
		return fmt.Errorf("cog: %w", err)
	}
	dst := driver.CreateCopy(path, src, 0, w.options, nil, nil)
	if _, err := os.Stat(path); err != nil {
		// CreateCopy returned a null dataset.
		return fmt.Errorf("cog: writing %s: %v", path, gdal.CPLGetLastErrorMsg())
	}
	dst.Close()
	return nil
}
