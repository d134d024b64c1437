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

// Package netcdf provides read-only access to the NetCDF files published as
// NOAA Climate Data Records. Classic (CDF-1 and CDF-2) files are decoded
// with github.com/ctessum/cdf and NetCDF-4 (HDF5) files with
// github.com/batchatco/go-native-netcdf; callers see a single File type
// either way.
package netcdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// backend is implemented by each decoder.
type backend interface {
	attribute(variable, name string) (interface{}, bool)
	variables() []string
	dimensions(variable string) []string
	dataType(variable string) string
	values(variable string) (interface{}, error)
	slice(variable string, i int) (interface{}, error)
	close() error
}

// File is an opened NetCDF file.
type File struct {
	b    backend
	path string
}

var (
	classicMagic = []byte("CDF")
	hdf5Magic    = []byte("\x89HDF\r\n\x1a\n")
)

// Open opens the NetCDF file at path. It only reads the header; variable
// data are read on demand.
func Open(path string) (*File, error) {
	kind, err := sniff(path)
	if err != nil {
		return nil, err
	}
	var b backend
	switch kind {
	case "classic":
		b, err = openClassic(path)
	case "hdf5":
		b, err = openHDF5(path)
	}
	if err != nil {
		return nil, fmt.Errorf("netcdf: opening %s: %w", path, err)
	}
	return &File{b: b, path: path}, nil
}

// sniff reads the magic number at the start of the file.
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("netcdf: %w", err)
	}
	defer f.Close()
	head := make([]byte, len(hdf5Magic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("netcdf: reading header of %s: %w", path, err)
	}
	head = head[:n]
	switch {
	case len(head) >= 4 && bytes.HasPrefix(head, classicMagic) && (head[3] == 1 || head[3] == 2):
		return "classic", nil
	case bytes.HasPrefix(head, classicMagic):
		// CDF-5 is only understood by go-native-netcdf.
		return "hdf5", nil
	case bytes.Equal(head, hdf5Magic):
		return "hdf5", nil
	default:
		return "", fmt.Errorf("netcdf: %s is not a NetCDF file", path)
	}
}

// Path returns the local path the file was opened from.
func (f *File) Path() string { return f.path }

// Attribute returns attribute name of variable, or the global attribute
// when variable is "". Text is returned as a string, a single number as
// float64, and several numbers as []float64.
func (f *File) Attribute(variable, name string) (interface{}, bool) {
	v, ok := f.b.attribute(variable, name)
	if !ok || v == nil {
		return nil, false
	}
	return normalizeAttribute(v), true
}

// Variables lists the variables in the file.
func (f *File) Variables() []string { return f.b.variables() }

// Dimensions returns the dimension names of variable.
func (f *File) Dimensions(variable string) []string { return f.b.dimensions(variable) }

// DataType returns the Go element type of variable.
func (f *File) DataType(variable string) string { return f.b.dataType(variable) }

// Values reads the whole of variable as float64.
func (f *File) Values(variable string) ([]float64, error) {
	v, err := f.b.values(variable)
	if err != nil {
		return nil, fmt.Errorf("netcdf: reading %s from %s: %w", variable, f.path, err)
	}
	return toFloat64s(v)
}

// Slice reads index i of the outermost dimension of variable.
func (f *File) Slice(variable string, i int) ([]float32, []int, error) {
	v, err := f.b.slice(variable, i)
	if err != nil {
		return nil, nil, fmt.Errorf("netcdf: reading %s[%d] from %s: %w", variable, i, f.path, err)
	}
	data, shape, err := flatten(v)
	if err != nil {
		return nil, nil, err
	}
	// Singleton outer dimensions (the time index itself for the HDF5
	// backend, a single depth level for some CDRs) carry no information.
	for len(shape) > 2 && shape[0] == 1 {
		shape = shape[1:]
	}
	return data, shape, nil
}

// Close releases the file.
func (f *File) Close() error { return f.b.close() }
