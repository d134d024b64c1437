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

package netcdf

import (
	"fmt"
	"io"
	"os"

	"github.com/ctessum/cdf"
)

// classic decodes CDF-1 and CDF-2 files.
type classic struct {
	f       *os.File
	nc      *cdf.File
	numRecs int
}

func openClassic(path string) (*classic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &classic{f: f, nc: nc, numRecs: int(nc.Header.NumRecs(fi.Size()))}, nil
}

func (c *classic) attribute(variable, name string) (interface{}, bool) {
	v := c.nc.Header.GetAttribute(variable, name)
	return v, v != nil
}

func (c *classic) variables() []string { return c.nc.Header.Variables() }

func (c *classic) dimensions(variable string) []string {
	if variable == "" {
		return nil
	}
	return c.nc.Header.Dimensions(variable)
}

func (c *classic) dataType(variable string) string {
	switch c.nc.Header.ZeroValue(variable, 0).(type) {
	case []float32:
		return "float32"
	case []float64:
		return "float64"
	case []int16:
		return "int16"
	case []int32:
		return "int32"
	case []uint8:
		return "uint8"
	case string:
		return "string"
	default:
		return ""
	}
}

// lengths returns the dimension lengths of variable with the record
// dimension resolved.
func (c *classic) lengths(variable string) ([]int, error) {
	l := c.nc.Header.Lengths(variable)
	if l == nil {
		return nil, fmt.Errorf("no variable %q", variable)
	}
	l = append([]int(nil), l...)
	if c.nc.Header.IsRecordVariable(variable) {
		l[0] = c.numRecs
	}
	return l, nil
}

func (c *classic) read(variable string, begin, end []int, n int) (interface{}, error) {
	r := c.nc.Reader(variable, begin, end)
	buf := r.Zero(n)
	read, err := r.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if read != n {
		return nil, fmt.Errorf("read %d of %d values", read, n)
	}
	return buf, nil
}

func (c *classic) values(variable string) (interface{}, error) {
	l, err := c.lengths(variable)
	if err != nil {
		return nil, err
	}
	n := 1
	for _, x := range l {
		n *= x
	}
	if n == 0 {
		return []float64{}, nil
	}
	begin := make([]int, len(l))
	end := make([]int, len(l))
	for i, x := range l {
		end[i] = x - 1
	}
	return c.read(variable, begin, end, n)
}

func (c *classic) slice(variable string, i int) (interface{}, error) {
	l, err := c.lengths(variable)
	if err != nil {
		return nil, err
	}
	if len(l) == 0 || i < 0 || i >= l[0] {
		return nil, fmt.Errorf("index %d out of range", i)
	}
	n := 1
	begin := make([]int, len(l))
	end := make([]int, len(l))
	begin[0], end[0] = i, i
	for d := 1; d < len(l); d++ {
		end[d] = l[d] - 1
		n *= l[d]
	}
	buf, err := c.read(variable, begin, end, n)
	if err != nil {
		return nil, err
	}
	return shaped{values: buf, shape: l[1:]}, nil
}

func (c *classic) close() error { return c.f.Close() }
