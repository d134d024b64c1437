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
	"reflect"
	"strings"
)

// shaped is a flat slice together with the lengths of its dimensions, as
// produced by the classic backend.
type shaped struct {
	values interface{}
	shape  []int
}

// normalizeAttribute converts a decoded attribute value to string, float64
// or []float64.
func normalizeAttribute(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return strings.TrimRight(t, "\x00")
	case []string:
		return strings.Join(t, "\n")
	case []byte:
		return strings.TrimRight(string(t), "\x00")
	}
	f, err := toFloat64s(v)
	if err != nil {
		return v
	}
	if len(f) == 1 {
		return f[0]
	}
	return f
}

// toFloat64s flattens a number, a slice of numbers, or nested slices of
// numbers into []float64.
func toFloat64s(v interface{}) ([]float64, error) {
	if s, ok := v.(shaped); ok {
		v = s.values
	}
	var o []float64
	var walk func(rv reflect.Value) error
	walk = func(rv reflect.Value) error {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				if err := walk(rv.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Float32, reflect.Float64:
			o = append(o, rv.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			o = append(o, float64(rv.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			o = append(o, float64(rv.Uint()))
		case reflect.Interface:
			return walk(rv.Elem())
		default:
			return fmt.Errorf("netcdf: cannot convert %s to float64", rv.Type())
		}
		return nil
	}
	if err := walk(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return o, nil
}

// flatten converts a (possibly nested) numeric slice into a row-major
// []float32 and the lengths of each nesting level.
func flatten(v interface{}) ([]float32, []int, error) {
	if s, ok := v.(shaped); ok {
		f, err := toFloat64s(s.values)
		if err != nil {
			return nil, nil, err
		}
		return to32(f), append([]int(nil), s.shape...), nil
	}
	var shape []int
	for rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice; {
		shape = append(shape, rv.Len())
		if rv.Len() == 0 {
			break
		}
		rv = rv.Index(0)
	}
	f, err := toFloat64s(v)
	if err != nil {
		return nil, nil, err
	}
	n := 1
	for _, l := range shape {
		n *= l
	}
	if n != len(f) {
		return nil, nil, fmt.Errorf("netcdf: ragged array: shape %v holds %d values but %d were read", shape, n, len(f))
	}
	return to32(f), shape, nil
}

func to32(f []float64) []float32 {
	o := make([]float32, len(f))
	for i, x := range f {
		o[i] = float32(x)
	}
	return o
}
