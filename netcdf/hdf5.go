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
	native "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// hdf5 decodes NetCDF-4 files, and anything else go-native-netcdf
// understands.
type hdf5 struct {
	nc api.Group
}

func openHDF5(path string) (*hdf5, error) {
	nc, err := native.Open(path)
	if err != nil {
		return nil, err
	}
	return &hdf5{nc: nc}, nil
}

func (h *hdf5) attribute(variable, name string) (interface{}, bool) {
	if variable == "" {
		return h.nc.Attributes().Get(name)
	}
	vg, err := h.nc.GetVarGetter(variable)
	if err != nil {
		return nil, false
	}
	return vg.Attributes().Get(name)
}

func (h *hdf5) variables() []string { return h.nc.ListVariables() }

func (h *hdf5) dimensions(variable string) []string {
	vg, err := h.nc.GetVarGetter(variable)
	if err != nil {
		return nil
	}
	return vg.Dimensions()
}

func (h *hdf5) dataType(variable string) string {
	vg, err := h.nc.GetVarGetter(variable)
	if err != nil {
		return ""
	}
	return vg.GoType()
}

func (h *hdf5) values(variable string) (interface{}, error) {
	vg, err := h.nc.GetVarGetter(variable)
	if err != nil {
		return nil, err
	}
	return vg.Values()
}

func (h *hdf5) slice(variable string, i int) (interface{}, error) {
	vg, err := h.nc.GetVarGetter(variable)
	if err != nil {
		return nil, err
	}
	return vg.GetSlice(int64(i), int64(i)+1)
}

func (h *hdf5) close() error {
	h.nc.Close()
	return nil
}
