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

	"github.com/spatialmodel/noaacdr/cloud"
	"github.com/spatialmodel/noaacdr/netcdf"
)

// Dataset is the read-only view of an opened NetCDF file that the rest of
// this package needs. Implementations must not read variable data until it
// is asked for.
type Dataset interface {
	// Attribute returns attribute name of variable, or the global
	// attribute if variable is "". Text attributes are returned as string,
	// single numbers as float64 and longer numeric attributes as []float64.
	Attribute(variable, name string) (interface{}, bool)

	// Variables lists the variables in file order.
	Variables() []string

	// Dimensions returns the dimension names of variable, or nil if it
	// does not exist.
	Dimensions(variable string) []string

	// DataType returns the element type of variable in Go terms
	// (e.g., "float32").
	DataType(variable string) string

	// Values returns the full contents of a (small) variable, such as
	// a coordinate axis.
	Values(variable string) ([]float64, error)

	// Slice returns the values of variable at index i of its outermost
	// dimension, flattened in row-major order, along with the lengths of
	// the remaining dimensions.
	Slice(variable string, i int) ([]float32, []int, error)

	Close() error
}

// Opener opens a source href, which may be a local path or a remote
// location, as a Dataset.
type Opener interface {
	Open(ctx context.Context, href string) (Dataset, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, href string) (Dataset, error)

// Open calls f(ctx, href).
func (f OpenerFunc) Open(ctx context.Context, href string) (Dataset, error) { return f(ctx, href) }

// NetCDFOpener returns an Opener that fetches hrefs through fetcher and
// decodes them with the netcdf package. Temporary downloads are removed
// when the Dataset is closed.
func NetCDFOpener(fetcher *cloud.Fetcher) Opener {
	return OpenerFunc(func(ctx context.Context, href string) (Dataset, error) {
		path, release, err := fetcher.Fetch(ctx, href)
		if err != nil {
			return nil, &Error{Kind: SourceUnreadable, Href: href, Err: err}
		}
		f, err := netcdf.Open(path)
		if err != nil {
			release()
			return nil, &Error{Kind: SourceUnreadable, Href: href, Err: err}
		}
		return &releasingDataset{File: f, release: release}, nil
	})
}

// SharedNetCDFOpener is like NetCDFOpener, except that each href is
// fetched at most once, however many times it is opened. Downloads are
// kept until release is called.
func SharedNetCDFOpener(fetcher *cloud.Fetcher) (o Opener, release func()) {
	var (
		mu       sync.Mutex
		paths    = make(map[string]string)
		releases []func()
	)
	o = OpenerFunc(func(ctx context.Context, href string) (Dataset, error) {
		mu.Lock()
		path, ok := paths[href]
		if !ok {
			p, r, err := fetcher.Fetch(ctx, href)
			if err != nil {
				mu.Unlock()
				return nil, &Error{Kind: SourceUnreadable, Href: href, Err: err}
			}
			path = p
			paths[href] = p
			releases = append(releases, r)
		}
		mu.Unlock()
		f, err := netcdf.Open(path)
		if err != nil {
			return nil, &Error{Kind: SourceUnreadable, Href: href, Err: err}
		}
		return &releasingDataset{File: f, release: func() {}}, nil
	})
	release = func() {
		mu.Lock()
		defer mu.Unlock()
		for _, r := range releases {
			r()
		}
		releases = nil
		paths = make(map[string]string)
	}
	return o, release
}

type releasingDataset struct {
	*netcdf.File
	release func()
}

func (d *releasingDataset) Close() error {
	defer d.release()
	if err := d.File.Close(); err != nil {
		return fmt.Errorf("noaacdr: closing dataset: %w", err)
	}
	return nil
}
