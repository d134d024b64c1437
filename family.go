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
	_ "embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed families.toml
var familiesTOML string

// DatasetFamily describes one NOAA Climate Data Record product.
type DatasetFamily struct {
	Slug        string
	ID          string
	Title       string
	Description string
	DOI         string
	Citation    string
	License     string
	Keywords    []string

	// BaseURL is prepended to each entry of Files to form the source hrefs.
	BaseURL string
	Files   []string

	// AssetCount is the number of assets the family's collection is
	// expected to carry.
	AssetCount int

	// BBox and Start/End are the collection extent. End may be zero,
	// meaning the record is ongoing.
	BBox  [4]float64
	Start time.Time
	End   time.Time

	// XAxis and YAxis name the coordinate variables of the grid.
	XAxis string
	YAxis string
	EPSG  int

	// Variables maps a file name prefix to the NetCDF variable holding the
	// data for files with that prefix.
	Variables map[string]string

	// Grids override EPSG and BBox for files on other grids, such as the
	// two polar hemispheres of one product.
	Grids []Grid

	// ItemIDFromFilename makes whole-file items use the file stem as their
	// id instead of the derived slice id.
	ItemIDFromFilename bool
}

// Grid is the projection and geographic footprint of the files of a family
// whose names start with Prefix.
type Grid struct {
	Prefix string
	EPSG   int
	BBox   [4]float64
}

// grid returns the grid with the longest prefix of stem.
func (f *DatasetFamily) grid(stem string) (Grid, bool) {
	var best Grid
	var ok bool
	for _, g := range f.Grids {
		if strings.HasPrefix(stem, g.Prefix) && (!ok || len(g.Prefix) > len(best.Prefix)) {
			best, ok = g, true
		}
	}
	return best, ok
}

// Hrefs returns the source file locations of the family, in registry order.
func (f *DatasetFamily) Hrefs() []string {
	o := make([]string, len(f.Files))
	for i, file := range f.Files {
		o[i] = strings.TrimSuffix(f.BaseURL, "/") + "/" + file
	}
	return o
}

// variable returns the configured data variable for the given file stem,
// or "" if none is configured.
func (f *DatasetFamily) variable(stem string) string {
	var best string
	var bestLen int
	for prefix, v := range f.Variables {
		if strings.HasPrefix(stem, prefix) && len(prefix) > bestLen {
			best, bestLen = v, len(prefix)
		}
	}
	return best
}

// Registry is an immutable table of dataset families keyed by slug.
type Registry struct {
	families map[string]*DatasetFamily
	order    []string
}

type registryFile struct {
	Family []struct {
		Slug               string            `toml:"slug"`
		ID                 string            `toml:"id"`
		Title              string            `toml:"title"`
		Description        string            `toml:"description"`
		DOI                string            `toml:"doi"`
		Citation           string            `toml:"citation"`
		License            string            `toml:"license"`
		Keywords           []string          `toml:"keywords"`
		BaseURL            string            `toml:"base_url"`
		Files              []string          `toml:"files"`
		AssetCount         int               `toml:"asset_count"`
		BBox               []float64         `toml:"bbox"`
		Start              string            `toml:"start"`
		End                string            `toml:"end"`
		XAxis              string            `toml:"x_axis"`
		YAxis              string            `toml:"y_axis"`
		EPSG               int               `toml:"epsg"`
		Variables          map[string]string `toml:"variables"`
		ItemIDFromFilename bool              `toml:"item_id_from_filename"`
		Grids              []struct {
			Prefix string    `toml:"prefix"`
			EPSG   int       `toml:"epsg"`
			BBox   []float64 `toml:"bbox"`
		} `toml:"grids"`
	} `toml:"family"`
}

// LoadRegistry reads a TOML family table.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var rf registryFile
	if _, err := toml.NewDecoder(r).Decode(&rf); err != nil {
		return nil, fmt.Errorf("noaacdr: decoding family registry: %w", err)
	}
	reg := &Registry{families: make(map[string]*DatasetFamily)}
	for _, f := range rf.Family {
		if f.Slug == "" {
			return nil, fmt.Errorf("noaacdr: family registry: family without slug")
		}
		if _, ok := reg.families[f.Slug]; ok {
			return nil, fmt.Errorf("noaacdr: family registry: repeated slug %q", f.Slug)
		}
		if len(f.BBox) != 4 {
			return nil, fmt.Errorf("noaacdr: family %s: bbox must have 4 elements but has %d", f.Slug, len(f.BBox))
		}
		fam := &DatasetFamily{
			Slug:               f.Slug,
			ID:                 f.ID,
			Title:              f.Title,
			Description:        strings.TrimSpace(f.Description),
			DOI:                f.DOI,
			Citation:           strings.TrimSpace(f.Citation),
			License:            f.License,
			Keywords:           f.Keywords,
			BaseURL:            f.BaseURL,
			Files:              f.Files,
			AssetCount:         f.AssetCount,
			XAxis:              f.XAxis,
			YAxis:              f.YAxis,
			EPSG:               f.EPSG,
			Variables:          f.Variables,
			ItemIDFromFilename: f.ItemIDFromFilename,
		}
		copy(fam.BBox[:], f.BBox)
		for _, g := range f.Grids {
			if g.Prefix == "" || g.EPSG == 0 {
				return nil, fmt.Errorf("noaacdr: family %s: grids need a prefix and an epsg code", f.Slug)
			}
			if len(g.BBox) != 4 {
				return nil, fmt.Errorf("noaacdr: family %s: grid %s: bbox must have 4 elements but has %d", f.Slug, g.Prefix, len(g.BBox))
			}
			grid := Grid{Prefix: g.Prefix, EPSG: g.EPSG}
			copy(grid.BBox[:], g.BBox)
			fam.Grids = append(fam.Grids, grid)
		}
		var err error
		if fam.Start, err = parseDate(f.Start); err != nil {
			return nil, fmt.Errorf("noaacdr: family %s: start: %w", f.Slug, err)
		}
		if fam.End, err = parseDate(f.End); err != nil {
			return nil, fmt.Errorf("noaacdr: family %s: end: %w", f.Slug, err)
		}
		if fam.ID == "" {
			fam.ID = "noaa-cdr-" + fam.Slug
		}
		if fam.XAxis == "" {
			fam.XAxis = "lon"
		}
		if fam.YAxis == "" {
			fam.YAxis = "lat"
		}
		if fam.EPSG == 0 {
			fam.EPSG = 4326
		}
		reg.families[fam.Slug] = fam
		reg.order = append(reg.order, fam.Slug)
	}
	return reg, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

// DefaultRegistry returns the registry of the families this package knows
// about. Each call returns a fresh table.
func DefaultRegistry() *Registry {
	reg, err := LoadRegistry(strings.NewReader(familiesTOML))
	if err != nil {
		panic(err)
	}
	return reg
}

// Family returns the family with the given slug.
func (r *Registry) Family(slug string) (*DatasetFamily, error) {
	f, ok := r.families[slug]
	if !ok {
		known := append([]string(nil), r.order...)
		sort.Strings(known)
		return nil, fmt.Errorf("noaacdr: unknown dataset family %q; valid options are %s", slug, strings.Join(known, ", "))
	}
	return f, nil
}

// Families returns all families in registry order.
func (r *Registry) Families() []*DatasetFamily {
	o := make([]*DatasetFamily, len(r.order))
	for i, s := range r.order {
		o[i] = r.families[s]
	}
	return o
}

// stem returns the file name of href without its directory or extension.
func stem(href string) string {
	base := path.Base(strings.ReplaceAll(href, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
