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
	"time"
)

// CreateCollection creates the collection of family. Each source file
// becomes an asset whose title and description come from cache; remote
// files are not read.
func CreateCollection(family *DatasetFamily, cache MetadataCache) (*Collection, error) {
	assets := make(map[string]*Asset, len(family.Files))
	for _, href := range family.Hrefs() {
		key := stem(href)
		md, ok := cache.Lookup(family.Slug, key)
		if !ok {
			return nil, &Error{Kind: CacheMiss, Href: href, Slug: family.Slug,
				Err: fmt.Errorf("no cached metadata for %q", key)}
		}
		assets[key] = &Asset{
			Href:        href,
			Type:        NetCDFMediaType,
			Title:       md.Title,
			Description: md.Description,
			Roles:       []string{RoleData, RoleSource},
		}
	}
	start := family.Start
	var end *time.Time
	if !family.End.IsZero() {
		e := family.End
		end = &e
	}
	return &Collection{
		Type:           "Collection",
		StacVersion:    StacVersion,
		StacExtensions: []string{ScientificExtension},
		ID:             family.ID,
		Title:          family.Title,
		Description:    family.Description,
		Keywords:       family.Keywords,
		License:        family.License,
		Extent: Extent{
			Spatial:  SpatialExtent{BBox: [][]float64{append([]float64(nil), family.BBox[:]...)}},
			Temporal: TemporalExtent{Interval: [][]*time.Time{{&start, end}}},
		},
		Links:    []Link{},
		Assets:   assets,
		DOI:      family.DOI,
		Citation: family.Citation,
	}, nil
}
