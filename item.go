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
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RasterConverter writes one raster per time slice of a source file.
type RasterConverter interface {
	// Convert returns one asset per slice of job, in the order of
	// job.Slices.
	Convert(ctx context.Context, job ConversionJob) ([]Asset, error)
}

// ConversionJob is the work of converting one source file.
type ConversionJob struct {
	Source          string
	OutputDirectory string
	Attributes      *RawAttributes
	Slices          []TimeSlice
	// Existing are already converted rasters. A slice whose raster is
	// among them is not converted again.
	Existing []string
}

// DefaultMergeTolerance is the default for Builder.MergeTolerance.
const DefaultMergeTolerance = 24 * time.Hour

// Builder creates the STAC documents of one dataset family.
type Builder struct {
	Family    *DatasetFamily
	Opener    Opener
	Converter RasterConverter
	Split     SplitOptions

	// MergeTolerance is how far apart the starts and ends of slices from
	// different files may be for them to share an item.
	MergeTolerance time.Duration

	Log logrus.FieldLogger
}

// NewBuilder returns a Builder with default split options and merge
// tolerance.
func NewBuilder(family *DatasetFamily, opener Opener, converter RasterConverter) *Builder {
	return &Builder{
		Family:         family,
		Opener:         opener,
		Converter:      converter,
		Split:          DefaultSplitOptions(),
		MergeTolerance: DefaultMergeTolerance,
		Log:            logrus.StandardLogger(),
	}
}

func (b *Builder) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}

// ItemOptions modify CreateItems.
type ItemOptions struct {
	// COGHrefs are already converted rasters. When set, no conversion
	// happens and every slice must have exactly one raster among them.
	COGHrefs []string

	// LatestOnly creates items for the last slice of each file only.
	// Files whose last slices cover the same period share one item;
	// otherwise each file yields its own item.
	LatestOnly bool
}

// sliceAsset is one slice of one file with its converted raster.
type sliceAsset struct {
	slice TimeSlice
	attrs *RawAttributes
	key   string
	asset Asset
}

// CreateItems creates the items for the slices of the files at hrefs,
// writing converted rasters into outputDirectory. Slices of different
// files that cover the same period share one item. Items are returned in
// chronological order. No items are returned if any file fails.
func (b *Builder) CreateItems(ctx context.Context, hrefs []string, outputDirectory string, o ItemOptions) ([]*Item, error) {
	if err := checkDistinct(hrefs); err != nil {
		return nil, err
	}
	cogs := make(map[string]string, len(o.COGHrefs))
	for _, h := range o.COGHrefs {
		name := baseName(h)
		if prev, ok := cogs[name]; ok && prev != h {
			return nil, &Error{Kind: AssetMismatch, Slug: b.Family.Slug,
				Err: fmt.Errorf("rasters %s and %s have the same name", prev, h)}
		}
		cogs[name] = h
	}
	used := make(map[string]bool, len(cogs))

	split := b.Split
	split.LatestOnly = split.LatestOnly || o.LatestOnly

	var all []sliceAsset
	for _, href := range hrefs {
		attrs, err := ExtractAttributes(ctx, b.Opener, href, b.Family)
		if err != nil {
			return nil, err
		}
		slices, err := Split(attrs, split)
		if err != nil {
			return nil, withContext(err, b.Family.Slug, "")
		}
		var assets []Asset
		if len(o.COGHrefs) > 0 {
			assets, err = b.matchCOGs(attrs, slices, cogs, used)
		} else {
			assets, err = b.convert(ctx, attrs, slices, outputDirectory)
		}
		if err != nil {
			return nil, err
		}
		key := assetKey(attrs.Stem)
		for i, s := range slices {
			all = append(all, sliceAsset{slice: s, attrs: attrs, key: key, asset: assets[i]})
		}
		b.log().WithFields(logrus.Fields{
			"family": b.Family.Slug,
			"href":   href,
			"slices": len(slices),
		}).Info("processed source file")
	}
	if len(o.COGHrefs) > 0 && !split.LatestOnly && len(used) < len(cogs) {
		var unused []string
		for name, h := range cogs {
			if !used[name] {
				unused = append(unused, h)
			}
		}
		sort.Strings(unused)
		return nil, &Error{Kind: AssetMismatch, Slug: b.Family.Slug,
			Err: fmt.Errorf("%d rasters match no time slice: %s", len(unused), strings.Join(unused, ", "))}
	}

	groups := b.merge(all)
	items := make([]*Item, 0, len(groups))
	for _, g := range groups {
		item, err := b.item(g)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// checkDistinct makes sure no two hrefs would produce the same asset.
func checkDistinct(hrefs []string) error {
	seen := make(map[string]string, len(hrefs))
	for _, h := range hrefs {
		s := stem(h)
		if prev, ok := seen[s]; ok {
			return fmt.Errorf("noaacdr: %s and %s are the same source file", prev, h)
		}
		seen[s] = h
	}
	return nil
}

func (b *Builder) convert(ctx context.Context, attrs *RawAttributes, slices []TimeSlice, outputDirectory string) ([]Asset, error) {
	if b.Converter == nil {
		return nil, fmt.Errorf("noaacdr: no raster converter configured and no converted rasters supplied")
	}
	assets, err := b.Converter.Convert(ctx, ConversionJob{
		Source:          attrs.Href,
		OutputDirectory: outputDirectory,
		Attributes:      attrs,
		Slices:          slices,
	})
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, withContext(err, b.Family.Slug, intervalOf(slices))
		}
		return nil, fmt.Errorf("noaacdr: converting %s: %w", attrs.Href, err)
	}
	if len(assets) != len(slices) {
		return nil, &Error{Kind: AssetMismatch, Href: attrs.Href, Slug: b.Family.Slug, Interval: intervalOf(slices),
			Err: fmt.Errorf("converter returned %d assets for %d time slices", len(assets), len(slices))}
	}
	return assets, nil
}

func (b *Builder) matchCOGs(attrs *RawAttributes, slices []TimeSlice, cogs map[string]string, used map[string]bool) ([]Asset, error) {
	assets := make([]Asset, len(slices))
	for i, s := range slices {
		name := s.COGName()
		h, ok := cogs[name]
		if !ok {
			return nil, &Error{Kind: AssetMismatch, Href: attrs.Href, Slug: b.Family.Slug, Interval: s.Interval,
				Err: fmt.Errorf("no raster named %s among %d supplied", name, len(cogs))}
		}
		used[name] = true
		assets[i] = COGAsset(h, attrs)
	}
	return assets, nil
}

func intervalOf(slices []TimeSlice) Interval {
	if len(slices) == 0 {
		return ""
	}
	return slices[0].Interval
}

// COGAsset returns the asset of a raster converted from the file
// described by a.
func COGAsset(href string, a *RawAttributes) Asset {
	return Asset{
		Href:  href,
		Type:  COGMediaType,
		Title: a.Title,
		Roles: []string{RoleData},
		Bands: []RasterBand{{
			Nodata:   Nodata(a.Nodata()),
			DataType: a.DataType,
			Unit:     a.Units,
		}},
	}
}

// merge groups slices that cover the same period. Groups are ordered by
// start, then by first appearance.
func (b *Builder) merge(all []sliceAsset) [][]sliceAsset {
	var groups [][]sliceAsset
	for _, sa := range all {
		joined := false
		for i, g := range groups {
			if b.sameSlice(g[0].slice, sa.slice) && !hasKey(g, sa.key) {
				groups[i] = append(g, sa)
				joined = true
				break
			}
		}
		if !joined {
			groups = append(groups, []sliceAsset{sa})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i][0].slice.Start.Before(groups[j][0].slice.Start)
	})
	return groups
}

func (b *Builder) sameSlice(a, c TimeSlice) bool {
	return a.Interval == c.Interval &&
		within(a.Start, c.Start, b.MergeTolerance) &&
		within(a.End, c.End, b.MergeTolerance)
}

func within(a, c time.Time, tol time.Duration) bool {
	d := a.Sub(c)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func hasKey(g []sliceAsset, key string) bool {
	for _, sa := range g {
		if sa.key == key {
			return true
		}
	}
	return false
}

func (b *Builder) item(g []sliceAsset) (*Item, error) {
	first := g[0]
	item, err := b.newItem(first.slice.ID(b.Family.Slug), first.attrs, first.slice.Interval,
		first.slice.Start, first.slice.End)
	if err != nil {
		return nil, err
	}
	for _, sa := range g {
		asset := sa.asset
		item.Assets[sa.key] = &asset
		if d, ok := maxDepth(sa.attrs); ok {
			if item.Properties.MaxDepth == nil || d > *item.Properties.MaxDepth {
				item.Properties.MaxDepth = &d
			}
		}
	}
	b.log().WithFields(logrus.Fields{
		"id":     item.ID,
		"assets": len(item.Assets),
	}).Debug("created item")
	return item, nil
}

// newItem returns an item without assets.
func (b *Builder) newItem(id string, a *RawAttributes, iv Interval, start, end time.Time) (*Item, error) {
	bounds := b.Family.BBox
	if a.EPSG == 4326 {
		bounds = a.Bounds()
	} else if g, ok := b.Family.grid(a.Stem); ok {
		bounds = g.BBox
	}
	geometry, err := bboxGeometry(bounds)
	if err != nil {
		return nil, fmt.Errorf("noaacdr: item %s geometry: %w", id, err)
	}
	return &Item{
		Type:           "Feature",
		StacVersion:    StacVersion,
		StacExtensions: []string{ProjectionExtension, RasterExtension},
		ID:             id,
		Geometry:       geometry,
		BBox:           bounds[:],
		Properties: ItemProperties{
			StartDatetime: start,
			EndDatetime:   end,
			Interval:      iv,
			EPSG:          a.EPSG,
			Shape:         []int{a.Shape[0], a.Shape[1]},
			Transform:     append([]float64(nil), a.Transform[:]...),
		},
		Links:      []Link{},
		Assets:     make(map[string]*Asset),
		Collection: b.Family.ID,
	}, nil
}

var depthPattern = regexp.MustCompile(`(\d+)-(\d+)`)

// maxDepth returns the bottom of the depth layer named in the file or
// variable name, e.g. 2000 for "heat_content_anomaly_0-2000_yearly".
// Unitless data have no depth.
func maxDepth(a *RawAttributes) (int, bool) {
	if a.Units == nil {
		return 0, false
	}
	for _, s := range []string{a.Stem, a.Variable} {
		if m := depthPattern.FindStringSubmatch(s); m != nil {
			d, err := strconv.Atoi(m[2])
			if err == nil {
				return d, true
			}
		}
	}
	return 0, false
}

// CreateNetCDFItem creates a single item covering the whole time axis of
// the file at href, with the file itself as its asset.
func (b *Builder) CreateNetCDFItem(ctx context.Context, href string) (*Item, error) {
	attrs, err := ExtractAttributes(ctx, b.Opener, href, b.Family)
	if err != nil {
		return nil, err
	}
	split := b.Split
	split.LatestOnly = false
	slices, err := Split(attrs, split)
	if err != nil {
		return nil, withContext(err, b.Family.Slug, "")
	}
	first, last := slices[0], slices[len(slices)-1]
	id := attrs.ID
	if id == "" || strings.ContainsAny(id, `/\`) || b.Family.ItemIDFromFilename {
		// DOIs and other path-like ids fall back to the file name.
		id = attrs.Stem
	}
	item, err := b.newItem(id, attrs, first.Interval, first.Start, last.End)
	if err != nil {
		return nil, err
	}
	if d, ok := maxDepth(attrs); ok {
		item.Properties.MaxDepth = &d
	}
	item.Assets["netcdf"] = &Asset{
		Href:        href,
		Type:        NetCDFMediaType,
		Title:       attrs.Title,
		Description: attrs.Summary,
		Roles:       []string{RoleData, RoleSource},
	}
	return item, nil
}
