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

// Package noaacdrutil contains the command-line interface of noaacdr and
// the functions it runs.
package noaacdrutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/noaacdr"
	"github.com/spatialmodel/noaacdr/cloud"
	"github.com/spatialmodel/noaacdr/cog"
	"github.com/spatialmodel/noaacdr/validate"
)

// Items creates the items of b.Family from hrefs, which default to all of
// the family's source files, and writes each one to
// outputDirectory/<id>.json. It returns the locations written.
// If keepGoing is true, files that cannot be read are skipped and
// reported together in the returned error after the remaining files have
// been processed.
func Items(ctx context.Context, b *noaacdr.Builder, hrefs []string, outputDirectory string, o noaacdr.ItemOptions, check, keepGoing bool) ([]string, error) {
	if len(hrefs) == 0 {
		hrefs = b.Family.Hrefs()
	}
	u := new(uploader)
	dir := u.maybeUpload(outputDirectory)
	if u.err != nil {
		return nil, u.err
	}
	defer u.cleanup()

	var failed *multierror.Error
	if keepGoing {
		var skipped []string
		hrefs, skipped, failed = readable(ctx, b, hrefs)
		o.COGHrefs = dropCOGs(o.COGHrefs, skipped)
		if len(hrefs) == 0 {
			return nil, failed.ErrorOrNil()
		}
	}

	items, err := b.CreateItems(ctx, hrefs, dir, o)
	if err != nil {
		return nil, multierror.Append(failed, err).ErrorOrNil()
	}
	var written []string
	for _, item := range items {
		for _, a := range item.Assets {
			a.Href = u.href(a.Href)
		}
		if check {
			if err := validate.Err(validate.Item(item)); err != nil {
				return nil, fmt.Errorf("noaacdrutil: item %s is invalid: %w", item.ID, err)
			}
		}
		path, err := writeJSON(dir, item.ID, item)
		if err != nil {
			return nil, err
		}
		written = append(written, u.href(path))
	}
	if err := u.uploadOutput(ctx); err != nil {
		return nil, err
	}
	return written, failed.ErrorOrNil()
}

// readable splits hrefs into those whose attributes and time slices can
// be read and those that cannot.
func readable(ctx context.Context, b *noaacdr.Builder, hrefs []string) (ok, skipped []string, failed *multierror.Error) {
	for _, h := range hrefs {
		a, err := noaacdr.ExtractAttributes(ctx, b.Opener, h, b.Family)
		if err == nil {
			_, err = noaacdr.Split(a, b.Split)
		}
		if err != nil {
			b.Log.WithFields(logrus.Fields{"href": h}).WithError(err).Warn("skipping source file")
			failed = multierror.Append(failed, err)
			skipped = append(skipped, h)
			continue
		}
		ok = append(ok, h)
	}
	return ok, skipped, failed
}

// dropCOGs removes the rasters converted from the skipped source files.
func dropCOGs(cogs, skipped []string) []string {
	if len(cogs) == 0 || len(skipped) == 0 {
		return cogs
	}
	var o []string
	for _, c := range cogs {
		base := filepath.Base(c)
		keep := true
		for _, s := range skipped {
			if strings.HasPrefix(base, stem(s)+"_") {
				keep = false
				break
			}
		}
		if keep {
			o = append(o, c)
		}
	}
	return o
}

func stem(href string) string {
	base := filepath.Base(href)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Collection writes the collection of family to
// outputDirectory/collection.json and returns its location.
func Collection(ctx context.Context, family *noaacdr.DatasetFamily, cache noaacdr.MetadataCache, outputDirectory string, check bool) (string, error) {
	c, err := noaacdr.CreateCollection(family, cache)
	if err != nil {
		return "", err
	}
	if check {
		if err := validate.Err(validate.Collection(c)); err != nil {
			return "", fmt.Errorf("noaacdrutil: collection %s is invalid: %w", c.ID, err)
		}
	}
	return writeOutput(ctx, outputDirectory, "collection", c)
}

// NetCDFItem writes an item for the whole of href, with the NetCDF file
// as its asset, and returns its location.
func NetCDFItem(ctx context.Context, b *noaacdr.Builder, href, outputDirectory string, check bool) (string, error) {
	item, err := b.CreateNetCDFItem(ctx, href)
	if err != nil {
		return "", err
	}
	if check {
		if err := validate.Err(validate.Item(item)); err != nil {
			return "", fmt.Errorf("noaacdrutil: item %s is invalid: %w", item.ID, err)
		}
	}
	return writeOutput(ctx, outputDirectory, item.ID, item)
}

// Cogify converts every time slice of hrefs, which default to all of the
// family's source files, into a COG in outputDirectory and returns the
// raster locations. Slices with a raster among existing are not
// converted again.
func Cogify(ctx context.Context, family *noaacdr.DatasetFamily, c *cog.Converter, split noaacdr.SplitOptions, hrefs []string, outputDirectory string, existing []string, keepGoing bool) ([]string, error) {
	if len(hrefs) == 0 {
		hrefs = family.Hrefs()
	}
	u := new(uploader)
	dir := u.maybeUpload(outputDirectory)
	if u.err != nil {
		return nil, u.err
	}
	defer u.cleanup()
	var (
		failed  *multierror.Error
		written []string
	)
	for _, h := range hrefs {
		assets, err := cogify(ctx, family, c, split, h, dir, existing)
		if err != nil {
			if !keepGoing {
				return nil, err
			}
			c.Log.WithFields(logrus.Fields{"href": h}).WithError(err).Warn("skipping source file")
			failed = multierror.Append(failed, err)
			continue
		}
		for _, a := range assets {
			written = append(written, u.href(a.Href))
		}
	}
	if err := u.uploadOutput(ctx); err != nil {
		return nil, err
	}
	return written, failed.ErrorOrNil()
}

func cogify(ctx context.Context, family *noaacdr.DatasetFamily, c *cog.Converter, split noaacdr.SplitOptions, href, dir string, existing []string) ([]noaacdr.Asset, error) {
	a, err := noaacdr.ExtractAttributes(ctx, c.Opener, href, family)
	if err != nil {
		return nil, err
	}
	slices, err := noaacdr.Split(a, split)
	if err != nil {
		return nil, err
	}
	return c.Convert(ctx, noaacdr.ConversionJob{
		Source:          href,
		OutputDirectory: dir,
		Attributes:      a,
		Slices:          slices,
		Existing:        existing,
	})
}

// ExtractMetadata reads the title and summary of every source file in reg
// and writes the resulting metadata cache to path, or to w if path is
// empty.
func ExtractMetadata(ctx context.Context, reg *noaacdr.Registry, opener noaacdr.Opener, path string, w io.Writer, log logrus.FieldLogger) error {
	cache, err := noaacdr.ExtractMetadataCache(ctx, reg, opener, log)
	if err != nil {
		return err
	}
	if path == "" {
		return cache.Write(w)
	}
	b := new(bytes.Buffer)
	if err := cache.Write(b); err != nil {
		return err
	}
	if cloud.IsBlob(path) {
		return cloud.PutBytes(ctx, b.Bytes(), path, "application/json")
	}
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return fmt.Errorf("noaacdrutil: writing metadata cache: %w", err)
	}
	return nil
}

// LoadMetadataCache reads the cache at path, or returns the built-in
// cache if path is empty. Remote paths are fetched with f.
func LoadMetadataCache(ctx context.Context, f *cloud.Fetcher, path string) (noaacdr.MetadataCache, error) {
	if path == "" {
		return noaacdr.DefaultMetadataCache(), nil
	}
	local, release, err := f.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	defer release()
	r, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("noaacdrutil: opening metadata cache: %w", err)
	}
	defer r.Close()
	return noaacdr.LoadMetadataCache(r)
}

// Families writes a table of the dataset families in reg to w.
func Families(w io.Writer, reg *noaacdr.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tCOLLECTION\tFILES\tTITLE")
	for _, f := range reg.Families() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Slug, f.ID, len(f.Hrefs()), f.Title)
	}
	return tw.Flush()
}

// writeOutput writes v to dir/name.json, uploading it if dir is a blob
// location, and returns its location.
func writeOutput(ctx context.Context, dir, name string, v interface{}) (string, error) {
	u := new(uploader)
	local := u.maybeUpload(dir)
	if u.err != nil {
		return "", u.err
	}
	defer u.cleanup()
	path, err := writeJSON(local, name, v)
	if err != nil {
		return "", err
	}
	href := u.href(path)
	if err := u.uploadOutput(ctx); err != nil {
		return "", err
	}
	return href, nil
}

func writeJSON(dir, name string, v interface{}) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("noaacdrutil: creating output directory: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("noaacdrutil: creating %s: %w", path, err)
	}
	if err := noaacdr.WriteJSON(f, v); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("noaacdrutil: closing %s: %w", path, err)
	}
	return path, nil
}
