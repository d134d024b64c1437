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
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

//go:generate go run ./cmd/noaacdr extract-metadata --MetadataCache=collection-asset-metadata.json

//go:embed collection-asset-metadata.json
var collectionAssetMetadata []byte

// AssetMetadata is the title and description of a source file.
type AssetMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MetadataCache holds the title and description of every source file,
// keyed by family slug and then by file stem. The files rarely change, so
// the cache is extracted once and shipped with the package.
type MetadataCache map[string]map[string]AssetMetadata

// LoadMetadataCache reads a cache document.
func LoadMetadataCache(r io.Reader) (MetadataCache, error) {
	var c MetadataCache
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("noaacdr: decoding metadata cache: %w", err)
	}
	return c, nil
}

// DefaultMetadataCache returns the cache embedded in this package.
func DefaultMetadataCache() MetadataCache {
	c, err := LoadMetadataCache(bytes.NewReader(collectionAssetMetadata))
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the metadata of the file with the given stem.
func (c MetadataCache) Lookup(slug, stem string) (AssetMetadata, bool) {
	md, ok := c[slug][stem]
	return md, ok
}

// Write writes the cache document to w.
func (c MetadataCache) Write(w io.Writer) error { return WriteJSON(w, c) }

// ExtractMetadataCache reads the title and summary of every source file
// of every family in reg. Any unreadable file aborts the extraction.
func ExtractMetadataCache(ctx context.Context, reg *Registry, opener Opener, log logrus.FieldLogger) (MetadataCache, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := make(MetadataCache)
	for _, f := range reg.Families() {
		hrefs := f.Hrefs()
		log.WithFields(logrus.Fields{
			"family": f.Slug,
			"files":  len(hrefs),
		}).Info("reading NetCDF files")
		c[f.Slug] = make(map[string]AssetMetadata, len(hrefs))
		for i, href := range hrefs {
			md, err := readAssetMetadata(ctx, opener, href)
			if err != nil {
				return nil, withContext(err, f.Slug, "")
			}
			c[f.Slug][stem(href)] = md
			log.WithFields(logrus.Fields{
				"family": f.Slug,
				"file":   fmt.Sprintf("%d/%d", i+1, len(hrefs)),
			}).Debug(href)
		}
	}
	return c, nil
}

func readAssetMetadata(ctx context.Context, opener Opener, href string) (AssetMetadata, error) {
	ds, err := opener.Open(ctx, href)
	if err != nil {
		return AssetMetadata{}, withHref(err, href, SourceUnreadable)
	}
	defer ds.Close()
	var md AssetMetadata
	if md.Title, err = textAttribute(ds, "", "title", href); err != nil {
		return AssetMetadata{}, err
	}
	if md.Description, err = textAttribute(ds, "", "summary", href); err != nil {
		return AssetMetadata{}, err
	}
	return md, nil
}
