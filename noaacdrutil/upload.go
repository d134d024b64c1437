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

package noaacdrutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/noaacdr"
	"github.com/spatialmodel/noaacdr/cloud"
)

type uploader struct {
	// dirs is a set of directory pairs. The first of each pair is a
	// local directory and the second is the blob storage location its
	// contents should be uploaded to.
	dirs [][2]string
	err  error
}

// maybeUpload checks whether the given output directory refers to a blob
// storage location. If it does, a temporary directory is returned whose
// contents will be uploaded to the location when uploadOutput is run.
func (u *uploader) maybeUpload(dir string) string {
	if u.err != nil {
		return ""
	}
	if !cloud.IsBlob(dir) {
		return dir
	}
	local, err := os.MkdirTemp("", "noaacdr")
	if err != nil {
		u.err = fmt.Errorf("noaacdrutil: creating upload directory: %w", err)
		return ""
	}
	u.dirs = append(u.dirs, [2]string{local, strings.TrimSuffix(dir, "/")})
	return local
}

// href returns the location path will have once it is uploaded.
func (u *uploader) href(path string) string {
	for _, d := range u.dirs {
		rel, err := filepath.Rel(d[0], path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		return d[1] + "/" + filepath.ToSlash(rel)
	}
	return path
}

// uploadOutput uploads every file written into the temporary directories
// and then removes them.
func (u *uploader) uploadOutput(ctx context.Context) error {
	if u.err != nil {
		return u.err
	}
	for _, d := range u.dirs {
		err := filepath.WalkDir(d[0], func(path string, e fs.DirEntry, err error) error {
			if err != nil || e.IsDir() {
				return err
			}
			return cloud.Put(ctx, path, u.href(path), contentType(path))
		})
		if err != nil {
			return fmt.Errorf("noaacdrutil: uploading to %s: %w", d[1], err)
		}
		if err := os.RemoveAll(d[0]); err != nil {
			return fmt.Errorf("noaacdrutil: removing upload directory: %w", err)
		}
	}
	u.dirs = nil
	return nil
}

// cleanup removes any temporary directories that were not uploaded.
func (u *uploader) cleanup() {
	for _, d := range u.dirs {
		os.RemoveAll(d[0])
	}
	u.dirs = nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	case ".tif", ".tiff":
		return noaacdr.COGMediaType
	}
	return ""
}
