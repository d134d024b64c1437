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

package cloud

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gocloud.dev/gcerrors"
)

// Fetcher makes remote sources available as local files.
type Fetcher struct {
	// Dir is the directory temporary downloads are created in. If empty,
	// the system temporary directory is used.
	Dir string

	// Retries is the maximum number of times a failed download is retried.
	Retries uint64

	// MaxInterval caps the wait between retries.
	MaxInterval time.Duration

	HTTP *resty.Client
	Log  logrus.FieldLogger
}

// NewFetcher returns a Fetcher with default settings.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Retries:     5,
		MaxInterval: 30 * time.Second,
		HTTP:        resty.New().SetTimeout(10 * time.Minute),
		Log:         logrus.StandardLogger(),
	}
}

func noop() {}

// Fetch checks if href is an existing local file. If it is, the path is
// returned unchanged. Otherwise, if href is an HTTP(S) URL or a blob
// location, the file is downloaded into a temporary directory and the path
// to the downloaded file is returned.
// release removes any temporary download and must be called when the
// caller is done with the file; it is never nil when err is nil.
func (f *Fetcher) Fetch(ctx context.Context, href string) (path string, release func(), err error) {
	if u, err := url.Parse(href); err == nil && u.Scheme == "file" && u.Host == "" {
		href = u.Path
	}
	if _, err := os.Stat(href); err == nil {
		return href, noop, nil
	}
	if !IsHTTP(href) && !IsBlob(href) {
		return "", nil, fmt.Errorf("cloud: %s does not exist", href)
	}

	dir, err := os.MkdirTemp(f.Dir, "noaacdr")
	if err != nil {
		return "", nil, fmt.Errorf("cloud: failed creating temporary download directory: %v", err)
	}
	release = func() { os.RemoveAll(dir) }
	path = filepath.Join(dir, downloadName(href))

	var download func() error
	if IsHTTP(href) {
		download = func() error { return f.downloadHTTP(ctx, href, path) }
	} else {
		download = func() error { return downloadBlob(ctx, href, path) }
	}

	b := backoff.NewExponentialBackOff()
	if f.MaxInterval > 0 {
		b.MaxInterval = f.MaxInterval
	}
	err = backoff.RetryNotify(
		download,
		backoff.WithContext(backoff.WithMaxRetries(b, f.Retries), ctx),
		func(err error, d time.Duration) {
			f.log().WithFields(logrus.Fields{
				"href":  href,
				"retry": d,
			}).WithError(err).Warn("download failed")
		},
	)
	if err != nil {
		release()
		return "", nil, err
	}
	f.log().WithFields(logrus.Fields{"href": href, "path": path}).Debug("downloaded")
	return path, release, nil
}

func (f *Fetcher) log() logrus.FieldLogger {
	if f.Log == nil {
		return logrus.StandardLogger()
	}
	return f.Log
}

// downloadName returns the local file name for href, without any query
// string or fragment.
func downloadName(href string) string {
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return filepath.Base(href)
}

// downloadHTTP downloads href into path. Client errors are not retried.
func (f *Fetcher) downloadHTTP(ctx context.Context, href, path string) error {
	client := f.HTTP
	if client == nil {
		client = resty.New()
	}
	resp, err := client.R().SetContext(ctx).SetOutput(path).Get(href)
	if err != nil {
		return fmt.Errorf("cloud: downloading %s: %w", href, err)
	}
	if resp.IsError() {
		err := fmt.Errorf("cloud: downloading %s: %s", href, resp.Status())
		if resp.StatusCode() >= http.StatusBadRequest && resp.StatusCode() < http.StatusInternalServerError &&
			resp.StatusCode() != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}
	return nil
}

// downloadBlob downloads the blob at href into path.
func downloadBlob(ctx context.Context, href, path string) error {
	bucketName, key, err := splitBlob(href)
	if err != nil {
		return backoff.Permanent(err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return backoff.Permanent(err)
	}
	defer bucket.Close()
	w, err := os.Create(path)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("cloud: failed creating file for download: %v", err))
	}
	if err := readBlob(ctx, bucket, key, w); err != nil {
		w.Close()
		if gcerrors.Code(err) == gcerrors.NotFound {
			return backoff.Permanent(err)
		}
		return err
	}
	return w.Close()
}
