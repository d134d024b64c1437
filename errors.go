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
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies the failures that can occur while turning a CDR
// file into STAC documents.
type ErrorKind int

const (
	// SourceUnreadable means a file could not be opened or parsed as NetCDF.
	SourceUnreadable ErrorKind = iota + 1
	// MissingAttribute means a required attribute is absent from a file.
	MissingAttribute
	// UnsupportedInterval means the time axis spacing matched no known
	// interval and no fallback was configured.
	UnsupportedInterval
	// AssetMismatch means supplied pre-converted COG hrefs do not match the
	// expected time slices.
	AssetMismatch
	// CacheMiss means the metadata cache lacks an entry needed to build
	// a collection.
	CacheMiss
)

func (k ErrorKind) String() string {
	switch k {
	case SourceUnreadable:
		return "source unreadable"
	case MissingAttribute:
		return "missing attribute"
	case UnsupportedInterval:
		return "unsupported interval"
	case AssetMismatch:
		return "asset mismatch"
	case CacheMiss:
		return "cache miss"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinel values for use with errors.Is.
var (
	ErrSourceUnreadable    = &Error{Kind: SourceUnreadable}
	ErrMissingAttribute    = &Error{Kind: MissingAttribute}
	ErrUnsupportedInterval = &Error{Kind: UnsupportedInterval}
	ErrAssetMismatch       = &Error{Kind: AssetMismatch}
	ErrCacheMiss           = &Error{Kind: CacheMiss}
)

// Error is returned by every operation in this package that fails for a
// domain reason. It carries enough context to find the offending file.
type Error struct {
	Kind ErrorKind

	// Href is the source file being processed, if known.
	Href string
	// Slug is the dataset family slug, if known.
	Slug string
	// Interval is the slice interval, if known.
	Interval Interval

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("noaacdr: ")
	b.WriteString(e.Kind.String())
	if e.Slug != "" {
		fmt.Fprintf(&b, " [%s]", e.Slug)
	}
	if e.Href != "" {
		fmt.Fprintf(&b, " %s", e.Href)
	}
	if e.Interval != "" {
		fmt.Fprintf(&b, " (%s)", e.Interval)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, href string, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Href: href, Err: fmt.Errorf(format, a...)}
}

// withContext fills in the family and interval of err if it is an *Error
// that does not have them yet.
func withContext(err error, slug string, interval Interval) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Slug == "" {
			e.Slug = slug
		}
		if e.Interval == "" {
			e.Interval = interval
		}
	}
	return err
}
