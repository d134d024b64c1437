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

// Package validate checks STAC Items and Collections against the
// structural rules declared on the noaacdr types.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/spatialmodel/noaacdr"
)

// Violation is one failed rule, identified by the JSON path of the
// offending field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

var stac = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(temporalExtent, noaacdr.TemporalExtent{})
	v.RegisterStructValidation(itemBBox, noaacdr.Item{})
	return v
}

// temporalExtent checks that every interval has at least one bound and
// that its start is not after its end.
func temporalExtent(sl validator.StructLevel) {
	e := sl.Current().Interface().(noaacdr.TemporalExtent)
	for i, iv := range e.Interval {
		if len(iv) != 2 {
			continue
		}
		field := fmt.Sprintf("interval[%d]", i)
		switch {
		case iv[0] == nil && iv[1] == nil:
			sl.ReportError(e.Interval[i], field, fmt.Sprintf("Interval[%d]", i), "bounded", "")
		case iv[0] != nil && iv[1] != nil && iv[1].Before(*iv[0]):
			sl.ReportError(e.Interval[i], field, fmt.Sprintf("Interval[%d]", i), "ordered", "")
		}
	}
}

func itemBBox(sl validator.StructLevel) {
	item := sl.Current().Interface().(noaacdr.Item)
	if len(item.BBox) == 4 && item.BBox[1] > item.BBox[3] {
		sl.ReportError(item.BBox, "bbox", "BBox", "ordered", "")
	}
}

// Item returns the violations in item, or nil if it is valid.
func Item(item *noaacdr.Item) []Violation {
	if item == nil {
		return []Violation{{Message: "item is nil"}}
	}
	return violations(stac.Struct(item))
}

// Collection returns the violations in c, or nil if it is valid.
func Collection(c *noaacdr.Collection) []Violation {
	if c == nil {
		return []Violation{{Message: "collection is nil"}}
	}
	return violations(stac.Struct(c))
}

// Err combines violations into a single error. It returns nil if there are
// none.
func Err(violations []Violation) error {
	var err *multierror.Error
	for _, v := range violations {
		err = multierror.Append(err, v)
	}
	return err.ErrorOrNil()
}

func violations(err error) []Violation {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []Violation{{Message: err.Error()}}
	}
	out := make([]Violation, 0, len(ve))
	for _, fe := range ve {
		ns := fe.Namespace()
		// Drop the type name.
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		out = append(out, Violation{Field: ns, Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "eq":
		return fmt.Sprintf("must be %q", fe.Param())
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "len":
		return "must have length " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gtefield":
		return "must not be before " + fe.Param()
	case "url":
		return "must be a URL"
	case "bounded":
		return "must have a start or an end"
	case "ordered":
		return "start must not be after end"
	}
	return fmt.Sprintf("failed the %s rule", fe.Tag())
}
