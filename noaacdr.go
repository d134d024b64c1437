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

// Package noaacdr creates STAC Items and Collections for NOAA Climate Data
// Records distributed as NetCDF files.
//
// A DatasetFamily from the Registry names the source files of a product.
// ExtractAttributes reads what is needed from each file, Split divides its
// time axis into slices and a Builder turns the slices into Items, each
// referencing the Cloud-Optimized GeoTIFF a RasterConverter produced for
// it. CreateCollection describes the family as a whole from a
// MetadataCache rather than from the remote files.
package noaacdr

// Version is the version of this software.
const Version = "0.1.0"
