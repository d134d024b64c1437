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

package noaacdr_test

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/noaacdr"
	"github.com/spatialmodel/noaacdr/cloud"
	"github.com/spatialmodel/noaacdr/netcdf/netcdftest"
)

func TestNetCDFFile(t *testing.T) {
	dir := t.TempDir()
	path := netcdftest.Write(t, dir, "heat_content_anomaly_0-2000_yearly.nc", netcdftest.OceanHeatContent(3))

	fetcher := cloud.NewFetcher()
	fetcher.Dir = t.TempDir()
	opener := noaacdr.NetCDFOpener(fetcher)
	family, err := noaacdr.DefaultRegistry().Family("ocean-heat-content")
	if err != nil {
		t.Fatal(err)
	}

	a, err := noaacdr.ExtractAttributes(context.Background(), opener, "file://"+path, family)
	if err != nil {
		t.Fatal(err)
	}
	if a.Variable != "h18_hc" || a.DataType != "float32" || !math.IsNaN(a.FillValue) {
		t.Errorf("variable %s %s %g", a.Variable, a.DataType, a.FillValue)
	}
	if diff := cmp.Diff([6]float64{45, 0, -180, 0, -45, 90}, a.Transform); diff != "" {
		t.Errorf("transform: %s", diff)
	}
	if a.Shape != [2]int{4, 8} {
		t.Errorf("shape %v", a.Shape)
	}

	b := noaacdr.NewBuilder(family, opener, nil)
	logger, _ := test.NewNullLogger()
	b.Log = logger
	cogs := []string{
		filepath.Join(dir, "cogs", "heat_content_anomaly_0-2000_yearly_1955-01-01.tif"),
		filepath.Join(dir, "cogs", "heat_content_anomaly_0-2000_yearly_1956-01-01.tif"),
		filepath.Join(dir, "cogs", "heat_content_anomaly_0-2000_yearly_1957-01-01.tif"),
	}
	items, err := b.CreateItems(context.Background(), []string{path}, dir, noaacdr.ItemOptions{COGHrefs: cogs})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	want := []string{
		"ocean-heat-content-yearly-1955-01-01",
		"ocean-heat-content-yearly-1956-01-01",
		"ocean-heat-content-yearly-1957-01-01",
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestSharedNetCDFOpener(t *testing.T) {
	dir := t.TempDir()
	path := netcdftest.Write(t, dir, "heat_content_anomaly_0-2000_yearly.nc", netcdftest.OceanHeatContent(3))
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		http.ServeFile(w, r, path)
	}))
	defer srv.Close()

	fetcher := cloud.NewFetcher()
	fetcher.Dir = t.TempDir()
	opener, release := noaacdr.SharedNetCDFOpener(fetcher)
	family, err := noaacdr.DefaultRegistry().Family("ocean-heat-content")
	if err != nil {
		t.Fatal(err)
	}
	href := srv.URL + "/heat_content_anomaly_0-2000_yearly.nc"
	for i := 0; i < 3; i++ {
		if _, err := noaacdr.ExtractAttributes(context.Background(), opener, href, family); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("%d downloads != 1", n)
	}

	release()
	entries, err := os.ReadDir(fetcher.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d downloads left after release", len(entries))
	}
	if _, err := noaacdr.ExtractAttributes(context.Background(), opener, href, family); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Errorf("%d downloads != 2", n)
	}
	release()
}
