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
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/noaacdr"
	"github.com/spatialmodel/noaacdr/cloud"
	"github.com/spatialmodel/noaacdr/cog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var log = logrus.StandardLogger()

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("noaacdr: problem reading configuration file: %v", err)
		}
	}
	return configureLog(log, Cfg.GetString("LogLevel"))
}

func configureLog(l *logrus.Logger, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("noaacdr: invalid LogLevel: %v", err)
	}
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
	return nil
}

// splitOptions reads the time-slice options from cfg.
func splitOptions(cfg *viper.Viper) (noaacdr.SplitOptions, error) {
	o := noaacdr.SplitOptions{LatestOnly: cfg.GetBool("LatestOnly")}
	var err error
	if s := cfg.GetString("Interval"); s != "" {
		if o.Interval, err = noaacdr.ParseInterval(s); err != nil {
			return o, err
		}
	}
	if s := cfg.GetString("FallbackInterval"); s != "" {
		if o.Fallback, err = noaacdr.ParseInterval(s); err != nil {
			return o, err
		}
	}
	o.Thresholds = noaacdr.DefaultThresholds
	if s := cfg.GetString("Thresholds"); s != "" {
		if o.Thresholds, err = noaacdr.ParseThresholds(s); err != nil {
			return o, err
		}
	}
	return o, nil
}

func fetcher() *cloud.Fetcher {
	f := cloud.NewFetcher()
	f.Dir = Cfg.GetString("CacheDirectory")
	f.Retries = uint64(cast.ToUint(Cfg.Get("Retries")))
	f.Log = log
	return f
}

// builder returns a Builder for the named family configured from Cfg,
// without a converter. Each source file is downloaded at most once;
// release removes the downloads.
func builder(slug string) (b *noaacdr.Builder, release func(), err error) {
	family, err := noaacdr.DefaultRegistry().Family(slug)
	if err != nil {
		return nil, nil, err
	}
	opener, release := noaacdr.SharedNetCDFOpener(fetcher())
	b = noaacdr.NewBuilder(family, opener, nil)
	if b.Split, err = splitOptions(Cfg); err != nil {
		release()
		return nil, nil, err
	}
	b.Log = log
	return b, release, nil
}

func converter(opener noaacdr.Opener) (*cog.Converter, error) {
	c := cog.New(opener)
	opts, err := cast.ToStringSliceE(Cfg.Get("COGOptions"))
	if err != nil {
		return nil, fmt.Errorf("noaacdr: reading COGOptions: %v", err)
	}
	c.Options = opts
	c.Log = log
	return c, nil
}
