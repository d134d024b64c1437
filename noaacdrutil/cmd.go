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
	"os"
	"strings"

	"github.com/spatialmodel/noaacdr"
	"github.com/spatialmodel/noaacdr/cog"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to noaacdr.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print:
              one of panic, fatal, error, warn, info, debug or trace.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "CacheDirectory",
			usage: `
              CacheDirectory is the directory remote source files are
              downloaded into while they are read. The system temporary
              directory is used if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Retries",
			usage: `
              Retries is the maximum number of times a failed download
              of a remote source file is retried.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputDirectory",
			usage: `
              OutputDirectory is the directory STAC documents and COGs
              are written to. It can be a local directory or a blob storage
              location such as s3://bucket/path or gs://bucket/path.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), collectionCmd.Flags(), netcdfItemCmd.Flags(), cogifyCmd.Flags()},
		},
		{
			name: "COGHrefs",
			usage: `
              COGHrefs are already converted COGs. When set, items
              reference these instead of converting the source files, and
              every time slice must match exactly one of them by file name.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), cogifyCmd.Flags()},
		},
		{
			name: "LatestOnly",
			usage: `
              LatestOnly restricts output to the last time slice of
              each source file.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), cogifyCmd.Flags()},
		},
		{
			name: "Interval",
			usage: `
              Interval is the temporal interval of the source files:
              yearly, monthly, pentadal or seasonal. If empty, it is taken
              from the file name or inferred from the time axis.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), cogifyCmd.Flags(), netcdfItemCmd.Flags()},
		},
		{
			name: "FallbackInterval",
			usage: `
              FallbackInterval is used when the interval cannot be
              inferred, for example for files with a single time value.
              If empty, such files are an error.`,
			defaultVal: string(noaacdr.Yearly),
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), cogifyCmd.Flags(), netcdfItemCmd.Flags()},
		},
		{
			name: "Thresholds",
			usage: `
              Thresholds are the time spacings, in days, that identify
              each interval when it is inferred, in the format
              interval=days:tolerance.`,
			defaultVal: "yearly=365:5,monthly=30:3.5,pentadal=73:10,seasonal=91:5",
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), cogifyCmd.Flags(), netcdfItemCmd.Flags()},
		},
		{
			name: "MergeTolerance",
			usage: `
              MergeTolerance is how far apart the starts and ends of time
              slices from different files may be for them to share an item.`,
			defaultVal: noaacdr.DefaultMergeTolerance.String(),
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags()},
		},
		{
			name: "Validate",
			usage: `
              Validate specifies whether STAC documents are checked
              before they are written.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), collectionCmd.Flags(), netcdfItemCmd.Flags()},
		},
		{
			name: "KeepGoing",
			usage: `
              KeepGoing specifies whether to continue past source files
              that cannot be processed. All failures are reported at the end.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), cogifyCmd.Flags()},
		},
		{
			name: "MetadataCache",
			usage: `
              MetadataCache is the location of the asset metadata cache.
              The collection command reads it, using the built-in cache if
              it is empty; extract-metadata writes it, printing to standard
              output if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{collectionCmd.Flags(), extractMetadataCmd.Flags()},
		},
		{
			name: "COGOptions",
			usage: `
              COGOptions are GDAL COG driver creation options.`,
			defaultVal: cog.DefaultOptions,
			flagsets:   []*pflag.FlagSet{itemsCmd.Flags(), cogifyCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("NOAACDR")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(familiesCmd)
	Root.AddCommand(itemsCmd)
	Root.AddCommand(collectionCmd)
	Root.AddCommand(netcdfItemCmd)
	Root.AddCommand(cogifyCmd)
	Root.AddCommand(extractMetadataCmd)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "noaacdr",
	Short: "Create STAC metadata and COGs for NOAA Climate Data Records.",
	Long: `noaacdr converts NOAA Climate Data Record (CDR) NetCDF files into
STAC Items and Collections and Cloud-Optimized GeoTIFFs.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'NOAACDR_var' where 'var' is the
name of the variable to be set. Source file locations can contain environment
variables. Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of noaacdr.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("noaacdr v%s\n", noaacdr.Version)
	},
	DisableAutoGenTag: true,
}

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "List the dataset families",
	Long:  "families lists the CDR dataset families noaacdr knows about.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Families(cmd.OutOrStdout(), noaacdr.DefaultRegistry())
	},
	DisableAutoGenTag: true,
}

var itemsCmd = &cobra.Command{
	Use:   "items family [href...]",
	Short: "Create STAC items",
	Long: `items creates one STAC item per time slice of the given source files
of a dataset family, or of all of its source files if none are given, and
writes them to OutputDirectory. Unless COGHrefs are given, each time slice is
also converted to a COG in OutputDirectory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, release, err := builder(args[0])
		if err != nil {
			return err
		}
		defer release()
		cogs := expandStringSlice(cast.ToStringSlice(Cfg.Get("COGHrefs")))
		if len(cogs) == 0 {
			b.Converter, err = converter(b.Opener)
			if err != nil {
				return err
			}
		}
		if b.MergeTolerance, err = cast.ToDurationE(Cfg.Get("MergeTolerance")); err != nil {
			return fmt.Errorf("noaacdr: reading MergeTolerance: %v", err)
		}
		written, err := Items(cmd.Context(), b, expandStringSlice(args[1:]),
			os.ExpandEnv(Cfg.GetString("OutputDirectory")),
			noaacdr.ItemOptions{COGHrefs: cogs, LatestOnly: Cfg.GetBool("LatestOnly")},
			Cfg.GetBool("Validate"), Cfg.GetBool("KeepGoing"))
		for _, w := range written {
			cmd.Println(w)
		}
		return err
	},
	DisableAutoGenTag: true,
}

var collectionCmd = &cobra.Command{
	Use:   "collection family",
	Short: "Create a STAC collection",
	Long: `collection creates the STAC collection of a dataset family and writes
it to OutputDirectory/collection.json. Asset titles and descriptions come
from the metadata cache; source files are not read.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		family, err := noaacdr.DefaultRegistry().Family(args[0])
		if err != nil {
			return err
		}
		cache, err := LoadMetadataCache(cmd.Context(), fetcher(), os.ExpandEnv(Cfg.GetString("MetadataCache")))
		if err != nil {
			return err
		}
		written, err := Collection(cmd.Context(), family, cache,
			os.ExpandEnv(Cfg.GetString("OutputDirectory")), Cfg.GetBool("Validate"))
		if err != nil {
			return err
		}
		cmd.Println(written)
		return nil
	},
	DisableAutoGenTag: true,
}

var netcdfItemCmd = &cobra.Command{
	Use:   "netcdf-item family href",
	Short: "Create a STAC item for a whole NetCDF file",
	Long: `netcdf-item creates a single STAC item covering the whole time range
of a source file, with the NetCDF file itself as its asset.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, release, err := builder(args[0])
		if err != nil {
			return err
		}
		defer release()
		written, err := NetCDFItem(cmd.Context(), b, os.ExpandEnv(args[1]),
			os.ExpandEnv(Cfg.GetString("OutputDirectory")), Cfg.GetBool("Validate"))
		if err != nil {
			return err
		}
		cmd.Println(written)
		return nil
	},
	DisableAutoGenTag: true,
}

var cogifyCmd = &cobra.Command{
	Use:   "cogify family [href...]",
	Short: "Convert source files to COGs",
	Long: `cogify converts every time slice of the given source files of a dataset
family, or of all of its source files if none are given, into a COG in
OutputDirectory. Slices with a COG among COGHrefs are not converted again.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		family, err := noaacdr.DefaultRegistry().Family(args[0])
		if err != nil {
			return err
		}
		split, err := splitOptions(Cfg)
		if err != nil {
			return err
		}
		opener, release := noaacdr.SharedNetCDFOpener(fetcher())
		defer release()
		c, err := converter(opener)
		if err != nil {
			return err
		}
		written, err := Cogify(cmd.Context(), family, c, split, expandStringSlice(args[1:]),
			os.ExpandEnv(Cfg.GetString("OutputDirectory")),
			expandStringSlice(cast.ToStringSlice(Cfg.Get("COGHrefs"))), Cfg.GetBool("KeepGoing"))
		for _, w := range written {
			cmd.Println(w)
		}
		return err
	},
	DisableAutoGenTag: true,
}

var extractMetadataCmd = &cobra.Command{
	Use:   "extract-metadata",
	Short: "Rebuild the asset metadata cache",
	Long: `extract-metadata reads the title and summary of every source file of
every dataset family and writes them as an asset metadata cache to
MetadataCache, or to standard output. Any unreadable file is an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ExtractMetadata(cmd.Context(), noaacdr.DefaultRegistry(), noaacdr.NetCDFOpener(fetcher()),
			os.ExpandEnv(Cfg.GetString("MetadataCache")), cmd.OutOrStdout(), log)
	},
	DisableAutoGenTag: true,
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(strings.TrimSpace(s[i]))
	}
	return s
}
