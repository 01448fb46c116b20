package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gggutils/i2srun/lib/config"
	"github.com/gggutils/i2srun/lib/i2sinput"
	"github.com/gggutils/i2srun/lib/runcfg"
)

// ParallelConfigName is the config file written next to split input files.
const ParallelConfigName = "i2s_parallel.cfg"

var siteIDRe = regexp.MustCompile(`^[A-Za-z]{2}$`)

func newHeaderCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "header-catalog HEADER_FILE SCAN_LIST_FILE I2S_FILE...",
		Aliases: []string{"hc"},
		Short:   "Build a header and catalog file from many I2S input files",
		Long: `Write the general I2S options of the first input file to HEADER_FILE and
the scan catalogs of all input files, in order, to SCAN_LIST_FILE.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			joined, err := concatInputFiles(s, args[2:])
			if err != nil {
				return err
			}
			header, catalog, err := i2sinput.HeaderAndCatalog(joined)
			if err != nil {
				return err
			}
			if err := writeText(args[0], header); err != nil {
				return err
			}
			return writeText(args[1], catalog)
		},
	}
}

func concatInputFiles(s config.Settings, files []string) (*i2sinput.Document, error) {
	docs := make([]*i2sinput.Document, 0, len(files))
	for _, f := range files {
		doc, err := readInputFile(f, inputFormat(s, i2sinput.Opus))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	joined, err := i2sinput.Concat(docs...)
	if err != nil {
		return nil, oops.Wrapf(err, "combining %d input files", len(files))
	}
	return joined, nil
}

// sliceDetector reads an input file to tell slices from Opus files.
func sliceDetector(s config.Settings) runcfg.SliceDetector {
	return func(path string) (bool, error) {
		doc, err := readInputFile(path, inputFormat(s, i2sinput.Opus))
		if err != nil {
			return false, err
		}
		return i2sinput.UsesSlices(doc)
	}
}

func newBuildCfgCmd() *cobra.Command {
	var oldCfg string
	var relPaths bool
	cmd := &cobra.Command{
		Use:   "build-cfg CFG_FILE I2S_FILE...",
		Short: "Build the config file to run I2S in bulk",
		Long: `Create a starting batch config file with one date section per I2S input
file. Input file names must contain the site id and date, as in
pa20140918.opus-i2s.in. Site options are left blank to be filled in.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			cfgFile := args[0]
			doc, err := runcfg.BuildFromInputFiles(args[1:], runcfg.BuildOptions{
				ConfigDir:  filepath.Dir(cfgFile),
				RelPaths:   relPaths,
				UsesSlices: sliceDetector(s),
			})
			if err != nil {
				return err
			}
			if oldCfg != "" {
				old, err := runcfg.Load(oldCfg)
				if err != nil {
					return err
				}
				runcfg.Overlay(doc, old)
			}
			if err := runcfg.Save(doc, cfgFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Wrote %s with %d runs", cfgFile, len(doc.Units()))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&oldCfg, "old-cfg-file", "c", "", "previous config file whose options are copied into the new one")
	cmd.Flags().BoolVarP(&relPaths, "rel-paths", "r", false, "write input file paths relative to the config file")
	return cmd
}

// splitOptions are the flags shared by the commands that re-split a
// catalog into per-period input files.
type splitOptions struct {
	splitBy string
	slices  bool
	opus    bool
}

func (o *splitOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.splitBy, "split-by", "s", "D", "split the runs by D(ay), M(onth) or Y(ear)")
	cmd.Flags().BoolVar(&o.slices, "is-slices", false, "the catalog lists slices (default: guess from the catalog)")
	cmd.Flags().BoolVar(&o.opus, "is-opus", false, "the catalog lists Opus interferograms (default: guess from the catalog)")
	cmd.MarkFlagsMutuallyExclusive("is-slices", "is-opus")
}

func (o *splitOptions) usesSlices(doc *i2sinput.Document) (bool, error) {
	switch {
	case o.slices:
		return true, nil
	case o.opus:
		return false, nil
	}
	return i2sinput.UsesSlices(doc)
}

// buildBySplit writes one input file per period of doc's catalog into
// outDir and a config file covering all of them.
func (o *splitOptions) buildBySplit(cmd *cobra.Command, site, outDir string, doc *i2sinput.Document) error {
	if !siteIDRe.MatchString(site) {
		return oops.Errorf("site id %q must be two letters", site)
	}
	g, err := runcfg.ParseGranularity(o.splitBy)
	if err != nil {
		return err
	}
	slices, err := o.usesSlices(doc)
	if err != nil {
		return err
	}
	kind := i2sinput.Opus
	if slices {
		kind = i2sinput.Slices
	}
	groups, err := i2sinput.SplitBy(doc, site, g)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return oops.Wrapf(err, "creating output directory %s", outDir)
	}

	files := make([]string, 0, len(groups))
	for _, grp := range groups {
		path := filepath.Join(outDir, grp.Key.String()+"."+kind.InputFileName())
		if err := writeText(path, grp.Doc.Render()); err != nil {
			return err
		}
		files = append(files, path)
	}
	cfg, err := runcfg.BuildFromInputFiles(files, runcfg.BuildOptions{
		ConfigDir:  outDir,
		RelPaths:   true,
		UsesSlices: func(string) (bool, error) { return slices, nil },
	})
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(outDir, ParallelConfigName)
	if err := runcfg.Save(cfg, cfgPath); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"at":     "buildBySplit",
		"site":   site,
		"split":  g.String(),
		"kind":   kind.String(),
		"groups": len(groups),
	}).Info("Split catalog into input files")
	fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Wrote %d %s input files and %s", len(groups), kind, cfgPath)))
	return nil
}

func newBuildCfgManyCmd() *cobra.Command {
	var opts splitOptions
	cmd := &cobra.Command{
		Use:     "build-cfg-many SITE_ID OUTPUT_DIR I2S_FILE...",
		Aliases: []string{"bcm"},
		Short:   "Build the config file from multiple original I2S input files",
		Long: `Extract the scan catalogs of one or more I2S input files, re-split them by
day, month or year into new input files in OUTPUT_DIR and write a config
file to run them in parallel. The general I2S options are taken from the
first input file.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			joined, err := concatInputFiles(s, args[2:])
			if err != nil {
				return err
			}
			return opts.buildBySplit(cmd, args[0], args[1], joined)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newBuildCfgHCCmd() *cobra.Command {
	var opts splitOptions
	cmd := &cobra.Command{
		Use:     "build-cfg-hc SITE_ID OUTPUT_DIR HEADER_FILE SCAN_LIST",
		Aliases: []string{"bchc"},
		Short:   "Build the config file from header and catalog files",
		Long: `Combine a file of general I2S options with a catalog of scans, split the
catalog by day, month or year into input files in OUTPUT_DIR and write a
config file to run them in parallel.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			header, err := os.ReadFile(args[2])
			if err != nil {
				return oops.Wrapf(err, "reading header file %s", args[2])
			}
			catalog, err := os.ReadFile(args[3])
			if err != nil {
				return oops.Wrapf(err, "reading scan list %s", args[3])
			}
			doc, err := i2sinput.FromHeaderAndCatalog(string(header), string(catalog), inputFormat(s, i2sinput.Opus))
			if err != nil {
				return oops.Wrapf(err, "combining %s and %s", args[2], args[3])
			}
			// Concat of a single document checks the catalog's column counts.
			if doc, err = i2sinput.Concat(doc); err != nil {
				return oops.Wrapf(err, "scan list %s", args[3])
			}
			return opts.buildBySplit(cmd, args[0], args[1], doc)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newUpdateCfgCmd() *cobra.Command {
	var newCfg string
	var keepMissing bool
	cmd := &cobra.Command{
		Use:   "up-cfg CFG_FILE I2S_FILE...",
		Short: "Update the config file with new run files",
		Long: `Point every date section of CFG_FILE at the matching input file given.
Date sections with no matching file are removed unless --keep-missing is
set.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := runcfg.Load(args[0])
			if err != nil {
				return err
			}
			removed, err := runcfg.UpdateInputFiles(doc, args[1:], keepMissing)
			if err != nil {
				return err
			}
			out := newCfg
			if out == "" {
				out = args[0]
			}
			if err := runcfg.Save(doc, out); err != nil {
				return err
			}
			for _, key := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("Removed "+key+": no input file given"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Wrote %s with %d runs", out, len(doc.Units()))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&newCfg, "new-cfg-file", "c", "", "write the updated config here instead of overwriting CFG_FILE")
	cmd.Flags().BoolVarP(&keepMissing, "keep-missing", "k", false, "keep date sections that have no input file in the list")
	return cmd
}
