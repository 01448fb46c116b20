package cli

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gggutils/i2srun/lib/runcfg"
)

// resolvedUnit is the YAML form of one resolved site/date unit.
type resolvedUnit struct {
	Site           string `yaml:"site"`
	DateKey        string `yaml:"date"`
	RunDir         string `yaml:"run_dir"`
	DataDir        string `yaml:"data_dir"`
	Slices         bool   `yaml:"slices"`
	SiteRootDir    string `yaml:"site_root_dir"`
	NoDateDir      bool   `yaml:"no_date_dir"`
	Subdir         string `yaml:"subdir"`
	SlicesInSubdir bool   `yaml:"slices_in_subdir"`
	FlimitFile     string `yaml:"flimit_file"`
	I2SInputFile   string `yaml:"i2s_input_file"`
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve CFG_FILE [SITE [DATE_KEY]]",
		Short: "Print the effective options of each run as YAML",
		Long: `Resolve the options of every date in CFG_FILE, or of one site or one
date, after falling back from the date section to its site, and print
them with the run and data directories they lead to.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := runcfg.Load(args[0])
			if err != nil {
				return err
			}
			units, err := selectUnits(doc, args[1:])
			if err != nil {
				return err
			}
			out := make([]resolvedUnit, 0, len(units))
			for _, u := range units {
				r, err := runcfg.Resolve(doc, u.Site, u.DateKey)
				if err != nil {
					return err
				}
				runDir, err := doc.RunDir(u.Site, u.DateKey)
				if err != nil {
					return err
				}
				out = append(out, resolvedUnit{
					Site:           r.Site,
					DateKey:        r.DateKey,
					RunDir:         runDir,
					DataDir:        r.DataDir(),
					Slices:         r.Slices,
					SiteRootDir:    r.SiteRootDir,
					NoDateDir:      r.NoDateDir,
					Subdir:         r.Subdir,
					SlicesInSubdir: r.SlicesInSubdir,
					FlimitFile:     r.FlimitFile,
					I2SInputFile:   r.I2SInputFile,
				})
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return oops.Wrapf(err, "writing resolved options")
			}
			return enc.Close()
		},
	}
}

// selectUnits narrows doc's units to a site and optionally one date.
func selectUnits(doc *runcfg.Document, filter []string) ([]runcfg.Unit, error) {
	if len(filter) == 0 {
		return doc.Units(), nil
	}
	site, ok := doc.Site(filter[0])
	if !ok {
		return nil, &runcfg.UnknownSiteError{Site: filter[0]}
	}
	var units []runcfg.Unit
	for _, dc := range site.Dates() {
		units = append(units, runcfg.Unit{Site: site.ID, DateKey: dc.Key})
	}
	if len(filter) == 1 {
		return units, nil
	}
	dc, ok := site.FindDate(filter[1])
	if !ok {
		return nil, &runcfg.UnknownSiteError{Site: site.ID, DateKey: filter[1]}
	}
	return []runcfg.Unit{{Site: site.ID, DateKey: dc.Key}}, nil
}
