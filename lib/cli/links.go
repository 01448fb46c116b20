package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gggutils/i2srun/lib/batch"
	"github.com/gggutils/i2srun/lib/config"
	"github.com/gggutils/i2srun/lib/rundir"
	"github.com/gggutils/i2srun/lib/runcfg"
	"github.com/gggutils/i2srun/lib/util"
)

// RunScriptName is the GNU parallel run file link-inp leaves in the run
// top directory.
const RunScriptName = "multii2s.sh"

func newLinker(s config.Settings, opts rundir.Options) *rundir.Linker {
	opts.HeaderSlots = s.I2S.HeaderParams
	opts.Marker = s.I2S.CommentMarker
	return rundir.NewLinker(opts)
}

func newLinkCmd() *cobra.Command {
	var opts rundir.Options
	var noScript bool
	cmd := &cobra.Command{
		Use:   "link-inp CFG_FILE",
		Short: "Link the input files to run I2S in bulk",
		Long: `Create run_top_dir/<site>/<date> for every date in CFG_FILE with the
interferograms or slices linked in, the flimit file linked as flimit.i2s,
a spectra directory and the patched I2S input file. A GNU parallel run
file, multii2s.sh, is written to run_top_dir afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			doc, err := runcfg.Load(args[0])
			if err != nil {
				return err
			}
			results, err := newLinker(s, opts).LinkAll(cmd.Context(), doc)
			printLinkResults(cmd.OutOrStdout(), results)
			if err != nil {
				return err
			}
			if noScript {
				return nil
			}
			return writeRunScript(cmd, s, doc)
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&opts.Overwrite, "overwrite", "o", false, "replace existing links")
	f.BoolVarP(&opts.IgnoreMissing, "ignore-missing", "i", false, "skip dates missing interferograms listed in their input file (Opus only)")
	f.BoolVar(&opts.CleanLinks, "clean-links", false, "delete existing links first")
	f.BoolVar(&opts.CleanSpectra, "clean-spectra", false, "empty the spectra directories first")
	f.BoolVar(&noScript, "no-run-script", false, "do not write "+RunScriptName)
	return cmd
}

func printLinkResults(w io.Writer, results []rundir.UnitResult) {
	for _, r := range results {
		line := fmt.Sprintf("%s/%s: %d linked, %d kept", r.Unit.Site, r.Unit.DateKey, r.Linked, r.Kept)
		if len(r.Missing) > 0 {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%s, %d missing, nothing linked", line, len(r.Missing))))
			continue
		}
		fmt.Fprintln(w, okStyle.Render(line))
	}
}

// writeRunScript leaves multii2s.sh in the run top directory. Without a
// usable I2S executable the script is skipped with a warning.
func writeRunScript(cmd *cobra.Command, s config.Settings, doc *runcfg.Document) error {
	i2s, err := s.I2SCommand()
	if err == nil && !util.CheckFileExists(i2s) {
		err = oops.Errorf("%s does not exist", i2s)
	}
	if err != nil {
		log.WithField("at", "writeRunScript").WithError(err).Warn("Not writing run script")
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("Not writing "+RunScriptName+": "+err.Error()))
		return nil
	}
	top, err := doc.RunTopDir()
	if err != nil {
		return err
	}
	path := filepath.Join(top, RunScriptName)
	if err := batch.WriteParallelFile(doc, path, i2s, false); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("Wrote "+path))
	return nil
}

func newCheckLinksCmd() *cobra.Command {
	var dumpLevel int
	cmd := &cobra.Command{
		Use:   "chk-links CFG_FILE",
		Short: "Check the linked I2S input files",
		Long: `Report the interferograms or slices missing from the run directories of
CFG_FILE. Only the first slice of each scan is checked. The exit status is
1 when anything is missing.

Dump levels: 0 prints nothing, 1 prints the dates missing data per site,
2 adds the number missing per date and 3 lists them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			doc, err := runcfg.Load(args[0])
			if err != nil {
				return err
			}
			report, err := newLinker(s, rundir.Options{}).Check(cmd.Context(), doc)
			if err != nil {
				return err
			}
			printCheckReport(cmd.OutOrStdout(), report, dumpLevel)
			if !report.OK() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&dumpLevel, "dump-level", "d", 1, "how much to print, 0 to 3")
	return cmd
}

func printCheckReport(w io.Writer, report rundir.CheckReport, level int) {
	if level <= 0 {
		return
	}
	for _, site := range report.Sites() {
		if level >= 2 {
			for _, u := range report.Units {
				if u.Unit.Site != site.Site {
					continue
				}
				style := okStyle
				if !u.OK() {
					style = warnStyle
				}
				fmt.Fprintln(w, style.Render(fmt.Sprintf("%s: %d missing", u.Unit.DateKey, len(u.Missing))))
				if level >= 3 {
					for _, m := range u.Missing {
						fmt.Fprintln(w, dimStyle.Render("  * "+m))
					}
				}
			}
		}
		style := okStyle
		if site.DatesMissing > 0 {
			style = errorStyle
		}
		fmt.Fprintln(w, style.Render(fmt.Sprintf("%s: %d/%d dates missing at least 1 igram/slice", site.Site, site.DatesMissing, site.Dates)))
		if level >= 2 {
			fmt.Fprintln(w)
		}
	}
}
