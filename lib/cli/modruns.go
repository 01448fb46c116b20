package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gggutils/i2srun/lib/i2sinput"
)

// BackupSuffix is appended to the copy of a run file kept by mod-runs.
const BackupSuffix = ".orig"

var breakEscapes = strings.NewReplacer(`\r\n`, "\r\n", `\n`, "\n", `\r`, "\r")

type modRunsOptions struct {
	params   []string
	saveDir  string
	backup   bool
	noBackup bool
	actions  []string
}

func newModRunsCmd() *cobra.Command {
	var opts modRunsOptions
	cmd := &cobra.Command{
		Use:   "mod-runs -p NUM=VALUE... RUN_FILE...",
		Short: "Modify a batch of run files",
		Long: `Change numbered parameters in a set of I2S run files, keeping comments and
spacing. Multi-line parameters take \n between their lines, as in
-p '17=-0.4 0.4\n-0.2 0.2'.

Files are changed in place, keeping a backup with the .orig suffix, or
written to --save-dir. --infile-action chdir rewrites the directory of the
Opus files in the catalog: "chdir" alone strips it and "chdir:DIR"
replaces it with DIR. Slice catalogs are left alone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&opts.params, "parameter", "p", nil, "parameter to change, as NUM=VALUE (repeatable)")
	f.StringVarP(&opts.saveDir, "save-dir", "s", "", "write the modified files here instead of overwriting them")
	f.BoolVarP(&opts.backup, "backup", "b", false, "always back up the original file")
	f.BoolVarP(&opts.noBackup, "no-backup", "n", false, "never back up the original file")
	f.StringArrayVarP(&opts.actions, "infile-action", "i", nil, "catalog action, ACTION[:VALUE] (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("backup", "no-backup")
	return cmd
}

func parseParameters(params []string) (map[int]string, error) {
	overrides := make(map[int]string, len(params))
	for i, p := range params {
		num, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, oops.Errorf("parameter %d (%q) is not of the form NUM=VALUE", i+1, p)
		}
		slot, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return nil, oops.Errorf("parameter %d (%q): %q cannot be interpreted as an integer", i+1, p, num)
		}
		overrides[slot] = breakEscapes.Replace(value)
	}
	return overrides, nil
}

// chdirAction returns the directory of a chdir action and whether one was
// requested.
func chdirAction(actions []string) (dir string, chdir bool, err error) {
	for _, a := range actions {
		name, value, _ := strings.Cut(a, ":")
		switch name {
		case "chdir":
			dir, chdir = value, true
		default:
			return "", false, oops.Errorf("unknown input file action %q", name)
		}
	}
	return dir, chdir, nil
}

func (o *modRunsOptions) run(cmd *cobra.Command, files []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	overrides, err := parseParameters(o.params)
	if err != nil {
		return err
	}
	dir, chdir, err := chdirAction(o.actions)
	if err != nil {
		return err
	}
	backup := o.saveDir == ""
	switch {
	case o.backup:
		backup = true
	case o.noBackup:
		backup = false
	}
	if o.saveDir != "" {
		if err := os.MkdirAll(o.saveDir, 0o755); err != nil {
			return oops.Wrapf(err, "creating %s", o.saveDir)
		}
	}

	for _, path := range files {
		text, err := os.ReadFile(path)
		if err != nil {
			return oops.Wrapf(err, "reading run file %s", path)
		}
		doc, err := i2sinput.Parse(string(text), inputFormat(s, i2sinput.Opus))
		if err != nil {
			return oops.Wrapf(err, "parsing %s", path)
		}
		if doc, err = i2sinput.Patch(doc, overrides); err != nil {
			return oops.Wrapf(err, "patching %s", path)
		}
		if chdir {
			if doc, _, err = i2sinput.ChdirCatalog(doc, dir); err != nil {
				return oops.Wrapf(err, "changing catalog directory in %s", path)
			}
		}

		if backup {
			if err := writeText(path+BackupSuffix, string(text)); err != nil {
				return err
			}
		}
		out := path
		if o.saveDir != "" {
			out = filepath.Join(o.saveDir, filepath.Base(path))
		}
		if err := writeText(out, doc.Render()); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"at":     "modRuns",
			"file":   path,
			"output": out,
			"backup": backup,
		}).Debug("Modified run file")
	}
	fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Modified %d run files", len(files))))
	return nil
}
