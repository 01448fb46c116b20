package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gggutils/i2srun/lib/batch"
	"github.com/gggutils/i2srun/lib/config"
	"github.com/gggutils/i2srun/lib/runcfg"
	"github.com/gggutils/i2srun/lib/util"
	"github.com/gggutils/i2srun/lib/util/signals"
)

// i2sExecutable is the configured I2S program, which must exist.
func i2sExecutable(s config.Settings) (string, error) {
	i2s, err := s.I2SCommand()
	if err != nil {
		return "", err
	}
	if !util.CheckFileExists(i2s) {
		return "", oops.Errorf("%s is not a valid path; check that GGGPATH points to a GGG install", i2s)
	}
	return i2s, nil
}

func newParCmd() *cobra.Command {
	var absPaths bool
	cmd := &cobra.Command{
		Use:   "par CFG_FILE RUN_FILE",
		Short: "Create run file for GNU parallel",
		Long: `Write one line per run directory of CFG_FILE to RUN_FILE, each changing
into the run directory and running I2S on its input file. Directories
are relative to RUN_FILE unless --abs-paths is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			i2s, err := i2sExecutable(s)
			if err != nil {
				return err
			}
			doc, err := runcfg.Load(args[0])
			if err != nil {
				return err
			}
			if err := batch.WriteParallelFile(doc, args[1], i2s, absPaths); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Wrote %s with %d runs", args[1], len(doc.Units()))))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&absPaths, "abs-paths", "a", false, "write absolute run directories")
	return cmd
}

type runOptions struct {
	jobs   int
	rate   float64
	burst  int
	dryRun bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run CFG_FILE",
		Short: "Run I2S in batch",
		Long: `Run I2S in every run directory of CFG_FILE, a few at a time. Each run
writes its output to run_i2s_<time>.log in its run directory.

"i2srun halt", or SIGHUP, stops new runs from starting and lets the
running ones finish. SIGINT or SIGTERM does the same, then kills what is
still running once run.grace_period has passed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.jobs, "n-procs", "n", 0, "number of I2S runs at once (default run.jobs)")
	f.Float64Var(&opts.rate, "launch-rate", 0, "maximum run starts per second (default run.launch_rate)")
	f.IntVar(&opts.burst, "launch-burst", 0, "runs that may start back to back (default run.launch_burst)")
	f.BoolVarP(&opts.dryRun, "dry-run", "d", false, "log the runs without starting I2S")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, cfgFile string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("n-procs") {
		s.Run.Jobs = o.jobs
	}
	if flags.Changed("launch-rate") {
		s.Run.LaunchRate = o.rate
	}
	if flags.Changed("launch-burst") {
		s.Run.LaunchBurst = o.burst
	}
	if err := config.Validate(s); err != nil {
		return err
	}
	i2s, err := i2sExecutable(s)
	if err != nil {
		return err
	}
	doc, err := runcfg.Load(cfgFile)
	if err != nil {
		return err
	}
	runner, err := batch.NewRunner(batch.Options{
		I2SCommand:  i2s,
		Jobs:        s.Run.Jobs,
		LaunchRate:  s.Run.LaunchRate,
		LaunchBurst: s.Run.LaunchBurst,
		HaltFile:    s.HaltFilePath(),
		DryRun:      o.dryRun,
	})
	if err != nil {
		return err
	}

	signals.SetGracefulTimeout(s.Run.GracePeriod)
	haltID := signals.RegisterHaltHandler(runner.Halt)
	defer signals.DeregisterHaltHandler(haltID)
	drainID := signals.RegisterPreShutdownHandler(runner.Drain)
	defer signals.DeregisterPreShutdownHandler(drainID)

	summary, err := runner.RunAll(cmd.Context(), doc)
	printSummary(cmd.OutOrStdout(), summary)
	if err != nil {
		return oops.Wrapf(err, "I2S batch %s interrupted", summary.BatchID)
	}
	if _, _, failed := summary.Counts(); failed > 0 {
		return oops.Errorf("%d of %d I2S runs failed", failed, len(summary.Units))
	}
	return nil
}

func printSummary(w io.Writer, summary batch.Summary) {
	ran, skipped, failed := summary.Counts()
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("I2S batch %s: %d ran, %d skipped, %d failed", summary.BatchID, ran, skipped, failed)))
	for _, u := range summary.Units {
		name := u.Unit.Site + "/" + u.Unit.DateKey
		switch {
		case u.Skipped:
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %-16s skipped", name)))
		case u.Err != nil:
			fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  %-16s failed: %v", name, u.Err)))
		default:
			fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("  %-16s %d new spectra in %s", name, len(u.NewSpectra), u.Duration.Round(time.Second))))
		}
	}
}

func newHaltCmd() *cobra.Command {
	var clearFile bool
	cmd := &cobra.Command{
		Use:   "halt",
		Short: "Stop a running batch after its current runs",
		Long: `Create the halt file (run.halt_file in the settings). A running batch
finishes the runs it has started and starts no more. The next batch
removes the file when it starts; --clear removes it now.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			path := s.HaltFilePath()
			if path == "" {
				return oops.Errorf("run.halt_file is not set")
			}
			if clearFile {
				if err := batch.ClearHalt(path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Removed halt file "+path))
				return nil
			}
			if err := batch.Halt(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("Requested halt: "+path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearFile, "clear", false, "remove the halt file instead")
	return cmd
}
