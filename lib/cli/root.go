package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gggutils/i2srun/lib/config"
	"github.com/gggutils/i2srun/lib/i2sinput"
	"github.com/gggutils/i2srun/lib/util"
	"github.com/gggutils/i2srun/lib/util/logger"
	"github.com/gggutils/i2srun/lib/util/signals"
)

var log = logger.GetLogger()

type rootOptions struct {
	verbose bool
	debug   bool
	logFile string
}

// NewRootCmd builds a fresh i2srun command tree.
func NewRootCmd() *cobra.Command {
	var opts rootOptions
	root := &cobra.Command{
		Use:   "i2srun",
		Short: "Prepare and run batches of GGG I2S",
		Long: `i2srun sets up one run directory per site and date for the GGG I2S
program, links the interferograms or slices each one needs, writes the
patched I2S input files and runs I2S over all of them.

Machine settings (GGG install, worker count, halt file) are read from
$HOME/.i2srun/config.yaml and I2SRUN_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&config.CfgFile, "config", "", "settings file (default $HOME/.i2srun/config.yaml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
	pf.BoolVar(&opts.debug, "debug", false, "log debugging detail to stderr")
	pf.StringVar(&opts.logFile, "log-file", "", "append the log to this file instead of stderr")

	root.AddCommand(
		newHeaderCatalogCmd(),
		newBuildCfgCmd(),
		newBuildCfgManyCmd(),
		newBuildCfgHCCmd(),
		newUpdateCfgCmd(),
		newModRunsCmd(),
		newResolveCmd(),
		newLinkCmd(),
		newCheckLinksCmd(),
		newParCmd(),
		newRunCmd(),
		newHaltCmd(),
	)
	return root
}

func (o *rootOptions) setup() error {
	if o.verbose || o.debug || o.logFile != "" {
		logger.SetVerbose(o.debug)
	}
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return oops.Wrapf(err, "opening log file %s", o.logFile)
		}
		log.SetOutput(f)
		util.RegisterCloser("log file "+o.logFile, logFile{f})
	}
	return config.InitConfig()
}

// logFile points the logger back at stderr before the file goes away.
type logFile struct {
	*os.File
}

func (f logFile) Close() error {
	log.SetOutput(os.Stderr)
	return f.File.Close()
}

// exitError ends the program with a status code and no message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the command line and returns the process exit status.
// SIGINT and SIGTERM cancel the command's context.
func Execute() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	id := signals.RegisterInterruptHandler(signals.Handler(cancel))
	defer signals.DeregisterInterruptHandler(id)
	go signals.Handle()
	defer signals.StopHandle()

	return execute(ctx, NewRootCmd(), os.Args[1:])
}

func execute(ctx context.Context, root *cobra.Command, args []string) int {
	defer func() {
		if err := util.CloseAll(); err != nil {
			printError(root.ErrOrStderr(), err)
		}
	}()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	printError(root.ErrOrStderr(), err)
	return 1
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
}

// loadSettings reads and validates the machine settings.
func loadSettings() (config.Settings, error) {
	s := config.CurrentSettings()
	if err := config.Validate(s); err != nil {
		return s, err
	}
	return s, nil
}

// inputFormat is the input-file layout the settings describe.
func inputFormat(s config.Settings, kind i2sinput.Kind) i2sinput.Format {
	return i2sinput.Format{
		Kind:        kind,
		HeaderSlots: s.I2S.HeaderParams,
		Marker:      s.I2S.CommentMarker,
	}
}

// readInputFile loads and parses one I2S input file.
func readInputFile(path string, format i2sinput.Format) (*i2sinput.Document, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "reading I2S input file %s", path)
	}
	doc, err := i2sinput.Parse(string(text), format)
	if err != nil {
		return nil, oops.Wrapf(err, "parsing %s", path)
	}
	return doc, nil
}

func writeText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return oops.Wrapf(err, "writing %s", path)
	}
	return nil
}
