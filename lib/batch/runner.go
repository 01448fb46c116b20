package batch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gggutils/i2srun/lib/rundir"
	"github.com/gggutils/i2srun/lib/runcfg"
	"github.com/gggutils/i2srun/lib/util"
	"github.com/gggutils/i2srun/lib/util/logger"
)

var log = logger.GetLogger()

// LogTimeLayout names the per-run log files, run_i2s_<time>.log.
const LogTimeLayout = "20060102T150405"

// Options configure a Runner.
type Options struct {
	// I2SCommand is the I2S executable. It must exist.
	I2SCommand string
	// Jobs is the number of runs allowed at once; values below 1 mean 1.
	Jobs int
	// LaunchRate limits run starts per second. 0 disables the limit.
	LaunchRate  float64
	LaunchBurst int
	// HaltFile, when it exists, stops new runs from starting.
	HaltFile string
	// DryRun logs what would run without running it.
	DryRun bool
}

// UnitReport is the outcome of one unit.
type UnitReport struct {
	Unit      runcfg.Unit
	RunDir    string
	InputFile string
	LogFile   string
	// Skipped is set when the batch was halted before the unit started.
	Skipped bool
	// NewSpectra lists spectra created or updated by the run.
	NewSpectra []string
	Duration   time.Duration
	Err        error
}

// Summary is the outcome of a batch.
type Summary struct {
	BatchID string
	Units   []UnitReport
}

// Counts returns the number of units run, skipped and failed.
func (s Summary) Counts() (ran, skipped, failed int) {
	for _, u := range s.Units {
		switch {
		case u.Skipped:
			skipped++
		case u.Err != nil:
			failed++
		default:
			ran++
		}
	}
	return ran, skipped, failed
}

// Runner runs I2S in every run directory of a configuration.
type Runner struct {
	opts    Options
	limiter *rate.Limiter

	halted atomic.Bool

	mu      sync.Mutex
	idle    *sync.Cond
	running int
}

// NewRunner checks opts and returns a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if !util.CheckFileExists(opts.I2SCommand) {
		return nil, oops.Errorf("%s is not a valid path; check that GGGPATH points to a GGG install", opts.I2SCommand)
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	r := &Runner{opts: opts}
	r.idle = sync.NewCond(&r.mu)
	if opts.LaunchRate > 0 {
		burst := opts.LaunchBurst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.LaunchRate), burst)
	}
	return r, nil
}

// Halt stops new runs from starting. Running units finish normally.
func (r *Runner) Halt() {
	r.halted.Store(true)
}

// WaitIdle blocks until no unit is running.
func (r *Runner) WaitIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.running > 0 {
		r.idle.Wait()
	}
}

// Drain halts the runner and waits for the running units.
func (r *Runner) Drain() {
	r.Halt()
	r.WaitIdle()
}

func (r *Runner) isHalted() bool {
	return r.halted.Load() || Halted(r.opts.HaltFile)
}

// begin registers a starting unit unless the runner is halted.
func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isHalted() {
		return false
	}
	r.running++
	return true
}

func (r *Runner) end() {
	r.mu.Lock()
	r.running--
	if r.running == 0 {
		r.idle.Broadcast()
	}
	r.mu.Unlock()
}

// RunAll runs I2S for every unit of doc, at most Jobs at a time. A failed
// unit does not stop the others. Cancelling ctx stops new units from
// starting and kills the running ones; RunAll then returns ctx's error
// along with the partial summary.
func (r *Runner) RunAll(ctx context.Context, doc *runcfg.Document) (Summary, error) {
	// A stale halt file from an earlier batch must not stop this one.
	if err := ClearHalt(r.opts.HaltFile); err != nil {
		return Summary{}, err
	}
	r.halted.Store(false)

	units := doc.Units()
	summary := Summary{BatchID: uuid.NewString(), Units: make([]UnitReport, len(units))}
	entry := log.WithFields(logrus.Fields{
		"at":    "RunAll",
		"batch": summary.BatchID,
	})
	entry.WithFields(logrus.Fields{
		"units":   len(units),
		"jobs":    r.opts.Jobs,
		"command": r.opts.I2SCommand,
		"dry_run": r.opts.DryRun,
	}).Info("Starting I2S batch")

	var g errgroup.Group
	g.SetLimit(r.opts.Jobs)
	for i, u := range units {
		summary.Units[i] = UnitReport{Unit: u, Skipped: true}
		if ctx.Err() != nil {
			continue
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				continue
			}
		}
		g.Go(func() error {
			summary.Units[i] = r.runUnit(ctx, summary.BatchID, doc, u)
			return nil
		})
	}
	_ = g.Wait()

	ran, skipped, failed := summary.Counts()
	entry.WithFields(logrus.Fields{
		"ran":     ran,
		"skipped": skipped,
		"failed":  failed,
	}).Info("I2S batch finished")
	return summary, ctx.Err()
}

func (r *Runner) runUnit(ctx context.Context, batchID string, doc *runcfg.Document, u runcfg.Unit) UnitReport {
	rep := UnitReport{Unit: u}
	entry := log.WithFields(logrus.Fields{
		"at":    "runUnit",
		"batch": batchID,
		"site":  u.Site,
		"date":  u.DateKey,
	})
	var err error
	if rep.RunDir, err = doc.RunDir(u.Site, u.DateKey); err != nil {
		rep.Err = err
		return rep
	}
	if ctx.Err() != nil || !r.begin() {
		entry.WithField("run_dir", rep.RunDir).Debug("I2S halted, not starting run")
		rep.Skipped = true
		return rep
	}
	defer r.end()

	start := time.Now()
	if rep.InputFile, err = rundir.FindInputFile(rep.RunDir); err != nil {
		rep.Err = err
		entry.WithError(err).Error("Cannot run I2S")
		return rep
	}
	before := listSpectra(rep.RunDir)
	rep.LogFile = filepath.Join(rep.RunDir, "run_i2s_"+start.Format(LogTimeLayout)+".log")
	entry.WithFields(logrus.Fields{
		"run_dir":    rep.RunDir,
		"input_file": rep.InputFile,
		"log_file":   rep.LogFile,
	}).Info("Starting I2S")
	if r.opts.DryRun {
		return rep
	}

	rep.Err = r.exec(ctx, rep)
	rep.Duration = time.Since(start)
	rep.NewSpectra = newSpectra(before, listSpectra(rep.RunDir))
	if rep.Err != nil {
		entry.WithError(rep.Err).Error("I2S failed")
	} else {
		entry.WithFields(logrus.Fields{
			"new_spectra": len(rep.NewSpectra),
			"duration":    rep.Duration.Round(time.Second),
		}).Info("I2S finished")
	}
	return rep
}

func (r *Runner) exec(ctx context.Context, rep UnitReport) error {
	f, err := os.Create(rep.LogFile)
	if err != nil {
		return oops.Wrapf(err, "creating I2S log %s", rep.LogFile)
	}
	defer f.Close()

	cmd := exec.CommandContext(ctx, r.opts.I2SCommand, rep.InputFile)
	cmd.Dir = rep.RunDir
	cmd.Stdout = f
	cmd.Stderr = f
	if err := cmd.Run(); err != nil {
		return oops.Wrapf(err, "running I2S in %s", rep.RunDir)
	}
	return nil
}

// listSpectra maps the files in runDir/spectra to their modification times.
func listSpectra(runDir string) map[string]time.Time {
	spectra := map[string]time.Time{}
	entries, err := os.ReadDir(filepath.Join(runDir, rundir.SpectraDir))
	if err != nil {
		return spectra
	}
	for _, e := range entries {
		if info, err := e.Info(); err == nil {
			spectra[e.Name()] = info.ModTime()
		}
	}
	return spectra
}

// newSpectra lists files that appeared or changed between two listings.
func newSpectra(before, after map[string]time.Time) []string {
	var names []string
	for name, mtime := range after {
		if old, ok := before[name]; !ok || mtime.After(old) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
