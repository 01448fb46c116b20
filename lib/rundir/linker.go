package rundir

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/gggutils/i2srun/lib/i2sinput"
	"github.com/gggutils/i2srun/lib/runcfg"
	"github.com/gggutils/i2srun/lib/util"
	"github.com/gggutils/i2srun/lib/util/logger"
)

var log = logger.GetLogger()

// Names inside a run directory.
const (
	FlimitLinkName = "flimit.i2s"
	SpectraDir     = "spectra"
	ScanDir        = "scan"
)

var sliceNumberRe = regexp.MustCompile(`\d+`)

// Options control how run directories are set up.
type Options struct {
	// Overwrite replaces existing links.
	Overwrite bool
	// CleanLinks empties the igms/ or slices/ directory first.
	CleanLinks bool
	// CleanSpectra empties spectra/ first.
	CleanSpectra bool
	// IgnoreMissing skips, rather than fails, units whose catalog lists
	// interferograms or slice run directories that do not exist. Nothing
	// is linked for such units.
	IgnoreMissing bool

	// HeaderSlots and Marker describe the input file layout. Zero values
	// mean the standard layout.
	HeaderSlots int
	Marker      string
}

// Linker lays out one run directory per site/date unit: the data links,
// the flimit link, the spectra directory and the patched input file.
type Linker struct {
	opts Options
}

// NewLinker returns a Linker with the given options.
func NewLinker(opts Options) *Linker {
	return &Linker{opts: opts}
}

// UnitResult describes what LinkUnit did for one unit.
type UnitResult struct {
	Unit      runcfg.Unit
	RunDir    string
	InputFile string
	// Linked counts links created, Kept counts existing links left alone.
	Linked int
	Kept   int
	// Missing lists catalog files that were not found. It is only set
	// when missing data is ignored.
	Missing []string
}

func (l *Linker) format(kind i2sinput.Kind) i2sinput.Format {
	return i2sinput.Format{Kind: kind, HeaderSlots: l.opts.HeaderSlots, Marker: l.opts.Marker}
}

// LinkAll sets up the run directory of every unit in doc, in document
// order. It stops at the first error or when ctx is done.
func (l *Linker) LinkAll(ctx context.Context, doc *runcfg.Document) ([]UnitResult, error) {
	var results []UnitResult
	for _, u := range doc.Units() {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		log.WithFields(logrus.Fields{
			"at":   "LinkAll",
			"site": u.Site,
			"date": u.DateKey,
		}).Info("Linking files")
		res, err := l.LinkUnit(doc, u)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// LinkUnit sets up the run directory of one unit.
func (l *Linker) LinkUnit(doc *runcfg.Document, u runcfg.Unit) (UnitResult, error) {
	res := UnitResult{Unit: u}
	r, err := runcfg.Resolve(doc, u.Site, u.DateKey)
	if err != nil {
		return res, err
	}
	if res.RunDir, err = doc.RunDir(u.Site, u.DateKey); err != nil {
		return res, err
	}

	kind := i2sinput.Opus
	if r.Slices {
		kind = i2sinput.Slices
	}
	text, err := os.ReadFile(r.I2SInputFile)
	if err != nil {
		return res, oops.Wrapf(err, "reading I2S input file for %s", r.DateKey)
	}
	src, err := i2sinput.Parse(string(text), l.format(kind))
	if err != nil {
		return res, oops.Wrapf(err, "parsing %s", r.I2SInputFile)
	}
	prepared, err := i2sinput.PrepareForRunDir(src, doc.I2SOverrides)
	if err != nil {
		return res, oops.Wrapf(err, "patching %s", r.I2SInputFile)
	}
	entries, err := i2sinput.Catalog(src)
	if err != nil {
		return res, oops.Wrapf(err, "reading catalog of %s", r.I2SInputFile)
	}

	linkDir := filepath.Join(res.RunDir, kind.LinkSubdir())
	if err := resetDir(linkDir, l.opts.CleanLinks); err != nil {
		return res, err
	}
	if err := l.link(&res, r.FlimitFile, filepath.Join(res.RunDir, FlimitLinkName)); err != nil {
		return res, err
	}
	if err := resetDir(filepath.Join(res.RunDir, SpectraDir), l.opts.CleanSpectra); err != nil {
		return res, err
	}
	res.InputFile = filepath.Join(res.RunDir, kind.InputFileName())
	if err := os.WriteFile(res.InputFile, []byte(prepared.Render()), 0o644); err != nil {
		return res, oops.Wrapf(err, "writing %s", res.InputFile)
	}

	switch {
	case kind == i2sinput.Opus:
		err = l.linkOpus(&res, r, entries, linkDir)
	case r.SlicesInSubdir:
		err = l.linkLooseSlices(&res, r, entries, linkDir)
	default:
		err = l.linkSliceRunDirs(&res, r, entries, linkDir)
	}
	return res, err
}

func (l *Linker) link(res *UnitResult, src, dst string) error {
	made, err := makeLink(src, dst, l.opts.Overwrite)
	if err != nil {
		return err
	}
	if made {
		res.Linked++
	} else {
		res.Kept++
	}
	return nil
}

// linkOpus links every catalog file into igms/. Nothing is linked until
// all files are known to exist.
func (l *Linker) linkOpus(res *UnitResult, r runcfg.Resolved, entries []i2sinput.Entry, linkDir string) error {
	dataDir := r.DataDir()
	sources := make([]string, len(entries))
	var missing []string
	for i, e := range entries {
		src := e.File
		if !filepath.IsAbs(src) {
			src = filepath.Join(dataDir, src)
		}
		sources[i] = src
		if !util.CheckFileExists(src) {
			missing = append(missing, e.File)
		}
	}
	if len(missing) > 0 {
		return l.skipMissing(res, r, "linkOpus", missing)
	}
	for i, e := range entries {
		if err := l.link(res, sources[i], filepath.Join(linkDir, filepath.Base(e.File))); err != nil {
			return err
		}
	}
	return nil
}

// skipMissing fails the unit with a MissingDataError, or records the
// missing names and links nothing when missing data is ignored.
func (l *Linker) skipMissing(res *UnitResult, r runcfg.Resolved, at string, missing []string) error {
	if !l.opts.IgnoreMissing {
		return &MissingDataError{Site: r.Site, DateKey: r.DateKey, DataDir: r.DataDir(), Files: missing}
	}
	log.WithFields(logrus.Fields{
		"at":      at,
		"date":    r.DateKey,
		"missing": len(missing),
	}).Warn("Data missing, nothing linked; I2S will probably not run")
	res.Missing = missing
	return nil
}

// linkSliceRunDirs links each distinct YYMMDD.R directory of the catalog.
// Every one of them must be among the run directories found in the data
// directory.
func (l *Linker) linkSliceRunDirs(res *UnitResult, r runcfg.Resolved, entries []i2sinput.Entry, linkDir string) error {
	dataDir := r.DataDir()
	dirs, err := ListSliceRunDirs(dataDir)
	if err != nil {
		log.WithError(err).WithField("date", r.DateKey).Debug("No slice run directories")
	}
	present := map[string]bool{}
	for _, d := range dirs {
		present[d] = true
	}

	var names, missing []string
	seen := map[string]bool{}
	for _, e := range entries {
		name := e.SliceRunDir()
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return l.skipMissing(res, r, "linkSliceRunDirs", missing)
	}
	for _, name := range names {
		if err := l.link(res, filepath.Join(dataDir, name), filepath.Join(linkDir, name)); err != nil {
			return err
		}
	}
	return nil
}

type sliceFile struct {
	path   string
	number int
}

// linkLooseSlices builds YYMMDD.R/scan directories for slice files kept
// directly in the data directory. An entry owns the slices numbered from
// its own slice up to, not including, the next entry's slice. The last
// entry, or one followed by a lower slice number, has no upper bound.
func (l *Linker) linkLooseSlices(res *UnitResult, r runcfg.Resolved, entries []i2sinput.Entry, linkDir string) error {
	files, err := listSliceFiles(r.DataDir())
	if err != nil {
		return err
	}
	for i, e := range entries {
		end := -1
		if i+1 < len(entries) && entries[i+1].Slice > e.Slice {
			end = entries[i+1].Slice
		}
		scan := filepath.Join(linkDir, e.SliceRunDir(), ScanDir)
		if err := os.MkdirAll(scan, 0o755); err != nil {
			return oops.Wrapf(err, "creating %s", scan)
		}
		for _, f := range files {
			if f.number < e.Slice {
				continue
			}
			if end >= 0 && f.number >= end {
				break
			}
			if err := l.link(res, f.path, filepath.Join(scan, filepath.Base(f.path))); err != nil {
				return err
			}
		}
	}
	return nil
}

// listSliceFiles returns the b* files in dir ordered by slice number.
func listSliceFiles(dir string) ([]sliceFile, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "b*"))
	if err != nil {
		return nil, oops.Wrapf(err, "listing slices in %s", dir)
	}
	var files []sliceFile
	for _, m := range matches {
		digits := sliceNumberRe.FindString(filepath.Base(m))
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		files = append(files, sliceFile{path: m, number: n})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].number != files[j].number {
			return files[i].number < files[j].number
		}
		return files[i].path < files[j].path
	})
	return files, nil
}
