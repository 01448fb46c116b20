package rundir

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/samber/oops"

	"github.com/gggutils/i2srun/lib/i2sinput"
	"github.com/gggutils/i2srun/lib/runcfg"
	"github.com/gggutils/i2srun/lib/util"
)

// UnitCheck is the link status of one run directory.
type UnitCheck struct {
	Unit      runcfg.Unit
	RunDir    string
	InputFile string
	Kind      i2sinput.Kind
	// Expected is the number of catalog entries checked.
	Expected int
	// Missing lists the interferograms, or first slice numbers, whose
	// links are absent or broken.
	Missing []string
}

// OK reports whether nothing is missing.
func (c UnitCheck) OK() bool { return len(c.Missing) == 0 }

// SiteSummary counts the dates of one site with missing data.
type SiteSummary struct {
	Site         string
	Dates        int
	DatesMissing int
}

// CheckReport collects the unit checks in document order.
type CheckReport struct {
	Units []UnitCheck
}

// OK reports whether every unit has all of its links.
func (r CheckReport) OK() bool {
	for _, u := range r.Units {
		if !u.OK() {
			return false
		}
	}
	return true
}

// Sites summarizes the report per site, in document order.
func (r CheckReport) Sites() []SiteSummary {
	var out []SiteSummary
	index := map[string]int{}
	for _, u := range r.Units {
		i, ok := index[u.Unit.Site]
		if !ok {
			i = len(out)
			index[u.Unit.Site] = i
			out = append(out, SiteSummary{Site: u.Unit.Site})
		}
		out[i].Dates++
		if !u.OK() {
			out[i].DatesMissing++
		}
	}
	return out
}

// Check verifies the links of every unit's run directory. Slice runs are
// checked only for the first slice of each catalog entry.
func (l *Linker) Check(ctx context.Context, doc *runcfg.Document) (CheckReport, error) {
	var report CheckReport
	for _, u := range doc.Units() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		c, err := l.checkUnit(doc, u)
		if err != nil {
			return report, err
		}
		report.Units = append(report.Units, c)
	}
	return report, nil
}

func (l *Linker) checkUnit(doc *runcfg.Document, u runcfg.Unit) (UnitCheck, error) {
	c := UnitCheck{Unit: u}
	var err error
	if c.RunDir, err = doc.RunDir(u.Site, u.DateKey); err != nil {
		return c, err
	}

	c.Kind = i2sinput.Slices
	c.InputFile = filepath.Join(c.RunDir, c.Kind.InputFileName())
	if !util.CheckFileExists(c.InputFile) {
		c.Kind = i2sinput.Opus
		c.InputFile = filepath.Join(c.RunDir, c.Kind.InputFileName())
	}
	text, err := os.ReadFile(c.InputFile)
	if err != nil {
		return c, oops.Wrapf(err, "no I2S run file found in %s", c.RunDir)
	}
	in, err := i2sinput.Parse(string(text), l.format(c.Kind))
	if err != nil {
		return c, oops.Wrapf(err, "parsing %s", c.InputFile)
	}
	entries, err := i2sinput.Catalog(in)
	if err != nil {
		return c, oops.Wrapf(err, "reading catalog of %s", c.InputFile)
	}
	c.Expected = len(entries)
	if len(entries) == 0 {
		// Nothing listed, nothing missing.
		return c, nil
	}
	slices, err := i2sinput.UsesSlices(in)
	if err != nil {
		return c, err
	}
	if slices {
		c.Missing = checkSlices(filepath.Join(c.RunDir, i2sinput.Slices.LinkSubdir()), entries)
	} else {
		c.Missing = checkOpus(filepath.Join(c.RunDir, i2sinput.Opus.LinkSubdir()), entries)
	}
	return c, nil
}

func checkOpus(igmsDir string, entries []i2sinput.Entry) []string {
	var missing []string
	for _, e := range entries {
		// Links are named after the file, whatever directory the
		// catalog gives it in.
		p := filepath.Join(igmsDir, filepath.Base(e.File))
		// CheckFileExists follows the link, so a broken link counts as missing.
		if !util.CheckFileExists(p) {
			missing = append(missing, filepath.Base(p))
		}
	}
	return missing
}

func checkSlices(slicesDir string, entries []i2sinput.Entry) []string {
	var missing []string
	for _, e := range entries {
		scan := filepath.Join(slicesDir, e.SliceRunDir(), ScanDir)
		n := strconv.Itoa(e.Slice)
		for _, name := range []string{"b" + n + ".0", "b" + n + ".0.info", "b" + n + ".1.info"} {
			if !util.CheckFileExists(filepath.Join(scan, name)) {
				missing = append(missing, n)
				break
			}
		}
	}
	return missing
}
