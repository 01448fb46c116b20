package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/oops"

	"github.com/gggutils/i2srun/lib/rundir"
	"github.com/gggutils/i2srun/lib/runcfg"
)

// ParallelLines returns one shell command per unit, suitable for GNU
// parallel:
//
//	cd <run dir> && <i2s> <input file> > i2s.log
//
// Run directories are relative to baseDir unless absPaths is set.
func ParallelLines(doc *runcfg.Document, baseDir, i2sCmd string, absPaths bool) ([]string, error) {
	var lines []string
	for _, u := range doc.Units() {
		runDir, err := doc.RunDir(u.Site, u.DateKey)
		if err != nil {
			return nil, err
		}
		inFile, err := rundir.FindInputFile(runDir)
		if err != nil {
			return nil, err
		}
		dir := runDir
		if !absPaths {
			if dir, err = filepath.Rel(baseDir, runDir); err != nil {
				return nil, oops.Wrapf(err, "making %s relative to %s", runDir, baseDir)
			}
		}
		lines = append(lines, fmt.Sprintf("cd %s && %s %s > i2s.log", shellQuote(dir), shellQuote(i2sCmd), shellQuote(inFile)))
	}
	return lines, nil
}

var shellUnsafeRe = regexp.MustCompile(`[^\w@%+=:,./-]`)

// shellQuote returns s as a single sh word. Words without special
// characters are left bare.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !shellUnsafeRe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// WriteParallelFile writes the ParallelLines of doc to path. Relative run
// directories are taken from path's directory.
func WriteParallelFile(doc *runcfg.Document, path, i2sCmd string, absPaths bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return oops.Wrapf(err, "resolving %s", path)
	}
	lines, err := ParallelLines(doc, filepath.Dir(abs), i2sCmd, absPaths)
	if err != nil {
		return err
	}
	var text string
	if len(lines) > 0 {
		text = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(abs, []byte(text), 0o644); err != nil {
		return oops.Wrapf(err, "writing parallel run file %s", abs)
	}
	log.WithField("path", abs).WithField("units", len(lines)).Info("Wrote parallel run file")
	return nil
}
