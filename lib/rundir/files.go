package rundir

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/samber/oops"

	"github.com/gggutils/i2srun/lib/util"
)

var sliceRunDirRe = regexp.MustCompile(`^\d{6}\.\d+$`)

// ListSliceRunDirs returns the YYMMDD.R run directories in dataDir, sorted.
func ListSliceRunDirs(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, oops.Wrapf(err, "listing slice run directories in %s", dataDir)
	}
	var dirs []string
	for _, e := range entries {
		if sliceRunDirRe.MatchString(e.Name()) && (e.IsDir() || e.Type()&os.ModeSymlink != 0) {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// FindInputFile returns the base name of the single *i2s*.in file in
// runDir.
func FindInputFile(runDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(runDir, "*i2s*.in"))
	if err != nil {
		return "", oops.Wrapf(err, "searching %s", runDir)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	if len(names) != 1 {
		return "", &InputFileError{RunDir: runDir, Found: names}
	}
	return names[0], nil
}

// makeLink points dst at src. An existing dst, even a broken link, is
// kept unless overwrite is set. It reports whether a link was created.
func makeLink(src, dst string, overwrite bool) (bool, error) {
	if util.LinkExists(dst) {
		if !overwrite {
			log.WithField("link", dst).Debug("Symlink exists, not overwriting")
			return false, nil
		}
		log.WithField("link", dst).Debug("Overwriting existing symlink")
		if err := os.Remove(dst); err != nil {
			return false, oops.Wrapf(err, "removing %s", dst)
		}
	}
	if err := os.Symlink(src, dst); err != nil {
		return false, oops.Wrapf(err, "linking %s to %s", dst, src)
	}
	return true, nil
}

// resetDir creates dir, emptying it first when clean is set.
func resetDir(dir string, clean bool) error {
	if clean && util.LinkExists(dir) {
		log.WithField("dir", dir).Info("Removing existing directory")
		if err := os.RemoveAll(dir); err != nil {
			return oops.Wrapf(err, "removing %s", dir)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return oops.Wrapf(err, "creating %s", dir)
	}
	return nil
}
