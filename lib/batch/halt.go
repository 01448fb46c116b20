package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"

	"github.com/gggutils/i2srun/lib/util"
)

// Halt asks running batches to stop starting new I2S runs. Runs already
// going are left to finish. An existing halt file is appended to, never
// truncated.
func Halt(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return oops.Wrapf(err, "creating directory for halt file %s", path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return oops.Wrapf(err, "opening halt file %s", path)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "Requested to abort further I2S runs at %s\n", time.Now().Format(time.RFC3339)); err != nil {
		return oops.Wrapf(err, "writing halt file %s", path)
	}
	return nil
}

// ClearHalt removes the halt file if it exists.
func ClearHalt(path string) error {
	if path == "" {
		return nil
	}
	log.WithField("halt_file", path).Debug("Removing I2S halt file if it exists")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return oops.Wrapf(err, "removing halt file %s", path)
	}
	return nil
}

// Halted reports whether the halt file exists.
func Halted(path string) bool {
	return path != "" && util.LinkExists(path)
}
