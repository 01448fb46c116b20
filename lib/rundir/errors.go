package rundir

import (
	"fmt"
	"strings"
)

// MissingDataError is returned when interferograms or slice run
// directories listed in a catalog are not in the unit's data directory.
type MissingDataError struct {
	Site    string
	DateKey string
	DataDir string
	Files   []string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("%s/%s: %d catalog file(s) missing from %s: %s",
		e.Site, e.DateKey, len(e.Files), e.DataDir, strings.Join(e.Files, ", "))
}

// InputFileError is returned when a run directory does not hold exactly
// one I2S input file.
type InputFileError struct {
	RunDir string
	Found  []string
}

func (e *InputFileError) Error() string {
	if len(e.Found) == 0 {
		return "no I2S input file found in " + e.RunDir
	}
	return fmt.Sprintf("multiple I2S input files found in %s: %s", e.RunDir, strings.Join(e.Found, ", "))
}
