package util

import (
	"os"
)

// homeFallbacks are tried in order when os.UserHomeDir fails.
var homeFallbacks = []string{"HOME", "USERPROFILE"}

// UserHome returns the directory that holds the .i2srun settings
// directory: the user's home directory, or the working directory when
// no home can be found.
func UserHome() string {
	home, err := os.UserHomeDir()
	if err == nil {
		return home
	}
	for _, name := range homeFallbacks {
		if v := os.Getenv(name); v != "" {
			log.WithError(err).WithField("env", name).Warn("Using home directory from environment")
			return v
		}
	}
	wd, wdErr := os.Getwd()
	if wdErr != nil {
		log.WithError(wdErr).Warn("No home or working directory, using current directory")
		return "."
	}
	log.WithError(err).WithField("dir", wd).Warn("No home directory, settings go in the working directory")
	return wd
}
