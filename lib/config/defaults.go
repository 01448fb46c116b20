package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Settings keys.
const (
	KeyGGGPath = "ggg_path"

	KeyI2SCommand       = "i2s.command"
	KeyI2SHeaderParams  = "i2s.header_params"
	KeyI2SCommentMarker = "i2s.comment_marker"

	KeyRunJobs        = "run.jobs"
	KeyRunLaunchRate  = "run.launch_rate"
	KeyRunLaunchBurst = "run.launch_burst"
	KeyRunHaltFile    = "run.halt_file"
	KeyRunGracePeriod = "run.grace_period"
)

// Settings holds the machine-level settings.
type Settings struct {
	// GGGPath is the GGG installation root, normally $GGGPATH.
	GGGPath string
	I2S     I2SSettings
	Run     RunSettings
}

// I2SSettings describes the I2S program and its input files.
type I2SSettings struct {
	// Command is the I2S executable. Empty means $GGGPATH/bin/i2s.
	Command string
	// HeaderParams is the number of parameters before the catalog.
	HeaderParams int
	// CommentMarker starts an input-file comment.
	CommentMarker string
}

// RunSettings control batch execution.
type RunSettings struct {
	// Jobs is the number of I2S runs allowed at once.
	Jobs int
	// LaunchRate limits run starts per second. 0 disables the limit.
	LaunchRate float64
	// LaunchBurst is the number of runs that may start back to back.
	LaunchBurst int
	// HaltFile stops a batch from starting new runs while it exists.
	// Relative paths are taken from the settings directory.
	HaltFile string
	// GracePeriod is how long an interrupted batch waits for running
	// units before killing them.
	GracePeriod time.Duration
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		GGGPath: os.Getenv("GGGPATH"),
		I2S: I2SSettings{
			Command:       "",
			HeaderParams:  28,
			CommentMarker: ":",
		},
		Run: RunSettings{
			Jobs:        4,
			LaunchRate:  0,
			LaunchBurst: 1,
			HaltFile:    "HALT",
			GracePeriod: 10 * time.Second,
		},
	}
}

// CurrentSettings reads the settings from viper.
func CurrentSettings() Settings {
	return Settings{
		GGGPath: viper.GetString(KeyGGGPath),
		I2S: I2SSettings{
			Command:       viper.GetString(KeyI2SCommand),
			HeaderParams:  viper.GetInt(KeyI2SHeaderParams),
			CommentMarker: viper.GetString(KeyI2SCommentMarker),
		},
		Run: RunSettings{
			Jobs:        viper.GetInt(KeyRunJobs),
			LaunchRate:  viper.GetFloat64(KeyRunLaunchRate),
			LaunchBurst: viper.GetInt(KeyRunLaunchBurst),
			HaltFile:    viper.GetString(KeyRunHaltFile),
			GracePeriod: viper.GetDuration(KeyRunGracePeriod),
		},
	}
}

// I2SCommand is the I2S executable to run.
func (s Settings) I2SCommand() (string, error) {
	if s.I2S.Command != "" {
		return s.I2S.Command, nil
	}
	if s.GGGPath == "" {
		return "", newValidationError("GGGPATH is not set and i2s.command is empty")
	}
	return filepath.Join(s.GGGPath, "bin", "i2s"), nil
}

// HaltFilePath is the absolute path of the halt file.
func (s Settings) HaltFilePath() string {
	if s.Run.HaltFile == "" || filepath.IsAbs(s.Run.HaltFile) {
		return s.Run.HaltFile
	}
	return filepath.Join(BuildSettingsDirPath(), s.Run.HaltFile)
}

// Validate checks the settings for values no batch could run with.
func Validate(s Settings) error {
	log.WithFields(logrus.Fields{
		"at":     "Validate",
		"reason": "verification_requested",
	}).Debug("validating settings")
	validators := []func() error{
		func() error { return validateI2S(s.I2S) },
		func() error { return validateRun(s.Run) },
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			log.WithError(err).Error("Settings validation failed")
			return err
		}
	}
	return nil
}

func validateI2S(i2s I2SSettings) error {
	if i2s.HeaderParams < 1 {
		log.WithField("header_params", i2s.HeaderParams).Error("Invalid I2S settings")
		return newValidationError("i2s.header_params must be at least 1")
	}
	if i2s.CommentMarker == "" {
		return newValidationError("i2s.comment_marker must not be empty")
	}
	return nil
}

func validateRun(run RunSettings) error {
	if run.Jobs < 1 {
		log.WithField("jobs", run.Jobs).Error("Invalid run settings")
		return newValidationError("run.jobs must be at least 1")
	}
	if run.LaunchRate < 0 {
		return newValidationError("run.launch_rate must not be negative")
	}
	if run.LaunchRate > 0 && run.LaunchBurst < 1 {
		return newValidationError("run.launch_burst must be at least 1 when run.launch_rate is set")
	}
	if run.GracePeriod < 0 {
		return newValidationError("run.grace_period must not be negative")
	}
	return nil
}

type validationError struct {
	message string
}

func newValidationError(message string) error {
	return &validationError{message: message}
}

func (e *validationError) Error() string {
	return "settings validation failed: " + e.message
}
