package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/viper"

	"github.com/gggutils/i2srun/lib/util"
	"github.com/gggutils/i2srun/lib/util/logger"
)

var (
	CfgFile string
	log     = logger.GetLogger()
)

// I2SRUN_BASE_DIR is the settings directory under the user's home.
const I2SRUN_BASE_DIR = ".i2srun"

// EnvPrefix prefixes the environment overrides of every settings key.
const EnvPrefix = "I2SRUN"

// InitConfig reads the settings file, creating it with the defaults if it
// does not exist yet. A file named with CfgFile must exist.
func InitConfig() error {
	if CfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(CfgFile)
	} else {
		// Set up viper to use the default config path $HOME/.i2srun/
		viper.AddConfigPath(BuildSettingsDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnv()

	return handleConfigFile()
}

func setDefaults() {
	d := Defaults()
	viper.SetDefault(KeyGGGPath, d.GGGPath)

	viper.SetDefault(KeyI2SCommand, d.I2S.Command)
	viper.SetDefault(KeyI2SHeaderParams, d.I2S.HeaderParams)
	viper.SetDefault(KeyI2SCommentMarker, d.I2S.CommentMarker)

	viper.SetDefault(KeyRunJobs, d.Run.Jobs)
	viper.SetDefault(KeyRunLaunchRate, d.Run.LaunchRate)
	viper.SetDefault(KeyRunLaunchBurst, d.Run.LaunchBurst)
	viper.SetDefault(KeyRunHaltFile, d.Run.HaltFile)
	viper.SetDefault(KeyRunGracePeriod, d.Run.GracePeriod)
}

func bindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// GGG's own variable takes precedence over the prefixed one.
	_ = viper.BindEnv(KeyGGGPath, "GGGPATH", EnvPrefix+"_GGG_PATH")
}

func createDefaultConfig(defaultConfigDir string) error {
	defaultConfigFile := filepath.Join(defaultConfigDir, "config.yaml")
	// Ensure directory exists
	if err := os.MkdirAll(defaultConfigDir, 0o755); err != nil {
		return oops.Wrapf(err, "could not create settings directory %s", defaultConfigDir)
	}

	if err := viper.SafeWriteConfigAs(defaultConfigFile); err != nil {
		return oops.Wrapf(err, "could not write default settings file %s", defaultConfigFile)
	}

	log.Debugf("Created default configuration at: %s", defaultConfigFile)
	return nil
}

func handleConfigFile() error {
	err := viper.ReadInConfig()
	if err == nil {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
		return nil
	}
	_, notFound := err.(viper.ConfigFileNotFoundError)
	switch {
	case CfgFile != "" && (notFound || errors.Is(err, fs.ErrNotExist)):
		return oops.Wrapf(err, "settings file %s is not found", CfgFile)
	case notFound:
		return createDefaultConfig(BuildSettingsDirPath())
	default:
		return oops.Wrapf(err, "error reading settings file")
	}
}

// BuildSettingsDirPath is the directory holding the default settings file.
func BuildSettingsDirPath() string {
	return filepath.Join(util.UserHome(), I2SRUN_BASE_DIR)
}
