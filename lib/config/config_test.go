package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempHome points the settings directory at a fresh temporary home.
func useTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("GGGPATH", "")
	viper.Reset()
	old := CfgFile
	CfgFile = ""
	t.Cleanup(func() {
		CfgFile = old
		viper.Reset()
	})
	return home
}

// TestCurrentSettingsDefaultsRoundTrip verifies every default set by
// setDefaults is read back under the same key.
func TestCurrentSettingsDefaultsRoundTrip(t *testing.T) {
	useTempHome(t)
	setDefaults()

	assert.Equal(t, Defaults(), CurrentSettings())
}

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	home := useTempHome(t)

	require.NoError(t, InitConfig())
	path := filepath.Join(home, I2SRUN_BASE_DIR, "config.yaml")
	assert.FileExists(t, path)

	// A second start reads the file it wrote.
	viper.Reset()
	require.NoError(t, InitConfig())
	assert.Equal(t, 4, CurrentSettings().Run.Jobs)
}

func TestInitConfigReadsFile(t *testing.T) {
	home := useTempHome(t)
	path := filepath.Join(home, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ggg_path: /opt/ggg
run:
  jobs: 12
  grace_period: 1m
i2s:
  comment_marker: "#"
`), 0o644))
	CfgFile = path

	require.NoError(t, InitConfig())
	s := CurrentSettings()
	assert.Equal(t, "/opt/ggg", s.GGGPath)
	assert.Equal(t, 12, s.Run.Jobs)
	assert.Equal(t, time.Minute, s.Run.GracePeriod)
	assert.Equal(t, "#", s.I2S.CommentMarker)
	assert.Equal(t, 28, s.I2S.HeaderParams)
}

func TestInitConfigMissingNamedFile(t *testing.T) {
	home := useTempHome(t)
	CfgFile = filepath.Join(home, "nope.yaml")

	assert.Error(t, InitConfig())
}

func TestEnvironmentOverrides(t *testing.T) {
	useTempHome(t)
	t.Setenv("GGGPATH", "/env/ggg")
	t.Setenv("I2SRUN_RUN_JOBS", "7")

	require.NoError(t, InitConfig())
	s := CurrentSettings()
	assert.Equal(t, "/env/ggg", s.GGGPath)
	assert.Equal(t, 7, s.Run.Jobs)

	cmd, err := s.I2SCommand()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/env/ggg", "bin", "i2s"), cmd)
}

func TestI2SCommand(t *testing.T) {
	s := Settings{I2S: I2SSettings{Command: "/usr/local/bin/i2s"}}
	cmd, err := s.I2SCommand()
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/i2s", cmd)

	_, err = Settings{}.I2SCommand()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Defaults()))

	for name, mutate := range map[string]func(*Settings){
		"no jobs":        func(s *Settings) { s.Run.Jobs = 0 },
		"negative rate":  func(s *Settings) { s.Run.LaunchRate = -1 },
		"rate no burst":  func(s *Settings) { s.Run.LaunchRate = 2; s.Run.LaunchBurst = 0 },
		"negative grace": func(s *Settings) { s.Run.GracePeriod = -time.Second },
		"no header":      func(s *Settings) { s.I2S.HeaderParams = 0 },
		"no marker":      func(s *Settings) { s.I2S.CommentMarker = "" },
	} {
		t.Run(name, func(t *testing.T) {
			s := Defaults()
			mutate(&s)
			assert.Error(t, Validate(s))
		})
	}
}

func TestHaltFilePath(t *testing.T) {
	home := useTempHome(t)

	s := Defaults()
	assert.Equal(t, filepath.Join(home, I2SRUN_BASE_DIR, "HALT"), s.HaltFilePath())

	s.Run.HaltFile = "/tmp/stop-i2s"
	assert.Equal(t, "/tmp/stop-i2s", s.HaltFilePath())

	s.Run.HaltFile = ""
	assert.Empty(t, s.HaltFilePath())
}
