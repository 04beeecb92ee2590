package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/hopline/internal/calibration"
	"github.com/tomz197/hopline/internal/loop"
	loopconfig "github.com/tomz197/hopline/internal/loop/config"
	"github.com/tomz197/hopline/internal/pose"
)

func TestLoad_DefaultValues(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, loop.DefaultTuning(), s.Tuning())
	assert.Equal(t, pose.DefaultThresholds(), s.Thresholds())
	assert.Equal(t, calibration.DefaultParams(), s.CalibrationParams())
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hopline.json")
	cfg := `{
		"logLevel": "debug",
		"game": { "lives": 5, "speedUpInterval": "20s", "baseSpeed": 0.1 },
		"pose": { "margin": 30 },
		"calibration": { "targetJumps": 2 }
	}`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 5, s.Tuning().Lives)
	assert.Equal(t, 20*time.Second, s.Tuning().SpeedUpInterval)
	assert.Equal(t, 0.1, s.Tuning().BaseSpeed)
	assert.Equal(t, 30.0, s.Thresholds().Margin)
	assert.Equal(t, 2, s.CalibrationParams().TargetJumps)
	assert.Equal(t, loop.DefaultTuning().MaxSpeed, s.Tuning().MaxSpeed, "unset keys keep defaults")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hopline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  tumbleDuration: 2s\n"), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, s.Tuning().TumbleDuration)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hopline.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"game": {"lives": 5}}`), 0644))
	t.Setenv("HOPLINE_GAME_LIVES", "7")
	t.Setenv("HOPLINE_GAME_TICK", "20ms")
	t.Setenv("HOPLINE_POSE_SMOOTHING", "0.5")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Game.Lives)
	assert.Equal(t, 20*time.Millisecond, s.Game.Tick)
	assert.Equal(t, 0.5, s.Pose.Smoothing)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/hopline.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	t.Setenv("HOPLINE_GAME_LIVES", "0")
	t.Setenv("HOPLINE_POSE_SMOOTHING", "1.5")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.lives")
	assert.Contains(t, err.Error(), "pose.smoothing")
}

func TestValidate_DepthWindowWithinScoreMargin(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	s.Game.DepthWindow = loopconfig.ScoreMargin
	require.NoError(t, s.Validate())

	s.Game.DepthWindow = loopconfig.ScoreMargin + 0.1
	err = s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.depthWindow")
}

func TestValidate_LogLevel(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	s.LogLevel = "loud"
	assert.Error(t, s.Validate())
}

func TestSettings_DriverOptions(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Len(t, s.DriverOptions(), 3)

	d, err := loop.NewDriver(s.NewLogger("test"), s.DriverOptions()...)
	require.NoError(t, err)
	assert.Equal(t, s.Game.Lives, d.Snapshot().Lives)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("HOPLINE_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnv("HOPLINE_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("HOPLINE_TEST_MISSING", "fallback"))
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("HOPLINE_TEST_LIST", " a, ,b ,")
	assert.Equal(t, []string{"a", "b"}, GetEnvList("HOPLINE_TEST_LIST"))
	assert.Nil(t, GetEnvList("HOPLINE_TEST_UNSET_LIST"))
}
