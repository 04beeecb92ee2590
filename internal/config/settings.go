package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/tomz197/hopline/internal/calibration"
	"github.com/tomz197/hopline/internal/loop"
	loopconfig "github.com/tomz197/hopline/internal/loop/config"
	"github.com/tomz197/hopline/internal/physics"
	"github.com/tomz197/hopline/internal/pose"
)

// EnvPrefix prefixes every environment override, e.g. HOPLINE_GAME_LIVES.
const EnvPrefix = "HOPLINE"

// GameSettings mirrors loop.Tuning.
type GameSettings struct {
	Tick               time.Duration `mapstructure:"tick"`
	Lives              int           `mapstructure:"lives"`
	BaseSpeed          float64       `mapstructure:"baseSpeed"`
	MaxSpeed           float64       `mapstructure:"maxSpeed"`
	SpeedIncrement     float64       `mapstructure:"speedIncrement"`
	SpeedUpInterval    time.Duration `mapstructure:"speedUpInterval"`
	TumbleSpeedFactor  float64       `mapstructure:"tumbleSpeedFactor"`
	InvincibleDuration time.Duration `mapstructure:"invincibleDuration"`
	TumbleDuration     time.Duration `mapstructure:"tumbleDuration"`
	Gravity            float64       `mapstructure:"gravity"`
	JumpImpulse        float64       `mapstructure:"jumpImpulse"`
	LaneTolerance      float64       `mapstructure:"laneTolerance"`
	DepthWindow        float64       `mapstructure:"depthWindow"`
	Clearance          float64       `mapstructure:"clearance"`
	MinSpawnSpacing    time.Duration `mapstructure:"minSpawnSpacing"`
	MaxSpawnSpacing    time.Duration `mapstructure:"maxSpawnSpacing"`
	FirstSpawnDelay    time.Duration `mapstructure:"firstSpawnDelay"`
	MinSpawnDistance   float64       `mapstructure:"minSpawnDistance"`
	ResumeSteps        int           `mapstructure:"resumeSteps"`
	ResumeStep         time.Duration `mapstructure:"resumeStep"`
}

// PoseSettings mirrors pose.Thresholds.
type PoseSettings struct {
	MinConfidence float64 `mapstructure:"minConfidence"`
	MaxHipSkew    float64 `mapstructure:"maxHipSkew"`
	Smoothing     float64 `mapstructure:"smoothing"`
	Margin        float64 `mapstructure:"margin"`
	MinMovement   float64 `mapstructure:"minMovement"`
}

// CalibrationSettings mirrors calibration.Params.
type CalibrationSettings struct {
	MinSamples         int     `mapstructure:"minSamples"`
	MaxSamples         int     `mapstructure:"maxSamples"`
	StabilityThreshold float64 `mapstructure:"stabilityThreshold"`
	MinAmplitude       float64 `mapstructure:"minAmplitude"`
	DefaultAmplitude   float64 `mapstructure:"defaultAmplitude"`
	TargetJumps        int     `mapstructure:"targetJumps"`
}

// Settings is everything a host needs to start.
type Settings struct {
	LogLevel    string              `mapstructure:"logLevel"`
	Game        GameSettings        `mapstructure:"game"`
	Pose        PoseSettings        `mapstructure:"pose"`
	Calibration CalibrationSettings `mapstructure:"calibration"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	tn := loop.DefaultTuning()
	v.SetDefault("game.tick", tn.TickDuration)
	v.SetDefault("game.lives", tn.Lives)
	v.SetDefault("game.baseSpeed", tn.BaseSpeed)
	v.SetDefault("game.maxSpeed", tn.MaxSpeed)
	v.SetDefault("game.speedIncrement", tn.SpeedIncrement)
	v.SetDefault("game.speedUpInterval", tn.SpeedUpInterval)
	v.SetDefault("game.tumbleSpeedFactor", tn.TumbleSpeedFactor)
	v.SetDefault("game.invincibleDuration", tn.InvincibleDuration)
	v.SetDefault("game.tumbleDuration", tn.TumbleDuration)
	v.SetDefault("game.gravity", tn.Gravity)
	v.SetDefault("game.jumpImpulse", tn.JumpImpulse)
	v.SetDefault("game.laneTolerance", tn.Geometry.LaneTolerance)
	v.SetDefault("game.depthWindow", tn.Geometry.DepthWindow)
	v.SetDefault("game.clearance", tn.Geometry.Clearance)
	v.SetDefault("game.minSpawnSpacing", tn.MinSpawnSpacing)
	v.SetDefault("game.maxSpawnSpacing", tn.MaxSpawnSpacing)
	v.SetDefault("game.firstSpawnDelay", tn.FirstSpawnDelay)
	v.SetDefault("game.minSpawnDistance", tn.MinSpawnDistance)
	v.SetDefault("game.resumeSteps", tn.ResumeSteps)
	v.SetDefault("game.resumeStep", tn.ResumeStep)

	th := pose.DefaultThresholds()
	v.SetDefault("pose.minConfidence", th.MinConfidence)
	v.SetDefault("pose.maxHipSkew", th.MaxHipSkew)
	v.SetDefault("pose.smoothing", th.Smoothing)
	v.SetDefault("pose.margin", th.Margin)
	v.SetDefault("pose.minMovement", th.MinMovement)

	cp := calibration.DefaultParams()
	v.SetDefault("calibration.minSamples", cp.MinSamples)
	v.SetDefault("calibration.maxSamples", cp.MaxSamples)
	v.SetDefault("calibration.stabilityThreshold", cp.StabilityThreshold)
	v.SetDefault("calibration.minAmplitude", cp.MinAmplitude)
	v.SetDefault("calibration.defaultAmplitude", cp.DefaultAmplitude)
	v.SetDefault("calibration.targetJumps", cp.TargetJumps)
}

// Load reads settings from defaults, the optional file at path (JSON, YAML
// or TOML by extension) and HOPLINE_* environment variables, in increasing
// priority. An empty path skips the file.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings the session cannot run with.
func (s Settings) Validate() error {
	g := s.Game
	var errs []error
	if g.Tick <= 0 {
		errs = append(errs, errors.New("game.tick must be positive"))
	}
	if g.Lives < 1 {
		errs = append(errs, errors.New("game.lives must be at least 1"))
	}
	if g.MaxSpeed < g.BaseSpeed {
		errs = append(errs, errors.New("game.maxSpeed is below game.baseSpeed"))
	}
	if g.DepthWindow <= 0 || g.DepthWindow > loopconfig.ScoreMargin {
		errs = append(errs, fmt.Errorf("game.depthWindow must be in (0,%g]", loopconfig.ScoreMargin))
	}
	if g.MinSpawnSpacing <= 0 || g.MaxSpawnSpacing < g.MinSpawnSpacing {
		errs = append(errs, errors.New("game spawn spacing must satisfy 0 < min <= max"))
	}
	if s.Pose.Smoothing <= 0 || s.Pose.Smoothing >= 1 {
		errs = append(errs, errors.New("pose.smoothing must be in (0,1)"))
	}
	if s.Calibration.MinSamples < 2 || s.Calibration.MaxSamples < s.Calibration.MinSamples {
		errs = append(errs, errors.New("calibration samples must satisfy 2 <= min <= max"))
	}
	if s.Calibration.TargetJumps < 1 {
		errs = append(errs, errors.New("calibration.targetJumps must be at least 1"))
	}
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("logLevel: %w", err))
	}
	return errors.Join(errs...)
}

// Tuning converts the game settings for loop.WithTuning.
func (s Settings) Tuning() loop.Tuning {
	g := s.Game
	return loop.Tuning{
		TickDuration:       g.Tick,
		Lives:              g.Lives,
		BaseSpeed:          g.BaseSpeed,
		MaxSpeed:           g.MaxSpeed,
		SpeedIncrement:     g.SpeedIncrement,
		SpeedUpInterval:    g.SpeedUpInterval,
		TumbleSpeedFactor:  g.TumbleSpeedFactor,
		InvincibleDuration: g.InvincibleDuration,
		TumbleDuration:     g.TumbleDuration,
		Gravity:            g.Gravity,
		JumpImpulse:        g.JumpImpulse,
		Geometry: physics.Geometry{
			LaneTolerance: g.LaneTolerance,
			DepthWindow:   g.DepthWindow,
			Clearance:     g.Clearance,
		},
		MinSpawnSpacing:  g.MinSpawnSpacing,
		MaxSpawnSpacing:  g.MaxSpawnSpacing,
		FirstSpawnDelay:  g.FirstSpawnDelay,
		MinSpawnDistance: g.MinSpawnDistance,
		ResumeSteps:      g.ResumeSteps,
		ResumeStep:       g.ResumeStep,
	}
}

// Thresholds converts the pose settings.
func (s Settings) Thresholds() pose.Thresholds {
	return pose.Thresholds{
		MinConfidence: s.Pose.MinConfidence,
		MaxHipSkew:    s.Pose.MaxHipSkew,
		Smoothing:     s.Pose.Smoothing,
		Margin:        s.Pose.Margin,
		MinMovement:   s.Pose.MinMovement,
	}
}

// CalibrationParams converts the calibration settings.
func (s Settings) CalibrationParams() calibration.Params {
	c := s.Calibration
	return calibration.Params{
		MinSamples:         c.MinSamples,
		MaxSamples:         c.MaxSamples,
		StabilityThreshold: c.StabilityThreshold,
		MinAmplitude:       c.MinAmplitude,
		DefaultAmplitude:   c.DefaultAmplitude,
		TargetJumps:        c.TargetJumps,
	}
}

// DriverOptions bundles the settings into options for loop.NewDriver.
func (s Settings) DriverOptions() []loop.DriverOption {
	return []loop.DriverOption{
		loop.WithThresholds(s.Thresholds()),
		loop.WithCalibrationParams(s.CalibrationParams()),
		loop.WithSessionOptions(loop.WithTuning(s.Tuning())),
	}
}

// NewLogger builds the stderr logger every host uses.
func (s Settings) NewLogger(prefix string) *log.Logger {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          prefix,
		Level:           level,
	})
}
