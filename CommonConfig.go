package kbox2d

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

/// Settings holds the run-time world options. Solver tuning constants stay
/// compile time constants.
type Settings struct {
	Gravity Vec2 `yaml:"gravity"`

	/// Steps per second used by drivers such as the testbed.
	Hz float64 `yaml:"hz"`

	VelocityIterations int `yaml:"velocity_iterations"`
	PositionIterations int `yaml:"position_iterations"`

	WarmStarting      bool `yaml:"warm_starting"`
	ContinuousPhysics bool `yaml:"continuous_physics"`
	SubStepping       bool `yaml:"sub_stepping"`
	AllowSleep        bool `yaml:"allow_sleep"`
	AutoClearForces   bool `yaml:"auto_clear_forces"`

	/// Initial depth of each scratch stack in the world pool.
	PoolCapacity int `yaml:"pool_capacity"`
}

// DefaultSettings returns earth gravity, 60 Hz and 8/3 iterations with
// every solver feature except sub-stepping enabled.
func DefaultSettings() Settings {
	return Settings{
		Gravity:            Vec2{X: 0.0, Y: -10.0},
		Hz:                 60.0,
		VelocityIterations: 8,
		PositionIterations: 3,
		WarmStarting:       true,
		ContinuousPhysics:  true,
		SubStepping:        false,
		AllowSleep:         true,
		AutoClearForces:    true,
		PoolCapacity:       DefaultPoolCapacity,
	}
}

/// TimeStep is 1/Hz, or zero when Hz is not positive.
func (s Settings) TimeStep() float64 {
	if s.Hz > 0.0 {
		return 1.0 / s.Hz
	}
	return 0.0
}

func (s Settings) validate() error {
	if !s.Gravity.IsValid() {
		return errors.New("gravity is not finite")
	}
	if !IsValid(s.Hz) || s.Hz < 0.0 {
		return errors.Errorf("invalid hz %v", s.Hz)
	}
	if s.VelocityIterations < 0 || s.PositionIterations < 0 {
		return errors.Errorf("negative iteration count %d/%d", s.VelocityIterations, s.PositionIterations)
	}
	if s.PoolCapacity < 0 {
		return errors.Errorf("negative pool capacity %d", s.PoolCapacity)
	}
	return nil
}

// LoadSettings reads YAML settings from path. Keys missing from the file
// keep their default value. A missing file yields the defaults; a file that
// does not parse or holds invalid values is an error.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, errors.Wrapf(err, "kbox2d: read settings %s", path)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), errors.Wrapf(err, "kbox2d: parse settings %s", path)
	}

	if err := settings.validate(); err != nil {
		return DefaultSettings(), errors.Wrapf(err, "kbox2d: settings %s", path)
	}

	return settings, nil
}

// SaveSettings writes settings to path as YAML, creating the directory if
// needed.
func SaveSettings(path string, settings Settings) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "kbox2d: save settings")
		}
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "kbox2d: encode settings")
	}

	return errors.Wrap(os.WriteFile(path, data, 0644), "kbox2d: save settings")
}
