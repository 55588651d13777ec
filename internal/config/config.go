package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults. The controller gains are the tuning found by the reference
// parameter search on the predefined course.
const (
	DefaultDtSim        = 1.0 / 240
	DefaultDtCtrl       = 1.0 / 120
	DefaultMaxTicks     = 240 * 120
	DefaultDerailOffset = 0.3

	DefaultKp    = 3.1304805
	DefaultKi    = 73.017708
	DefaultKd    = 11.273636
	DefaultSpeed = 1.6710281
)

type Config struct {
	Track        string  `yaml:"track"` // builtin figure name or path to a track file
	DtSim        float64 `yaml:"dt_sim"`
	DtCtrl       float64 `yaml:"dt_ctrl"`
	MaxTicks     int     `yaml:"max_ticks"`
	DerailOffset float64 `yaml:"derail_offset"`
	MotorLag     bool    `yaml:"motor_lag"` // second-order wheel response instead of instant speed

	Chassis    ChassisConfig    `yaml:"chassis"`
	Sensors    SensorConfig     `yaml:"sensors"`
	Controller ControllerConfig `yaml:"controller"`
}

type ChassisConfig struct {
	Wheelbase   float64 `yaml:"wheelbase"`
	WheelRadius float64 `yaml:"wheel_radius"`
}

type SensorConfig struct {
	Count    int     `yaml:"count"`
	Spacing  float64 `yaml:"spacing"`
	Forward  float64 `yaml:"forward"`
	MaxRange float64 `yaml:"max_range"`
}

type ControllerConfig struct {
	Kp          float64 `yaml:"kp"`
	Ki          float64 `yaml:"ki"`
	Kd          float64 `yaml:"kd"`
	BaseSpeed   float64 `yaml:"base_speed"`
	WindupLimit float64 `yaml:"windup_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		Track:        "predefined",
		DtSim:        DefaultDtSim,
		DtCtrl:       DefaultDtCtrl,
		MaxTicks:     DefaultMaxTicks,
		DerailOffset: DefaultDerailOffset,
		Chassis: ChassisConfig{
			Wheelbase:   0.1,
			WheelRadius: 0.04,
		},
		Sensors: SensorConfig{
			Count:    5,
			Spacing:  0.022,
			Forward:  0.06,
			MaxRange: 0.0176,
		},
		Controller: ControllerConfig{
			Kp:        DefaultKp,
			Ki:        DefaultKi,
			Kd:        DefaultKd,
			BaseSpeed: DefaultSpeed,
		},
	}
}

// Load reads a YAML config over the defaults, so partial files work.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the simulation would refuse anyway,
// with friendlier messages.
func (c *Config) Validate() error {
	if c.DtSim <= 0 {
		return fmt.Errorf("dt_sim must be positive, got %g", c.DtSim)
	}
	if c.DtCtrl < c.DtSim {
		return fmt.Errorf("dt_ctrl (%g) must be at least dt_sim (%g)", c.DtCtrl, c.DtSim)
	}
	if c.MaxTicks <= 0 {
		return fmt.Errorf("max_ticks must be positive, got %d", c.MaxTicks)
	}
	if c.DerailOffset <= 0 {
		return fmt.Errorf("derail_offset must be positive, got %g", c.DerailOffset)
	}
	if c.Sensors.Count <= 0 {
		return fmt.Errorf("sensor count must be positive, got %d", c.Sensors.Count)
	}
	if c.Chassis.Wheelbase <= 0 || c.Chassis.WheelRadius <= 0 {
		return fmt.Errorf("chassis dimensions must be positive")
	}
	return nil
}
