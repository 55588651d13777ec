package config

// Presets are named starting points for common runs.
var presets = map[string]func(*Config){
	"default": func(*Config) {},
	"slow": func(c *Config) {
		// Conservative speed for tight courses.
		c.Controller.BaseSpeed = 0.8
	},
	"fast": func(c *Config) {
		c.Controller.BaseSpeed = 2.2
		c.Controller.Kd *= 1.5
	},
	"sloppy": func(c *Config) {
		// Deliberately loose tuning, handy for demonstrating derailment
		// and as a grid-search baseline.
		c.Controller.Kp = 0.5
		c.Controller.Ki = 0
		c.Controller.Kd = 0
	},
	"circle": func(c *Config) {
		c.Track = "circle"
		c.Controller.BaseSpeed = 1.0
	},
}

// GetPreset returns the named preset applied over the defaults, or nil if
// unknown.
func GetPreset(name string) *Config {
	apply, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}
