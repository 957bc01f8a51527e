package config

import "sort"

// Scenarios are named run configurations on top of DefaultConfig.
var Scenarios = map[string]func(*Config){
	"example": func(c *Config) {},
	"1c-discharge": func(c *Config) {
		c.Overrides = map[string]float64{"Current function [A]": 5}
		c.Plot = []string{"Voltage [V]", "Temperature [°C]"}
	},
	"well-cooled": func(c *Config) {
		c.Overrides = map[string]float64{"R_c": 2, "C_c": 60}
	},
	"derated": func(c *Config) {
		c.Overrides = map[string]float64{"Current function [A]": 5}
		c.DerateAbove = 300
		c.Plot = []string{"Current [A]", "Temperature [°C]"}
	},
	"rest": func(c *Config) {
		c.Overrides = map[string]float64{"Current function [A]": 0}
		c.Plot = []string{"Voltage [V]", "Temperature [°C]"}
	},
	"hourly-samples": func(c *Config) {
		c.TSpan = []float64{0, 4 * 3600}
		c.TEvalPoints = 5
		c.Overrides = map[string]float64{"Current function [A]": 1}
		c.Plot = []string{"State of charge", "Temperature [°C]"}
	},
}

// GetScenario returns a fresh config for a scenario, or nil.
func GetScenario(name string) *Config {
	apply, ok := Scenarios[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListScenarios() []string {
	names := make([]string, 0, len(Scenarios))
	for name := range Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
