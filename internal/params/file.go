package params

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a parameter set: a preset plus numeric
// overrides. Functional parameters can only come from presets.
type File struct {
	Preset   string             `yaml:"preset"`
	AllowNew bool               `yaml:"allow_new"`
	Values   map[string]float64 `yaml:"values"`
}

// Load reads a parameter file. Unknown top-level fields are rejected.
func Load(path string) (*ParameterValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a parameter file held in memory.
func Parse(data []byte) (*ParameterValues, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("params: decode: %w", err)
	}

	preset := f.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	pv, err := FromPreset(preset)
	if err != nil {
		return nil, err
	}
	if err := pv.Update(f.asAny(), !f.AllowNew); err != nil {
		return nil, err
	}
	return pv, nil
}

// Save writes the numeric values of pv as a parameter file based on preset.
func Save(path, preset string, pv *ParameterValues) error {
	f := File{Preset: preset, AllowNew: true, Values: pv.Numbers()}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (f *File) asAny() map[string]any {
	out := make(map[string]any, len(f.Values))
	for k, v := range f.Values {
		out[k] = v
	}
	return out
}
