package sequence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LinkesAuge/autoseq/engine"
)

// Load reads one sequence file, routing on the extension. JSON files are
// schema-validated before decoding; YAML files decode through the map codec
// so nested actions get the same defaults and validation.
func Load(path string) (Sequence, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return Sequence{}, fmt.Errorf("unsupported sequence file %s", path)
	}
}

// LoadDir loads every sequence file in a directory, keyed by sequence name.
func LoadDir(dir string) (map[string]Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sequences dir: %w", err)
	}
	sequences := make(map[string]Sequence)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		seq, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if _, dup := sequences[seq.Name]; dup {
			return nil, fmt.Errorf("duplicate sequence name %q (%s)", seq.Name, entry.Name())
		}
		sequences[seq.Name] = seq
	}
	return sequences, nil
}

func loadJSON(path string) (Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sequence{}, fmt.Errorf("read sequence file: %w", err)
	}
	if err := Validate(data); err != nil {
		return Sequence{}, err
	}
	var seq Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return Sequence{}, fmt.Errorf("decode sequence: %w", err)
	}
	if seq.Name == "" {
		seq.Name = baseName(path)
	}
	return seq, nil
}

// yamlSequence is the raw YAML shape; actions stay untyped until the map
// codec builds them.
type yamlSequence struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Actions     []map[string]any `yaml:"actions"`
}

func loadYAML(path string) (Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sequence{}, fmt.Errorf("read sequence file: %w", err)
	}
	var raw yamlSequence
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Sequence{}, fmt.Errorf("parse yaml: %w", err)
	}
	seq := Sequence{Name: raw.Name, Description: raw.Description}
	if seq.Name == "" {
		seq.Name = baseName(path)
	}
	for i, m := range raw.Actions {
		action, err := engine.FromMap(m)
		if err != nil {
			return Sequence{}, fmt.Errorf("action %d: %w", i, err)
		}
		seq.Actions = append(seq.Actions, action)
	}
	return seq, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
