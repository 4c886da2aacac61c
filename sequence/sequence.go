package sequence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/LinkesAuge/autoseq/engine"
)

// Sequence is a named, persistable list of actions.
type Sequence struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Actions     []engine.Action `json:"actions"`
}

// Save writes the sequence as indented JSON.
func (s Sequence) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sequence %q: %w", s.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sequence %q: %w", s.Name, err)
	}
	return nil
}
