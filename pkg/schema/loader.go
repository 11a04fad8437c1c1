package schema

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// taskFile is the on-disk YAML layout of a task pack.
type taskFile struct {
	Tasks []struct {
		Name  string `yaml:"name"`
		Slots []Slot `yaml:"slots"`

		// Delivery is decoded leniently: packs may carry extra keys for
		// host-specific routing, and only the known fields are kept.
		Delivery map[string]any `yaml:"delivery"`
	} `yaml:"tasks"`
}

// Load parses a YAML task pack into a validated registry.
func Load(data []byte) (*Registry, error) {
	var file taskFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse task pack: %w", err)
	}

	tasks := make([]Task, 0, len(file.Tasks))
	for _, raw := range file.Tasks {
		t := Task{Name: raw.Name, Slots: raw.Slots}
		if len(raw.Delivery) > 0 {
			var d Delivery
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				Result:           &d,
				WeaklyTypedInput: true,
			})
			if err != nil {
				return nil, err
			}
			if err := dec.Decode(raw.Delivery); err != nil {
				return nil, fmt.Errorf("task %q: invalid delivery config: %w", raw.Name, err)
			}
			t.Delivery = &d
		}
		tasks = append(tasks, t)
	}

	return NewRegistry(tasks...)
}

// LoadFile reads and parses a YAML task pack from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task pack: %w", err)
	}
	return Load(data)
}
