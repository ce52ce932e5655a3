package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a Scene from a YAML file and validates it
func Load(path string) (*Scene, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}

	var sc Scene
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return &sc, nil
}

// Save writes a Scene to a YAML file
func Save(path string, sc *Scene) error {
	b, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}
