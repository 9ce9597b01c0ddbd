package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"go-realtone/internal/realtone"
)

// LoadProfile reads a YAML processor profile. Keys are the snake_case
// ProcessorConfig field names; absent keys keep their defaults and unknown
// keys are rejected.
func LoadProfile(path string) (realtone.ConfigUpdate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return realtone.ConfigUpdate{}, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes profile YAML
func ParseProfile(data []byte) (realtone.ConfigUpdate, error) {
	var update realtone.ConfigUpdate
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&update); err != nil {
		if errors.Is(err, io.EOF) {
			return realtone.ConfigUpdate{}, nil
		}
		return realtone.ConfigUpdate{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	return update, nil
}
