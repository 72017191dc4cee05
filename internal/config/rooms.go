package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoomConfig describes one bookable room.
type RoomConfig struct {
	Name        string `yaml:"name"`
	Capacity    int    `yaml:"capacity"`
	Description string `yaml:"description,omitempty"`
}

// RoomsConfig is the root of rooms.yaml: the fixed set of rooms users can
// pick from.
type RoomsConfig struct {
	Rooms []RoomConfig `yaml:"rooms"`
}

// LoadRooms loads and validates the rooms configuration.
func LoadRooms(path string) (*RoomsConfig, error) {
	if path == "" {
		path = "configs/rooms.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms config: %w", err)
	}

	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rooms config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate rooms config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the room set for errors.
func (c *RoomsConfig) Validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("no rooms defined")
	}

	names := make(map[string]bool)
	for i, r := range c.Rooms {
		if r.Name == "" {
			return fmt.Errorf("room[%d]: name is required", i)
		}
		if names[r.Name] {
			return fmt.Errorf("room[%d]: duplicate name %q", i, r.Name)
		}
		names[r.Name] = true
	}
	return nil
}

// Names returns the room names in config order.
func (c *RoomsConfig) Names() []string {
	names := make([]string, len(c.Rooms))
	for i, r := range c.Rooms {
		names[i] = r.Name
	}
	return names
}

// Contains reports whether name is a configured room.
func (c *RoomsConfig) Contains(name string) bool {
	for _, r := range c.Rooms {
		if r.Name == name {
			return true
		}
	}
	return false
}
