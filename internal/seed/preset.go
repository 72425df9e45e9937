package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset describes the shape of a seeded dataset. Presets are either
// built in or loaded from a YAML file.
type Preset struct {
	Name    string `yaml:"name"`
	Users   int    `yaml:"users"`
	Posts   int    `yaml:"posts"`
	Orders  int    `yaml:"orders"`
	MaxDays int    `yaml:"max_days"`
}

// Presets are the built-in dataset sizes.
var Presets = map[string]Preset{
	"Minimal":       {Name: "Minimal", Users: 5, Posts: 10, Orders: 5, MaxDays: 7},
	"Demo":          {Name: "Demo", Users: 50, Posts: 200, Orders: 120, MaxDays: 90},
	"MegaPopulated": {Name: "MegaPopulated", Users: 500, Posts: 5000, Orders: 3000, MaxDays: 365},
}

// PresetNames lists the built-in presets alphabetically.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePreset decodes a YAML preset and validates it.
func ParsePreset(data []byte) (Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("decode preset: %w", err)
	}
	if p.Users <= 0 {
		return Preset{}, fmt.Errorf("preset %q: users must be positive", p.Name)
	}
	if p.Posts < 0 || p.Orders < 0 || p.MaxDays < 0 {
		return Preset{}, fmt.Errorf("preset %q: counts must not be negative", p.Name)
	}
	return p, nil
}

// ResolvePreset returns a built-in preset by name, or loads a .yml/.yaml file.
func ResolvePreset(nameOrPath string) (Preset, error) {
	if p, ok := Presets[nameOrPath]; ok {
		return p, nil
	}
	ext := strings.ToLower(filepath.Ext(nameOrPath))
	if ext != ".yml" && ext != ".yaml" {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %s)", nameOrPath, strings.Join(PresetNames(), ", "))
	}
	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}
	p, err := ParsePreset(data)
	if err != nil {
		return Preset{}, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(nameOrPath), ext)
	}
	return p, nil
}

// Summary counts what Run created.
type Summary struct {
	Users  int
	Posts  int
	Orders int
}

// Run seeds an admin, the social mesh, engagement and orders for p.
func (s *Seeder) Run(p Preset) (*Summary, error) {
	if p.MaxDays > 0 {
		s.factory.opts.MaxDays = p.MaxDays
	}

	admin, err := s.SeedAdmin()
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	users, err := s.SeedSocialMesh(p.Users)
	if err != nil {
		return nil, err
	}
	engagement, err := s.SeedEngagement(users, p.Posts)
	if err != nil {
		return nil, err
	}
	orders, err := s.SeedOrders(users, admin, p.Orders)
	if err != nil {
		return nil, err
	}
	return &Summary{Users: len(users) + 1, Posts: len(engagement.Posts), Orders: len(orders)}, nil
}
