// Package achievements holds the built-in achievement catalog and its rules.
package achievements

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/typequest/internal/model"
)

//go:embed catalog.yaml
var builtin []byte

// Builtin returns the embedded catalog, ordered by requirement value.
func Builtin() []model.Achievement {
	catalog, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return catalog
}

// Load reads a catalog from a YAML file.
func Load(path string) ([]model.Achievement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) ([]model.Achievement, error) {
	var catalog []model.Achievement
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validate(catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	Sort(catalog)
	return catalog, nil
}

// Sort orders achievements by requirement value, then id.
func Sort(catalog []model.Achievement) {
	sort.SliceStable(catalog, func(i, j int) bool {
		if catalog[i].RequirementValue != catalog[j].RequirementValue {
			return catalog[i].RequirementValue < catalog[j].RequirementValue
		}
		return catalog[i].ID < catalog[j].ID
	})
}

func validate(catalog []model.Achievement) error {
	if len(catalog) == 0 {
		return errors.New("no achievements")
	}
	seen := make(map[string]struct{}, len(catalog))
	for i, a := range catalog {
		if a.ID == "" {
			return fmt.Errorf("entry %d: missing id", i)
		}
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("duplicate id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
		if a.Name == "" {
			return fmt.Errorf("%s: missing name", a.ID)
		}
		if !Known(a.RequirementType) {
			return fmt.Errorf("%s: unknown requirement type %q", a.ID, a.RequirementType)
		}
		if a.RequirementValue < 0 {
			return fmt.Errorf("%s: negative requirement value", a.ID)
		}
	}
	return nil
}
