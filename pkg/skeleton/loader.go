package skeleton

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embeddedDefinitions embed.FS

// LoadEmbedded loads a bundled skeleton definition by lift id.
func LoadEmbedded(lift string) (*Definition, error) {
	filename := fmt.Sprintf("data/%s.yaml", lift)
	data, err := embeddedDefinitions.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownLift, lift, err)
	}

	return parseDefinitionYAML(lift, data)
}

// ListEmbedded returns the lift ids of all bundled definitions.
func ListEmbedded() ([]string, error) {
	entries, err := embeddedDefinitions.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded skeletons: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}

	return names, nil
}

// LoadFromFile loads a skeleton definition from a YAML file on disk.
// The lift id defaults to the file name when the file omits one.
func LoadFromFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read skeleton file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return parseDefinitionYAML(name, data)
}

// LoadFromDirectory loads every *.yaml and *.yml definition in dir.
func LoadFromDirectory(dir string) ([]*Definition, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list skeleton files: %w", err)
		}
		files = append(files, matches...)
	}

	var defs []*Definition
	for _, file := range files {
		def, err := LoadFromFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		defs = append(defs, def)
	}

	return defs, nil
}

// ParseDefinition parses YAML data into a Definition. fallbackName is used
// when the document has no name field.
func ParseDefinition(fallbackName string, data []byte) (*Definition, error) {
	return parseDefinitionYAML(fallbackName, data)
}

func parseDefinitionYAML(fallbackName string, data []byte) (*Definition, error) {
	var raw definitionFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse skeleton YAML: %w", err)
	}

	name := raw.Name
	if name == "" {
		name = fallbackName
	}
	name = NormalizeLift(name)

	if len(raw.Joints) == 0 {
		return nil, fmt.Errorf("%w: %q has no joints", ErrInvalidDefinition, name)
	}

	def := &Definition{
		Name:        name,
		Description: raw.Description,
		Path:        make(map[string]Point, len(raw.Joints)),
		Order:       make([]string, 0, len(raw.Joints)),
		Limbs:       raw.Limbs,
		Anchors:     raw.Anchors,
		Surfaces:    raw.Surfaces,
		SceneBounds: raw.SceneBounds,
	}
	if def.Anchors == nil {
		def.Anchors = map[string]Anchor{}
	}

	for _, j := range raw.Joints {
		if j.Name == "" {
			return nil, fmt.Errorf("%w: %q has a joint without a name", ErrInvalidDefinition, name)
		}
		if _, dup := def.Path[j.Name]; dup {
			return nil, fmt.Errorf("%w: %q declares joint %q twice", ErrInvalidDefinition, name, j.Name)
		}
		def.Path[j.Name] = Point{X: j.X, Y: j.Y}
		def.Order = append(def.Order, j.Name)
	}

	for _, limb := range def.Limbs {
		if _, ok := def.Path[limb.From]; !ok {
			return nil, fmt.Errorf("%w: %q limb references unknown joint %q", ErrInvalidDefinition, name, limb.From)
		}
		if _, ok := def.Path[limb.To]; !ok {
			return nil, fmt.Errorf("%w: %q limb references unknown joint %q", ErrInvalidDefinition, name, limb.To)
		}
	}

	return def, nil
}

// NormalizeLift canonicalizes a lift id for lookup ("Squat " -> "squat").
func NormalizeLift(lift string) string {
	return strings.ToLower(strings.TrimSpace(lift))
}
