package skeleton

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const customYAML = `
name: Overhead
description: Strict press
joints:
  - {name: shoulder, x: 0, y: 0}
  - {name: hand, x: 0, y: -60}
  - {name: bar, x: 0, y: -70}
limbs:
  - {from: shoulder, to: hand}
anchors:
  bar: {joint: hand, offset: {x: 0, y: -10}}
scene_bounds: {min_x: -300, max_x: 300, min_y: -300, max_y: 300}
`

func TestLoadEmbedded(t *testing.T) {
	def, err := LoadEmbedded(Squat)
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	if def.Name != Squat {
		t.Errorf("Name = %q, want %q", def.Name, Squat)
	}
	if want := []string{"hip", "knee", "foot", "shoulder", Bar}; !slices.Equal(def.Order, want) {
		t.Errorf("Order = %v, want %v", def.Order, want)
	}
	if len(def.Limbs) != 3 {
		t.Errorf("Limbs = %d, want 3", len(def.Limbs))
	}
	if def.Surfaces.Ground == nil || *def.Surfaces.Ground != 440 {
		t.Errorf("Ground = %v, want 440", def.Surfaces.Ground)
	}
}

func TestLoadEmbedded_Unknown(t *testing.T) {
	if _, err := LoadEmbedded("snatch"); !errors.Is(err, ErrUnknownLift) {
		t.Errorf("error = %v, want ErrUnknownLift", err)
	}
}

func TestListEmbedded(t *testing.T) {
	names, err := ListEmbedded()
	if err != nil {
		t.Fatalf("ListEmbedded() error = %v", err)
	}
	slices.Sort(names)
	if want := []string{Bench, Deadlift, Squat}; !slices.Equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition("fallback", []byte(customYAML))
	if err != nil {
		t.Fatalf("ParseDefinition() error = %v", err)
	}

	if def.Name != "overhead" {
		t.Errorf("Name = %q, want overhead", def.Name)
	}
	if def.Description != "Strict press" {
		t.Errorf("Description = %q", def.Description)
	}
	if got := def.Path["hand"]; got != (Point{X: 0, Y: -60}) {
		t.Errorf("hand = %+v", got)
	}
	if def.SceneBounds == nil {
		t.Fatal("SceneBounds not parsed")
	}
	if w := def.SceneBounds.Width(); w != 600 {
		t.Errorf("SceneBounds width = %v, want 600", w)
	}
}

func TestParseDefinition_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no joints", "name: empty\n"},
		{"duplicate joint", "joints:\n  - {name: a}\n  - {name: a}\n"},
		{"unnamed joint", "joints:\n  - {x: 1}\n"},
		{"unknown limb joint", "joints:\n  - {name: a}\nlimbs:\n  - {from: a, to: b}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition("x", []byte(tt.yaml))
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("error = %v, want ErrInvalidDefinition", err)
			}
		})
	}

	if _, err := ParseDefinition("x", []byte("joints: [oops")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"overhead.yaml": customYAML,
		"Pull.yml":      "joints:\n  - {name: a}\n",
		"notes.txt":     "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	defs, err := LoadFromDirectory(dir)
	if err != nil {
		t.Fatalf("LoadFromDirectory() error = %v", err)
	}

	var names []string
	for _, d := range defs {
		names = append(names, d.Name)
	}
	slices.Sort(names)
	if want := []string{"overhead", "pull"}; !slices.Equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestNormalizeLift(t *testing.T) {
	if got := NormalizeLift("  Squat "); got != "squat" {
		t.Errorf("NormalizeLift(\"  Squat \") = %q", got)
	}
	if got := NormalizeLift(""); got != "" {
		t.Errorf("NormalizeLift(\"\") = %q", got)
	}
}
