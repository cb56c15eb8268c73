package skeleton

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_BundledAreTrees(t *testing.T) {
	names, err := ListEmbedded()
	if err != nil {
		t.Fatalf("ListEmbedded() error = %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("bundled lifts = %v, want 3", names)
	}

	for _, name := range names {
		if err := Validate(mustLoad(t, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestValidate_Problems(t *testing.T) {
	path := map[string]Point{"a": {}, "b": {X: 1}, "c": {Y: 1}}

	tests := []struct {
		name    string
		limbs   []Limb
		anchors map[string]Anchor
		want    string
	}{
		{
			name:  "unknown joint",
			limbs: []Limb{{From: "a", To: "z"}},
			want:  `unknown joint "z"`,
		},
		{
			name:  "self link",
			limbs: []Limb{{From: "a", To: "b"}, {From: "b", To: "b"}},
			want:  "links a joint to itself",
		},
		{
			name:  "two parents",
			limbs: []Limb{{From: "a", To: "c"}, {From: "b", To: "c"}},
			want:  "two parents",
		},
		{
			name:  "multiple roots",
			limbs: []Limb{{From: "a", To: "b"}, {From: "c", To: "b"}},
			want:  "multiple root joints",
		},
		{
			name:  "cycle",
			limbs: []Limb{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}},
			want:  "cycle",
		},
		{
			name:    "dangling anchor",
			limbs:   []Limb{{From: "a", To: "b"}},
			anchors: map[string]Anchor{"c": {Joint: "nope"}},
			want:    `anchor "c" references unknown joint "nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &Definition{Name: "broken", Path: path, Limbs: tt.limbs, Anchors: tt.anchors}

			err := Validate(def)
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("Validate() error = %v, want ErrInvalidDefinition", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_CycleHasNoRoot(t *testing.T) {
	def := &Definition{
		Name:  "loop",
		Path:  map[string]Point{"a": {}, "b": {}},
		Limbs: []Limb{{From: "a", To: "b"}, {From: "b", To: "a"}},
	}

	err := Validate(def)
	if err == nil || !strings.Contains(err.Error(), "no root joint") {
		t.Errorf("Validate() error = %v, want no root joint", err)
	}
}
