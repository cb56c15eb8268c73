package main

import (
	"testing"

	"github.com/teslashibe/liftviz/internal/config"
)

func TestParseParams(t *testing.T) {
	got, err := parseParams(map[string]string{"knee_travel": "12.5"})
	if err != nil {
		t.Fatalf("parseParams() error = %v", err)
	}
	if got["knee_travel"] != 12.5 {
		t.Errorf("knee_travel = %v, want 12.5", got["knee_travel"])
	}

	if _, err := parseParams(map[string]string{"knee_travel": "deep"}); err == nil {
		t.Error("expected error for a non-numeric value")
	}
}

func TestWSURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8090", "ws://localhost:8090"},
		{"https://lift.example", "wss://lift.example"},
		{"ws://already", "ws://already"},
	}
	for _, tt := range tests {
		if got := wsURL(tt.in); got != tt.want {
			t.Errorf("wsURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegistries_CustomDir(t *testing.T) {
	a := &app{v: config.New(), cfg: config.DefaultConfig()}
	a.cfg.Skeleton.CustomDir = t.TempDir()

	skeletons, profiles, err := a.registries()
	if err != nil {
		t.Fatalf("registries() error = %v", err)
	}
	if n := len(skeletons.List()); n != 3 {
		t.Errorf("skeletons = %d, want 3", n)
	}
	if n := len(profiles.List()); n != 3 {
		t.Errorf("profiles = %d, want 3", n)
	}
}
