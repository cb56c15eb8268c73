package animation

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

//go:embed data/*.yaml
var embeddedProfiles embed.FS

// profileFile is the raw YAML structure of a motion profile.
type profileFile struct {
	Lift        string         `yaml:"lift"`
	Description string         `yaml:"description"`
	DurationMs  int            `yaml:"duration_ms"`
	Keyframes   []Keyframe     `yaml:"keyframes"`
	Parameters  []ParameterDef `yaml:"parameters"`
}

// LoadEmbedded loads a bundled motion profile by lift id.
func LoadEmbedded(lift string) (*Profile, error) {
	data, err := embeddedProfiles.ReadFile(fmt.Sprintf("data/%s.yaml", lift))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownProfile, lift, err)
	}
	return ParseProfile(lift, data)
}

// ListEmbedded returns the lift ids of all bundled profiles.
func ListEmbedded() ([]string, error) {
	entries, err := embeddedProfiles.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded profiles: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}
	return names, nil
}

// ParseProfile parses YAML data into a Profile. Keyframes are sorted by At.
func ParseProfile(fallbackLift string, data []byte) (*Profile, error) {
	var raw profileFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}

	lift := raw.Lift
	if lift == "" {
		lift = fallbackLift
	}
	lift = skeleton.NormalizeLift(lift)

	if raw.DurationMs <= 0 {
		return nil, fmt.Errorf("%w: %q needs a positive duration_ms", ErrInvalidProfile, lift)
	}
	for i, kf := range raw.Keyframes {
		if kf.At < 0 || kf.At > 1 || !finite(kf.At) {
			return nil, fmt.Errorf("%w: %q keyframe %d at %v outside [0,1]", ErrInvalidProfile, lift, i, kf.At)
		}
		if raw.Keyframes[i].Joints == nil {
			raw.Keyframes[i].Joints = map[string]float64{}
		}
	}
	sort.SliceStable(raw.Keyframes, func(i, j int) bool {
		return raw.Keyframes[i].At < raw.Keyframes[j].At
	})

	seen := make(map[string]bool, len(raw.Parameters))
	for _, def := range raw.Parameters {
		switch {
		case def.Key == "":
			return nil, fmt.Errorf("%w: %q has a parameter without a key", ErrInvalidProfile, lift)
		case seen[def.Key]:
			return nil, fmt.Errorf("%w: %q declares parameter %q twice", ErrInvalidProfile, lift, def.Key)
		case def.Min > def.Max:
			return nil, fmt.Errorf("%w: %q parameter %q has min > max", ErrInvalidProfile, lift, def.Key)
		case def.Default < def.Min || def.Default > def.Max:
			return nil, fmt.Errorf("%w: %q parameter %q default outside its range", ErrInvalidProfile, lift, def.Key)
		}
		seen[def.Key] = true
	}

	return &Profile{
		Lift:        lift,
		Description: raw.Description,
		Duration:    time.Duration(raw.DurationMs) * time.Millisecond,
		Keyframes:   raw.Keyframes,
		Parameters:  raw.Parameters,
	}, nil
}
