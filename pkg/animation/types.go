// Package animation drives the repeating lift cycle.
//
// A Profile describes one lift as ordered keyframes over a normalized cycle
// [0,1). Interpolate maps a progress value to per-joint angle offsets, a bar
// offset, a root displacement and the phase label of the active segment.
// Setup parameters scale the channels they are bound to.
//
// A Driver owns the free-running clock for one view. While playing it runs a
// ticker goroutine that advances progress by wall-clock time scaled by tempo
// and emits a Frame per tick.
package animation

import (
	"time"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// Special channel names a parameter may scale besides joint names.
const (
	ChannelBar  = "bar"
	ChannelRoot = "root"
)

// IdlePhase is reported for profiles without keyframes.
const IdlePhase = "Idle"

// Keyframe is one pose on the cycle.
type Keyframe struct {
	// At is the cycle position in [0, 1].
	At float64 `json:"at" yaml:"at"`

	// Label names the phase that starts at this keyframe.
	Label string `json:"label" yaml:"label"`

	// Joints are angle offsets in degrees keyed by joint.
	Joints map[string]float64 `json:"joints" yaml:"joints"`

	// Bar is the bar offset used when the bar is not anchored.
	Bar skeleton.Point `json:"bar" yaml:"bar"`

	// Root displaces the root joint from its base position.
	Root skeleton.Point `json:"root" yaml:"root"`
}

// ParameterDef declares a tunable setup parameter.
type ParameterDef struct {
	Key         string   `json:"key" yaml:"key"`
	Label       string   `json:"label" yaml:"label"`
	Unit        string   `json:"unit" yaml:"unit"`
	Min         float64  `json:"min" yaml:"min"`
	Max         float64  `json:"max" yaml:"max"`
	Step        float64  `json:"step" yaml:"step"`
	Default     float64  `json:"default" yaml:"default"`
	Description string   `json:"description" yaml:"description"`
	Channels    []string `json:"channels" yaml:"channels"`
}

// Profile is the motion description for one lift.
type Profile struct {
	Lift        string         `json:"lift"`
	Description string         `json:"description,omitempty"`
	Duration    time.Duration  `json:"duration"`
	Keyframes   []Keyframe     `json:"keyframes"`
	Parameters  []ParameterDef `json:"parameters"`
}

// Parameters holds setup parameter values keyed by ParameterDef.Key.
type Parameters map[string]float64

// Frame is the animation output for one progress value.
type Frame struct {
	Progress float64 `json:"progress"`
	Phase    string  `json:"phase"`

	// Joints are angle offsets in radians.
	Joints map[string]float64 `json:"joints"`

	Bar  skeleton.Point `json:"bar"`
	Root skeleton.Point `json:"root"`
}

// PlaybackState reports whether a driver is advancing.
type PlaybackState int

const (
	StatePaused PlaybackState = iota
	StatePlaying
)

// String returns a human-readable state name.
func (s PlaybackState) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// State is a point-in-time view of a driver.
type State struct {
	Lift       string     `json:"lift"`
	Progress   float64    `json:"progress"`
	Phase      string     `json:"phase"`
	Playing    bool       `json:"playing"`
	Tempo      float64    `json:"tempo"`
	Parameters Parameters `json:"parameters"`
}

// FrameCallback is called for every frame the driver's tick loop produces.
type FrameCallback func(lift string, frame Frame)

// DriverOptions configures a Driver.
type DriverOptions struct {
	// FrameRate is the tick rate while playing (default: 60 Hz).
	FrameRate float64

	// Tempo is the initial tempo multiplier.
	Tempo float64

	// TempoMin and TempoMax bound every tempo update.
	TempoMin float64
	TempoMax float64

	// Autoplay starts the clock when the driver is started.
	Autoplay bool
}

// DefaultDriverOptions returns the standard playback settings.
func DefaultDriverOptions() DriverOptions {
	return DriverOptions{
		FrameRate: 60,
		Tempo:     1,
		TempoMin:  0.3,
		TempoMax:  3,
		Autoplay:  true,
	}
}
