// Package session ties one animated view together: an animation Driver, a
// kinematics Engine for the active lift and the user's manual adjustments.
// Sessions are independent; a Manager keys them by id.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/liftviz/pkg/animation"
	"github.com/teslashibe/liftviz/pkg/kinematics"
	"github.com/teslashibe/liftviz/pkg/metrics"
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// State is everything the rendering layer needs for one frame.
type State struct {
	ID string `json:"id"`
	kinematics.Snapshot

	Progress   float64              `json:"progress"`
	Phase      string               `json:"phase"`
	Playing    bool                 `json:"playing"`
	Tempo      float64              `json:"tempo"`
	Parameters animation.Parameters `json:"parameters"`
	Manual     Manual               `json:"manual"`
}

// SnapshotCallback receives a composed state for every animation tick.
type SnapshotCallback func(State)

// Session is one independently animated view.
type Session struct {
	ID      string
	Created time.Time

	skeletons *skeleton.Registry
	profiles  *animation.Registry
	driver    *animation.Driver
	logger    *slog.Logger

	mu       sync.RWMutex
	engine   *kinematics.Engine
	manual   map[string]*Manual
	onUpdate SnapshotCallback
}

func newSession(ctx context.Context, id, lift string, skeletons *skeleton.Registry, profiles *animation.Registry, opts animation.DriverOptions, logger *slog.Logger) (*Session, error) {
	resolved, err := skeletons.Get(lift)
	if err != nil {
		return nil, err
	}
	profiles.Ensure(resolved.Lift)

	driver, err := animation.NewDriver(profiles, resolved.Lift, opts)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		Created:   time.Now(),
		skeletons: skeletons,
		profiles:  profiles,
		driver:    driver,
		logger:    logger.With("session", id),
		engine:    kinematics.NewEngine(resolved),
		manual:    map[string]*Manual{resolved.Lift: newManual()},
	}
	driver.OnFrame(s.onFrame)
	driver.Start(ctx)
	return s, nil
}

// engineFor returns the engine for the driver's lift, rebuilding it when the
// registry has resolved a new skeleton (for example after a hot reload).
func (s *Session) engineFor(lift string) (*kinematics.Engine, error) {
	resolved, err := s.skeletons.Get(lift)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()
	if engine != nil && engine.Skeleton() == resolved {
		return engine, nil
	}

	engine = kinematics.NewEngine(resolved)
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
	return engine, nil
}

func (s *Session) manualFor(lift string) *Manual {
	m, ok := s.manual[lift]
	if !ok {
		m = newManual()
		s.manual[lift] = m
	}
	return m
}

// compose places a frame and wraps it with playback state.
func (s *Session) compose(lift string, frame animation.Frame) (State, error) {
	engine, err := s.engineFor(lift)
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	manual := s.manualFor(lift).clone()
	s.mu.Unlock()

	start := time.Now()
	snap := engine.Evaluate(kinematics.Input{
		Offsets: frame.Joints,
		Bar:     frame.Bar,
		Root:    frame.Root,
		Manual:  manual.input(),
	})
	metrics.SolveDuration.Observe(time.Since(start).Seconds())

	st := s.driver.State()
	return State{
		ID:         s.ID,
		Snapshot:   snap,
		Progress:   frame.Progress,
		Phase:      frame.Phase,
		Playing:    st.Playing,
		Tempo:      st.Tempo,
		Parameters: st.Parameters,
		Manual:     manual,
	}, nil
}

func (s *Session) onFrame(lift string, frame animation.Frame) {
	s.mu.RLock()
	cb := s.onUpdate
	s.mu.RUnlock()
	if cb == nil {
		return
	}

	st, err := s.compose(lift, frame)
	if err != nil {
		s.logger.Warn("failed to compose frame", "lift", lift, "error", err)
		return
	}
	cb(st)
}

// OnUpdate sets the callback invoked for every tick while playing.
func (s *Session) OnUpdate(cb SnapshotCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = cb
}

// Snapshot composes the current frame.
func (s *Session) Snapshot() (State, error) {
	return s.compose(s.driver.Lift(), s.driver.Frame())
}

// Lift returns the active lift id.
func (s *Session) Lift() string {
	return s.driver.Lift()
}

// Playback returns the driver's state without placing the skeleton.
func (s *Session) Playback() animation.State {
	return s.driver.State()
}

// SetLift switches the view to another lift. Progress restarts at 0.
func (s *Session) SetLift(lift string) error {
	resolved, err := s.skeletons.Get(lift)
	if err != nil {
		return err
	}
	s.profiles.Ensure(resolved.Lift)
	if err := s.driver.SetLift(resolved.Lift); err != nil {
		return err
	}

	s.mu.Lock()
	s.manualFor(resolved.Lift)
	s.mu.Unlock()

	_, err = s.engineFor(resolved.Lift)
	return err
}

// Play resumes animation.
func (s *Session) Play() { s.driver.Play() }

// Pause freezes animation.
func (s *Session) Pause() { s.driver.Pause() }

// Toggle flips play/pause and reports whether the session is now playing.
func (s *Session) Toggle() bool { return s.driver.Toggle() }

// SetTempo clamps and applies a tempo.
func (s *Session) SetTempo(tempo float64) float64 { return s.driver.SetTempo(tempo) }

// Seek jumps to a cycle position.
func (s *Session) Seek(progress float64) { s.driver.Seek(progress) }

// SetParameter updates a setup parameter of the active lift.
func (s *Session) SetParameter(key string, value float64) (float64, error) {
	return s.driver.SetParameter(key, value)
}

// ResetParameters restores the active lift's setup parameters.
func (s *Session) ResetParameters() { s.driver.ResetParameters() }

// checkJoint verifies joint is one the active skeleton can rotate.
func (s *Session) checkJoint(lift, joint string) error {
	resolved, err := s.skeletons.Get(lift)
	if err != nil {
		return err
	}
	if _, ok := resolved.Parent(joint); !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownJoint, lift, joint)
	}
	return nil
}

// SetJointOffset sets a manual angle offset in degrees, clamped to
// ±MaxManualAngle. It returns the stored value.
func (s *Session) SetJointOffset(joint string, degrees float64) (float64, error) {
	lift := s.driver.Lift()
	if err := s.checkJoint(lift, joint); err != nil {
		return 0, err
	}

	v := clampManual(degrees, MaxManualAngle)
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.manualFor(lift)
	if v == 0 {
		delete(m.Offsets, joint)
	} else {
		m.Offsets[joint] = v
	}
	return v, nil
}

// PinJoint fixes a joint at a literal position.
func (s *Session) PinJoint(joint string, p skeleton.Point) error {
	lift := s.driver.Lift()
	resolved, err := s.skeletons.Get(lift)
	if err != nil {
		return err
	}
	if _, ok := resolved.BasePoint(joint); !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownJoint, lift, joint)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualFor(lift).Pins[joint] = p
	return nil
}

// UnpinJoint releases a pinned joint.
func (s *Session) UnpinJoint(joint string) {
	lift := s.driver.Lift()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.manualFor(lift).Pins, joint)
}

// SetBarOffset sets the manual bar offset, each axis clamped to ±MaxBarOffset.
func (s *Session) SetBarOffset(p skeleton.Point) skeleton.Point {
	v := skeleton.Point{X: clampManual(p.X, MaxBarOffset), Y: clampManual(p.Y, MaxBarOffset)}

	lift := s.driver.Lift()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualFor(lift).Bar = v
	return v
}

// ResetManual clears every manual adjustment of the active lift.
func (s *Session) ResetManual() {
	lift := s.driver.Lift()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manual[lift] = newManual()
}

// Reset clears manual adjustments and restores setup parameters.
func (s *Session) Reset() {
	s.ResetManual()
	s.ResetParameters()
}

// Close stops the session's animation loop.
func (s *Session) Close() {
	s.driver.Close()
}
