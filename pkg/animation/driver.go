package animation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/liftviz/internal/log"
	"github.com/teslashibe/liftviz/pkg/metrics"
)

// Driver animates one view. It owns the clock, the active profile and the
// setup parameters of every lift it has shown. Drivers share nothing with
// each other.
//
// While playing, a goroutine ticks at the configured frame rate. Pause and
// Close stop the ticker and wait for that goroutine to exit, so a paused
// driver holds no scheduled work.
type Driver struct {
	mu       sync.RWMutex
	profiles *Registry
	opts     DriverOptions
	profile  *Profile
	params   map[string]Parameters
	clock    *Clock
	onFrame  FrameCallback
	now      func() time.Time
	logger   *slog.Logger

	ctx    context.Context
	stopCh chan struct{}
	done   chan struct{}
	closed bool
}

// NewDriver creates a paused driver showing lift.
func NewDriver(profiles *Registry, lift string, opts DriverOptions) (*Driver, error) {
	profile, err := profiles.Get(lift)
	if err != nil {
		return nil, err
	}

	defaults := DefaultDriverOptions()
	if opts.FrameRate <= 0 {
		opts.FrameRate = defaults.FrameRate
	}
	if opts.TempoMin <= 0 || opts.TempoMax < opts.TempoMin {
		opts.TempoMin, opts.TempoMax = defaults.TempoMin, defaults.TempoMax
	}
	if opts.Tempo == 0 {
		opts.Tempo = defaults.Tempo
	}

	return &Driver{
		profiles: profiles,
		opts:     opts,
		profile:  profile,
		params:   map[string]Parameters{profile.Lift: profile.DefaultParameters()},
		clock:    NewClock(opts.Tempo, opts.TempoMin, opts.TempoMax),
		now:      time.Now,
		logger:   log.With("component", "animation"),
		ctx:      context.Background(),
	}, nil
}

// Start binds the driver to ctx and begins playing if Autoplay is set.
// Cancelling ctx pauses the driver.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	if d.opts.Autoplay {
		d.Play()
	}
}

// OnFrame sets the callback invoked for every tick while playing. The
// callback runs on the tick goroutine and must not call Pause or Close.
func (d *Driver) OnFrame(cb FrameCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onFrame = cb
}

// Play starts the tick loop. It is a no-op when already playing or closed.
func (d *Driver) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.clock.Playing() {
		return
	}
	d.clock.Play()
	d.stopCh = make(chan struct{})
	d.done = make(chan struct{})

	interval := time.Duration(float64(time.Second) / d.opts.FrameRate)
	go d.loop(d.ctx, d.stopCh, d.done, interval)

	d.logger.Debug("playing", "lift", d.profile.Lift, "progress", d.clock.Progress())
}

// Pause freezes progress and waits for the tick loop to exit.
func (d *Driver) Pause() {
	d.mu.Lock()
	done := d.halt()
	d.mu.Unlock()

	if done != nil {
		<-done
		d.logger.Debug("paused", "lift", d.Lift())
	}
}

// halt stops the clock and signals the loop. Callers hold d.mu.
func (d *Driver) halt() chan struct{} {
	if !d.clock.Playing() {
		return nil
	}
	d.clock.Pause()
	close(d.stopCh)
	done := d.done
	d.stopCh, d.done = nil, nil
	return done
}

// Toggle flips between playing and paused and returns the new state.
func (d *Driver) Toggle() bool {
	if d.Playing() {
		d.Pause()
		return false
	}
	d.Play()
	return d.Playing()
}

// Playing reports whether the clock is advancing.
func (d *Driver) Playing() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.clock.Playing()
}

// Close pauses the driver for good.
func (d *Driver) Close() {
	d.mu.Lock()
	d.closed = true
	done := d.halt()
	d.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (d *Driver) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			if d.done == done {
				d.halt()
			}
			d.mu.Unlock()
			return

		case <-stop:
			return

		case <-ticker.C:
			d.tick(d.now())
		}
	}
}

// tick advances the clock to now and publishes the resulting frame.
func (d *Driver) tick(now time.Time) (Frame, bool) {
	d.mu.Lock()
	if !d.clock.Playing() {
		d.mu.Unlock()
		return Frame{}, false
	}
	progress := d.clock.Advance(now, d.profile.Duration)
	frame := Interpolate(d.profile, progress, d.params[d.profile.Lift])
	lift := d.profile.Lift
	cb := d.onFrame
	d.mu.Unlock()

	metrics.FramesTotal.WithLabelValues(lift).Inc()
	if cb != nil {
		cb(lift, frame)
	}
	return frame, true
}

// SetLift switches to another lift's profile. Progress resets to 0 and the
// clock forgets its last tick so the next advance starts cleanly.
func (d *Driver) SetLift(lift string) error {
	profile, err := d.profiles.Get(lift)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if profile == d.profile {
		return nil
	}
	d.profile = profile
	if _, ok := d.params[profile.Lift]; !ok {
		d.params[profile.Lift] = profile.DefaultParameters()
	}
	d.clock.Reset()

	d.logger.Info("lift switched", "lift", profile.Lift)
	return nil
}

// Lift returns the active lift id.
func (d *Driver) Lift() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.profile.Lift
}

// Profile returns the active profile.
func (d *Driver) Profile() *Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.profile
}

// SetTempo clamps and applies a tempo, returning the stored value.
func (d *Driver) SetTempo(tempo float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock.SetTempo(tempo)
}

// Seek jumps to a cycle position.
func (d *Driver) Seek(progress float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clock.Seek(progress)
}

// SetParameter updates a setup parameter of the active lift. The value is
// clamped to the declared range and returned.
func (d *Driver) SetParameter(key string, value float64) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profile.SetParameter(d.params[d.profile.Lift], key, value)
}

// Parameters returns a copy of the active lift's setup parameters.
func (d *Driver) Parameters() Parameters {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return copyParameters(d.params[d.profile.Lift])
}

// ResetParameters restores the active lift's setup parameters to defaults.
func (d *Driver) ResetParameters() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params[d.profile.Lift] = d.profile.DefaultParameters()
}

// Frame evaluates the active profile at the current progress.
func (d *Driver) Frame() Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Interpolate(d.profile, d.clock.Progress(), d.params[d.profile.Lift])
}

// State returns the driver's playback state.
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()

	frame := Interpolate(d.profile, d.clock.Progress(), d.params[d.profile.Lift])
	return State{
		Lift:       d.profile.Lift,
		Progress:   frame.Progress,
		Phase:      frame.Phase,
		Playing:    d.clock.Playing(),
		Tempo:      d.clock.Tempo(),
		Parameters: copyParameters(d.params[d.profile.Lift]),
	}
}

// PlaybackState returns StatePlaying or StatePaused.
func (d *Driver) PlaybackState() PlaybackState {
	if d.Playing() {
		return StatePlaying
	}
	return StatePaused
}

func copyParameters(p Parameters) Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
