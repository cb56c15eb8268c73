package animation

import "time"

// Clock advances cycle progress from wall-clock time. It is not safe for
// concurrent use; the Driver guards its clock.
type Clock struct {
	progress float64
	playing  bool
	tempo    float64
	min, max float64
	last     time.Time
}

// NewClock creates a paused clock at progress 0.
func NewClock(tempo, min, max float64) *Clock {
	c := &Clock{tempo: 1, min: min, max: max}
	c.SetTempo(tempo)
	return c
}

// Advance moves progress forward by the time since the previous call,
// scaled so that one cycle lasts cycle/tempo. The first call after a reset
// or resume only records now.
func (c *Clock) Advance(now time.Time, cycle time.Duration) float64 {
	if !c.playing {
		return c.progress
	}
	if c.last.IsZero() || cycle <= 0 {
		c.last = now
		return c.progress
	}

	elapsed := now.Sub(c.last)
	c.last = now
	if elapsed <= 0 {
		return c.progress
	}

	period := float64(cycle) / c.tempo
	c.progress = NormalizeProgress(c.progress + float64(elapsed)/period)
	return c.progress
}

// SetTempo clamps and stores the tempo. Non-finite values are ignored.
func (c *Clock) SetTempo(tempo float64) float64 {
	if finite(tempo) {
		c.tempo = clamp(tempo, c.min, c.max)
	}
	return c.tempo
}

// Tempo returns the current tempo.
func (c *Clock) Tempo() float64 { return c.tempo }

// Progress returns the current cycle position.
func (c *Clock) Progress() float64 { return c.progress }

// Playing reports whether Advance moves progress.
func (c *Clock) Playing() bool { return c.playing }

// Play resumes advancing. Time spent paused is not counted.
func (c *Clock) Play() {
	if !c.playing {
		c.playing = true
		c.last = time.Time{}
	}
}

// Pause freezes progress.
func (c *Clock) Pause() {
	c.playing = false
	c.last = time.Time{}
}

// Seek jumps to a progress value.
func (c *Clock) Seek(p float64) {
	c.progress = NormalizeProgress(p)
}

// Reset returns progress to 0 and forgets the last tick.
func (c *Clock) Reset() {
	c.progress = 0
	c.last = time.Time{}
}
