package animation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

func newTestDriver(t *testing.T, lift string) *Driver {
	t.Helper()
	profiles, err := NewBuiltInRegistry()
	if err != nil {
		t.Fatalf("NewBuiltInRegistry failed: %v", err)
	}

	// A very slow ticker keeps the loop idle so tests drive tick directly.
	opts := DefaultDriverOptions()
	opts.FrameRate = 0.001
	opts.Autoplay = false

	d, err := NewDriver(profiles, lift, opts)
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestDriver_StartsPaused(t *testing.T) {
	d := newTestDriver(t, skeleton.Squat)

	if d.Playing() {
		t.Error("driver should start paused")
	}
	if _, ok := d.tick(time.Now()); ok {
		t.Error("paused driver should not produce frames")
	}
	st := d.State()
	if st.Lift != skeleton.Squat || st.Progress != 0 || st.Tempo != 1 {
		t.Errorf("unexpected initial state %+v", st)
	}
	if st.Parameters["knee_travel"] != 10 {
		t.Errorf("expected default parameters, got %v", st.Parameters)
	}
}

func TestDriver_TickAdvances(t *testing.T) {
	d := newTestDriver(t, skeleton.Squat) // 5200ms cycle
	d.Play()

	var frames int32
	d.OnFrame(func(lift string, f Frame) {
		if lift == skeleton.Squat {
			atomic.AddInt32(&frames, 1)
		}
	})

	start := time.Unix(0, 0)
	d.tick(start)
	frame, ok := d.tick(start.Add(1300 * time.Millisecond))
	if !ok {
		t.Fatal("playing driver should produce a frame")
	}
	if abs(frame.Progress-0.25) > eps {
		t.Errorf("progress: got %v, want 0.25", frame.Progress)
	}
	if frame.Phase != "Controlled descent" {
		t.Errorf("phase: got %q", frame.Phase)
	}
	if atomic.LoadInt32(&frames) != 2 {
		t.Errorf("callback ran %d times, want 2", frames)
	}
}

func TestDriver_SetLiftResetsClock(t *testing.T) {
	d := newTestDriver(t, skeleton.Squat)
	d.Play()

	start := time.Unix(0, 0)
	d.tick(start)
	d.tick(start.Add(2 * time.Second))
	if d.State().Progress == 0 {
		t.Fatal("expected progress before switching")
	}

	if err := d.SetLift("Bench"); err != nil {
		t.Fatalf("SetLift failed: %v", err)
	}
	if st := d.State(); st.Lift != skeleton.Bench || st.Progress != 0 {
		t.Errorf("after switch: %+v", st)
	}

	// The first tick after a switch only re-arms the clock.
	if f, _ := d.tick(start.Add(time.Hour)); f.Progress != 0 {
		t.Errorf("first tick after switch jumped to %v", f.Progress)
	}
	if !d.Playing() {
		t.Error("switching lift should not pause")
	}
}

func TestDriver_SetLiftUnknown(t *testing.T) {
	d := newTestDriver(t, skeleton.Squat)

	err := d.SetLift("snatch")
	if !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("expected ErrUnknownProfile, got %v", err)
	}
	if d.Lift() != skeleton.Squat {
		t.Errorf("lift changed to %q", d.Lift())
	}
}

func TestDriver_TempoClamped(t *testing.T) {
	d := newTestDriver(t, skeleton.Deadlift)

	if got := d.SetTempo(5); got != 3 {
		t.Errorf("SetTempo(5) = %v, want 3", got)
	}
	if got := d.SetTempo(0); got != 0.3 {
		t.Errorf("SetTempo(0) = %v, want 0.3", got)
	}
	if d.State().Tempo != 0.3 {
		t.Errorf("state tempo: %v", d.State().Tempo)
	}
}

func TestDriver_ParametersPerLift(t *testing.T) {
	d := newTestDriver(t, skeleton.Squat)

	v, err := d.SetParameter("knee_travel", 20)
	if err != nil {
		t.Fatalf("SetParameter failed: %v", err)
	}
	if v != 14 {
		t.Errorf("clamped value: got %v, want 14", v)
	}
	if _, err := d.SetParameter("grip_span", 50); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}

	if err := d.SetLift(skeleton.Bench); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Parameters()["knee_travel"]; ok {
		t.Error("bench should not carry squat parameters")
	}
	if err := d.SetLift(skeleton.Squat); err != nil {
		t.Fatal(err)
	}
	if d.Parameters()["knee_travel"] != 14 {
		t.Errorf("squat parameters lost across switch: %v", d.Parameters())
	}

	d.ResetParameters()
	if d.Parameters()["knee_travel"] != 10 {
		t.Errorf("reset: got %v", d.Parameters())
	}
}

func TestDriver_PauseStopsLoop(t *testing.T) {
	d := newTestDriver(t, skeleton.Bench)
	d.Play()

	d.mu.RLock()
	done := d.done
	d.mu.RUnlock()
	if done == nil {
		t.Fatal("playing driver should own a tick loop")
	}

	d.Pause()

	select {
	case <-done:
	default:
		t.Fatal("tick loop still running after Pause")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.done != nil || d.stopCh != nil {
		t.Error("paused driver should hold no loop channels")
	}
}

func TestDriver_Toggle(t *testing.T) {
	d := newTestDriver(t, skeleton.Squat)

	if !d.Toggle() || d.PlaybackState() != StatePlaying {
		t.Error("first toggle should play")
	}
	if d.Toggle() || d.PlaybackState() != StatePaused {
		t.Error("second toggle should pause")
	}
}

func TestDriver_CloseIsFinal(t *testing.T) {
	d := newTestDriver(t, skeleton.Squat)
	d.Play()
	d.Close()
	d.Close()

	d.Play()
	if d.Playing() {
		t.Error("closed driver should not play")
	}
}

func TestDriver_ContextCancelPauses(t *testing.T) {
	profiles, err := NewBuiltInRegistry()
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDriver(profiles, skeleton.Squat, DefaultDriverOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	if !d.Playing() {
		t.Fatal("autoplay should start the clock")
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for d.Playing() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if d.Playing() {
		t.Error("driver still playing after context cancel")
	}
}

func TestDriver_RealTicks(t *testing.T) {
	profiles, err := NewBuiltInRegistry()
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultDriverOptions()
	opts.FrameRate = 200
	d, err := NewDriver(profiles, skeleton.Deadlift, opts)
	if err != nil {
		t.Fatal(err)
	}

	var frames int32
	d.OnFrame(func(string, Frame) { atomic.AddInt32(&frames, 1) })
	d.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	d.Close()

	n := atomic.LoadInt32(&frames)
	if n == 0 {
		t.Fatal("expected frames from the tick loop")
	}
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&frames) != n {
		t.Error("frames kept arriving after Close")
	}
	if d.State().Progress <= 0 {
		t.Error("progress should have advanced")
	}
}
