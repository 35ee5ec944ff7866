package popup

import (
	"sync"
	"time"
)

// DwellTimer tracks whether the minimum read time has passed since the last
// Start call. Restarting supersedes any pending firing, so at most one firing
// is outstanding and it is always tied to the latest Start.
type DwellTimer struct {
	duration time.Duration
	onFire   func()

	mu      sync.Mutex
	gen     uint64
	elapsed bool
	pending *time.Timer
}

// NewDwellTimer creates a stopped timer. onFire runs once per uncancelled
// countdown, after the elapsed flag is set.
func NewDwellTimer(duration time.Duration, onFire func()) *DwellTimer {
	return &DwellTimer{duration: duration, onFire: onFire}
}

// Start clears the elapsed flag and begins a fresh countdown, cancelling any
// countdown still pending from an earlier Start.
func (t *DwellTimer) Start() {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.elapsed = false
	if t.pending != nil {
		t.pending.Stop()
	}
	t.pending = time.AfterFunc(t.duration, func() { t.fire(gen) })
	t.mu.Unlock()
}

func (t *DwellTimer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		// Superseded by a newer Start between scheduling and firing.
		t.mu.Unlock()
		return
	}
	t.elapsed = true
	t.mu.Unlock()

	if t.onFire != nil {
		t.onFire()
	}
}

// Elapsed reports whether the dwell duration has fully passed since the
// latest Start.
func (t *DwellTimer) Elapsed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Stop cancels any pending countdown. The elapsed flag keeps its value.
func (t *DwellTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
