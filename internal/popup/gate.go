package popup

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	DefaultTimeout         = 6000 * time.Millisecond
	DefaultScrollThreshold = 35
)

// Config holds the tunables for one engagement gate.
type Config struct {
	// Timeout is the dwell duration a visitor must spend on the page per
	// cycle before the popup is eligible.
	Timeout time.Duration
	// ScrollThreshold is the scroll-depth percentage (0-100) the visitor
	// must pass.
	ScrollThreshold int
}

// Gate decides whether the newsletter popup may appear for one page view.
// The popup becomes visible the first time the dwell timer has elapsed AND
// the scroll depth meets the threshold, whichever side completes last. The
// transition is one-way: nothing in the gate resets visibility, and the
// exposure record is bumped exactly once, on the opening transition.
type Gate struct {
	store     ExposureStore
	visitorID string
	threshold int
	now       func() time.Time

	timer  *DwellTimer
	scroll *ScrollTracker

	mu      sync.Mutex
	visible bool
}

// NewGate creates an idle gate. The cycle starts on the first Trigger call.
func NewGate(cfg Config, store ExposureStore, visitorID string) *Gate {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ScrollThreshold <= 0 {
		cfg.ScrollThreshold = DefaultScrollThreshold
	}

	g := &Gate{
		store:     store,
		visitorID: visitorID,
		threshold: cfg.ScrollThreshold,
		now:       time.Now,
	}
	g.timer = NewDwellTimer(cfg.Timeout, g.evaluate)
	g.scroll = NewScrollTracker(g.evaluate)
	return g
}

// Trigger (re)starts the engagement cycle: the dwell flag is cleared and the
// timer restarted, superseding any countdown from an earlier Trigger. Safe to
// call repeatedly. Route matching is the caller's concern; the gate performs
// none.
func (g *Gate) Trigger() {
	g.timer.Start()
}

// UpdateScroll feeds the current scroll position, typically on every scroll
// or resize report from the page.
func (g *Gate) UpdateScroll(scrollOffset, documentHeight, viewportHeight float64) {
	g.scroll.Update(scrollOffset, documentHeight, viewportHeight)
}

// Visible reports whether the popup should currently render.
func (g *Gate) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}

// Close cancels any pending dwell countdown. Used when the page view session
// is evicted.
func (g *Gate) Close() {
	g.timer.Stop()
}

// evaluate runs after every change to either input, so the open transition
// fires the instant both conditions hold, with no polling delay.
func (g *Gate) evaluate() {
	g.mu.Lock()
	if g.visible {
		g.mu.Unlock()
		return
	}
	if !g.timer.Elapsed() {
		g.mu.Unlock()
		return
	}
	ratio, ok := g.scroll.Ratio()
	if !ok || ratio < g.threshold {
		g.mu.Unlock()
		return
	}
	g.visible = true
	g.mu.Unlock()

	g.recordExposure()
}

// recordExposure bumps seenCount and lastSeenAt together, once, from the
// evaluation that opened the gate. Storage failures are logged and swallowed:
// the popup is a non-critical enhancement and must never break the host page.
func (g *Gate) recordExposure() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec, err := g.store.Read(ctx, g.visitorID)
	if err != nil {
		log.Printf("ERROR reading exposure record vid=%s: %v", g.visitorID, err)
		rec = DefaultExposureRecord()
	}
	rec.SeenCount++
	rec.LastSeenAt = g.now().UnixMilli()

	if err := g.store.Write(ctx, g.visitorID, rec); err != nil {
		log.Printf("ERROR writing exposure record vid=%s: %v", g.visitorID, err)
		return
	}
	log.Printf("OPEN vid=%s seen=%d", g.visitorID, rec.SeenCount)
}
