package popup

import (
	"math"
	"sync"
)

// ScrollTracker keeps the latest scroll-depth ratio reported for one page
// view. The ratio is the scrolled fraction of the scrollable height in whole
// percent. On a page with no scrollable overflow the ratio is undefined, and
// an undefined ratio never satisfies a threshold.
type ScrollTracker struct {
	onChange func()

	mu      sync.Mutex
	ratio   int
	defined bool
}

// NewScrollTracker creates a tracker with an undefined ratio. onChange runs
// after every Update.
func NewScrollTracker(onChange func()) *ScrollTracker {
	return &ScrollTracker{onChange: onChange}
}

// Update recomputes the ratio from a scroll or resize report:
// floor(scrollOffset / (documentHeight - viewportHeight) * 100). A track
// length of zero or less leaves the ratio undefined.
func (s *ScrollTracker) Update(scrollOffset, documentHeight, viewportHeight float64) {
	track := documentHeight - viewportHeight

	s.mu.Lock()
	if track <= 0 {
		s.defined = false
	} else {
		s.defined = true
		s.ratio = int(math.Floor(scrollOffset / track * 100))
	}
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange()
	}
}

// Ratio returns the current ratio. ok is false while the ratio is undefined.
func (s *ScrollTracker) Ratio() (ratio int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratio, s.defined
}
