// Package nav tracks which page is on screen. The button advances through
// the browse pages and a period without presses returns to home.
package nav

import (
	"sync"
	"time"
)

// Home is the page index of the home screen.
const Home = -1

// DefaultTimeout is how long a browse page stays up without a press.
const DefaultTimeout = 10 * time.Second

// Snapshot is a consistent copy of the navigation state.
type Snapshot struct {
	Page      int
	LastNavAt time.Time
}

// Controller is the navigation state machine. Press is called from the
// button goroutine while the render loop calls the rest; the page and the
// time of the last press always change together.
type Controller struct {
	pages   int
	timeout time.Duration
	now     func() time.Time

	mu        sync.Mutex
	page      int
	lastNavAt time.Time
}

// New returns a Controller over pages browse pages, starting at Home.
// A nil now uses time.Now.
func New(pages int, timeout time.Duration, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		pages:     pages,
		timeout:   timeout,
		now:       now,
		page:      Home,
		lastNavAt: now(),
	}
}

// Press advances from home to the first page, or to the next page with
// wrap-around, and restarts the idle timer.
func (c *Controller) Press() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastNavAt = c.now()
	if c.pages == 0 {
		c.page = Home
		return
	}
	if c.page == Home {
		c.page = 0
	} else {
		c.page = (c.page + 1) % c.pages
	}
}

// ExpireIdle returns to home when a browse page has been up for at least
// the timeout. It reports whether it did.
func (c *Controller) ExpireIdle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.page != Home && c.idle(c.lastNavAt) {
		c.page = Home
		return true
	}
	return false
}

// Snapshot returns the page and last press time as one pair.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Page: c.page, LastNavAt: c.lastNavAt}
}

// ShowHome reports whether s should render the home page: it is on home,
// or its browse page has timed out.
func (c *Controller) ShowHome(s Snapshot) bool {
	return s.Page == Home || c.idle(s.LastNavAt)
}

// IdleFor returns the time since the last press.
func (c *Controller) IdleFor() time.Duration {
	return c.now().Sub(c.Snapshot().LastNavAt)
}

func (c *Controller) idle(last time.Time) bool {
	return c.now().Sub(last) >= c.timeout
}
