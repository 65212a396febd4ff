package trigger

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDelay is the quiet period used when none (or a non-positive one) is given.
const DefaultDelay = 50 * time.Millisecond

// Option configures a Cell.
type Option func(*Cell)

// WithScheduler sets the clock used for the quiet-period timer.
func WithScheduler(s Scheduler) Option {
	return func(c *Cell) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// Cell is a throttled boolean cell with ordered subscribers.
type Cell struct {
	mu        sync.Mutex
	value     bool
	delay     time.Duration
	scheduler Scheduler
	timer     Timer
	gen       uint64
	subs      []*subscription
	nextID    uint64
	ticks     uint64
	closed    bool

	// deliverMu serializes deliveries.
	deliverMu sync.Mutex
}

type subscription struct {
	id      uint64
	fn      func(bool)
	removed atomic.Bool
}

// New creates a cell whose change notifications wait for delay of quiet.
func New(delay time.Duration, opts ...Option) *Cell {
	if delay <= 0 {
		delay = DefaultDelay
	}
	c := &Cell{
		value:     true,
		delay:     delay,
		scheduler: RealScheduler{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Delay returns the quiet period.
func (c *Cell) Delay() time.Duration {
	return c.delay
}

// Value returns the current raw value. Callers should not depend on it.
func (c *Cell) Value() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Ticks returns how many notifications have been delivered.
func (c *Cell) Ticks() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Toggle flips the value and re-arms the quiet-period timer.
func (c *Cell) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.value = !c.value
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.scheduler.AfterFunc(c.delay, func() { c.deliver(gen) })
}

// Subscribe registers fn for every tick. The returned func removes it.
func (c *Cell) Subscribe(fn func(bool)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || fn == nil {
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, &subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

// Subscribers returns the number of live subscriptions.
func (c *Cell) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close stops any pending tick and drops all subscribers.
func (c *Cell) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	for _, s := range c.subs {
		s.removed.Store(true)
	}
	c.subs = nil
}

func (c *Cell) unsubscribe(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.subs {
		if s.id == id {
			s.removed.Store(true)
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// deliver notifies a snapshot of the subscribers. Toggles made by subscribers
// arm the next tick instead of re-entering this one. A timer that fired after
// being superseded by a newer Toggle is ignored.
func (c *Cell) deliver(gen uint64) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.ticks++
	value := c.value
	subs := make([]*subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		// Unsubscribed earlier in this pass.
		if s.removed.Load() {
			continue
		}
		s.fn(value)
	}
}
