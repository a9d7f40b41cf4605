package drift

// Subscription identifies a persistent tick listener on a FrameClock.
type Subscription uint64

type clockListener struct {
	id Subscription
	fn func()
}

// FrameClock is the host animation-frame clock. The host calls Tick once per
// frame (Stage.Update does this); components either subscribe for every
// tick or schedule a single callback for the next one.
//
// FrameClock is not safe for concurrent use. Listeners may subscribe,
// unsubscribe and schedule from inside a tick.
type FrameClock struct {
	frame     uint64
	nextID    Subscription
	listeners []clockListener
	removed   bool
	pending   []func()
	running   []func()
	ticking   bool
}

// NewFrameClock returns a clock at frame zero with no listeners.
func NewFrameClock() *FrameClock {
	return &FrameClock{}
}

// Frame returns the number of ticks delivered so far.
func (c *FrameClock) Frame() uint64 {
	return c.frame
}

// Subscribe registers fn to run on every tick until Unsubscribe is called.
// Listeners run in registration order. A listener added during a tick first
// runs on the following tick.
func (c *FrameClock) Subscribe(fn func()) Subscription {
	if fn == nil {
		panic("drift: nil tick listener")
	}
	c.nextID++
	c.listeners = append(c.listeners, clockListener{id: c.nextID, fn: fn})
	return c.nextID
}

// Unsubscribe removes a listener. It reports whether the listener was
// registered.
func (c *FrameClock) Unsubscribe(id Subscription) bool {
	for i := range c.listeners {
		if c.listeners[i].id == id && c.listeners[i].fn != nil {
			if c.ticking {
				// Compacted once the tick finishes.
				c.listeners[i].fn = nil
				c.removed = true
			} else {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			}
			return true
		}
	}
	return false
}

// Subscribed reports whether id is a live listener.
func (c *FrameClock) Subscribed(id Subscription) bool {
	for _, l := range c.listeners {
		if l.id == id && l.fn != nil {
			return true
		}
	}
	return false
}

// Listeners returns the number of live persistent listeners.
func (c *FrameClock) Listeners() int {
	n := 0
	for _, l := range c.listeners {
		if l.fn != nil {
			n++
		}
	}
	return n
}

// Next schedules fn to run once on the next tick, like a browser's
// requestAnimationFrame. Callbacks scheduled during a tick run on the
// following one.
func (c *FrameClock) Next(fn func()) {
	if fn == nil {
		panic("drift: nil frame callback")
	}
	c.pending = append(c.pending, fn)
}

// Pending returns the number of one-shot callbacks waiting for the next tick.
func (c *FrameClock) Pending() int {
	return len(c.pending)
}

// Reset drops every listener and pending callback.
func (c *FrameClock) Reset() {
	if c.ticking {
		for i := range c.listeners {
			c.listeners[i].fn = nil
		}
		c.removed = true
	} else {
		clear(c.listeners)
		c.listeners = c.listeners[:0]
	}
	clear(c.pending)
	c.pending = c.pending[:0]
}

// Tick advances the clock by one frame: persistent listeners run first, then
// the one-shot callbacks that were scheduled before this tick began.
func (c *FrameClock) Tick() {
	c.frame++
	c.ticking = true

	n := len(c.listeners)
	for i := 0; i < n; i++ {
		if fn := c.listeners[i].fn; fn != nil {
			fn()
		}
	}

	c.running, c.pending = c.pending, c.running[:0]
	for i, fn := range c.running {
		fn()
		c.running[i] = nil
	}
	c.running = c.running[:0]

	c.ticking = false
	if c.removed {
		c.compact()
	}
}

// compact drops listeners removed while a tick was in progress.
func (c *FrameClock) compact() {
	live := c.listeners[:0]
	for _, l := range c.listeners {
		if l.fn != nil {
			live = append(live, l)
		}
	}
	clear(c.listeners[len(live):])
	c.listeners = live
	c.removed = false
}
