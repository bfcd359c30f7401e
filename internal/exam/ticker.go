package exam

import "time"

// Ticker is the recurring tick source a Controller acquires on Start and
// releases on submit or teardown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

// NewTicker is the default TickerFactory, backed by time.Ticker.
func NewTicker(d time.Duration) Ticker {
	return &clockTicker{t: time.NewTicker(d)}
}

type clockTicker struct {
	t *time.Ticker
}

func (c *clockTicker) C() <-chan time.Time { return c.t.C }
func (c *clockTicker) Stop()               { c.t.Stop() }

// ManualTicker only fires when told to. Useful when the caller owns the
// clock (tests, replays).
type ManualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

// NewManualTicker returns a ManualTicker and a factory handing it out.
func NewManualTicker() (*ManualTicker, TickerFactory) {
	m := &ManualTicker{
		ch:      make(chan time.Time),
		stopped: make(chan struct{}),
	}
	return m, func(time.Duration) Ticker { return m }
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }

// Stop marks the ticker stopped. Safe to call more than once.
func (m *ManualTicker) Stop() {
	select {
	case <-m.stopped:
	default:
		close(m.stopped)
	}
}

// Fire delivers one tick. It returns false if the ticker was stopped before
// the tick could be delivered.
func (m *ManualTicker) Fire() bool {
	if m.Stopped() {
		return false
	}
	select {
	case m.ch <- time.Now():
		return true
	case <-m.stopped:
		return false
	}
}

// Stopped reports whether Stop has been called.
func (m *ManualTicker) Stopped() bool {
	select {
	case <-m.stopped:
		return true
	default:
		return false
	}
}
