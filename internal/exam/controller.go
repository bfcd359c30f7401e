// Package exam implements the timed assessment session: a countdown, the
// answer sheet, and at-most-once scoring.
package exam

import (
	"sync"
	"time"

	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/rs/zerolog"
)

// DefaultTickInterval is the wall-clock length of one tick.
const DefaultTickInterval = time.Second

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// snapshots are dropped for it.
const subscriberBuffer = 8

// Controller manages one timed attempt end to end. It exclusively owns its
// Session and the tick source acquired in Start.
type Controller struct {
	mu      sync.Mutex
	session *Session
	closed  bool

	ticker      Ticker
	stop        chan struct{}
	releaseOnce sync.Once

	subs    map[int]chan Snapshot
	nextSub int

	onSubmit func(*Result)
	now      func() time.Time
	log      zerolog.Logger
}

type options struct {
	interval  time.Duration
	newTicker TickerFactory
	onSubmit  func(*Result)
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Controller.
type Option func(*options)

// WithInterval overrides the tick length. Only useful outside production,
// where a tick is always one second.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithTicker replaces the tick source factory.
func WithTicker(f TickerFactory) Option {
	return func(o *options) { o.newTicker = f }
}

// WithOnSubmit registers a callback run once, outside the controller lock,
// after the session is scored (manual submit or timeout).
func WithOnSubmit(fn func(*Result)) Option {
	return func(o *options) { o.onSubmit = fn }
}

// WithClock replaces time.Now for start/submit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// Start creates a session for the assessment and starts its countdown.
func Start(a *model.Assessment, opts ...Option) *Controller {
	o := options{
		interval:  DefaultTickInterval,
		newTicker: NewTicker,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := NewSession(a, o.now())
	c := &Controller{
		session:  s,
		ticker:   o.newTicker(o.interval),
		stop:     make(chan struct{}),
		subs:     make(map[int]chan Snapshot),
		onSubmit: o.onSubmit,
		now:      o.now,
		log: o.log.With().
			Str("session_id", s.ID().String()).
			Str("assessment_id", a.ID).
			Logger(),
	}

	c.log.Debug().Int("remaining", s.Remaining()).Msg("Session started")

	go c.run()
	return c
}

func (c *Controller) run() {
	for {
		select {
		case <-c.stop:
			return
		case <-c.ticker.C():
			c.Tick()
		}
	}
}

// release stops the tick source. Every exit path goes through here.
func (c *Controller) release() {
	c.releaseOnce.Do(func() {
		c.ticker.Stop()
		close(c.stop)
	})
}

// Session returns the owned session. Callers must not mutate it.
func (c *Controller) Session() *Session { return c.session }

// SelectAnswer records (or overwrites) the option chosen for a question.
func (c *Controller) SelectAnswer(questionID string, option int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.session.snapshot(), ErrInvalidState
	}
	if err := c.session.selectAnswer(questionID, option); err != nil {
		return c.session.snapshot(), err
	}

	snap := c.session.snapshot()
	c.publishLocked(snap)
	return snap, nil
}

// Tick advances the countdown by one step and submits when it runs out.
// It is a no-op once the session is submitted or torn down.
func (c *Controller) Tick() Snapshot {
	c.mu.Lock()
	if c.closed || c.session.Status() != StatusInProgress {
		snap := c.session.snapshot()
		c.mu.Unlock()
		return snap
	}

	expired := c.session.tick()
	if !expired {
		snap := c.session.snapshot()
		c.publishLocked(snap)
		c.mu.Unlock()
		return snap
	}

	c.log.Info().Msg("Time is up, submitting")
	res := c.submitLocked(model.SubmitReasonTimeout)
	snap := c.session.snapshot()
	c.mu.Unlock()

	c.notifySubmit(res)
	return snap
}

// Submit scores the session. Calling it again returns the same result and
// changes nothing.
func (c *Controller) Submit() (*Result, error) {
	c.mu.Lock()
	if c.session.Status() == StatusSubmitted {
		res, err := c.session.result()
		c.mu.Unlock()
		return res, err
	}
	if c.closed {
		c.mu.Unlock()
		return nil, ErrInvalidState
	}

	res := c.submitLocked(model.SubmitReasonManual)
	c.mu.Unlock()

	c.notifySubmit(res)
	return res, nil
}

// submitLocked must be called with c.mu held and the session in progress.
func (c *Controller) submitLocked(reason model.SubmitReason) *Result {
	c.session.submit(reason, c.now())
	c.release()

	res, _ := c.session.result()
	c.log.Info().
		Int("score", res.Score).
		Int("correct", res.CorrectCount).
		Int("total", res.TotalQuestions).
		Str("reason", string(reason)).
		Msg("Session submitted")

	c.publishLocked(c.session.snapshot())
	c.closeSubsLocked()
	return res
}

func (c *Controller) notifySubmit(res *Result) {
	if c.onSubmit != nil && res != nil {
		c.onSubmit(res)
	}
}

// Result returns the graded breakdown. It fails with ErrInvalidState until
// the session is submitted.
func (c *Controller) Result() (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.result()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.snapshot()
}

// Close tears the session down without scoring it and releases the tick
// source. Closing a submitted session only detaches subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.release()
	c.closeSubsLocked()

	if c.session.Status() == StatusInProgress {
		c.log.Debug().Int("remaining", c.session.Remaining()).Msg("Session discarded")
	}
}

// Done reports whether the session can no longer change.
func (c *Controller) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed || c.session.Status() == StatusSubmitted
}

// Subscribe returns a feed of snapshots taken after every state change and
// a cancel func. The feed is closed when the session is submitted or torn
// down; a subscriber that joins afterwards receives the final snapshot only.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	if c.closed || c.session.Status() == StatusSubmitted {
		ch <- c.session.snapshot()
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Controller) publishLocked(snap Snapshot) {
	for id, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			c.log.Warn().Int("subscriber", id).Msg("Subscriber lagging, snapshot dropped")
		}
	}
}

func (c *Controller) closeSubsLocked() {
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}
