package realmd

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/realmctl/internal/clock"
	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/pkg/bus"
	"github.com/marmos91/realmctl/pkg/metrics"
)

// Canceller asks the service to abort the outstanding operation, either
// when its timer fires or on demand. A run arms at most one timer; each
// firing names whichever operation is outstanding at that moment.
//
// A request made while no call is on the wire (between a Release and the
// next Dispatched) is held and sent for the next dispatched operation.
//
// Cancel requests are fire-and-forget. The cancelled call still completes
// on its own, with an error.
type Canceller struct {
	conn    bus.Conn
	clock   clock.Clock
	metrics metrics.RealmMetrics

	mu       sync.Mutex
	current  OperationID
	released bool
	pending  bool
	timer    *clock.Timer
	sent     []OperationID
}

// NewCanceller returns a Canceller with no timer armed.
func NewCanceller(conn bus.Conn, clk clock.Clock) *Canceller {
	if clk == nil {
		clk = clock.Real()
	}
	return &Canceller{conn: conn, clock: clk}
}

// ArmCancellation returns a Canceller tracking id with a timer armed to
// fire after delay. A non-positive delay arms nothing.
func ArmCancellation(conn bus.Conn, clk clock.Clock, delay time.Duration, id OperationID) *Canceller {
	c := NewCanceller(conn, clk)
	c.Track(id)
	_ = c.Arm(delay)
	return c
}

// Track makes id the operation named by later Cancel requests.
func (c *Canceller) Track(id OperationID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = id
	c.released = false
}

// Dispatched reports that the call for id has been sent. A cancellation
// held since the previous call is sent for id now.
func (c *Canceller) Dispatched(id OperationID) {
	c.mu.Lock()
	fire := c.pending && c.current == id
	if fire {
		c.pending = false
	}
	c.mu.Unlock()

	if fire {
		logger.Debug("Sending held cancellation", logger.KeyOperationID, id)
		c.send(id)
	}
}

// Release reports that the call for id has resolved. Until the next call
// is dispatched, cancellations are held instead of sent.
func (c *Canceller) Release(id OperationID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == id {
		c.released = true
	}
}

// Pending reports whether a cancellation is held for the next call.
func (c *Canceller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Current returns the tracked operation.
func (c *Canceller) Current() OperationID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Arm schedules a cancellation after delay. A non-positive delay arms
// nothing. Arming twice returns ErrTimerArmed.
func (c *Canceller) Arm(delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	c.mu.Lock()
	if c.timer != nil {
		c.mu.Unlock()
		return ErrTimerArmed
	}
	// Reserve the slot first: AfterFunc may run the callback synchronously.
	c.timer = &clock.Timer{}
	c.mu.Unlock()

	t := c.clock.AfterFunc(delay, func() {
		logger.Debug("Cancellation timer fired", "delay", delay)
		c.CancelNow()
	})

	c.mu.Lock()
	c.timer = t
	c.mu.Unlock()
	return nil
}

// Stop disarms the timer. It reports whether a pending cancellation was
// prevented.
func (c *Canceller) Stop() bool {
	c.mu.Lock()
	t := c.timer
	c.mu.Unlock()
	if t == nil {
		return false
	}
	return t.Stop()
}

// CancelNow sends Service.Cancel for the tracked operation without waiting
// for an answer. Failures are logged and otherwise ignored: a cancel that
// arrives after its operation finished is expected to fail.
func (c *Canceller) CancelNow() {
	c.mu.Lock()
	id, held := c.current, c.released
	if held {
		c.pending = true
	}
	c.mu.Unlock()
	if id == "" {
		return
	}
	if held {
		logger.Debug("No call outstanding, holding cancellation", logger.KeyOperationID, id)
		return
	}
	c.send(id)
}

func (c *Canceller) send(id OperationID) {
	err := c.conn.Send(context.Background(), Service, ServiceInterface+".Cancel", string(id))
	if err != nil {
		logger.Debug("Cancel request not delivered", logger.KeyOperationID, id, logger.KeyError, err)
	}
	metrics.RecordCancel(c.metrics)

	c.mu.Lock()
	c.sent = append(c.sent, id)
	c.mu.Unlock()
}

// Sent returns the operations a Cancel request was sent for.
func (c *Canceller) Sent() []OperationID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]OperationID(nil), c.sent...)
}
