package publish

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/handarm/internal/logging"
)

// Stats counts what happened to the messages handed to Async.
type Stats struct {
	Sent    uint64
	Dropped uint64
	Failed  uint64
}

// Async decouples the frame loop from the transport. Send never blocks: a
// message that does not fit in the queue is dropped. A single goroutine drains
// the queue and publishes each message under its own timeout. Failures are
// logged and not retried.
type Async struct {
	pub     Publisher
	timeout time.Duration
	log     *logging.Logger
	queue   chan Message
	done    chan struct{}
	once    sync.Once

	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewAsync starts draining into pub. size is the queue capacity.
func NewAsync(pub Publisher, size int, timeout time.Duration, log *logging.Logger) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	a := &Async{
		pub:     pub,
		timeout: timeout,
		log:     log,
		queue:   make(chan Message, size),
		done:    make(chan struct{}),
	}
	go a.drain()
	return a
}

// Send queues msg. It reports false when the queue was full and msg was dropped.
// Send must not be called after Close.
func (a *Async) Send(msg Message) bool {
	select {
	case a.queue <- msg:
		return true
	default:
		a.dropped.Add(1)
		a.log.Warn("publish queue full, dropping message", "x", msg.X, "y", msg.Y, "openness", msg.Openness)
		return false
	}
}

func (a *Async) drain() {
	defer close(a.done)
	for msg := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.pub.Publish(ctx, msg)
		cancel()
		if err != nil {
			a.failed.Add(1)
			a.log.Warn("publish failed", "error", err)
			continue
		}
		a.sent.Add(1)
		a.log.Debug("published", "x", msg.X, "y", msg.Y, "openness", msg.Openness)
	}
}

// Stats returns the current counters.
func (a *Async) Stats() Stats {
	return Stats{
		Sent:    a.sent.Load(),
		Dropped: a.dropped.Load(),
		Failed:  a.failed.Load(),
	}
}

// Close stops accepting messages, waits for the queue to drain and closes the publisher.
func (a *Async) Close() error {
	var err error
	a.once.Do(func() {
		close(a.queue)
		<-a.done
		err = a.pub.Close()
		s := a.Stats()
		a.log.Info("publisher closed", "sent", s.Sent, "dropped", s.Dropped, "failed", s.Failed)
	})
	return err
}
