package app

import (
	"sync"
	"time"
)

// Countdown ticks once per interval from total down to zero and then fires onDone.
// Stop cancels it; after Stop returns no callback runs.
type Countdown struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartCountdown runs the countdown on its own goroutine. onTick receives the
// remaining count after each decrement above zero.
func StartCountdown(total int, interval time.Duration, onTick func(remaining int), onDone func()) *Countdown {
	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go c.run(total, interval, onTick, onDone)
	return c
}

func (c *Countdown) run(remaining int, interval time.Duration, onTick func(int), onDone func()) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for remaining > 0 {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
		// stop may have raced with the tick
		select {
		case <-c.stop:
			return
		default:
		}
		remaining--
		if remaining > 0 && onTick != nil {
			onTick(remaining)
		}
	}
	if onDone != nil {
		onDone()
	}
}

// Stop cancels the countdown and waits for its goroutine to exit. Safe to call more than once.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// Done is closed once the countdown finished or was stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
