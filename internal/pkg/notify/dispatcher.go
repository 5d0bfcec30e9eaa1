package notify

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/gofiber/fiber/v2/log"
)

// Channel is one notification side channel.
type Channel interface {
	Name() string
	Notify(ctx context.Context, o *OrderNotification) error
}

// Delivery is the outcome of one channel. Err is nil on success.
type Delivery struct {
	Channel string
	Err     error
}

// Dispatcher fans a confirmed order out to all channels.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher creates a dispatcher; nil channels are skipped.
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{}
	for _, ch := range channels {
		if ch != nil {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// Dispatch runs every channel concurrently and waits for all of them.
// Errors and panics are reported per channel and never propagate.
func (d *Dispatcher) Dispatch(ctx context.Context, o *OrderNotification) []Delivery {
	if d == nil || len(d.channels) == 0 {
		return nil
	}

	deliveries := make([]Delivery, len(d.channels))
	var wg sync.WaitGroup
	for i, ch := range d.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			deliveries[i] = Delivery{Channel: ch.Name(), Err: safeNotify(ctx, ch, o)}
		}(i, ch)
	}
	wg.Wait()
	return deliveries
}

func safeNotify(ctx context.Context, ch Channel, o *OrderNotification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Notify] channel %s panicked: %v\n%s", ch.Name(), r, debug.Stack())
			err = fmt.Errorf("notification channel %s panicked: %v", ch.Name(), r)
		}
	}()
	return ch.Notify(ctx, o)
}
