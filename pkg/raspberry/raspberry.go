// Package raspberry is the GPIO collaborator of the delay line: it
// watches the input line for edges and owns the output line.
package raspberry

import (
	"fmt"
	"time"

	"github.com/warthog618/gpiod"
	"github.com/womat/debug"

	"delayline/pkg/port"
)

var ErrInvalidParam = fmt.Errorf("invalid parameters")

// eventBuffer decouples the gpiod event handler from the consumer for
// the duration of an edge burst.
const eventBuffer = 64

// Chip represents a single GPIO chip that controls a set of lines.
type Chip struct {
	gpiodChip *gpiod.Chip
}

// Open opens the GPIO character device.
func Open() (*Chip, error) {
	c, err := gpiod.NewChip("gpiochip0")
	chip := Chip{gpiodChip: c}
	return &chip, err
}

// Close releases the Chip.
//
// It does not release any lines which may be requested - they must be
// closed independently.
func (c *Chip) Close() error {
	return c.gpiodChip.Close()
}

// Line represents a single requested input line.
type Line struct {
	gpiodLine *gpiod.Line
	clock     port.Clock

	debounce   time.Duration
	debouncing bool
	lastValue  int

	// C delivers the edge events of the line.
	C chan port.Event
}

// NewLine requests control of a single input line on a chip and watches
// it for edge changes. Events are stamped with the shared clock and sent
// to channel C. There can only be one watcher on the line at a time.
//
// A debounce of zero forwards every edge as it comes; this is the normal
// configuration for a clean digital source, and the only one that does
// not add to the line latency. With a non-zero debounce the line level
// is re-read after the bounce timeout and only a settled change is
// forwarded.
func (c *Chip) NewLine(gpio int, terminator string, debounce time.Duration, clock port.Clock) (*Line, error) {
	line := &Line{
		clock:    clock,
		debounce: debounce,
		C:        make(chan port.Event, eventBuffer),
	}

	handler := line.forward
	if debounce > 0 {
		handler = line.settle
	}

	var err error
	switch terminator {
	case "pullup":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullUp)
	case "pulldown":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullDown)
	case "none":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput)
	default:
		return nil, ErrInvalidParam
	}

	return line, err
}

// forward maps a gpiod event straight to an edge event.
func (l *Line) forward(evt gpiod.LineEvent) {
	at := l.clock.Millis()

	switch evt.Type {
	case gpiod.LineEventRisingEdge:
		l.send(port.Event{Type: port.RisingEdge, At: at})
	case gpiod.LineEventFallingEdge:
		l.send(port.Event{Type: port.FallingEdge, At: at})
	default:
		debug.ErrorLog.Printf("invalid line event type: %v", evt.Type)
	}
}

// settle waits out the bounce timeout, re-reads the line and forwards
// the change only if the level actually settled on a new value.
func (l *Line) settle(evt gpiod.LineEvent) {
	if l.debouncing {
		debug.TraceLog.Print("bounce signal detected")
		return
	}
	l.debouncing = true

	at := l.clock.Millis()

	go func() {
		defer func() { l.debouncing = false }()

		time.Sleep(l.debounce)

		v, err := l.gpiodLine.Value()
		if err != nil {
			debug.ErrorLog.Println(err)
			return
		}
		if v == l.lastValue {
			debug.TraceLog.Print("no changed value after bounce delay")
			return
		}

		switch v {
		case 0:
			l.send(port.Event{Type: port.FallingEdge, At: at})
		case 1:
			l.send(port.Event{Type: port.RisingEdge, At: at})
		default:
			debug.ErrorLog.Printf("invalid line value: %v", v)
			return
		}

		l.lastValue = v
	}()
}

// send delivers an event without ever stalling the gpiod handler; if the
// consumer is that far behind, dropping the edge here is no worse than
// the ring overwriting it later.
func (l *Line) send(e port.Event) {
	select {
	case l.C <- e:
	default:
		debug.ErrorLog.Print("edge event dropped, consumer too slow")
	}
}

// Close releases all resources held by the requested line.
//
// Close must not be called from the context of the event handler - call
// it from a different goroutine.
func (l *Line) Close() error {
	if err := l.gpiodLine.Close(); err != nil {
		return err
	}
	close(l.C)
	return nil
}
