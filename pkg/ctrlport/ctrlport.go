// Package ctrlport is the serial command channel of the delay line.
// The host reconfigures the engine with single command bytes: values
// from 0x20 to 0x5f carry a 6-bit flag (offset by 0x20 so every command
// is a printable character), anything below 0x20 is ignored.
package ctrlport

import (
	"fmt"
	"io"

	"github.com/womat/debug"
	"go.bug.st/serial"

	"delayline/pkg/delayline"
)

// commandOffset shifts flags into the printable ASCII range.
const commandOffset = 0x20

// Applier consumes decoded command flags and returns the settings that
// took effect.
type Applier interface {
	Apply(flag byte) delayline.Settings
}

// Handler reads command bytes from the serial link and applies them.
type Handler struct {
	rw     io.ReadWriteCloser
	engine Applier

	// C announces every applied configuration.
	// The channel is unbuffered; the owner must keep a consumer running.
	C chan delayline.Settings

	// done signals that the read loop has terminated.
	done chan struct{}
}

// Open opens the serial device and starts the command read loop.
func Open(device string, baudRate int, engine Applier) (*Handler, error) {
	p, err := serial.Open(device, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial device %q: %w", device, err)
	}

	return New(p, engine), nil
}

// New starts a command read loop on an existing byte stream.
func New(rw io.ReadWriteCloser, engine Applier) *Handler {
	h := &Handler{
		rw:     rw,
		engine: engine,
		C:      make(chan delayline.Settings),
		done:   make(chan struct{}),
	}

	go h.run()
	return h
}

// Close stops the read loop by closing the underlying stream and waits
// until the loop has terminated.
func (h *Handler) Close() error {
	err := h.rw.Close()
	<-h.done
	close(h.C)
	return err
}

// run reads the link byte by byte. There is no framing: one byte is one
// complete command.
func (h *Handler) run() {
	defer close(h.done)

	buf := make([]byte, 1)
	for {
		n, err := h.rw.Read(buf)
		if err != nil {
			if err != io.EOF {
				debug.ErrorLog.Printf("control port read: %v", err)
			}
			return
		}
		if n == 0 {
			continue
		}

		c := buf[0]
		if c < commandOffset {
			debug.TraceLog.Printf("control port: ignoring byte %#02x", c)
			continue
		}

		// the receive path constrains flags to 6 bits
		s := h.engine.Apply((c - commandOffset) & 0x3f)
		debug.InfoLog.Printf("control port: applied %#02x: %+v", c, s)

		h.status(s)
		h.C <- s
	}
}

// status writes the human-readable acknowledge line back to the host.
func (h *Handler) status(s delayline.Settings) {
	var err error
	switch {
	case !s.Enabled:
		_, err = fmt.Fprintf(h.rw, "disabled\r\n")
	case !s.HasDelay:
		_, err = fmt.Fprintf(h.rw, "direct\r\n")
	default:
		_, err = fmt.Fprintf(h.rw, "delay %dms\r\n", s.LatencyMs)
	}

	if err != nil {
		debug.ErrorLog.Printf("control port write: %v", err)
	}
}
