package raspberry

import (
	"github.com/warthog618/gpio"
)

// Output drives the output line through the memory mapped GPIO
// registers (/dev/gpiomem). The character device used for the input
// side goes through ioctls; a register write is cheap enough to be
// called from the edge handler path, which is what direct mode does.
//
// Output implements port.Output. The line starts deasserted.
type Output struct {
	gpioPin *gpio.Pin
}

// NewOutput maps the GPIO registers and claims the pin as an output.
// The pin number is the BCM GPIO number.
func NewOutput(bcm int) (*Output, error) {
	if err := gpio.Open(); err != nil {
		return nil, err
	}

	p := gpio.NewPin(bcm)
	p.Output()
	p.Low()

	return &Output{gpioPin: p}, nil
}

// Assert drives the line high.
func (o *Output) Assert() {
	o.gpioPin.High()
}

// Deassert drives the line low.
func (o *Output) Deassert() {
	o.gpioPin.Low()
}

// Close forces the line low and unmaps the GPIO memory.
func (o *Output) Close() error {
	o.gpioPin.Low()
	return gpio.Close()
}
