package guirlande

import (
	"fmt"
	"os"

	"github.com/nerrad567/maison-core/internal/infrastructure/config"
	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
)

// Output is the physical sink the light's colour is written to, one
// call per displayed colour. Implementations bind to whatever drives
// the LEDs (PWM pins on the host, a network relay); tests use an
// in-memory recorder.
type Output interface {
	Write(red, green, blue int) error
}

// LogOutput is an Output that writes colours to the operational log.
// Used in dev mode and on hosts without the light attached.
type LogOutput struct {
	logger *logging.Logger
}

// NewLogOutput creates a LogOutput.
func NewLogOutput(logger *logging.Logger) *LogOutput {
	return &LogOutput{logger: logger.With("component", "guirlande_output")}
}

// Write logs the colour at debug level.
func (o *LogOutput) Write(red, green, blue int) error {
	o.logger.Debug("guirlande colour", "red", red, "green", green, "blue", blue)
	return nil
}

// pigpioPipePath is the command pipe exposed by the pigpio daemon.
const pigpioPipePath = "/dev/pigpio"

// PigpioOutput drives the strip through the pigpio daemon's pipe
// interface: one `p <gpio> <dutycycle>` line per colour channel. The
// daemon's default PWM range is 0-255, matching the colour channels
// directly.
type PigpioOutput struct {
	pins config.GuirlandePinsConfig
	path string
}

// NewPigpioOutput creates a PigpioOutput writing to /dev/pigpio with
// the configured channel-to-pin mapping.
func NewPigpioOutput(pins config.GuirlandePinsConfig) *PigpioOutput {
	return &PigpioOutput{pins: pins, path: pigpioPipePath}
}

// Write sets the PWM duty cycle of the three pins.
func (o *PigpioOutput) Write(red, green, blue int) error {
	f, err := os.OpenFile(o.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("opening pigpio pipe: %w", err)
	}
	defer f.Close() //nolint:errcheck // write errors surface below

	_, err = fmt.Fprintf(f, "p %d %d\np %d %d\np %d %d\n",
		o.pins.Red, red,
		o.pins.Green, green,
		o.pins.Blue, blue,
	)
	if err != nil {
		return fmt.Errorf("writing pigpio commands: %w", err)
	}
	return nil
}

// MultiOutput fans a colour out to several sinks, such as the physical
// light plus the MQTT relay. Every sink sees every write; the first
// error is returned after all sinks have been tried.
type MultiOutput struct {
	outputs []Output
}

// NewMultiOutput creates a MultiOutput over the given sinks.
func NewMultiOutput(outputs ...Output) *MultiOutput {
	return &MultiOutput{outputs: outputs}
}

// Write sends the colour to every sink.
func (o *MultiOutput) Write(red, green, blue int) error {
	var first error
	for _, out := range o.outputs {
		if err := out.Write(red, green, blue); err != nil && first == nil {
			first = err
		}
	}
	return first
}
