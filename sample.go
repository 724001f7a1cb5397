package dht

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
)

// sendStart drives the line low for StartPulse, then high, then hands it to the sensor.
func sendStart(pin Pin, clock Clock) error {
	err := pin.Out(gpio.Low)
	if err != nil {
		return errors.Wrapf(ErrGPIO, "pin out low error: %v", err)
	}
	clock.Sleep(StartPulse)

	err = pin.Out(gpio.High)
	if err != nil {
		return errors.Wrapf(ErrGPIO, "pin out high error: %v", err)
	}

	err = pin.In(gpio.PullNoChange, gpio.NoEdge)
	if err != nil {
		return errors.Wrapf(ErrGPIO, "pin in error: %v", err)
	}

	return nil
}

// readEdges appends the duration in microseconds of every level interval to edges.
// It stops after MaxNumBits intervals or after one interval that outlasts
// MaxNumCyclesBetweenBits polls, which is the end of the transmission.
// The caller owns edges; it should be empty with EdgeCapacity room.
func readEdges(pin Pin, clock Clock, edges []float64) []float64 {
	// create variables ahead of time before critical timing part
	var cycles int
	var stalled bool
	var end time.Time
	lastState := gpio.High
	start := clock.Now()

	// busy read, a sleep here would swallow whole bits
	for i := 0; i < MaxNumBits; i++ {
		cycles = 0
		for pin.Read() == lastState {
			cycles++
			if cycles > MaxNumCyclesBetweenBits {
				stalled = true
				break
			}
		}

		end = clock.Now()
		edges = append(edges, elapsedMicros(start, end))
		start = end
		lastState = pin.Read()

		if stalled {
			break
		}
	}

	return edges
}

// elapsedMicros returns end - start in microseconds, never negative.
func elapsedMicros(start, end time.Time) float64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Microsecond)
}
