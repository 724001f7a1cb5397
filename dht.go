package dht

import (
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// NewDHTWithPin creates a DHT on an already opened pin.
// A nil clock means SystemClock.
func NewDHTWithPin(pin Pin, sensorType SensorType, clock Clock) *DHT {
	if clock == nil {
		clock = SystemClock
	}
	return &DHT{
		pin:        pin,
		sensorType: sensorType,
		clock:      clock,
		log:        logrus.StandardLogger(),
		// give the pin a second to warm up before the first paced read
		lastRead: clock.Now().Add(-1 * time.Second),
	}
}

// SetLogger replaces the logger used for debug output.
// A nil logger restores the logrus standard logger.
func (dht *DHT) SetLogger(log logrus.FieldLogger) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	dht.log = log
}

// SensorType returns the sensor type given at creation.
func (dht *DHT) SensorType() SensorType {
	return dht.sensorType
}

// ReadOnce does exactly one read: start signal, sampling, decoding, validation.
// It does not pace itself against earlier reads.
// A frame with the wrong bit count or checksum returns an error wrapping ErrInvalidFrame.
func (dht *DHT) ReadOnce() (Reading, error) {
	edges := make([]float64, 0, EdgeCapacity)

	dht.lastRead = dht.clock.Now()

	err := sendStart(dht.pin, dht.clock)
	if err != nil {
		return Reading{}, err
	}

	// disable garbage collection during critical timing part
	gcPercent := debug.SetGCPercent(-1)
	edges = readEdges(dht.pin, dht.clock, edges)
	debug.SetGCPercent(gcPercent)

	frame, bits := decodeFrame(edges)

	for i, e := range edges {
		dht.log.Debugf("edge %d: %.1fus (%t)", i, e, e > BitThresholdMicros)
	}
	dht.log.WithFields(logrus.Fields{
		"edges": len(edges),
		"bits":  bits,
		"frame": frame,
	}).Debug("decoded frame")

	err = frame.Validate(bits)
	if err != nil {
		return Reading{}, err
	}

	return frame.Reading(dht.sensorType), nil
}

// Read reads the sensor once, returning the reading or an error.
// Note that Read will sleep for at least 2 seconds since the last read.
// Each consecutive error adds half a second to the sleep, to a max of 30 seconds.
func (dht *DHT) Read() (Reading, error) {
	var sleepTime time.Duration
	if dht.numErrors < 57 {
		sleepTime = (2 * time.Second) + (time.Duration(dht.numErrors) * 500 * time.Millisecond)
	} else {
		sleepTime = 30 * time.Second
	}
	sleepTime -= dht.clock.Now().Sub(dht.lastRead)
	if sleepTime > 0 {
		dht.clock.Sleep(sleepTime)
	}

	reading, err := dht.ReadOnce()
	if err != nil {
		dht.numErrors++
		return Reading{}, err
	}
	dht.numErrors = 0

	return reading, nil
}

// ReadRetry will call Read until there is no error or maxRetries is hit.
// Suggest maxRetries to be set around 11.
func (dht *DHT) ReadRetry(maxRetries int) (reading Reading, err error) {
	for i := 0; i < maxRetries; i++ {
		reading, err = dht.Read()
		if err == nil {
			return
		}
		dht.log.Debugf("read attempt %d failed: %v", i+1, err)
	}
	return
}

// ReadBackground is meant to run in the background, as a goroutine.
// handle is called with the result of every read.
// sleepDuration is how long it will try to sleep between successful reads.
// Will continue to read the sensor until stop is closed.
// After it has been stopped, the stopped chan will be closed.
func (dht *DHT) ReadBackground(handle func(Reading, error), sleepDuration time.Duration, stop chan struct{}, stopped chan struct{}) {
	var reading Reading
	var err error
	startTime := dht.clock.Now().Add(-sleepDuration)

Loop:
	for {
		if err == nil {
			// no read error, wait for sleepDuration or stop
			select {
			case <-time.After(sleepDuration - dht.clock.Now().Sub(startTime)):
			case <-stop:
				break Loop
			}
		} else {
			// read error, only check for stop, Read paces the retry
			select {
			case <-stop:
				break Loop
			default:
			}
		}

		startTime = dht.clock.Now()
		reading, err = dht.Read()
		handle(reading, err)
	}

	close(stopped)
}
