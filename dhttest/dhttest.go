// Package dhttest simulates a sensor line for tests, without hardware.
package dhttest

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Clock is a manual clock. Sleep advances it without blocking.
type Clock struct {
	mu    sync.Mutex
	t     time.Time
	slept []time.Duration
}

// NewClock returns a Clock set to an arbitrary fixed instant.
func NewClock() *Clock {
	return &Clock{t: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Sleep records d and advances the clock by it.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Slept returns every duration passed to Sleep.
func (c *Clock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

// Segment is one interval of constant level.
type Segment struct {
	Level    gpio.Level
	Duration time.Duration
}

// Timing of the simulated sensor.
const (
	ReleaseHigh = 30 * time.Microsecond
	AckLow      = 80 * time.Microsecond
	BitLow      = 50 * time.Microsecond
	ZeroHigh    = 26 * time.Microsecond
	OneHigh     = 70 * time.Microsecond
)

// Waveform returns the line as the sampler sees it for a frame: the released
// high, the acknowledgement low, then a high and a low per bit, MSB first.
func Waveform(frame []byte) []Segment {
	segs := []Segment{{gpio.High, ReleaseHigh}, {gpio.Low, AckLow}}
	for _, b := range frame {
		for bit := 7; bit >= 0; bit-- {
			high := ZeroHigh
			if (b>>uint(bit))&1 == 1 {
				high = OneHigh
			}
			segs = append(segs, Segment{gpio.High, high}, Segment{gpio.Low, BitLow})
		}
	}
	return segs
}

// Line is a pin that plays Segments from the moment it is switched to input,
// then holds Idle. Every Read costs ReadCost on Clock, 1us when zero.
type Line struct {
	Clock    *Clock
	Segments []Segment
	Idle     gpio.Level
	ReadCost time.Duration
	OutErr   error
	InErr    error

	mu    sync.Mutex
	outs  []gpio.Level
	level gpio.Level
	input bool
	start time.Time
	reads int
}

// NewLine returns a Line that plays segs and then idles high.
func NewLine(clock *Clock, segs []Segment) *Line {
	return &Line{Clock: clock, Segments: segs, Idle: gpio.High}
}

// Out implements dht.Pin.
func (l *Line) Out(level gpio.Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.OutErr != nil {
		return l.OutErr
	}
	l.outs = append(l.outs, level)
	l.level = level
	l.input = false
	return nil
}

// In implements dht.Pin.
func (l *Line) In(pull gpio.Pull, edge gpio.Edge) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.InErr != nil {
		return l.InErr
	}
	l.input = true
	l.start = l.Clock.Now()
	return nil
}

// Read implements dht.Pin.
func (l *Line) Read() gpio.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	level := l.levelAt(l.Clock.Now())
	cost := l.ReadCost
	if cost == 0 {
		cost = time.Microsecond
	}
	l.Clock.Advance(cost)
	l.reads++
	return level
}

func (l *Line) levelAt(now time.Time) gpio.Level {
	if !l.input {
		return l.level
	}
	t := now.Sub(l.start)
	for _, s := range l.Segments {
		if t < s.Duration {
			return s.Level
		}
		t -= s.Duration
	}
	return l.Idle
}

// Outs returns every level written with Out.
func (l *Line) Outs() []gpio.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]gpio.Level(nil), l.outs...)
}

// IsInput reports whether the line was last switched to input.
func (l *Line) IsInput() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.input
}

// Reads returns how many times Read was called.
func (l *Line) Reads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}
