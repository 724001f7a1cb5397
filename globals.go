package dht

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// SensorType selects the decode and format rule of a frame.
type SensorType int

const (
	// DHT11 reports whole degrees and whole percent
	DHT11 SensorType = 11
	// DHT22 reports tenths, with a sign bit on the temperature
	DHT22 SensorType = 22
	// AM2302 is the same sensor as DHT22
	AM2302 = DHT22
)

const (
	// StartPulse is how long the line is held low to wake the sensor.
	StartPulse = 20 * time.Millisecond
	// EdgeCapacity is the capacity of the edge duration buffer.
	EdgeCapacity = 250
	// MaxNumBits is the most edges sampled, and consulted when decoding.
	MaxNumBits = 100
	// MaxNumCyclesBetweenBits is the poll budget for one edge before the line counts as stalled.
	MaxNumCyclesBetweenBits = 100000
	// BitThresholdMicros is the high phase duration above which a bit is 1.
	BitThresholdMicros = 50.0
	// FrameBits is the number of bits in a valid frame.
	FrameBits = 40
)

var (
	// ErrUnknownSensorType is returned for a sensor type that is not 11, 22 or 2302.
	ErrUnknownSensorType = errors.New("unknown sensor type")
	// ErrInvalidPin is returned for a pin number that is not positive or not known to the host.
	ErrInvalidPin = errors.New("invalid gpio pin")
	// ErrGPIO is returned when the host or a pin operation fails.
	ErrGPIO = errors.New("gpio failure")
	// ErrInvalidFrame is returned when the bit count or checksum is wrong.
	ErrInvalidFrame = errors.New("invalid frame")
)

// Pin is the part of gpio.PinIO the driver uses.
type Pin interface {
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
}

// Clock supplies timestamps and the start pulse sleep.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the Clock backed by the time package.
var SystemClock Clock = systemClock{}

// Frame is humidity high, humidity low, temperature high, temperature low, checksum.
type Frame [5]byte

// Reading is a decoded sensor value.
type Reading struct {
	SensorType  SensorType `json:"-"`
	Humidity    float64    `json:"humidity"`
	Temperature float64    `json:"temperature"`
}

// DHT struct to interface with the sensor.
// Call NewDHT or NewDHTWithPin to create a new one.
type DHT struct {
	pin        Pin
	sensorType SensorType
	clock      Clock
	log        logrus.FieldLogger
	numErrors  int
	lastRead   time.Time
}
