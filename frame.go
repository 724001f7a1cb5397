package dht

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseSensorType accepts "11", "22" or "2302".
func ParseSensorType(s string) (SensorType, error) {
	switch s {
	case "11":
		return DHT11, nil
	case "22", "2302":
		return DHT22, nil
	}
	return 0, errors.Wrapf(ErrUnknownSensorType, "%q", s)
}

// String implements fmt.Stringer.
func (st SensorType) String() string {
	switch st {
	case DHT11:
		return "DHT11"
	case DHT22:
		return "DHT22|AM2302"
	}
	return fmt.Sprintf("SensorType(%d)", int(st))
}

// decodeFrame packs the high phase of every data bit, MSB first, into a frame.
// Entries 0 and 1 are the sensor acknowledgement, so data starts at entry 2
// and every second entry after it. Bits past the fifth byte are counted but dropped.
// The returned count is the number of received bits.
func decodeFrame(edges []float64) (Frame, int) {
	var frame Frame
	processed := 0

	for i := 2; i < len(edges) && i < MaxNumBits; i += 2 {
		if b := processed / 8; b < len(frame) {
			frame[b] <<= 1
			if edges[i] > BitThresholdMicros {
				frame[b] |= 1
			}
		}
		processed++
	}

	// the loop counts one past the received bits
	processed--

	return frame, processed
}

// Checksum is the low byte of the sum of the four data bytes.
func (f Frame) Checksum() byte {
	return byte((int(f[0]) + int(f[1]) + int(f[2]) + int(f[3])) & 0xFF)
}

// Validate checks the received bit count and the checksum byte.
func (f Frame) Validate(bits int) error {
	if bits != FrameBits {
		return errors.Wrapf(ErrInvalidFrame, "received %d bits", bits)
	}
	if f[4] != f.Checksum() {
		return errors.Wrapf(ErrInvalidFrame, "checksum 0x%02x, expected 0x%02x", f[4], f.Checksum())
	}
	return nil
}

// Reading interprets the frame for the sensor type.
func (f Frame) Reading(st SensorType) Reading {
	r := Reading{SensorType: st}

	if st == DHT11 {
		r.Humidity = float64(f[0])
		r.Temperature = float64(f[2])
		return r
	}

	r.Humidity = float64(int(f[0])*256+int(f[1])) / 10
	r.Temperature = float64(int(f[2]&0x7F)*256+int(f[3])) / 10
	// high bit of the temperature is the sign
	if f[2]&0x80 != 0 {
		r.Temperature = -r.Temperature
	}
	return r
}

// Format renders "<temperature>;<humidity>" for the sensor type.
// DHT11 values are the raw bytes, DHT22 values have one decimal.
func (f Frame) Format(st SensorType) string {
	if st == DHT11 {
		return fmt.Sprintf("%d;%d", f[2], f[0])
	}
	return f.Reading(st).String()
}

// String renders the reading the way Frame.Format does.
func (r Reading) String() string {
	if r.SensorType == DHT11 {
		return fmt.Sprintf("%d;%d", int(r.Temperature), int(r.Humidity))
	}
	return fmt.Sprintf("%.1f;%.1f", r.Temperature, r.Humidity)
}

// Fahrenheit returns the temperature in degrees Fahrenheit.
func (r Reading) Fahrenheit() float64 {
	return r.Temperature*9/5 + 32
}
