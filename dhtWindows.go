//go:build windows
// +build windows

package dht

import (
	"github.com/pkg/errors"
)

// HostInit always fails, there is no gpio on windows.
func HostInit() error {
	return errors.Wrap(ErrGPIO, "gpio is not supported on windows")
}

// OpenPin always fails, there is no gpio on windows.
func OpenPin(pinNumber int) (Pin, error) {
	if pinNumber <= 0 {
		return nil, errors.Wrapf(ErrInvalidPin, "pin %d", pinNumber)
	}
	return nil, errors.Wrap(ErrGPIO, "gpio is not supported on windows")
}

// NewDHT always fails, there is no gpio on windows.
func NewDHT(pinNumber int, sensorType SensorType) (*DHT, error) {
	_, err := OpenPin(pinNumber)
	return nil, err
}
