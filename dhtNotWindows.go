//go:build !windows
// +build !windows

package dht

import (
	"strconv"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// HostInit calls periph.io host.Init(). This needs to be done before NewDHT can be used.
func HostInit() error {
	_, err := host.Init()
	if err != nil {
		return errors.Wrapf(ErrGPIO, "host init error: %v", err)
	}
	return nil
}

// OpenPin looks up a gpio pin by its number.
func OpenPin(pinNumber int) (Pin, error) {
	if pinNumber <= 0 {
		return nil, errors.Wrapf(ErrInvalidPin, "pin %d", pinNumber)
	}
	pin := gpioreg.ByName(strconv.Itoa(pinNumber))
	if pin == nil {
		return nil, errors.Wrapf(ErrInvalidPin, "pin %d not found", pinNumber)
	}
	return pin, nil
}

// NewDHT to create a new DHT struct on a gpio pin number.
func NewDHT(pinNumber int, sensorType SensorType) (*DHT, error) {
	pin, err := OpenPin(pinNumber)
	if err != nil {
		return nil, err
	}

	// set pin to high so ready for first read
	err = pin.Out(gpio.High)
	if err != nil {
		return nil, errors.Wrapf(ErrGPIO, "pin out high error: %v", err)
	}

	return NewDHTWithPin(pin, sensorType, SystemClock), nil
}
