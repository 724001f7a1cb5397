package main

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	dht "github.com/MichaelS11/dhtreader"
	"github.com/MichaelS11/dhtreader/dhttest"
)

type fakeHost struct {
	initErr error
	openErr error
	frame   []byte
	inits   int
	opened  []int
}

func (f *fakeHost) host() gpioHost {
	clock := dhttest.NewClock()
	return gpioHost{
		setup: func() error {
			f.inits++
			return f.initErr
		},
		open: func(pinNumber int) (dht.Pin, error) {
			f.opened = append(f.opened, pinNumber)
			if f.openErr != nil {
				return nil, f.openErr
			}
			return dhttest.NewLine(clock, dhttest.Waveform(f.frame)), nil
		},
		clock: clock,
	}
}

func runWith(f *fakeHost, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	log, _ := test.NewNullLogger()
	code := run(append([]string{"dhtreader"}, args...), &stdout, &stderr, f.host(), log)
	return code, stdout.String(), stderr.String()
}

func TestRunAM2302(t *testing.T) {
	f := &fakeHost{frame: []byte{0x02, 0x26, 0x00, 0xEA, 0x12}}

	code, stdout, _ := runWith(f, "2302", "4")

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "23.4;55.0", stdout)
	assert.Equal(t, []int{4}, f.opened)
}

func TestRunDHT22Negative(t *testing.T) {
	f := &fakeHost{frame: []byte{0x02, 0x8C, 0x80, 0x01, 0x0F}}

	code, stdout, _ := runWith(f, "22", "17")

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "-0.1;65.2", stdout)
}

func TestRunDHT11(t *testing.T) {
	f := &fakeHost{frame: []byte{55, 0, 23, 0, 78}}

	code, stdout, _ := runWith(f, "11", "4")

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "23;55", stdout)
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no args", nil, exitUsage},
		{"one arg", []string{"22"}, exitUsage},
		{"three args", []string{"22", "4", "x"}, exitUsage},
		{"unknown type", []string{"99", "4"}, exitSensorType},
		{"negative pin", []string{"11", "-1"}, exitPin},
		{"zero pin", []string{"11", "0"}, exitPin},
		{"not a number", []string{"22", "gpio4"}, exitPin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeHost{}
			code, stdout, stderr := runWith(f, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Empty(t, stdout)
			assert.NotEmpty(t, stderr)
			assert.Zero(t, f.inits, "hardware touched")
		})
	}
}

func TestRunInitError(t *testing.T) {
	f := &fakeHost{initErr: errors.Wrap(dht.ErrGPIO, "no /dev/gpiomem")}

	code, stdout, _ := runWith(f, "22", "4")

	assert.Equal(t, exitGPIO, code)
	assert.Empty(t, stdout)
	assert.Empty(t, f.opened)
}

func TestRunOpenErrors(t *testing.T) {
	f := &fakeHost{openErr: errors.Wrap(dht.ErrInvalidPin, "pin 99 not found")}
	code, stdout, _ := runWith(f, "22", "99")
	assert.Equal(t, exitPin, code)
	assert.Empty(t, stdout)

	f = &fakeHost{openErr: errors.Wrap(dht.ErrGPIO, "busy")}
	code, _, _ = runWith(f, "22", "4")
	assert.Equal(t, exitGPIO, code)
}

func TestRunInvalidFrame(t *testing.T) {
	tests := map[string][]byte{
		"checksum":  {0x02, 0x26, 0x00, 0xEA, 0x13},
		"truncated": {0x02, 0x26, 0x00},
		"silent":    nil,
	}
	for name, frame := range tests {
		t.Run(name, func(t *testing.T) {
			f := &fakeHost{frame: frame}
			code, stdout, stderr := runWith(f, "2302", "4")
			assert.Equal(t, exitInvalidFrame, code)
			assert.Empty(t, stdout)
			assert.Empty(t, stderr)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	var out bytes.Buffer
	log := setupLogger("debug", &out)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = setupLogger("", &out)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	log.Warn("hello")
	assert.Contains(t, out.String(), "hello")
}
