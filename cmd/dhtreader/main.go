// Command dhtreader reads a DHT11, DHT22 or AM2302 sensor once and prints
// "<temperature>;<humidity>" to standard output.
//
//	dhtreader [11|22|2302] GPIOpin#
//
// The exit status tells success from failure, a failed read prints nothing.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	dht "github.com/MichaelS11/dhtreader"
)

const (
	exitOK           = 0
	exitGPIO         = 1
	exitUsage        = 2
	exitSensorType   = 3
	exitPin          = 4
	exitInvalidFrame = 100
)

// gpioHost opens the hardware. Tests swap it for a simulated line.
type gpioHost struct {
	setup func() error
	open  func(pinNumber int) (dht.Pin, error)
	clock dht.Clock
}

var periphHost = gpioHost{
	setup: dht.HostInit,
	open:  dht.OpenPin,
	clock: dht.SystemClock,
}

func main() {
	log := setupLogger(os.Getenv("DHT_LOG_LEVEL"), os.Stderr)
	os.Exit(run(os.Args, os.Stdout, os.Stderr, periphHost, log))
}

func run(args []string, stdout, stderr io.Writer, host gpioHost, log logrus.FieldLogger) int {
	name := "dhtreader"
	if len(args) > 0 {
		name = filepath.Base(args[0])
	}

	if len(args) != 3 {
		fmt.Fprintf(stderr, "usage: %s [11|22|2302] GPIOpin#\n", name)
		fmt.Fprintf(stderr, "example: %s 2302 4 - Read from an AM2302 connected to GPIO #4\n", name)
		return exitUsage
	}

	sensorType, err := dht.ParseSensorType(args[1])
	if err != nil {
		fmt.Fprintln(stderr, "Select 11, 22, 2302 as type!")
		return exitSensorType
	}

	pinNumber, err := strconv.Atoi(args[2])
	if err != nil || pinNumber <= 0 {
		fmt.Fprintln(stderr, "Please select a valid GPIO pin #")
		return exitPin
	}

	err = host.setup()
	if err != nil {
		log.Errorf("gpio init failed: %v", err)
		return exitGPIO
	}

	pin, err := host.open(pinNumber)
	if err != nil {
		log.Errorf("open pin %d failed: %v", pinNumber, err)
		if errors.Cause(err) == dht.ErrInvalidPin {
			fmt.Fprintln(stderr, "Please select a valid GPIO pin #")
			return exitPin
		}
		return exitGPIO
	}

	sensor := dht.NewDHTWithPin(pin, sensorType, host.clock)
	sensor.SetLogger(log.WithFields(logrus.Fields{"pin": pinNumber, "sensor": sensorType}))

	reading, err := sensor.ReadOnce()
	if err != nil {
		if errors.Cause(err) == dht.ErrInvalidFrame {
			log.Debugf("read failed: %v", err)
			return exitInvalidFrame
		}
		log.Errorf("read failed: %v", err)
		return exitGPIO
	}

	fmt.Fprint(stdout, reading.String())
	return exitOK
}

func setupLogger(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	log.SetLevel(lvl)

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return log
}
