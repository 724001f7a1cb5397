// Command dhtexporter reads a DHT sensor in a loop and exposes the readings
// as Prometheus metrics, as JSON over HTTP and optionally over MQTT.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	dht "github.com/MichaelS11/dhtreader"
	"github.com/MichaelS11/dhtreader/internal/config"
	"github.com/MichaelS11/dhtreader/internal/exporter"
	"github.com/MichaelS11/dhtreader/internal/monitor"
	"github.com/MichaelS11/dhtreader/internal/publisher"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML config file, defaults are used when empty")
	flag.Parse()

	cfg := config.GetDefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			logrus.Fatalf("failed to load config: %v", err)
		}
	}

	log := setupLogger(cfg.Log)
	sensorType := cfg.SensorType()
	entry := log.WithFields(logrus.Fields{"pin": cfg.Sensor.Pin, "sensor": sensorType})

	if err := dht.HostInit(); err != nil {
		entry.Fatalf("failed to init gpio: %v", err)
	}

	sensor, err := dht.NewDHT(cfg.Sensor.Pin, sensorType)
	if err != nil {
		entry.Fatalf("failed to open sensor: %v", err)
	}
	sensor.SetLogger(entry)

	var pub exporter.Publisher
	if cfg.MQTT.Enabled {
		mq, err := publisher.NewMQTT(cfg.MQTT, cfg.Sensor.Pin, sensorType)
		if err != nil {
			entry.Fatalf("failed to connect to mqtt: %v", err)
		}
		defer mq.Close()
		pub = mq
	}

	svc := exporter.New(sensor, monitor.New(cfg.Sensor.Pin, sensorType), pub, cfg.Sensor.Interval, entry)

	go func() {
		entry.Infof("listening on %s", cfg.HTTP.Addr)
		entry.Panic(http.ListenAndServe(cfg.HTTP.Addr, svc.Router()))
	}()

	if err := svc.Prime(cfg.Sensor.Retries); err != nil {
		entry.Warnf("no valid reading after %d retries: %v", cfg.Sensor.Retries, err)
	}

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		entry.Info("shutting down")
		close(stop)
	}()

	svc.Run(stop)
}

func setupLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return log
}
