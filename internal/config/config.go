package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	dht "github.com/MichaelS11/dhtreader"
)

type Config struct {
	Sensor SensorConfig `yaml:"sensor"`
	HTTP   HTTPConfig   `yaml:"http"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Log    LogConfig    `yaml:"log"`
}

type SensorConfig struct {
	Type     string        `yaml:"type"`
	Pin      int           `yaml:"pin"`
	Interval time.Duration `yaml:"interval"`
	Retries  int           `yaml:"retries"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MinInterval is the shortest interval the sensors can be read at.
const MinInterval = 2 * time.Second

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDefaultConfig returns the configuration used when no file is given.
func GetDefaultConfig() *Config {
	return &Config{
		Sensor: SensorConfig{
			Type:     "2302",
			Pin:      4,
			Interval: 30 * time.Second,
			Retries:  11,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			Topic:    "sensors/dht",
			ClientID: "dhtexporter",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the values a read loop cannot run without.
func (c *Config) Validate() error {
	if _, err := dht.ParseSensorType(c.Sensor.Type); err != nil {
		return errors.Wrap(err, "sensor.type")
	}
	if c.Sensor.Pin <= 0 {
		return errors.Wrapf(dht.ErrInvalidPin, "sensor.pin %d", c.Sensor.Pin)
	}
	if c.Sensor.Interval < MinInterval {
		return errors.Errorf("sensor.interval %v is below %v", c.Sensor.Interval, MinInterval)
	}
	if c.Sensor.Retries < 1 {
		return errors.Errorf("sensor.retries %d must be at least 1", c.Sensor.Retries)
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" || c.MQTT.Topic == "" {
			return errors.New("mqtt.broker and mqtt.topic are required when mqtt is enabled")
		}
		if c.MQTT.QoS > 2 {
			return errors.Errorf("mqtt.qos %d must be 0, 1 or 2", c.MQTT.QoS)
		}
	}
	return nil
}

// SensorType returns the parsed sensor type. Validate first.
func (c *Config) SensorType() dht.SensorType {
	st, _ := dht.ParseSensorType(c.Sensor.Type)
	return st
}
