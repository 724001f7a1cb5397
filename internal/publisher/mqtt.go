package publisher

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	dht "github.com/MichaelS11/dhtreader"
	"github.com/MichaelS11/dhtreader/internal/config"
)

const publishTimeout = 5 * time.Second

// Message is the JSON payload of one reading.
type Message struct {
	Sensor       string    `json:"sensor"`
	Pin          int       `json:"pin"`
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperatureC"`
	HumidityPct  float64   `json:"humidityPct"`
}

// MQTT publishes readings to a broker topic.
type MQTT struct {
	client mqtt.Client
	topic  string
	qos    byte
	pin    int
	sensor dht.SensorType
}

// NewMQTT connects to the configured broker.
func NewMQTT(cfg config.MQTTConfig, pin int, sensor dht.SensorType) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "connect to %s", cfg.Broker)
	}
	return NewMQTTWithClient(c, cfg.Topic, cfg.QoS, pin, sensor), nil
}

// NewMQTTWithClient publishes through an already connected client.
func NewMQTTWithClient(client mqtt.Client, topic string, qos byte, pin int, sensor dht.SensorType) *MQTT {
	return &MQTT{client: client, topic: topic, qos: qos, pin: pin, sensor: sensor}
}

// Publish sends one reading and waits for the broker.
func (p *MQTT) Publish(r dht.Reading, at time.Time) error {
	payload, err := json.Marshal(Message{
		Sensor:       p.sensor.String(),
		Pin:          p.pin,
		Timestamp:    at.UTC(),
		TemperatureC: r.Temperature,
		HumidityPct:  r.Humidity,
	})
	if err != nil {
		return errors.Wrap(err, "marshal reading")
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("publish to %s timed out", p.topic)
	}
	if token.Error() != nil {
		return errors.Wrapf(token.Error(), "publish to %s", p.topic)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTT) Close() {
	p.client.Disconnect(250)
}
