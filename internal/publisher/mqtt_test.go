package publisher

import (
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dht "github.com/MichaelS11/dhtreader"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient implements the parts of mqtt.Client the publisher calls.
type fakeClient struct {
	mqtt.Client
	err          error
	sent         []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic, qos, payload.([]byte)})
	return newFakeToken(c.err)
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func TestPublish(t *testing.T) {
	client := &fakeClient{}
	p := NewMQTTWithClient(client, "home/attic", 1, 4, dht.AM2302)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(dht.Reading{Temperature: 23.4, Humidity: 55}, at)
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	assert.Equal(t, "home/attic", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var msg Message
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &msg))
	assert.Equal(t, Message{
		Sensor:       "DHT22|AM2302",
		Pin:          4,
		Timestamp:    at,
		TemperatureC: 23.4,
		HumidityPct:  55,
	}, msg)
}

func TestPublishError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := NewMQTTWithClient(client, "t", 0, 4, dht.DHT11)

	err := p.Publish(dht.Reading{}, time.Now())
	assert.EqualError(t, errors.Cause(err), "not connected")
}

func TestClose(t *testing.T) {
	client := &fakeClient{}
	NewMQTTWithClient(client, "t", 0, 4, dht.DHT11).Close()
	assert.True(t, client.disconnected)
}
