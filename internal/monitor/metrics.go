package monitor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	dht "github.com/MichaelS11/dhtreader"
)

// Read results used as the "result" label.
const (
	ResultOK           = "ok"
	ResultInvalidFrame = "invalid_frame"
	ResultError        = "error"
)

// Monitor holds the sensor metrics of one registry.
type Monitor struct {
	registry     *prometheus.Registry
	temperature  *prometheus.GaugeVec
	humidity     *prometheus.GaugeVec
	lastSuccess  *prometheus.GaugeVec
	reads        *prometheus.CounterVec
	readInterval prometheus.Histogram
	labels       prometheus.Labels
}

// New registers the sensor metrics for one pin on a fresh registry.
func New(pin int, sensorType dht.SensorType) *Monitor {
	labelNames := []string{"pin", "sensor"}
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dht_temperature_celsius",
			Help: "Air Temperature (units: degrees Celsius)",
		}, labelNames),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dht_humidity_percent",
			Help: "Humidity (units: % of relative Humidity)",
		}, labelNames),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dht_last_success_timestamp_seconds",
			Help: "Unix time of the last valid reading",
		}, labelNames),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dht_reads_total",
			Help: "Sensor reads by result",
		}, append(labelNames, "result")),
		readInterval: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dht_read_interval_seconds",
			Help:    "Time between consecutive read results",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		labels: prometheus.Labels{
			"pin":    strconv.Itoa(pin),
			"sensor": sensorType.String(),
		},
	}

	m.registry.MustRegister(
		m.temperature,
		m.humidity,
		m.lastSuccess,
		m.reads,
		m.readInterval,
		collectors.NewGoCollector(),
	)

	return m
}

// ObserveReading sets the gauges from a valid reading.
func (m *Monitor) ObserveReading(r dht.Reading, at time.Time) {
	m.temperature.With(m.labels).Set(r.Temperature)
	m.humidity.With(m.labels).Set(r.Humidity)
	m.lastSuccess.With(m.labels).Set(float64(at.Unix()))
}

// ObserveResult counts a read by outcome and records the time since the previous result.
func (m *Monitor) ObserveResult(err error, since time.Duration) {
	result := ResultOK
	if err != nil {
		result = ResultError
		if errors.Cause(err) == dht.ErrInvalidFrame {
			result = ResultInvalidFrame
		}
	}
	m.reads.With(m.resultLabels(result)).Inc()
	m.readInterval.Observe(since.Seconds())
}

func (m *Monitor) resultLabels(result string) prometheus.Labels {
	labels := prometheus.Labels{"result": result}
	for k, v := range m.labels {
		labels[k] = v
	}
	return labels
}

// Registry returns the registry the metrics live on.
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
	})
}
