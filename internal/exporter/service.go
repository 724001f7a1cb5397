// Package exporter keeps a sensor read in a loop and serves the results over HTTP.
package exporter

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	dht "github.com/MichaelS11/dhtreader"
	"github.com/MichaelS11/dhtreader/internal/monitor"
)

// Sensor is the read side of *dht.DHT.
type Sensor interface {
	ReadRetry(maxRetries int) (dht.Reading, error)
	ReadBackground(handle func(dht.Reading, error), sleepDuration time.Duration, stop chan struct{}, stopped chan struct{})
}

// Publisher forwards valid readings, for example to MQTT.
type Publisher interface {
	Publish(r dht.Reading, at time.Time) error
}

// Service owns the read loop and the last valid reading.
type Service struct {
	sensor    Sensor
	monitor   *monitor.Monitor
	publisher Publisher
	log       logrus.FieldLogger
	interval  time.Duration
	now       func() time.Time

	mu         sync.RWMutex
	last       *dht.Reading
	lastAt     time.Time
	lastResult time.Time
}

// New creates a Service. publisher may be nil.
func New(sensor Sensor, m *monitor.Monitor, publisher Publisher, interval time.Duration, log logrus.FieldLogger) *Service {
	return &Service{
		sensor:     sensor,
		monitor:    m,
		publisher:  publisher,
		log:        log,
		interval:   interval,
		now:        time.Now,
		lastResult: time.Now(),
	}
}

// Prime does a first read with retries so the sensor is known good at startup.
func (s *Service) Prime(retries int) error {
	r, err := s.sensor.ReadRetry(retries)
	s.Handle(r, err)
	return err
}

// Run reads the sensor until stop is closed.
func (s *Service) Run(stop chan struct{}) {
	stopped := make(chan struct{})
	go s.sensor.ReadBackground(s.Handle, s.interval, stop, stopped)
	<-stopped
}

// Handle records one read result.
func (s *Service) Handle(r dht.Reading, err error) {
	now := s.now()

	s.mu.Lock()
	since := now.Sub(s.lastResult)
	s.lastResult = now
	if err == nil {
		s.last = &r
		s.lastAt = now
	}
	s.mu.Unlock()

	s.monitor.ObserveResult(err, since)
	if err != nil {
		s.log.Debugf("read failed: %v", err)
		return
	}

	s.monitor.ObserveReading(r, now)
	s.log.WithFields(logrus.Fields{
		"temperature": r.Temperature,
		"humidity":    r.Humidity,
	}).Info("reading")

	if s.publisher != nil {
		if err := s.publisher.Publish(r, now); err != nil {
			s.log.Errorf("failed to publish reading: %v", err)
		}
	}
}

// Last returns the last valid reading and when it was taken.
func (s *Service) Last() (dht.Reading, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return dht.Reading{}, time.Time{}, false
	}
	return *s.last, s.lastAt, true
}

// Router serves /metrics, /health and /reading.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", s.monitor.Handler()).Methods("GET")
	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/reading", s.readingHandler).Methods("GET")

	return r
}

type readingResponse struct {
	Sensor      string    `json:"sensor"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Value       string    `json:"value"`
}

func (s *Service) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) readingHandler(w http.ResponseWriter, _ *http.Request) {
	reading, at, ok := s.Last()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no reading yet"})
		return
	}
	writeJSON(w, http.StatusOK, readingResponse{
		Sensor:      reading.SensorType.String(),
		Timestamp:   at.UTC(),
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		Value:       reading.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
