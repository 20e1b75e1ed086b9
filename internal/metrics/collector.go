package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector records actuator calls, dumps and bus traffic. A nil or
// disabled Collector accepts every call and records nothing.
type Collector struct {
	mu       sync.RWMutex
	config   *Config
	registry *prometheus.Registry

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retryCounter    *prometheus.CounterVec
	dumpCounter     *prometheus.CounterVec
	dumpBytes       *prometheus.CounterVec
	messageCounter  *prometheus.CounterVec

	// Internal tracking
	operations map[string]*OperationMetrics
	lastReset  time.Time

	server *http.Server
}

// Config represents metrics configuration
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Address   string `yaml:"address"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns a disabled configuration with the usual endpoint.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		Address:   ":9090",
		Path:      "/metrics",
		Namespace: "actuatorprobe",
	}
}

// OperationMetrics tracks metrics for a specific operation type
type OperationMetrics struct {
	Count         int64         `json:"count"`
	Errors        int64         `json:"errors"`
	TotalDuration time.Duration `json:"total_duration"`
	TotalBytes    int64         `json:"total_bytes"`
	LastOperation time.Time     `json:"last_operation"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// NewCollector creates a new metrics collector
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = DefaultConfig()
		config.Enabled = true
	}

	if !config.Enabled {
		return &Collector{config: config}, nil
	}

	collector := &Collector{
		config:     config,
		registry:   prometheus.NewRegistry(),
		operations: make(map[string]*OperationMetrics),
		lastReset:  time.Now(),
	}

	collector.initMetrics()

	if err := collector.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return collector, nil
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c != nil && c.config != nil && c.config.Enabled
}

// Handler returns the Prometheus handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	if !c.Enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Start serves the metrics endpoint on the configured address
func (c *Collector) Start(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(c.config.Path, c.Handler())
	mux.HandleFunc("/health", c.healthHandler)

	c.server = &http.Server{
		Addr:              c.config.Address,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the metrics server
func (c *Collector) Stop(ctx context.Context) error {
	if c == nil || c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}

// RecordRequest records one actuator query, retries included.
func (c *Collector) RecordRequest(endpoint string, duration time.Duration, success bool) {
	if !c.Enabled() {
		return
	}

	c.requestCounter.With(prometheus.Labels{
		"endpoint": endpoint,
		"outcome":  outcome(success),
	}).Inc()
	c.requestDuration.With(prometheus.Labels{
		"endpoint": endpoint,
	}).Observe(duration.Seconds())

	c.track(endpoint, duration, 0, success)
}

// RecordRetry records a retry of an actuator query
func (c *Collector) RecordRetry(endpoint string) {
	if !c.Enabled() {
		return
	}

	c.retryCounter.With(prometheus.Labels{"endpoint": endpoint}).Inc()
}

// RecordDump records a heap or thread dump and the bytes written
func (c *Collector) RecordDump(kind string, duration time.Duration, bytes int64, success bool) {
	if !c.Enabled() {
		return
	}

	c.dumpCounter.With(prometheus.Labels{
		"kind":    kind,
		"outcome": outcome(success),
	}).Inc()
	if bytes > 0 {
		c.dumpBytes.With(prometheus.Labels{"kind": kind}).Add(float64(bytes))
	}

	c.track(kind, duration, bytes, success)
}

// RecordMessage records a message sent to the bus
func (c *Collector) RecordMessage(kind string) {
	if !c.Enabled() {
		return
	}

	c.messageCounter.With(prometheus.Labels{"kind": kind}).Inc()
}

// GetMetrics returns a copy of the per-operation tracking
func (c *Collector) GetMetrics() map[string]*OperationMetrics {
	operations := make(map[string]*OperationMetrics)
	if !c.Enabled() {
		return operations
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, v := range c.operations {
		copied := *v
		operations[k] = &copied
	}
	return operations
}

// ResetMetrics resets the per-operation tracking
func (c *Collector) ResetMetrics() {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.operations = make(map[string]*OperationMetrics)
	c.lastReset = time.Now()
}

func (c *Collector) track(operation string, duration time.Duration, bytes int64, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, exists := c.operations[operation]
	if !exists {
		m = &OperationMetrics{}
		c.operations[operation] = m
	}
	m.Count++
	if !success {
		m.Errors++
	}
	m.TotalDuration += duration
	m.TotalBytes += bytes
	m.LastOperation = time.Now()
	m.AvgDuration = time.Duration(int64(m.TotalDuration) / m.Count)
}

func (c *Collector) initMetrics() {
	ns := c.config.Namespace

	c.requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "actuator_requests_total",
			Help:      "Total number of actuator queries",
		},
		[]string{"endpoint", "outcome"},
	)

	c.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "actuator_request_duration_seconds",
			Help:      "Duration of actuator queries including retries",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"endpoint"},
	)

	c.retryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "actuator_retries_total",
			Help:      "Total number of retried actuator queries",
		},
		[]string{"endpoint"},
	)

	c.dumpCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "dumps_total",
			Help:      "Total number of heap and thread dumps",
		},
		[]string{"kind", "outcome"},
	)

	c.dumpBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "dump_bytes_total",
			Help:      "Total bytes written to dump files",
		},
		[]string{"kind"},
	)

	c.messageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bus_messages_total",
			Help:      "Total number of messages sent to the bus",
		},
		[]string{"kind"},
	)
}

func (c *Collector) registerMetrics() error {
	metrics := []prometheus.Collector{
		c.requestCounter,
		c.requestDuration,
		c.retryCounter,
		c.dumpCounter,
		c.dumpBytes,
		c.messageCounter,
	}

	for _, metric := range metrics {
		if err := c.registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

func (c *Collector) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"actuatorprobe-metrics"}`))
}

func outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
