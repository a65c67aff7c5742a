// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics installs the global go-metrics registry, optionally
// exporting it over OTLP.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	metricSDK "go.opentelemetry.io/otel/sdk/metric"

	"github.com/signalapp/hostbridge/config"
	"github.com/signalapp/hostbridge/logger"
)

// OTLPSink forwards go-metrics samples to an OpenTelemetry meter.
// Instruments are created on first use and reused afterwards.
type OTLPSink struct {
	meter    metric.Meter
	shutdown func(context.Context) error

	mu         sync.Mutex
	counters   map[string]metric.Float64Counter
	gauges     map[string]metric.Float64Gauge
	histograms map[string]metric.Float64Histogram
}

var _ metrics.ShutdownSink = (*OTLPSink)(nil)

// NewOTLPSink initializes the Open Telemetry metrics SDK and returns a new sink.
// The exporter endpoint comes from the OTEL_EXPORTER_OTLP_* environment.
func NewOTLPSink(ctx context.Context, serviceName string) (*OTLPSink, error) {
	metricExporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating new otlp meter exporter: %w", err)
	}
	meterProvider := metricSDK.NewMeterProvider(metricSDK.WithReader(metricSDK.NewPeriodicReader(metricExporter)))
	otel.SetMeterProvider(meterProvider)
	return newOTLPSink(otel.Meter(serviceName), meterProvider.Shutdown), nil
}

func newOTLPSink(meter metric.Meter, shutdown func(context.Context) error) *OTLPSink {
	return &OTLPSink{
		meter:      meter,
		shutdown:   shutdown,
		counters:   map[string]metric.Float64Counter{},
		gauges:     map[string]metric.Float64Gauge{},
		histograms: map[string]metric.Float64Histogram{},
	}
}

func (s *OTLPSink) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	if err := s.shutdown(ctx); err != nil {
		logger.Warnw("shutting down meter provider", "err", err)
	}
}

func (s *OTLPSink) SetGauge(key []string, val float32) {
	s.SetGaugeWithLabels(key, val, nil)
}

func (s *OTLPSink) SetGaugeWithLabels(key []string, val float32, labels []metrics.Label) {
	g, err := instrument(s, s.gauges, name(key), s.meter.Float64Gauge)
	if err != nil {
		logger.Errorf("failed to record %s: %v", name(key), err)
		return
	}
	g.Record(context.Background(), float64(val), metric.WithAttributes(labelsToAttributes(labels)...))
}

// EmitKey is not implemented
func (s *OTLPSink) EmitKey(_ []string, _ float32) {
	logger.Errorf("EmitKey is not implemented")
}

func (s *OTLPSink) IncrCounter(key []string, val float32) {
	s.IncrCounterWithLabels(key, val, nil)
}

func (s *OTLPSink) IncrCounterWithLabels(key []string, val float32, labels []metrics.Label) {
	c, err := instrument(s, s.counters, name(key), s.meter.Float64Counter)
	if err != nil {
		logger.Errorf("failed to record %s: %v", name(key), err)
		return
	}
	c.Add(context.Background(), float64(val), metric.WithAttributes(labelsToAttributes(labels)...))
}

func (s *OTLPSink) AddSample(key []string, val float32) {
	s.AddSampleWithLabels(key, val, nil)
}

func (s *OTLPSink) AddSampleWithLabels(key []string, val float32, labels []metrics.Label) {
	h, err := instrument(s, s.histograms, name(key), s.meter.Float64Histogram)
	if err != nil {
		logger.Errorf("failed to record %s: %v", name(key), err)
		return
	}
	h.Record(context.Background(), float64(val), metric.WithAttributes(labelsToAttributes(labels)...))
}

// instrument returns the cached instrument called name, creating it with
// create if needed.
func instrument[I any, O any](s *OTLPSink, cache map[string]I, name string, create func(string, ...O) (I, error)) (I, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := cache[name]; ok {
		return i, nil
	}
	i, err := create(name)
	if err != nil {
		return i, err
	}
	cache[name] = i
	return i, nil
}

func labelsToAttributes(labels []metrics.Label) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, label := range labels {
		attrs = append(attrs, attribute.String(label.Name, label.Value))
	}

	return attrs
}

func name(key []string) string {
	return strings.Join(key, ".")
}

// Setup installs the global go-metrics registry. When cfg.OTLP is set,
// samples are exported over OTLP; otherwise they are discarded. The returned
// function flushes and stops the sink.
func Setup(ctx context.Context, cfg *config.MetricsConfig) (func(), error) {
	var sink metrics.MetricSink = &metrics.BlackholeSink{}
	shutdown := func() {}
	if cfg.OTLP {
		logger.Infow("initializing otlp metrics", "service", cfg.ServiceName)
		s, err := NewOTLPSink(ctx, cfg.ServiceName)
		if err != nil {
			return nil, err
		}
		sink, shutdown = s, s.Shutdown
	}

	// disable hostname tagging, this can be provided by the downstream sink
	mcfg := metrics.DefaultConfig(cfg.ServiceName)
	mcfg.EnableHostname = false
	mcfg.EnableHostnameLabel = false
	mcfg.EnableRuntimeMetrics = false
	if _, err := metrics.NewGlobal(mcfg, sink); err != nil {
		shutdown()
		return nil, fmt.Errorf("error initializing metrics: %w", err)
	}
	return shutdown, nil
}
