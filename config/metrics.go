// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package config

type MetricsConfig struct {
	// Export metrics over OTLP/HTTP. The exporter reads its endpoint from the
	// standard OTEL_EXPORTER_OTLP_* environment variables.
	OTLP bool `yaml:"otlp"`
	// Prefix for all emitted metric names
	ServiceName string `yaml:"serviceName"`
}

func (m *MetricsConfig) validate() []string {
	if m.ServiceName == "" {
		return []string{"metrics serviceName must be set"}
	}
	return nil
}
