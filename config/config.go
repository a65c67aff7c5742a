// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	pb "github.com/signalapp/hostbridge/proto"
)

type Config struct {
	// See zap.Config
	Log *zap.Config `yaml:"log"`
	// Hex encoded identifier of the runtime this bridge acts for
	RuntimeID string `yaml:"runtimeId"`
	// How to reach the host
	Transport TransportConfig `yaml:"transport"`
	// Metrics export
	Metrics MetricsConfig `yaml:"metrics"`
	// Address for http control server to listen on
	ControlListenAddr string `yaml:"controlListenAddr"`
	// Notifications to register for once the host is reachable
	Notify NotifyConfig `yaml:"notify"`
	// Periodicity/timeout for host liveness checks
	LivenessCheckPeriod  time.Duration `yaml:"livenessCheckPeriod"`
	LivenessCheckTimeout time.Duration `yaml:"livenessCheckTimeout"`
}

type NotifyConfig struct {
	// Subscribe to runtime block notifications
	RuntimeBlock bool `yaml:"runtimeBlock"`
	// Subscribe to runtime events carrying any of these tags
	EventTags []string `yaml:"eventTags"`
}

// Enabled reports whether any notification is requested.
func (n *NotifyConfig) Enabled() bool {
	return n.RuntimeBlock || len(n.EventTags) != 0
}

// validate returns a list of validation errors, or empty if there are no errors.
type validator interface{ validate() []string }

func (c *Config) validate() error {
	validators := []validator{&c.Transport, &c.Metrics}
	var errs []string
	for _, validator := range validators {
		errs = append(errs, validator.validate()...)
	}
	if _, err := c.Namespace(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid runtimeId %q: %v", c.RuntimeID, err))
	}
	if c.LivenessCheckPeriod <= 0 || c.LivenessCheckTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("liveness period %v and timeout %v must be >0", c.LivenessCheckPeriod, c.LivenessCheckTimeout))
	}
	if len(errs) != 0 {
		return fmt.Errorf("invalid config: %v", strings.Join(errs, ","))
	}
	return nil
}

// Namespace parses the configured runtime identifier.
func (c *Config) Namespace() (pb.Namespace, error) {
	return pb.NamespaceFromHex(c.RuntimeID)
}

// Read parses the yaml file at the provided path into a Config
func Read(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	withenv := []byte(os.ExpandEnv(string(bs)))
	c, err := unmarshal(withenv)
	if err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func unmarshal(bs []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(bs, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default provides reasonable default parameters that may be overridden by a config file
func Default() *Config {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(zap.DebugLevel),
		Development:       true,
		Encoding:          "console",
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	return &Config{
		Log: &config,
		Transport: TransportConfig{
			Network:          "unix",
			Address:          "/var/run/runtime-host.sock",
			MaxFrameBytes:    16 << 20,
			HandshakeTimeout: time.Second * 30,
			MinDialSleep:     time.Millisecond * 100,
			MaxDialSleep:     time.Second * 5,
			DialTimeout:      time.Minute,
		},
		Metrics: MetricsConfig{
			ServiceName: "hostbridge",
		},
		ControlListenAddr:    "localhost:8081",
		LivenessCheckPeriod:  time.Minute,
		LivenessCheckTimeout: time.Second * 10,
	}
}
