// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"net/url"
	"time"
)

type TransportConfig struct {
	// One of "tcp", "unix", "vsock" or "websocket"
	Network string `yaml:"network"`
	// host:port for tcp, a path for unix, a ws:// or wss:// url for websocket
	Address string `yaml:"address"`
	// Context id and port of the host when Network is vsock
	VsockCID  uint32 `yaml:"vsockCid"`
	VsockPort uint32 `yaml:"vsockPort"`
	// Largest message accepted from the host
	MaxFrameBytes uint32 `yaml:"maxFrameBytes"`
	// Timeout to perform the websocket handshake
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`
	// Exponential backoff bounds while waiting for the host to come up
	MinDialSleep time.Duration `yaml:"minDialSleep"`
	MaxDialSleep time.Duration `yaml:"maxDialSleep"`
	// How long to keep trying to reach the host before giving up
	DialTimeout time.Duration `yaml:"dialTimeout"`
}

func (t *TransportConfig) validate() []string {
	var errs []string
	switch t.Network {
	case "tcp", "unix":
		if t.Address == "" {
			errs = append(errs, fmt.Sprintf("%s transport requires an address", t.Network))
		}
	case "vsock":
		if t.VsockCID == 0 {
			errs = append(errs, "vsock transport requires vsockCid")
		}
	case "websocket":
		if u, err := url.Parse(t.Address); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			errs = append(errs, fmt.Sprintf("invalid websocket address %q", t.Address))
		}
		if t.HandshakeTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("Handshake timeout %v must be >0", t.HandshakeTimeout))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown transport network %q", t.Network))
	}
	if t.MaxFrameBytes == 0 {
		errs = append(errs, "maxFrameBytes must be >0")
	}
	if t.MinDialSleep > t.MaxDialSleep {
		errs = append(errs, fmt.Sprintf("MinDialSleep (%v) must be less than MaxDialSleep (%v)", t.MinDialSleep, t.MaxDialSleep))
	}
	return errs
}
