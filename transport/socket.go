// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package transport moves runtime host protocol messages over a connection
// to the host.
package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/mdlayher/vsock"

	"github.com/signalapp/hostbridge/config"
	"github.com/signalapp/hostbridge/logger"
	"github.com/signalapp/hostbridge/util"

	pb "github.com/signalapp/hostbridge/proto"
)

// Conn is a bidirectional, message oriented channel to the host. Send may be
// called concurrently; Recv must only be called from one goroutine.
type Conn interface {
	Send(m *pb.Message) error
	Recv() (*pb.Message, error)
	Close() error
}

var ErrFrameTooLarge = errors.New("frame exceeds maximum length")

// Socket sends each message as a 4 byte big endian length followed by the
// CBOR encoded message.
type Socket struct {
	maxFrame uint32

	wMu  sync.Mutex
	sock net.Conn
}

var _ Conn = (*Socket)(nil)

// NewSocket wraps an established connection.
func NewSocket(sock net.Conn, maxFrame uint32) *Socket {
	return &Socket{sock: sock, maxFrame: maxFrame}
}

func (n *Socket) Send(m *pb.Message) error {
	buf, err := pb.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	if uint64(len(buf)) > uint64(n.maxFrame) {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(buf), n.maxFrame)
	}
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(buf)))

	n.wMu.Lock()
	defer n.wMu.Unlock()
	if _, err := n.sock.Write(sizeBuf[:]); err != nil {
		return fmt.Errorf("writing size: %w", err)
	} else if _, err := n.sock.Write(buf); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

func (n *Socket) Recv() (*pb.Message, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(n.sock, sizeBuf[:]); err != nil {
		return nil, fmt.Errorf("reading size: %w", err)
	}
	size := binary.BigEndian.Uint32(sizeBuf[:])
	if size > n.maxFrame {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, n.maxFrame)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(n.sock, buf); err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	var m pb.Message
	if err := pb.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("unmarshaling message: %w", err)
	}
	return &m, nil
}

func (n *Socket) Close() error {
	return n.sock.Close()
}

func dialSocket(cfg *config.TransportConfig) (net.Conn, error) {
	switch cfg.Network {
	case "tcp", "unix":
		return net.Dial(cfg.Network, cfg.Address)
	case "vsock":
		c, err := vsock.Dial(cfg.VsockCID, cfg.VsockPort, nil)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("invalid socket network %q", cfg.Network)
	}
}

// Dial connects to the host described by cfg, retrying with backoff until
// the host accepts the connection or cfg.DialTimeout elapses.
func Dial(ctx context.Context, cfg *config.TransportConfig) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	return util.RetrySupplierWithBackoff(ctx, func() (Conn, error) {
		if cfg.Network == "websocket" {
			ws, err := DialWebsocket(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return ws, nil
		}
		sock, err := dialSocket(cfg)
		if err != nil {
			return nil, err
		}
		return NewSocket(sock, cfg.MaxFrameBytes), nil
	}, cfg.MinDialSleep, cfg.MaxDialSleep, func(err error) {
		logger.Warnw("host not reachable yet", "network", cfg.Network, "err", err)
	})
}
