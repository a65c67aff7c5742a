// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/signalapp/hostbridge/config"

	pb "github.com/signalapp/hostbridge/proto"
)

// Websocket carries one CBOR encoded message per binary websocket frame.
type Websocket struct {
	wMu sync.Mutex
	c   *websocket.Conn
}

var _ Conn = (*Websocket)(nil)

// NewWebsocket wraps an established websocket connection.
func NewWebsocket(c *websocket.Conn, maxFrame uint32) *Websocket {
	c.SetReadLimit(int64(maxFrame))
	return &Websocket{c: c}
}

// DialWebsocket performs the websocket handshake against cfg.Address.
func DialWebsocket(ctx context.Context, cfg *config.TransportConfig) (*Websocket, error) {
	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	c, _, err := dialer.DialContext(ctx, cfg.Address, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %v: %w", cfg.Address, err)
	}
	return NewWebsocket(c, cfg.MaxFrameBytes), nil
}

func (w *Websocket) Send(m *pb.Message) error {
	buf, err := pb.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	w.wMu.Lock()
	defer w.wMu.Unlock()
	if err := w.c.WriteMessage(websocket.BinaryMessage, buf); err != nil {
		return fmt.Errorf("writews: %w", err)
	}
	return nil
}

func (w *Websocket) Recv() (*pb.Message, error) {
	typ, buf, err := w.c.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("readws: %w", err)
	}
	if typ != websocket.BinaryMessage {
		return nil, fmt.Errorf("unexpected websocket message type %d", typ)
	}
	var m pb.Message
	if err := pb.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("unmarshaling message: %w", err)
	}
	return &m, nil
}

func (w *Websocket) Close() error {
	return w.c.Close()
}
