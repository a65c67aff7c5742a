// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package hosttest provides a simulated host for tests that need the other
// end of a runtime host connection.
package hosttest

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/signalapp/hostbridge/transport"
	"github.com/signalapp/hostbridge/util"

	pb "github.com/signalapp/hostbridge/proto"
)

// Handler produces the response body for a request body sent by the runtime.
type Handler func(req pb.Body) pb.Body

// Host answers every request it receives with the result of its Handler.
// Responses to its own requests (notifications) are collected separately.
type Host struct {
	t       *testing.T
	conn    *transport.Socket
	handler Handler
	ids     util.TxGenerator

	mu        sync.Mutex
	requests  []pb.Body
	responses map[uint64]chan pb.Body
}

// New starts a simulated host and returns it along with the runtime's end
// of the connection. Both ends are closed when the test finishes.
func New(t *testing.T, handler Handler) (*Host, transport.Conn) {
	hostSide, runtimeSide := net.Pipe()
	h := &Host{
		t:         t,
		conn:      transport.NewSocket(hostSide, 1<<20),
		handler:   handler,
		responses: map[uint64]chan pb.Body{},
	}
	conn := transport.NewSocket(runtimeSide, 1<<20)
	t.Cleanup(func() {
		h.conn.Close()
		conn.Close()
	})
	go h.serve()
	return h, conn
}

func (h *Host) serve() {
	for {
		m, err := h.conn.Recv()
		if err != nil {
			return
		}
		switch m.MessageType {
		case pb.MessageTypeRequest:
			h.mu.Lock()
			h.requests = append(h.requests, m.Body)
			h.mu.Unlock()
			go h.reply(m)
		case pb.MessageTypeResponse:
			h.mu.Lock()
			c := h.responses[m.ID]
			delete(h.responses, m.ID)
			h.mu.Unlock()
			if c != nil {
				c <- m.Body
			}
		}
	}
}

func (h *Host) reply(m *pb.Message) {
	body := h.handler(m.Body)
	if body == nil {
		// leave the request unanswered
		return
	}
	if err := h.conn.Send(&pb.Message{ID: m.ID, MessageType: pb.MessageTypeResponse, Body: body}); err != nil {
		h.t.Logf("simulated host reply: %v", err)
	}
}

// Requests returns the request bodies received so far, in arrival order.
func (h *Host) Requests() []pb.Body {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]pb.Body(nil), h.requests...)
}

// Send pushes a request to the runtime and returns a channel that yields
// the runtime's response body.
func (h *Host) Send(body pb.Body) <-chan pb.Body {
	id := h.ids.NextID()
	c := make(chan pb.Body, 1)
	h.mu.Lock()
	h.responses[id] = c
	h.mu.Unlock()
	if err := h.conn.Send(&pb.Message{ID: id, MessageType: pb.MessageTypeRequest, Body: body}); err != nil {
		h.t.Errorf("simulated host send: %v", err)
	}
	return c
}

// SendRaw writes a message as-is, for exercising malformed traffic.
func (h *Host) SendRaw(m *pb.Message) error {
	return h.conn.Send(m)
}

// Close drops the connection to the runtime.
func (h *Host) Close() {
	h.conn.Close()
}

// RetryFun calls fun until it succeeds or timeout elapses.
func RetryFun[T any](timeout time.Duration, fun func() (T, error)) (T, error) {
	timech := time.After(timeout)
	var err error
	var res T
	for {
		select {
		case <-timech:
			return res, fmt.Errorf("timeout: %w", err)
		default:
			if res, err = fun(); err == nil {
				return res, nil
			}
			time.Sleep(util.Min(time.Second, timeout/10))
		}
	}
}

// WaitFor200 polls url until it answers with http.StatusOK.
func WaitFor200(timeout time.Duration, url string) error {
	_, err := RetryFun(timeout, func() (interface{}, error) {
		resp, err := http.Get(url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("status=%v : %s", resp.Status, body)
		}
		return nil, nil
	})
	return err
}
