// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package dispatch correlates requests sent to the host with the responses
// that come back, and routes host-initiated requests to the runtime.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	metrics "github.com/hashicorp/go-metrics"
	"golang.org/x/sync/errgroup"

	"github.com/signalapp/hostbridge/logger"
	"github.com/signalapp/hostbridge/transport"
	"github.com/signalapp/hostbridge/util"

	pb "github.com/signalapp/hostbridge/proto"
)

type txid uint64

// Notifier receives notifications pushed by the host. Notify is called from
// the dispatcher's receive loop and must not block.
type Notifier interface {
	Notify(n pb.RuntimeNotifyRequest)
}

// Dispatcher routes messages between the runtime and the host, associating
// requests and replies. Responses may arrive in any order.
type Dispatcher struct {
	conn transport.Conn
	// generate unique request ids
	txGen *util.TxGenerator
	// host notifications are handed to notifier, may be nil
	notifier Notifier
	// receivers represents requests to the host waiting for a reply
	receiversMu sync.Mutex
	receivers   map[txid]chan *pb.Message
	closed      bool
}

var (
	ErrTransportClosed = errors.New("dispatch: connection to host closed")

	sentCounterName      = []string{"dispatcher", "sent"}
	receivedCounterName  = []string{"dispatcher", "received"}
	unmatchedCounterName = []string{"dispatcher", "unmatched"}
	notifyCounterName    = []string{"dispatcher", "notify"}
)

// errUnsupported answers host requests the runtime does not implement.
var errUnsupported = pb.Error{Module: "rhp", Code: 1, Message: "method not supported"}

// New creates a dispatcher which exchanges messages with the host over conn.
func New(conn transport.Conn, txGen *util.TxGenerator, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		conn:      conn,
		txGen:     txGen,
		notifier:  notifier,
		receivers: make(map[txid]chan *pb.Message),
	}
}

// CallHost sends body to the host as a request and waits for the correlated
// response. A host Error body is returned as the error. There is no timeout;
// the call returns early only if ctx is done or the connection fails.
func (d *Dispatcher) CallHost(ctx context.Context, body pb.Body) (pb.Body, error) {
	id := txid(d.txGen.NextID())
	recv := make(chan *pb.Message, 1)
	if err := d.setReceiver(id, recv); err != nil {
		return nil, err
	}
	name := pb.VariantName(body)
	metrics.IncrCounterWithLabels(sentCounterName, 1, []metrics.Label{{Name: "body", Value: name}})
	if err := d.conn.Send(&pb.Message{ID: uint64(id), MessageType: pb.MessageTypeRequest, Body: body}); err != nil {
		d.deleteReceiver(id)
		return nil, fmt.Errorf("sending %s: %w", name, err)
	}

	select {
	case <-ctx.Done():
		d.deleteReceiver(id)
		return nil, ctx.Err()
	case resp, ok := <-recv:
		if !ok {
			return nil, ErrTransportClosed
		}
		if e, isErr := resp.Body.(pb.Error); isErr {
			return nil, e
		}
		return resp.Body, nil
	}
}

// Run processes messages from the host until ctx is cancelled or the
// connection fails. Pending and future calls fail with ErrTransportClosed
// once Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return d.receiveLoop() })
	grp.Go(func() error {
		<-ctx.Done()
		d.conn.Close()
		return ctx.Err()
	})
	return grp.Wait()
}

func (d *Dispatcher) receiveLoop() error {
	defer d.shutdown()
	for {
		msg, err := d.conn.Recv()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransportClosed, err)
		}
		switch msg.MessageType {
		case pb.MessageTypeResponse:
			if err := d.forwardToCaller(msg); err != nil {
				logger.Warnw("dropping host response", "err", err)
			}
		case pb.MessageTypeRequest:
			if err := d.handleHostRequest(msg); err != nil {
				return err
			}
		}
	}
}

func (d *Dispatcher) forwardToCaller(msg *pb.Message) error {
	metrics.IncrCounterWithLabels(receivedCounterName, 1, []metrics.Label{{Name: "body", Value: pb.VariantName(msg.Body)}})
	recv := d.deleteReceiver(txid(msg.ID))
	if recv == nil {
		metrics.IncrCounter(unmatchedCounterName, 1)
		return fmt.Errorf("response %d (%s) has no associated request", msg.ID, pb.VariantName(msg.Body))
	}
	recv <- msg
	return nil
}

func (d *Dispatcher) handleHostRequest(msg *pb.Message) error {
	var reply pb.Body
	switch v := msg.Body.(type) {
	case pb.RuntimeNotifyRequest:
		metrics.IncrCounter(notifyCounterName, 1)
		if d.notifier != nil {
			d.notifier.Notify(v)
		} else {
			logger.Debugw("ignoring host notification, no notifier registered")
		}
		reply = pb.Empty{}
	default:
		logger.Warnw("rejecting unsupported host request", "id", msg.ID, "body", pb.VariantName(msg.Body))
		reply = errUnsupported
	}
	if err := d.conn.Send(&pb.Message{ID: msg.ID, MessageType: pb.MessageTypeResponse, Body: reply}); err != nil {
		return fmt.Errorf("%w: replying to host request %d: %v", ErrTransportClosed, msg.ID, err)
	}
	return nil
}

// shutdown fails every outstanding call and rejects new ones.
func (d *Dispatcher) shutdown() {
	d.receiversMu.Lock()
	defer d.receiversMu.Unlock()
	d.closed = true
	for id, recv := range d.receivers {
		close(recv)
		delete(d.receivers, id)
	}
}

func (d *Dispatcher) setReceiver(id txid, recv chan *pb.Message) error {
	d.receiversMu.Lock()
	defer d.receiversMu.Unlock()
	if d.closed {
		return ErrTransportClosed
	}
	d.receivers[id] = recv
	return nil
}

func (d *Dispatcher) deleteReceiver(id txid) chan *pb.Message {
	d.receiversMu.Lock()
	defer d.receiversMu.Unlock()
	out := d.receivers[id]
	delete(d.receivers, id)
	return out
}
