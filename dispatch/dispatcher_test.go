// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/signalapp/hostbridge/hosttest"
	"github.com/signalapp/hostbridge/util"

	pb "github.com/signalapp/hostbridge/proto"
)

type fixture struct {
	h    *hosttest.Host
	d    *Dispatcher
	done chan error
}

type chanNotifier chan pb.RuntimeNotifyRequest

func (c chanNotifier) Notify(n pb.RuntimeNotifyRequest) { c <- n }

func makeFixture(t *testing.T, handler hosttest.Handler, notifier Notifier) fixture {
	h, conn := hosttest.New(t, handler)
	d := New(conn, &util.TxGenerator{}, notifier)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(cancel)
	return fixture{h, d, done}
}

func identityHost(req pb.Body) pb.Body {
	if _, ok := req.(pb.HostIdentityRequest); ok {
		return pb.HostIdentityResponse{NodeID: pb.NodeID{7}}
	}
	return pb.Empty{}
}

func TestRequestResponse(t *testing.T) {
	f := makeFixture(t, identityHost, nil)

	resp, err := f.d.CallHost(context.Background(), pb.HostIdentityRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pb.Body(pb.HostIdentityResponse{NodeID: pb.NodeID{7}}), resp); diff != "" {
		t.Errorf("CallHost() mismatch (-want +got):\n%s", diff)
	}
	if got := f.h.Requests(); len(got) != 1 {
		t.Errorf("host saw %d requests, want 1", len(got))
	}
}

func TestUnorderedResponses(t *testing.T) {
	release := make(chan struct{})
	f := makeFixture(t, func(req pb.Body) pb.Body {
		tx := req.(pb.HostSubmitTxRequest)
		if tx.Data[0] == 1 {
			// hold the first response until the second has been delivered
			<-release
		}
		return pb.HostSubmitTxResponse{Output: tx.Data}
	}, nil)

	type result struct {
		body pb.Body
		err  error
	}
	first := make(chan result, 1)
	go func() {
		b, err := f.d.CallHost(context.Background(), pb.HostSubmitTxRequest{Data: []byte{1}})
		first <- result{b, err}
	}()

	second, err := f.d.CallHost(context.Background(), pb.HostSubmitTxRequest{Data: []byte{2}})
	if err != nil {
		t.Fatal(err)
	}
	if got := second.(pb.HostSubmitTxResponse).Output[0]; got != 2 {
		t.Errorf("second call got output %v, want 2", got)
	}
	select {
	case <-first:
		t.Fatal("first call finished before its response was sent")
	default:
	}

	close(release)
	r := <-first
	if r.err != nil {
		t.Fatal(r.err)
	}
	if got := r.body.(pb.HostSubmitTxResponse).Output[0]; got != 1 {
		t.Errorf("first call got output %v, want 1", got)
	}
}

func TestHostErrorIsReturned(t *testing.T) {
	hostErr := pb.Error{Module: "txpool", Code: 4, Message: "full"}
	f := makeFixture(t, func(pb.Body) pb.Body { return hostErr }, nil)

	_, err := f.d.CallHost(context.Background(), pb.HostSubmitTxRequest{})
	var got pb.Error
	if !errors.As(err, &got) {
		t.Fatalf("CallHost() err = %v, want pb.Error", err)
	}
	if got != hostErr {
		t.Errorf("got %v want %v", got, hostErr)
	}
}

func TestCancelledCall(t *testing.T) {
	f := makeFixture(t, func(pb.Body) pb.Body { return nil }, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()
	if _, err := f.d.CallHost(ctx, pb.HostIdentityRequest{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("CallHost() err = %v, want %v", err, context.DeadlineExceeded)
	}
	f.d.receiversMu.Lock()
	n := len(f.d.receivers)
	f.d.receiversMu.Unlock()
	if n != 0 {
		t.Errorf("%d receivers left after cancellation", n)
	}
}

func TestConnectionLossFailsPendingCalls(t *testing.T) {
	f := makeFixture(t, func(pb.Body) pb.Body { return nil }, nil)

	errs := make(chan error, 1)
	go func() {
		_, err := f.d.CallHost(context.Background(), pb.HostIdentityRequest{})
		errs <- err
	}()
	if _, err := hosttest.RetryFun(time.Second, func() (int, error) {
		if len(f.h.Requests()) == 0 {
			return 0, errors.New("request not received")
		}
		return 0, nil
	}); err != nil {
		t.Fatal(err)
	}
	f.h.Close()

	if err := <-errs; !errors.Is(err, ErrTransportClosed) {
		t.Errorf("pending CallHost() err = %v, want %v", err, ErrTransportClosed)
	}
	if err := <-f.done; !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Run() = %v, want %v", err, ErrTransportClosed)
	}
	if _, err := f.d.CallHost(context.Background(), pb.HostIdentityRequest{}); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("CallHost() after close err = %v, want %v", err, ErrTransportClosed)
	}
}

func TestUnmatchedResponseIsDropped(t *testing.T) {
	f := makeFixture(t, identityHost, nil)

	if err := f.h.SendRaw(&pb.Message{ID: 999, MessageType: pb.MessageTypeResponse, Body: pb.Empty{}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.d.CallHost(context.Background(), pb.HostIdentityRequest{}); err != nil {
		t.Errorf("CallHost() after unmatched response: %v", err)
	}
}

func TestNotifications(t *testing.T) {
	notes := make(chanNotifier, 1)
	f := makeFixture(t, identityHost, notes)

	round := uint64(10)
	want := pb.RuntimeNotifyRequest{RuntimeBlock: &round}
	reply := f.h.Send(want)
	if diff := cmp.Diff(want, <-notes); diff != "" {
		t.Errorf("Notify() mismatch (-want +got):\n%s", diff)
	}
	if got := <-reply; got != pb.Body(pb.Empty{}) {
		t.Errorf("host got reply %v, want Empty", got)
	}
}

func TestUnsupportedHostRequest(t *testing.T) {
	f := makeFixture(t, identityHost, nil)

	got := <-f.h.Send(pb.HostIdentityRequest{})
	if _, ok := got.(pb.Error); !ok {
		t.Errorf("host got reply %v, want Error", got)
	}
}
