// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package host_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/signalapp/hostbridge/dispatch"
	"github.com/signalapp/hostbridge/host"
	"github.com/signalapp/hostbridge/hosttest"
	"github.com/signalapp/hostbridge/util"

	pb "github.com/signalapp/hostbridge/proto"
)

const testTimeout = 5 * time.Second

func startBridge(t *testing.T, handler hosttest.Handler) (*host.Bridge, *hosttest.Host) {
	sim, conn := hosttest.New(t, handler)
	d := dispatch.New(conn, &util.TxGenerator{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return host.New(d, pb.Namespace{0x01}), sim
}

func TestBridgeOverConnection(t *testing.T) {
	node := pb.NodeID{0x4b}
	b, sim := startBridge(t, func(req pb.Body) pb.Body {
		switch v := req.(type) {
		case pb.HostIdentityRequest:
			return pb.HostIdentityResponse{NodeID: node}
		case pb.HostSubmitTxRequest:
			return pb.HostSubmitTxResponse{Output: v.Data, Round: 7, BatchOrder: 2}
		case pb.HostRegisterNotifyRequest:
			return pb.Empty{}
		case pb.HostRPCCallRequest:
			out, _ := pb.Marshal(host.VolumeListResponse{Volumes: []host.VolumeInfo{{ID: "v"}}})
			return pb.HostRPCCallResponse{Response: out}
		}
		return pb.Error{Module: "test", Code: 2, Message: "unexpected"}
	})
	ctx := context.Background()

	got, err := b.Identity(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != node {
		t.Errorf("Identity() = %v, want %v", got, node)
	}

	res, err := b.SubmitTx(ctx, []byte{1, 2, 3}, host.SubmitTxOpts{Wait: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&host.TxResult{Output: []byte{1, 2, 3}, Round: 7, BatchOrder: 2}, res); diff != "" {
		t.Errorf("SubmitTx() mismatch (-want +got):\n%s", diff)
	}

	if err := b.RegisterNotify(ctx, host.RegisterNotifyOpts{RuntimeBlock: true}); err != nil {
		t.Fatal(err)
	}

	vols, err := b.VolumeManager().VolumeList(ctx, host.VolumeListRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(host.VolumeListResponse{Volumes: []host.VolumeInfo{{ID: "v"}}}, vols); diff != "" {
		t.Errorf("VolumeList() mismatch (-want +got):\n%s", diff)
	}

	want := []string{"HostIdentityRequest", "HostSubmitTxRequest", "HostRegisterNotifyRequest", "HostRPCCallRequest"}
	var names []string
	for _, r := range sim.Requests() {
		names = append(names, pb.VariantName(r))
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("host saw (-want +got):\n%s", diff)
	}
}

func TestBridgeHostError(t *testing.T) {
	hostErr := pb.Error{Module: "registry", Code: 4, Message: "no such runtime"}
	b, _ := startBridge(t, func(pb.Body) pb.Body { return hostErr })

	_, err := b.Identity(context.Background())
	var got pb.Error
	if !errors.As(err, &got) {
		t.Fatalf("Identity() err = %v, want host error", err)
	}
	if got != hostErr {
		t.Errorf("host error = %v, want %v", got, hostErr)
	}
	if errors.Is(err, host.ErrBadResponse) {
		t.Error("host error reported as bad response")
	}
}

func TestBridgeWrongResponseOverConnection(t *testing.T) {
	b, _ := startBridge(t, func(pb.Body) pb.Body { return pb.Empty{} })
	if _, err := b.Identity(context.Background()); !errors.Is(err, host.ErrBadResponse) {
		t.Errorf("Identity() err = %v, want %v", err, host.ErrBadResponse)
	}
}

func TestBridgeConnectionLost(t *testing.T) {
	b, sim := startBridge(t, func(pb.Body) pb.Body { return nil })
	errCh := make(chan error, 1)
	go func() {
		_, err := b.Identity(context.Background())
		errCh <- err
	}()
	if _, err := hosttest.RetryFun(testTimeout, func() (int, error) {
		if n := len(sim.Requests()); n == 0 {
			return 0, errors.New("no request yet")
		}
		return 1, nil
	}); err != nil {
		t.Fatal(err)
	}
	sim.Close()
	if err := <-errCh; !errors.Is(err, dispatch.ErrTransportClosed) {
		t.Errorf("Identity() err = %v, want %v", err, dispatch.ErrTransportClosed)
	}
}
