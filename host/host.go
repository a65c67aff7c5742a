// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package host exposes the capabilities of the (untrusted) host node to a
// runtime as typed calls.
//
// Each call sends exactly one request body and accepts exactly one response
// body shape. Any other body, including one that would be a valid answer to
// a different request, fails with ErrBadResponse. Host supplied data is not
// otherwise verified here.
package host

import (
	"context"

	pb "github.com/signalapp/hostbridge/proto"
)

// Transport delivers a request body to the host and returns the correlated
// response body, or the reason none was received.
type Transport interface {
	CallHost(ctx context.Context, body pb.Body) (pb.Body, error)
}

// SubmitTxOpts are transaction submission options.
type SubmitTxOpts struct {
	// RuntimeID is the target runtime. If nil, the bridge's own runtime is used.
	RuntimeID *pb.Namespace
	// Wait until the transaction is included in a block.
	Wait bool
	// Request a proof of the transaction being included in a block.
	Prove bool
}

// TxResult is the outcome of a transaction submitted with Wait set.
type TxResult struct {
	// Output is the transaction output.
	Output []byte
	// Round in which the transaction was executed.
	Round uint64
	// BatchOrder is the order of the transaction in the execution batch.
	BatchOrder uint32
	// Proof is the inclusion proof, if one was requested and provided.
	Proof *pb.Proof
}

// RegisterNotifyOpts selects the notifications to receive.
type RegisterNotifyOpts struct {
	// RuntimeBlock subscribes to runtime block notifications.
	RuntimeBlock bool
	// RuntimeEvent subscribes to events with these tags. Empty means no
	// event subscription.
	RuntimeEvent [][]byte
}

// Host is the interface to the host node.
type Host interface {
	// Identity returns the identity of the host node.
	Identity(ctx context.Context) (pb.NodeID, error)
	// SubmitTx submits a transaction. The result is nil unless opts.Wait is set.
	SubmitTx(ctx context.Context, data []byte, opts SubmitTxOpts) (*TxResult, error)
	// RegisterNotify registers for receiving notifications.
	RegisterNotify(ctx context.Context, opts RegisterNotifyOpts) error
	// BundleManager returns the host's bundle manager.
	BundleManager() BundleManager
	// VolumeManager returns the host's volume manager.
	VolumeManager() VolumeManager
}

// Bridge implements Host on top of a Transport. It holds no mutable state
// and may be used concurrently.
type Bridge struct {
	transport Transport
	runtimeID pb.Namespace
}

var _ Host = (*Bridge)(nil)

// New returns a Bridge acting for the runtime runtimeID.
func New(transport Transport, runtimeID pb.Namespace) *Bridge {
	return &Bridge{transport: transport, runtimeID: runtimeID}
}

func (b *Bridge) Identity(ctx context.Context) (pb.NodeID, error) {
	resp, err := b.transport.CallHost(ctx, pb.HostIdentityRequest{})
	if err != nil {
		return pb.NodeID{}, err
	}
	switch v := resp.(type) {
	case pb.HostIdentityResponse:
		return v.NodeID, nil
	default:
		return pb.NodeID{}, badResponse("HostIdentityResponse", resp)
	}
}

func (b *Bridge) SubmitTx(ctx context.Context, data []byte, opts SubmitTxOpts) (*TxResult, error) {
	runtimeID := b.runtimeID
	if opts.RuntimeID != nil {
		runtimeID = *opts.RuntimeID
	}
	resp, err := b.transport.CallHost(ctx, pb.HostSubmitTxRequest{
		RuntimeID: runtimeID,
		Data:      data,
		Wait:      opts.Wait,
		Prove:     opts.Prove,
	})
	if err != nil {
		return nil, err
	}
	switch v := resp.(type) {
	case pb.HostSubmitTxResponse:
		if !opts.Wait {
			// If we didn't wait for inclusion then there is no result.
			return nil, nil
		}
		return &TxResult{
			Output:     v.Output,
			Round:      v.Round,
			BatchOrder: v.BatchOrder,
			Proof:      v.Proof,
		}, nil
	default:
		return nil, badResponse("HostSubmitTxResponse", resp)
	}
}

func (b *Bridge) RegisterNotify(ctx context.Context, opts RegisterNotifyOpts) error {
	req := pb.HostRegisterNotifyRequest{RuntimeBlock: opts.RuntimeBlock}
	if len(opts.RuntimeEvent) != 0 {
		req.RuntimeEvent = &pb.RegisterNotifyRuntimeEvent{Tags: opts.RuntimeEvent}
	}
	resp, err := b.transport.CallHost(ctx, req)
	if err != nil {
		return err
	}
	switch resp.(type) {
	case pb.Empty:
		return nil
	default:
		return badResponse("Empty", resp)
	}
}

func (b *Bridge) BundleManager() BundleManager {
	return &bundleManager{transport: b.transport}
}

func (b *Bridge) VolumeManager() VolumeManager {
	return &volumeManager{transport: b.transport}
}
