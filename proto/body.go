// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package proto

import (
	"github.com/fxamacker/cbor/v2"
)

// Body is the payload of a Message. The set of bodies is closed: only the
// types declared in this file implement it.
type Body interface {
	bodyName() string
}

// Empty is a successful response that carries no payload.
type Empty struct{}

// HostIdentityRequest asks the host for its node identity.
type HostIdentityRequest struct{}

// HostIdentityResponse carries the host's node identity.
type HostIdentityResponse struct {
	NodeID NodeID `cbor:"node_id"`
}

// HostSubmitTxRequest asks the host to submit a runtime transaction.
type HostSubmitTxRequest struct {
	// RuntimeID is the identifier of the target runtime.
	RuntimeID Namespace `cbor:"runtime_id"`
	// Data is the raw transaction data.
	Data []byte `cbor:"data"`
	// Wait specifies whether the call should wait until the transaction is included in a block.
	Wait bool `cbor:"wait,omitempty"`
	// Prove specifies whether the response should include an inclusion proof.
	Prove bool `cbor:"prove,omitempty"`
}

// HostSubmitTxResponse is the host's answer to a HostSubmitTxRequest.
type HostSubmitTxResponse struct {
	Output     []byte `cbor:"output,omitempty"`
	Round      uint64 `cbor:"round,omitempty"`
	BatchOrder uint32 `cbor:"batch_order,omitempty"`
	Proof      *Proof `cbor:"proof,omitempty"`
}

// Proof is an inclusion proof produced by the storage sync subsystem. It is
// carried verbatim and never inspected here.
type Proof struct {
	cbor.RawMessage
}

// RegisterNotifyRuntimeEvent selects the event tags to be notified about.
type RegisterNotifyRuntimeEvent struct {
	Tags [][]byte `cbor:"tags"`
}

// HostRegisterNotifyRequest registers the runtime for host notifications.
type HostRegisterNotifyRequest struct {
	RuntimeBlock bool                        `cbor:"runtime_block,omitempty"`
	RuntimeEvent *RegisterNotifyRuntimeEvent `cbor:"runtime_event,omitempty"`
}

// HostRPCCallRequest forwards an opaque method call to a host-side service.
type HostRPCCallRequest struct {
	Endpoint  string   `cbor:"endpoint"`
	RequestID uint64   `cbor:"request_id"`
	Request   []byte   `cbor:"request"`
	Kind      RPCKind  `cbor:"kind"`
	Nodes     []NodeID `cbor:"nodes,omitempty"`
}

// HostRPCCallResponse carries the opaque result of a forwarded call.
type HostRPCCallResponse struct {
	Response []byte  `cbor:"response"`
	Node     *NodeID `cbor:"node,omitempty"`
}

// RuntimeNotifyEvent is an event emitted in a runtime block.
type RuntimeNotifyEvent struct {
	Round uint64   `cbor:"round"`
	Tags  [][]byte `cbor:"tags"`
}

// RuntimeNotifyRequest is a notification pushed from the host to a
// registered runtime.
type RuntimeNotifyRequest struct {
	RuntimeBlock *uint64            `cbor:"runtime_block,omitempty"`
	RuntimeEvent *RuntimeNotifyEvent `cbor:"runtime_event,omitempty"`
}

func (Empty) bodyName() string                { return "Empty" }
func (Error) bodyName() string                { return "Error" }
func (HostIdentityRequest) bodyName() string  { return "HostIdentityRequest" }
func (HostIdentityResponse) bodyName() string { return "HostIdentityResponse" }
func (HostSubmitTxRequest) bodyName() string  { return "HostSubmitTxRequest" }
func (HostSubmitTxResponse) bodyName() string { return "HostSubmitTxResponse" }
func (HostRegisterNotifyRequest) bodyName() string {
	return "HostRegisterNotifyRequest"
}
func (HostRPCCallRequest) bodyName() string   { return "HostRPCCallRequest" }
func (HostRPCCallResponse) bodyName() string  { return "HostRPCCallResponse" }
func (RuntimeNotifyRequest) bodyName() string { return "RuntimeNotifyRequest" }

// bodyDecoders maps wire tags to the decoder for the matching body.
var bodyDecoders = map[string]func([]byte) (Body, error){
	"Empty":                     decodeBody[Empty],
	"Error":                     decodeBody[Error],
	"HostIdentityRequest":       decodeBody[HostIdentityRequest],
	"HostIdentityResponse":      decodeBody[HostIdentityResponse],
	"HostSubmitTxRequest":       decodeBody[HostSubmitTxRequest],
	"HostSubmitTxResponse":      decodeBody[HostSubmitTxResponse],
	"HostRegisterNotifyRequest": decodeBody[HostRegisterNotifyRequest],
	"HostRPCCallRequest":        decodeBody[HostRPCCallRequest],
	"HostRPCCallResponse":       decodeBody[HostRPCCallResponse],
	"RuntimeNotifyRequest":      decodeBody[RuntimeNotifyRequest],
}

func decodeBody[T Body](data []byte) (Body, error) {
	var v T
	if err := Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// VariantName returns the wire tag of b, or "<nil>".
func VariantName(b Body) string {
	if b == nil {
		return "<nil>"
	}
	return b.bodyName()
}
