// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package proto

import (
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
)

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	bs, err := Marshal(v)
	if err != nil {
		t.Fatalf("marshal %T: %v", v, err)
	}
	return bs
}

func TestMessageRoundTrip(t *testing.T) {
	node := NodeID{1, 2, 3}
	round := uint64(12)
	for _, body := range []Body{
		Empty{},
		Error{Module: "rhp", Code: 1, Message: "nope"},
		HostIdentityRequest{},
		HostIdentityResponse{NodeID: node},
		HostSubmitTxRequest{RuntimeID: Namespace{9}, Data: []byte{1, 2, 3}, Wait: true},
		HostSubmitTxResponse{Output: []byte{9, 9}, Round: 7, BatchOrder: 2, Proof: &Proof{RawMessage: mustMarshal(t, "proof")}},
		HostRegisterNotifyRequest{RuntimeBlock: true, RuntimeEvent: &RegisterNotifyRuntimeEvent{Tags: [][]byte{{1}, {2}}}},
		HostRPCCallRequest{Endpoint: "bundle-manager", Request: []byte{0xa0}, Kind: KindLocalQuery},
		HostRPCCallResponse{Response: []byte{0xf6}, Node: &node},
		RuntimeNotifyRequest{RuntimeBlock: &round},
	} {
		in := &Message{ID: 5, MessageType: MessageTypeResponse, Body: body}
		var out Message
		if err := Unmarshal(mustMarshal(t, in), &out); err != nil {
			t.Fatalf("%s: unmarshal: %v", VariantName(body), err)
		}
		if diff := cmp.Diff(*in, out); diff != "" {
			t.Errorf("%s: round trip mismatch (-want +got):\n%s", VariantName(body), diff)
		}
	}
}

func TestMessageBodyIsSingleKeyMap(t *testing.T) {
	bs := mustMarshal(t, &Message{ID: 1, MessageType: MessageTypeRequest, Body: HostIdentityRequest{}})
	var raw map[string]interface{}
	if err := Unmarshal(bs, &raw); err != nil {
		t.Fatal(err)
	}
	body, ok := raw["body"].(map[interface{}]interface{})
	if !ok {
		t.Fatalf("body = %T, want map", raw["body"])
	}
	if _, ok := body["HostIdentityRequest"]; !ok || len(body) != 1 {
		t.Errorf("body = %v, want single HostIdentityRequest key", body)
	}
}

func TestMessageRejectsMalformedBodies(t *testing.T) {
	empty := mustMarshal(t, struct{}{})
	for name, body := range map[string]map[string]cbor.RawMessage{
		"none":    {},
		"two":     {"Empty": empty, "HostIdentityRequest": empty},
		"unknown": {"HostTeleportRequest": empty},
	} {
		bs := mustMarshal(t, &wireMessage{ID: 1, MessageType: MessageTypeResponse, Body: body})
		var m Message
		if err := Unmarshal(bs, &m); err == nil {
			t.Errorf("%s: Unmarshal succeeded with body %v", name, m.Body)
		}
	}

	bs := mustMarshal(t, &wireMessage{ID: 1, MessageType: MessageTypeInvalid, Body: map[string]cbor.RawMessage{"Empty": empty}})
	var m Message
	if err := Unmarshal(bs, &m); err == nil {
		t.Error("Unmarshal accepted invalid message type")
	}
}

func TestMessageWithoutBody(t *testing.T) {
	if _, err := Marshal(&Message{ID: 1, MessageType: MessageTypeRequest}); !errors.Is(err, ErrMissingBody) {
		t.Errorf("Marshal() err = %v, want %v", err, ErrMissingBody)
	}
}

func TestRegisterNotifyOmitsNilEvent(t *testing.T) {
	var raw map[string]interface{}
	if err := Unmarshal(mustMarshal(t, HostRegisterNotifyRequest{RuntimeBlock: true}), &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["runtime_event"]; ok {
		t.Errorf("runtime_event present in %v", raw)
	}
}

func TestVariantName(t *testing.T) {
	if got := VariantName(nil); got != "<nil>" {
		t.Errorf("VariantName(nil) = %q", got)
	}
	if got := VariantName(HostRPCCallResponse{}); got != "HostRPCCallResponse" {
		t.Errorf("VariantName() = %q", got)
	}
}
