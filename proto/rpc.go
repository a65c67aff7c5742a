// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package proto

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// RPCKind classifies a forwarded call.
type RPCKind uint8

const (
	// KindNoiseSession is a call over an encrypted session with a remote runtime.
	KindNoiseSession RPCKind = 0
	// KindInsecureQuery is an unauthenticated query to a remote runtime.
	KindInsecureQuery RPCKind = 1
	// KindLocalQuery is a query against a service on the local host.
	KindLocalQuery RPCKind = 2
)

func (k RPCKind) String() string {
	switch k {
	case KindNoiseSession:
		return "noise-session"
	case KindInsecureQuery:
		return "insecure-query"
	case KindLocalQuery:
		return "local-query"
	default:
		return fmt.Sprintf("RPCKind(%d)", uint8(k))
	}
}

// RPCRequest is the call record carried inside HostRPCCallRequest.Request.
// Args holds the already encoded argument value and is embedded inline.
type RPCRequest struct {
	Method string          `cbor:"method"`
	Args   cbor.RawMessage `cbor:"args"`
}
