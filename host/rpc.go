// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package host

import (
	"context"
	"fmt"

	pb "github.com/signalapp/hostbridge/proto"
)

// hostRPCCall invokes method on a service behind the host's endpoint. The
// arguments are encoded into an RPCRequest, which is itself encoded into the
// opaque request of a HostRPCCallRequest. The response payload is decoded
// into Rs.
//
// Only local queries are made, so the node list is always empty, and at most
// one call is in flight per invocation, so the request id is always 0.
func hostRPCCall[Rq, Rs any](ctx context.Context, transport Transport, endpoint, method string, args Rq) (Rs, error) {
	var result Rs

	rawArgs, err := pb.Marshal(args)
	if err != nil {
		return result, fmt.Errorf("encoding %s arguments: %w", method, err)
	}
	request, err := pb.Marshal(&pb.RPCRequest{Method: method, Args: rawArgs})
	if err != nil {
		return result, fmt.Errorf("encoding %s request: %w", method, err)
	}

	resp, err := transport.CallHost(ctx, pb.HostRPCCallRequest{
		Endpoint:  endpoint,
		RequestID: 0,
		Request:   request,
		Kind:      pb.KindLocalQuery,
	})
	if err != nil {
		return result, err
	}
	switch v := resp.(type) {
	case pb.HostRPCCallResponse:
		if err := pb.Unmarshal(v.Response, &result); err != nil {
			return result, &DecodeError{Endpoint: endpoint, Method: method, Err: err}
		}
		return result, nil
	default:
		return result, badResponse("HostRPCCallResponse", resp)
	}
}
