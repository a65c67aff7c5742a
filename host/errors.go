// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package host

import (
	"errors"
	"fmt"

	"github.com/signalapp/hostbridge/logger"

	pb "github.com/signalapp/hostbridge/proto"
)

// ErrBadResponse means the host answered with a body other than the one the
// request calls for.
var ErrBadResponse = errors.New("bad response from host")

// DecodeError means a forwarded call got the right response body, but its
// payload could not be decoded into the expected result.
type DecodeError struct {
	Endpoint string
	Method   string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s %s response: %v", e.Endpoint, e.Method, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func badResponse(want string, got pb.Body) error {
	logger.Debugw("rejecting host response", "want", want, "got", pb.VariantName(got))
	return fmt.Errorf("%w: want %s, got %s", ErrBadResponse, want, pb.VariantName(got))
}
