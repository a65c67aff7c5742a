// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package proto

import (
	"fmt"
)

// Error is a failure reported by the host in place of a response body.
type Error struct {
	Module  string `cbor:"module,omitempty"`
	Code    uint32 `cbor:"code,omitempty"`
	Message string `cbor:"message,omitempty"`
}

// Error implements the `error` interface on the `Error` body.
func (e Error) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("host error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("host error %s/%d: %s", e.Module, e.Code, e.Message)
}
