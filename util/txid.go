// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package util

import "sync/atomic"

// TxGenerator provides unique ids used to correlate requests to the host
// with their responses
type TxGenerator struct {
	txcounter atomic.Uint64
}

// NextID returns a new unique id. Ids start at 1.
func (t *TxGenerator) NextID() uint64 {
	return t.txcounter.Add(1)
}
