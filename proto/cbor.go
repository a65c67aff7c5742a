// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package proto holds the messages exchanged between a runtime and its host,
// along with the CBOR encoding used for them.
package proto

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(fmt.Sprintf("cbor encoder: %v", err))
	}
	if decMode, err = (cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}).DecMode(); err != nil {
		panic(fmt.Sprintf("cbor decoder: %v", err))
	}
}

// Marshal encodes v using deterministic CBOR.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}
