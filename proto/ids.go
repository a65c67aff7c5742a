// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package proto

import (
	"encoding/hex"
	"fmt"
)

const idSize = 32

// NodeID is the public key identifying a host node.
type NodeID [idSize]byte

// Namespace identifies a runtime.
type Namespace [idSize]byte

// Hash is a 256 bit digest, used to name bundle manifests.
type Hash [idSize]byte

func makeID(dst []byte, s []byte) error {
	if len(s) != idSize {
		return fmt.Errorf("incorrect id length %v", len(s))
	}
	copy(dst, s)
	return nil
}

func idFromHex(dst []byte, s string) error {
	if len(s) != 2*idSize {
		return fmt.Errorf("must provide 32-byte value as hex (64 characters)")
	}
	bs, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	return makeID(dst, bs)
}

func unmarshalID(dst []byte, data []byte) error {
	var bs []byte
	if err := Unmarshal(data, &bs); err != nil {
		return err
	}
	return makeID(dst, bs)
}

// MakeNodeID copies a 32 byte public key into a NodeID.
func MakeNodeID(s []byte) (NodeID, error) {
	var out NodeID
	err := makeID(out[:], s)
	return out, err
}

// NodeIDFromHex parses a hexadecimal formatted NodeID.
func NodeIDFromHex(s string) (NodeID, error) {
	var out NodeID
	err := idFromHex(out[:], s)
	return out, err
}

// String returns the full hexadecimal form of the key.
func (n NodeID) String() string { return hex.EncodeToString(n[:]) }

// Set implements flag.Value.
func (n *NodeID) Set(in string) error { return idFromHex(n[:], in) }

func (n NodeID) MarshalCBOR() ([]byte, error) { return Marshal(n[:]) }

func (n *NodeID) UnmarshalCBOR(data []byte) error { return unmarshalID(n[:], data) }

// MarshalText renders the id as hex in JSON and YAML.
func (n NodeID) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// MakeNamespace copies a 32 byte runtime identifier into a Namespace.
func MakeNamespace(s []byte) (Namespace, error) {
	var out Namespace
	err := makeID(out[:], s)
	return out, err
}

// NamespaceFromHex parses a hexadecimal formatted Namespace.
func NamespaceFromHex(s string) (Namespace, error) {
	var out Namespace
	err := idFromHex(out[:], s)
	return out, err
}

func (n Namespace) String() string { return hex.EncodeToString(n[:]) }

// Set implements flag.Value.
func (n *Namespace) Set(in string) error { return idFromHex(n[:], in) }

func (n Namespace) MarshalCBOR() ([]byte, error) { return Marshal(n[:]) }

func (n *Namespace) UnmarshalCBOR(data []byte) error { return unmarshalID(n[:], data) }

func (n Namespace) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// String returns an 8-char hexadecimal prefix of the hash.
func (h Hash) String() string { return hex.EncodeToString(h[:4]) }

// Set implements flag.Value.
func (h *Hash) Set(in string) error { return idFromHex(h[:], in) }

func (h Hash) MarshalCBOR() ([]byte, error) { return Marshal(h[:]) }

func (h *Hash) UnmarshalCBOR(data []byte) error { return unmarshalID(h[:], data) }

// MarshalText renders the full hash, not the String prefix.
func (h Hash) MarshalText() ([]byte, error) { return []byte(hex.EncodeToString(h[:])), nil }
