// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package proto

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MessageType distinguishes requests from responses on the channel.
type MessageType uint8

const (
	MessageTypeInvalid  MessageType = 0
	MessageTypeRequest  MessageType = 1
	MessageTypeResponse MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeRequest:
		return "request"
	case MessageTypeResponse:
		return "response"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// Message is the envelope sent over the runtime host channel. Responses
// carry the ID of the request they answer.
type Message struct {
	ID          uint64
	MessageType MessageType
	Body        Body
}

type wireMessage struct {
	ID          uint64                     `cbor:"id"`
	MessageType MessageType                `cbor:"message_type"`
	Body        map[string]cbor.RawMessage `cbor:"body"`
}

var (
	ErrMissingBody = errors.New("message has no body")
	ErrUnknownBody = errors.New("unknown message body")
)

// MarshalCBOR encodes the body as a single entry map keyed by its variant name.
func (m *Message) MarshalCBOR() ([]byte, error) {
	if m.Body == nil {
		return nil, ErrMissingBody
	}
	inner, err := Marshal(m.Body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", m.Body.bodyName(), err)
	}
	return Marshal(&wireMessage{
		ID:          m.ID,
		MessageType: m.MessageType,
		Body:        map[string]cbor.RawMessage{m.Body.bodyName(): inner},
	})
}

func (m *Message) UnmarshalCBOR(data []byte) error {
	var w wireMessage
	if err := Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.MessageType {
	case MessageTypeRequest, MessageTypeResponse:
	default:
		return fmt.Errorf("invalid message type %v", w.MessageType)
	}
	if len(w.Body) != 1 {
		return fmt.Errorf("%w: body has %d variants", ErrMissingBody, len(w.Body))
	}
	for name, raw := range w.Body {
		decode, ok := bodyDecoders[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownBody, name)
		}
		body, err := decode(raw)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		m.Body = body
	}
	m.ID, m.MessageType = w.ID, w.MessageType
	return nil
}
