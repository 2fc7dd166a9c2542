// Package osc implements the OSC (Open Sound Control) wire format and the
// pattern-addressed method table described in spec §4.I: parsing
// datagrams into (path, type-signature, arguments), and dispatching them
// to handlers that may be installed and removed while dispatch is live.
package osc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Message is a parsed OSC message: an address path, a type-tag string
// (without the leading ','), and the decoded argument vector. Supported
// argument types are int32, float32, and string — the only types the
// external interface table in spec §6 ever uses.
type Message struct {
	Path  string
	Types string
	Args  []interface{}
}

// ErrMalformed is returned for any packet that isn't a well-formed OSC
// message or bundle.
var ErrMalformed = errors.New("malformed osc packet")

const bundleTag = "#bundle\x00"

// ParsePacket decodes a datagram into zero or more messages. A plain
// message decodes to a single-element slice. A bundle is unwrapped
// recursively and its elements are returned in wire order; this
// implementation treats the bundle timestamp as advisory only and never
// schedules — every element dispatches immediately, matching
// SPEC_FULL.md §4.I ("bundle and timestamp forms are accepted on read
// but never emitted").
func ParsePacket(data []byte) ([]Message, error) {
	if len(data) >= len(bundleTag) && string(data[:len(bundleTag)]) == bundleTag {
		return parseBundle(data)
	}
	msg, err := ParseMessage(data)
	if err != nil {
		return nil, err
	}
	return []Message{msg}, nil
}

func parseBundle(data []byte) ([]Message, error) {
	rest := data[len(bundleTag):]
	if len(rest) < 8 {
		return nil, ErrMalformed
	}
	rest = rest[8:] // skip the 64-bit NTP timestamp

	var out []Message
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, ErrMalformed
		}
		size := int(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
		if size < 0 || size > len(rest) {
			return nil, ErrMalformed
		}
		elem := rest[:size]
		rest = rest[size:]

		msgs, err := ParsePacket(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

// ParseMessage decodes a single (non-bundle) OSC message.
func ParseMessage(data []byte) (Message, error) {
	path, rest, err := readString(data)
	if err != nil {
		return Message{}, fmt.Errorf("osc path: %w", err)
	}
	if path == "" || path[0] != '/' {
		return Message{}, fmt.Errorf("%w: path %q must start with /", ErrMalformed, path)
	}

	tagStr, rest, err := readString(rest)
	if err != nil {
		return Message{}, fmt.Errorf("osc typetag: %w", err)
	}
	if len(tagStr) == 0 || tagStr[0] != ',' {
		return Message{}, fmt.Errorf("%w: typetag %q must start with ,", ErrMalformed, tagStr)
	}
	types := tagStr[1:]

	args := make([]interface{}, 0, len(types))
	for _, tag := range types {
		switch tag {
		case 'i':
			if len(rest) < 4 {
				return Message{}, fmt.Errorf("%w: truncated int32", ErrMalformed)
			}
			args = append(args, int32(binary.BigEndian.Uint32(rest[:4])))
			rest = rest[4:]
		case 'f':
			if len(rest) < 4 {
				return Message{}, fmt.Errorf("%w: truncated float32", ErrMalformed)
			}
			bits := binary.BigEndian.Uint32(rest[:4])
			args = append(args, math.Float32frombits(bits))
			rest = rest[4:]
		case 's':
			var s string
			s, rest, err = readString(rest)
			if err != nil {
				return Message{}, fmt.Errorf("osc string arg: %w", err)
			}
			args = append(args, s)
		default:
			return Message{}, fmt.Errorf("%w: unsupported type tag %q", ErrMalformed, tag)
		}
	}

	return Message{Path: path, Types: types, Args: args}, nil
}

// readString reads a null-terminated, 4-byte-padded OSC string and
// returns it along with the remaining buffer.
func readString(data []byte) (string, []byte, error) {
	n := 0
	for n < len(data) && data[n] != 0 {
		n++
	}
	if n == len(data) {
		return "", nil, fmt.Errorf("%w: unterminated string", ErrMalformed)
	}
	s := string(data[:n])
	padded := (n + 4) &^ 3 // round n+1 up to a multiple of 4
	if padded > len(data) {
		return "", nil, fmt.Errorf("%w: truncated string padding", ErrMalformed)
	}
	return s, data[padded:], nil
}

// writeString appends s null-terminated and zero-padded to a 4-byte
// boundary, OSC-style.
func writeString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	buf = append(buf, 0)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// Marshal encodes m back to wire format. Used by tests and by any
// future loopback/replay tooling; the server itself never needs to
// marshal incoming traffic.
func (m Message) Marshal() []byte {
	buf := writeString(nil, m.Path)
	buf = writeString(buf, ","+m.Types)
	for i, tag := range m.Types {
		switch tag {
		case 'i':
			v := m.Args[i].(int32)
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], uint32(v))
			buf = append(buf, tmp[:]...)
		case 'f':
			v := m.Args[i].(float32)
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v))
			buf = append(buf, tmp[:]...)
		case 's':
			buf = writeString(buf, m.Args[i].(string))
		}
	}
	return buf
}
