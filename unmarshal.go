// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import (
	"errors"
	"fmt"
	"math"
)

// unmarshalPacket decodes one SNMPv2c message. Any defect in the encoding
// comes back as an error wrapping ErrMalformedResponse; decoding never
// panics, whatever the input.
func unmarshalPacket(data []byte) (*Packet, error) {
	p, err := parsePacket(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return p, nil
}

func parsePacket(data []byte) (*Packet, error) {
	if len(data) == 0 {
		return nil, errors.New("empty message")
	}
	if data[0] != byte(Sequence) {
		return nil, fmt.Errorf("message starts with tag %#x, want sequence", data[0])
	}
	length, cursor, err := parseLength(data)
	if err != nil {
		return nil, err
	}
	if length > len(data) {
		return nil, fmt.Errorf("message of %d bytes overruns %d-byte datagram", length, len(data))
	}
	// Trailing padding after the message sequence is ignored; some agents
	// round datagrams up.
	data = data[:length]

	p := new(Packet)

	version, n, err := parseTLVInt(data[cursor:])
	if err != nil {
		return nil, fmt.Errorf("version: %v", err)
	}
	cursor += n
	if version != int64(Version2c) {
		return nil, fmt.Errorf("unsupported version %d", version)
	}
	p.Version = Version2c

	community, n, err := parseTLV(data[cursor:], tagOctetString)
	if err != nil {
		return nil, fmt.Errorf("community: %v", err)
	}
	cursor += n
	p.Community = string(community)

	if cursor >= len(data) {
		return nil, errors.New("message ends before the pdu")
	}
	switch t := PDUType(data[cursor]); t {
	case GetRequest, GetNextRequest, GetResponse, GetBulkRequest:
		p.PDUType = t
	default:
		return nil, fmt.Errorf("unsupported pdu type %#x", data[cursor])
	}
	return p, p.parsePDU(data[cursor:])
}

func (p *Packet) parsePDU(data []byte) error {
	length, cursor, err := parseLength(data)
	if err != nil {
		return err
	}
	if length > len(data) {
		return fmt.Errorf("pdu of %d bytes overruns %d remaining", length, len(data))
	}
	data = data[:length]

	id, n, err := parseTLVInt(data[cursor:])
	if err != nil {
		return fmt.Errorf("request id: %v", err)
	}
	cursor += n
	if id < math.MinInt32 || id > math.MaxInt32 {
		return fmt.Errorf("request id %d out of range", id)
	}
	p.RequestID = int32(id)

	if p.PDUType == GetBulkRequest {
		nonRepeaters, n, err := parseTLVInt(data[cursor:])
		if err != nil {
			return fmt.Errorf("non-repeaters: %v", err)
		}
		cursor += n
		if nonRepeaters < 0 || nonRepeaters > math.MaxUint8 {
			return fmt.Errorf("non-repeaters %d out of range", nonRepeaters)
		}
		p.NonRepeaters = uint8(nonRepeaters)

		maxRepetitions, n, err := parseTLVInt(data[cursor:])
		if err != nil {
			return fmt.Errorf("max-repetitions: %v", err)
		}
		cursor += n
		p.MaxRepetitions = uint32(maxRepetitions) & 0x7fffffff
	} else {
		status, n, err := parseTLVInt(data[cursor:])
		if err != nil {
			return fmt.Errorf("error-status: %v", err)
		}
		cursor += n
		p.ErrorStatus = ErrorStatus(status)

		index, n, err := parseTLVInt(data[cursor:])
		if err != nil {
			return fmt.Errorf("error-index: %v", err)
		}
		cursor += n
		if index < 0 || index > math.MaxInt32 {
			return fmt.Errorf("error-index %d out of range", index)
		}
		p.ErrorIndex = int(index)
	}

	return p.parseVarBindList(data[cursor:])
}

func (p *Packet) parseVarBindList(data []byte) error {
	if len(data) == 0 || data[0] != byte(Sequence) {
		return errors.New("missing varbind list")
	}
	length, cursor, err := parseLength(data)
	if err != nil {
		return err
	}
	// The list is the final element of the pdu, so it must account for
	// every remaining byte.
	if length != len(data) {
		return fmt.Errorf("varbind list of %d bytes, %d remaining in pdu", length, len(data))
	}

	for cursor < length {
		if data[cursor] != byte(Sequence) {
			return fmt.Errorf("varbind starts with tag %#x, want sequence", data[cursor])
		}
		inner, size, err := parseTLV(data[cursor:], byte(Sequence))
		if err != nil {
			return err
		}
		vb, err := parseVarBind(inner)
		if err != nil {
			return err
		}
		p.VarBinds = append(p.VarBinds, vb)
		cursor += size
	}
	return nil
}

func parseVarBind(data []byte) (VarBind, error) {
	oidBytes, n, err := parseTLV(data, tagOID)
	if err != nil {
		return VarBind{}, fmt.Errorf("varbind name: %v", err)
	}
	name, err := parseOIDBytes(oidBytes)
	if err != nil {
		return VarBind{}, fmt.Errorf("varbind name: %v", err)
	}

	value, boundary, size, err := decodeValue(data[n:])
	if err != nil {
		return VarBind{}, fmt.Errorf("varbind %v: %v", name, err)
	}
	if n+size != len(data) {
		return VarBind{}, fmt.Errorf("varbind %v has %d trailing bytes", name, len(data)-n-size)
	}
	return VarBind{Name: name, Value: value, Boundary: boundary}, nil
}

// decodeValue decodes one varbind value or exception marker. Each wire tag
// maps to exactly one Value type; a tag outside the supported set is an
// error, never a silent fallback.
func decodeValue(data []byte) (Value, Boundary, int, error) {
	if len(data) == 0 {
		return nil, Unspecified, 0, errors.New("truncated value")
	}
	length, cursor, err := parseLength(data)
	if err != nil {
		return nil, Unspecified, 0, err
	}
	if length > len(data) {
		return nil, Unspecified, 0, fmt.Errorf("value of %d bytes overruns %d remaining", length, len(data))
	}
	content := data[cursor:length]

	switch tag := data[0]; tag {
	case tagInteger:
		n, err := parseBigInt(content)
		if err != nil {
			return nil, Unspecified, 0, err
		}
		return Integer{n}, Unspecified, length, nil

	case tagOctetString:
		return OctetString(append([]byte(nil), content...)), Unspecified, length, nil

	case tagOID:
		oid, err := parseOIDBytes(content)
		if err != nil {
			return nil, Unspecified, 0, err
		}
		return oid, Unspecified, length, nil

	case tagIPAddress:
		if len(content) != 4 {
			return nil, Unspecified, 0, fmt.Errorf("ip address of %d bytes, want 4", len(content))
		}
		var ip IPAddress
		copy(ip[:], content)
		return ip, Unspecified, length, nil

	case tagCounter32:
		v, err := parseUint32(content)
		if err != nil {
			return nil, Unspecified, 0, err
		}
		return Counter32(v), Unspecified, length, nil

	case tagGauge32, tagUinteger32:
		v, err := parseUint32(content)
		if err != nil {
			return nil, Unspecified, 0, err
		}
		return Unsigned32(v), Unspecified, length, nil

	case tagTimeTicks:
		v, err := parseUint32(content)
		if err != nil {
			return nil, Unspecified, 0, err
		}
		return TimeTicks(v), Unspecified, length, nil

	case tagOpaque:
		return Opaque(append([]byte(nil), content...)), Unspecified, length, nil

	case tagCounter64:
		v, err := parseUint64(content)
		if err != nil {
			return nil, Unspecified, 0, err
		}
		return Counter64(v), Unspecified, length, nil

	case tagNull:
		return nil, Unspecified, length, nil

	case tagNoSuchObject:
		return nil, NoSuchObject, length, nil

	case tagNoSuchInstance:
		return nil, NoSuchInstance, length, nil

	case tagEndOfMibView:
		return nil, EndOfMibView, length, nil
	}
	return nil, Unspecified, 0, fmt.Errorf("unknown value tag %#x", data[0])
}

func parseTLVInt(data []byte) (int64, int, error) {
	content, size, err := parseTLV(data, tagInteger)
	if err != nil {
		return 0, 0, err
	}
	v, err := parseInt64(content)
	if err != nil {
		return 0, 0, err
	}
	return v, size, nil
}
