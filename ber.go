// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// BER primitives: tag/length/value framing, two's-complement integers,
// base-128 sub-identifiers. Everything here works on definite-length
// encodings only; the indefinite form is not legal in SNMP and is rejected.

package snmpq

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
)

// Tags for the value syntaxes and the ASN.1 universal types they build on.
// Application tags 0x40..0x47 come from the SMI (RFC 2578); the 0x8x tags are
// the v2c exception markers.
const (
	tagInteger     byte = 0x02
	tagOctetString byte = 0x04
	tagNull        byte = 0x05
	tagOID         byte = 0x06
	tagIPAddress   byte = 0x40
	tagCounter32   byte = 0x41
	tagGauge32     byte = 0x42
	tagTimeTicks   byte = 0x43
	tagOpaque      byte = 0x44
	tagCounter64   byte = 0x46
	tagUinteger32  byte = 0x47

	tagNoSuchObject   byte = 0x80
	tagNoSuchInstance byte = 0x81
	tagEndOfMibView   byte = 0x82
)

// marshalLength encodes a content length: one byte below 128, otherwise the
// long form with a minimal big-endian byte count.
func marshalLength(length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("invalid length %d", length)
	}
	if length < 128 {
		return []byte{byte(length)}, nil
	}
	var out []byte
	for l := length; l > 0; l >>= 8 {
		out = append([]byte{byte(l)}, out...)
	}
	return append([]byte{byte(0x80 | len(out))}, out...), nil
}

// parseLength reads the length field of the element starting at data[0] (the
// tag octet). It returns the total size of the element, header included, and
// the offset of the first content octet. Callers still need to bounds-check
// the total against the data they hold.
func parseLength(data []byte) (length, cursor int, err error) {
	if len(data) < 2 {
		return 0, 0, errors.New("truncated element header")
	}
	switch b := data[1]; {
	case b == 0x80:
		return 0, 0, errors.New("indefinite length not permitted")
	case b < 0x80:
		return int(b) + 2, 2, nil
	default:
		n := int(b & 0x7f)
		if n > 4 {
			return 0, 0, fmt.Errorf("length field of %d bytes too large", n)
		}
		if len(data) < 2+n {
			return 0, 0, errors.New("truncated length field")
		}
		var l uint64
		for _, octet := range data[2 : 2+n] {
			l = l<<8 | uint64(octet)
		}
		cursor = 2 + n
		if l > uint64(math.MaxInt32-cursor) {
			return 0, 0, fmt.Errorf("length %d too large", l)
		}
		return int(l) + cursor, cursor, nil
	}
}

// writeTLV frames content under tag into buf.
func writeTLV(buf *bytes.Buffer, tag byte, content []byte) error {
	lengthBytes, err := marshalLength(len(content))
	if err != nil {
		return err
	}
	buf.WriteByte(tag)
	buf.Write(lengthBytes)
	buf.Write(content)
	return nil
}

func writeTLVInt(buf *bytes.Buffer, tag byte, v int64) error {
	return writeTLV(buf, tag, appendInt(nil, v))
}

// parseTLV checks the leading tag and returns the content octets together
// with the full encoded size of the element.
func parseTLV(data []byte, tag byte) (content []byte, size int, err error) {
	if len(data) == 0 {
		return nil, 0, errors.New("truncated element")
	}
	if data[0] != tag {
		return nil, 0, fmt.Errorf("expected tag %#x, got %#x", tag, data[0])
	}
	length, cursor, err := parseLength(data)
	if err != nil {
		return nil, 0, err
	}
	if length > len(data) {
		return nil, 0, fmt.Errorf("element of %d bytes overruns %d remaining", length, len(data))
	}
	return data[cursor:length], length, nil
}

// appendInt appends the minimal two's-complement encoding of v, per X.690
// 8.3.2: the shortest byte string whose leading nine bits are not all equal.
func appendInt(dst []byte, v int64) []byte {
	n := 1
	for ; n < 8; n++ {
		if v >= -(int64(1)<<uint(8*n-1)) && v < int64(1)<<uint(8*n-1) {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>uint(8*i)))
	}
	return dst
}

// appendUint appends the minimal unsigned encoding of v, with a leading zero
// octet when the top bit is set so the value does not read back negative.
func appendUint(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	i := 0
	for ; i < 7; i++ {
		if b[i] != 0 {
			break
		}
	}
	if b[i]&0x80 != 0 {
		dst = append(dst, 0)
	}
	return append(dst, b[i:]...)
}

// appendBigInt appends the minimal two's-complement encoding of v. A nil v
// encodes as zero.
func appendBigInt(dst []byte, v *big.Int) []byte {
	switch {
	case v == nil || v.Sign() == 0:
		return append(dst, 0)
	case v.IsInt64():
		return appendInt(dst, v.Int64())
	case v.Sign() > 0:
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			dst = append(dst, 0)
		}
		return append(dst, b...)
	}
	// Negative and beyond int64: pick the least n with v >= -(2^(8n-1)),
	// then emit v + 2^(8n). The result always has its top bit set, so
	// Bytes() yields exactly n octets.
	mag := new(big.Int).Neg(v)
	n := (mag.BitLen() + 7) / 8
	limit := new(big.Int).Lsh(big.NewInt(1), uint(8*n-1))
	if mag.Cmp(limit) > 0 {
		n++
	}
	tc := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	tc.Add(tc, v)
	return append(dst, tc.Bytes()...)
}

// parseBigInt decodes a two's-complement integer of any width.
func parseBigInt(data []byte) (*big.Int, error) {
	if len(data) == 0 {
		return nil, errors.New("zero length integer")
	}
	v := new(big.Int).SetBytes(data)
	if data[0]&0x80 != 0 {
		shift := new(big.Int).Lsh(big.NewInt(1), uint(8*len(data)))
		v.Sub(v, shift)
	}
	return v, nil
}

// parseInt64 decodes a two's-complement integer of at most eight octets.
func parseInt64(data []byte) (int64, error) {
	if len(data) == 0 {
		return 0, errors.New("zero length integer")
	}
	if len(data) > 8 {
		return 0, errors.New("integer too large")
	}
	var v int64
	for _, b := range data {
		v = v<<8 | int64(b)
	}
	// Sign-extend from the width we actually read.
	v <<= 64 - uint(len(data))*8
	v >>= 64 - uint(len(data))*8
	return v, nil
}

// parseUint64 decodes an unsigned integer. Nine octets are accepted when the
// first is the zero pad that keeps a top-bit value non-negative.
func parseUint64(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, errors.New("zero length integer")
	}
	if len(data) > 9 || (len(data) == 9 && data[0] != 0) {
		return 0, errors.New("integer too large")
	}
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func parseUint32(data []byte) (uint32, error) {
	v, err := parseUint64(data)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, errors.New("integer exceeds 32 bits")
	}
	return uint32(v), nil
}

// appendBase128 appends v in the 7-bits-per-octet form used inside object
// identifiers, continuation bit on every octet but the last.
func appendBase128(dst []byte, v uint32) []byte {
	started := false
	for i := 4; i >= 0; i-- {
		b := byte(v>>uint(i*7)) & 0x7f
		if !started && i != 0 && b == 0 {
			continue
		}
		started = true
		if i != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

// parseBase128 reads one base-128 group starting at offset and returns the
// value and the offset just past it.
func parseBase128(data []byte, offset int) (uint32, int, error) {
	var v uint64
	for i := 0; i < 5; i++ {
		if offset >= len(data) {
			return 0, 0, errors.New("truncated sub-identifier")
		}
		b := data[offset]
		offset++
		v = v<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			if v > math.MaxUint32 {
				return 0, 0, errors.New("sub-identifier exceeds 32 bits")
			}
			return uint32(v), offset, nil
		}
	}
	return 0, 0, errors.New("sub-identifier exceeds 32 bits")
}

// marshalOID encodes the content octets of an OBJECT IDENTIFIER. The wire
// format packs the first two sub-identifiers into one group, which bounds
// what can be encoded: at least two sub-identifiers, the first in 0..2, and
// the second below 40 unless the first is 2.
func marshalOID(oid OID) ([]byte, error) {
	if len(oid) < 2 {
		return nil, fmt.Errorf("oid %q needs at least two sub-identifiers", oid.String())
	}
	if oid[0] > 2 {
		return nil, fmt.Errorf("oid %q: first sub-identifier must be 0, 1 or 2", oid.String())
	}
	if oid[0] < 2 && oid[1] >= 40 {
		return nil, fmt.Errorf("oid %q: second sub-identifier must be below 40", oid.String())
	}
	if oid[0] == 2 && oid[1] > math.MaxUint32-80 {
		return nil, fmt.Errorf("oid %q: second sub-identifier too large", oid.String())
	}
	out := appendBase128(make([]byte, 0, len(oid)+1), 40*oid[0]+oid[1])
	for _, sub := range oid[2:] {
		out = appendBase128(out, sub)
	}
	return out, nil
}

// parseOIDBytes decodes the content octets of an OBJECT IDENTIFIER.
func parseOIDBytes(data []byte) (OID, error) {
	if len(data) == 0 {
		return nil, errors.New("zero length object identifier")
	}
	first, offset, err := parseBase128(data, 0)
	if err != nil {
		return nil, err
	}
	oid := make(OID, 0, len(data)+1)
	switch {
	case first < 40:
		oid = append(oid, 0, first)
	case first < 80:
		oid = append(oid, 1, first-40)
	default:
		oid = append(oid, 2, first-80)
	}
	for offset < len(data) {
		var sub uint32
		sub, offset, err = parseBase128(data, offset)
		if err != nil {
			return nil, err
		}
		oid = append(oid, sub)
	}
	return oid, nil
}
