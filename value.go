// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net"
	"time"
	"unicode/utf8"
)

// Value is the value carried by a varbind. It is a closed set: the only
// implementations are the types in this file plus OID, one per SNMPv2c value
// syntax. Consumers can switch over all of them exhaustively.
//
// The JSON form of every Value is an object {"syntax": ..., "value": ...}.
// Octet-valued syntaxes that are not valid UTF-8 marshal their bytes as an
// array of integers, so no value is ever dropped or mangled.
type Value interface {
	json.Marshaler

	// Syntax names the SMI syntax, e.g. "Counter32".
	Syntax() string

	isValue()
}

// Integer is the INTEGER syntax. The wire format carries any two's-complement
// width, so the value is kept with arbitrary precision.
type Integer struct {
	*big.Int
}

// NewInteger wraps v as an Integer.
func NewInteger(v int64) Integer {
	return Integer{big.NewInt(v)}
}

// Integer32 is a 32 bit INTEGER. It exists for building request values with
// a bounded range; decoding always produces Integer because the wire format
// does not distinguish the two.
type Integer32 int32

// OctetString is an arbitrary byte string. Many agents put readable text
// here, but nothing guarantees it.
type OctetString []byte

// IPAddress is the IpAddress syntax, an IPv4 address in network byte order.
type IPAddress [4]byte

// Counter32 is a 32 bit counter that wraps at 2^32-1.
type Counter32 uint32

// Unsigned32 covers the Gauge32 and Unsigned32 syntaxes, which share one tag.
type Unsigned32 uint32

// TimeTicks counts hundredths of a second.
type TimeTicks uint32

// Opaque is a byte string carrying an embedded encoding this package does not
// interpret.
type Opaque []byte

// Counter64 is a 64 bit counter.
type Counter64 uint64

func (Integer) isValue()     {}
func (Integer32) isValue()   {}
func (OctetString) isValue() {}
func (OID) isValue()         {}
func (IPAddress) isValue()   {}
func (Counter32) isValue()   {}
func (Unsigned32) isValue()  {}
func (TimeTicks) isValue()   {}
func (Opaque) isValue()      {}
func (Counter64) isValue()   {}

func (Integer) Syntax() string     { return "Integer" }
func (Integer32) Syntax() string   { return "Integer32" }
func (OctetString) Syntax() string { return "OctetString" }
func (OID) Syntax() string         { return "ObjectIdentifier" }
func (IPAddress) Syntax() string   { return "IpAddress" }
func (Counter32) Syntax() string   { return "Counter32" }
func (Unsigned32) Syntax() string  { return "Unsigned32" }
func (TimeTicks) Syntax() string   { return "TimeTicks" }
func (Opaque) Syntax() string      { return "Opaque" }
func (Counter64) Syntax() string   { return "Counter64" }

// String renders the bytes as text. Check utf8.Valid first if that matters.
func (v OctetString) String() string { return string(v) }

// String renders the address in dotted-quad form.
func (v IPAddress) String() string { return net.IP(v[:]).String() }

// Duration converts the tick count to a time.Duration.
func (v TimeTicks) Duration() time.Duration {
	return time.Duration(v) * 10 * time.Millisecond
}

func (v Integer) MarshalJSON() ([]byte, error) {
	n := v.Int
	if n == nil {
		n = new(big.Int)
	}
	return valueJSON("Integer", n)
}

func (v Integer32) MarshalJSON() ([]byte, error) {
	return valueJSON("Integer32", int32(v))
}

func (v OctetString) MarshalJSON() ([]byte, error) {
	if utf8.Valid(v) {
		return valueJSON("OctetString", string(v))
	}
	return valueJSON("OctetString", byteInts(v))
}

func (o OID) MarshalJSON() ([]byte, error) {
	return valueJSON("ObjectIdentifier", o.String())
}

func (v IPAddress) MarshalJSON() ([]byte, error) {
	return valueJSON("IpAddress", v.String())
}

func (v Counter32) MarshalJSON() ([]byte, error) {
	return valueJSON("Counter32", uint32(v))
}

func (v Unsigned32) MarshalJSON() ([]byte, error) {
	return valueJSON("Unsigned32", uint32(v))
}

func (v TimeTicks) MarshalJSON() ([]byte, error) {
	return valueJSON("TimeTicks", uint32(v))
}

func (v Opaque) MarshalJSON() ([]byte, error) {
	return valueJSON("Opaque", byteInts(v))
}

func (v Counter64) MarshalJSON() ([]byte, error) {
	return valueJSON("Counter64", uint64(v))
}

func valueJSON(syntax string, value interface{}) ([]byte, error) {
	return json.Marshal(struct {
		Syntax string      `json:"syntax"`
		Value  interface{} `json:"value"`
	}{syntax, value})
}

func byteInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// Boundary is the exception marker a v2c agent can put in a varbind instead
// of a value: the object does not exist (noSuchObject), the instance does not
// exist (noSuchInstance), or a walk ran off the end of the MIB (endOfMibView).
// Unspecified means the varbind carried a real value or a NULL placeholder.
type Boundary uint8

const (
	Unspecified Boundary = iota
	NoSuchObject
	NoSuchInstance
	EndOfMibView
)

func (b Boundary) String() string {
	switch b {
	case Unspecified:
		return "unspecified"
	case NoSuchObject:
		return "noSuchObject"
	case NoSuchInstance:
		return "noSuchInstance"
	case EndOfMibView:
		return "endOfMibView"
	}
	return fmt.Sprintf("boundary(%d)", uint8(b))
}
