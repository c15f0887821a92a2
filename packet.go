// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import (
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"sync/atomic"
)

// Version is the version field of an SNMP message. Only v2c is spoken here;
// decoding rejects everything else.
type Version uint8

// Version2c is the wire value for SNMPv2c.
const Version2c Version = 0x1

func (v Version) String() string {
	if v == Version2c {
		return "2c"
	}
	return fmt.Sprintf("version(%d)", uint8(v))
}

// PDUType is the context-specific tag that starts a PDU, and doubles as the
// SEQUENCE tag used to frame messages and varbinds.
type PDUType byte

const (
	Sequence       PDUType = 0x30
	GetRequest     PDUType = 0xa0
	GetNextRequest PDUType = 0xa1
	GetResponse    PDUType = 0xa2
	SetRequest     PDUType = 0xa3
	GetBulkRequest PDUType = 0xa5
)

func (t PDUType) String() string {
	switch t {
	case Sequence:
		return "Sequence"
	case GetRequest:
		return "GetRequest"
	case GetNextRequest:
		return "GetNextRequest"
	case GetResponse:
		return "GetResponse"
	case SetRequest:
		return "SetRequest"
	case GetBulkRequest:
		return "GetBulkRequest"
	}
	return fmt.Sprintf("pduType(%#x)", byte(t))
}

// VarBind is one name/value pair from a PDU. In requests Value is nil and
// Boundary is Unspecified, which encodes as a NULL placeholder. In responses
// a nil Value with a non-zero Boundary is one of the v2c exception markers.
type VarBind struct {
	Name     OID
	Value    Value
	Boundary Boundary
}

// Packet is one decoded SNMPv2c message. NonRepeaters and MaxRepetitions are
// meaningful only when PDUType is GetBulkRequest; they share wire positions
// with ErrorStatus and ErrorIndex.
type Packet struct {
	Version   Version
	Community string

	PDUType        PDUType
	RequestID      int32
	ErrorStatus    ErrorStatus
	ErrorIndex     int
	NonRepeaters   uint8
	MaxRepetitions uint32

	VarBinds []VarBind
}

// Target names the agent a request goes to. A zero Port means DefaultPort.
type Target struct {
	Host      string
	Port      uint16
	Community string
}

func (t Target) addr() string {
	port := int(t.Port)
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// String renders the network address. The community string is deliberately
// not included.
func (t Target) String() string { return t.addr() }

// Request ids only need to tell concurrent requests apart, so a counter
// seeded at startup is enough. Values stay in the positive int32 range.
var requestIDCounter = rand.Uint32()

func nextRequestID() int32 {
	return int32(atomic.AddUint32(&requestIDCounter, 1) & 0x7fffffff)
}

func newGetRequest(community string, oids []OID) *Packet {
	varBinds := make([]VarBind, 0, len(oids))
	for _, oid := range oids {
		varBinds = append(varBinds, VarBind{Name: oid})
	}
	return &Packet{
		Version:   Version2c,
		Community: community,
		PDUType:   GetRequest,
		RequestID: nextRequestID(),
		VarBinds:  varBinds,
	}
}

func newGetBulkRequest(community string, root OID, maxRepetitions uint32) *Packet {
	return &Packet{
		Version:   Version2c,
		Community: community,
		PDUType:   GetBulkRequest,
		RequestID: nextRequestID(),
		// The field is an INTEGER, so values past 2^31-1 would flip sign.
		MaxRepetitions: maxRepetitions & 0x7fffffff,
		VarBinds:       []VarBind{{Name: root}},
	}
}

// BindingsMap converts varbinds to a map from dotted-decimal name to value,
// the shape most callers serialize. Varbinds without a value (placeholders
// and exception markers) are skipped.
func BindingsMap(varBinds []VarBind) map[string]Value {
	m := make(map[string]Value, len(varBinds))
	for _, vb := range varBinds {
		if vb.Value == nil {
			continue
		}
		m[vb.Name.String()] = vb.Value
	}
	return m
}
