// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import (
	"bytes"
	"fmt"
)

// marshal encodes the packet as one SNMPv2c message:
//
//	SEQUENCE { version INTEGER, community OCTET STRING, pdu }
func (p *Packet) marshal() ([]byte, error) {
	buf := new(bytes.Buffer)

	// version
	buf.Write([]byte{tagInteger, 1, byte(p.Version)})

	// community
	if err := writeTLV(buf, tagOctetString, []byte(p.Community)); err != nil {
		return nil, err
	}

	pdu, err := p.marshalPDU()
	if err != nil {
		return nil, err
	}
	buf.Write(pdu)

	// wrap it all up in the message sequence
	msg := new(bytes.Buffer)
	msg.WriteByte(byte(Sequence))
	lengthBytes, err := marshalLength(buf.Len())
	if err != nil {
		return nil, err
	}
	msg.Write(lengthBytes)
	if _, err := buf.WriteTo(msg); err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

func (p *Packet) marshalPDU() ([]byte, error) {
	buf := new(bytes.Buffer)

	// request id
	if err := writeTLVInt(buf, tagInteger, int64(p.RequestID)); err != nil {
		return nil, err
	}

	// A GETBULK carries non-repeaters and max-repetitions where every other
	// PDU carries error-status and error-index.
	if p.PDUType == GetBulkRequest {
		if err := writeTLVInt(buf, tagInteger, int64(p.NonRepeaters)); err != nil {
			return nil, err
		}
		if err := writeTLVInt(buf, tagInteger, int64(p.MaxRepetitions&0x7fffffff)); err != nil {
			return nil, err
		}
	} else {
		if err := writeTLVInt(buf, tagInteger, int64(p.ErrorStatus)); err != nil {
			return nil, err
		}
		if err := writeTLVInt(buf, tagInteger, int64(p.ErrorIndex)); err != nil {
			return nil, err
		}
	}

	varBinds, err := marshalVarBindList(p.VarBinds)
	if err != nil {
		return nil, err
	}
	buf.Write(varBinds)

	pdu := new(bytes.Buffer)
	pdu.WriteByte(byte(p.PDUType))
	lengthBytes, err := marshalLength(buf.Len())
	if err != nil {
		return nil, err
	}
	pdu.Write(lengthBytes)
	if _, err := buf.WriteTo(pdu); err != nil {
		return nil, err
	}
	return pdu.Bytes(), nil
}

func marshalVarBindList(varBinds []VarBind) ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, vb := range varBinds {
		encoded, err := marshalVarBind(vb)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}

	list := new(bytes.Buffer)
	list.WriteByte(byte(Sequence))
	lengthBytes, err := marshalLength(buf.Len())
	if err != nil {
		return nil, err
	}
	list.Write(lengthBytes)
	if _, err := buf.WriteTo(list); err != nil {
		return nil, err
	}
	return list.Bytes(), nil
}

func marshalVarBind(vb VarBind) ([]byte, error) {
	oidBytes, err := marshalOID(vb.Name)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := writeTLV(buf, tagOID, oidBytes); err != nil {
		return nil, err
	}

	switch v := vb.Value.(type) {
	case nil:
		switch vb.Boundary {
		case Unspecified:
			buf.Write([]byte{tagNull, 0})
		case NoSuchObject:
			buf.Write([]byte{tagNoSuchObject, 0})
		case NoSuchInstance:
			buf.Write([]byte{tagNoSuchInstance, 0})
		case EndOfMibView:
			buf.Write([]byte{tagEndOfMibView, 0})
		default:
			return nil, fmt.Errorf("cannot marshal %v", vb.Boundary)
		}
	case Integer:
		err = writeTLV(buf, tagInteger, appendBigInt(nil, v.Int))
	case Integer32:
		err = writeTLV(buf, tagInteger, appendInt(nil, int64(v)))
	case OctetString:
		err = writeTLV(buf, tagOctetString, v)
	case OID:
		var content []byte
		if content, err = marshalOID(v); err == nil {
			err = writeTLV(buf, tagOID, content)
		}
	case IPAddress:
		err = writeTLV(buf, tagIPAddress, v[:])
	case Counter32:
		err = writeTLV(buf, tagCounter32, appendUint(nil, uint64(v)))
	case Unsigned32:
		err = writeTLV(buf, tagGauge32, appendUint(nil, uint64(v)))
	case TimeTicks:
		err = writeTLV(buf, tagTimeTicks, appendUint(nil, uint64(v)))
	case Opaque:
		err = writeTLV(buf, tagOpaque, v)
	case Counter64:
		err = writeTLV(buf, tagCounter64, appendUint(nil, uint64(v)))
	default:
		return nil, fmt.Errorf("cannot marshal value of type %T", vb.Value)
	}
	if err != nil {
		return nil, err
	}

	pair := new(bytes.Buffer)
	pair.WriteByte(byte(Sequence))
	lengthBytes, err := marshalLength(buf.Len())
	if err != nil {
		return nil, err
	}
	pair.Write(lengthBytes)
	if _, err := buf.WriteTo(pair); err != nil {
		return nil, err
	}
	return pair.Bytes(), nil
}
