// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import (
	"errors"
	"flag"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pcapDir = flag.String("pcap", "", "directory for expected and actual wire bytes as pcap files, none written if blank")

// integerComparer compares Integer varbinds by numeric value, since distinct
// big.Int allocations never compare equal structurally.
var integerComparer = cmp.Comparer(func(a, b Integer) bool {
	if a.Int == nil || b.Int == nil {
		return (a.Int == nil) && (b.Int == nil)
	}
	return a.Int.Cmp(b.Int) == 0
})

/*
Wire fixtures are tcpdump captures with the Ethernet, IP and UDP layers
stripped, so byte 0 is the start of the SNMP message. Feed a fixture through
`-pcap <dir>` and open the result in wireshark to dissect it again.
*/

/*
printerResponseBytes is a GetResponse from a printer:

Simple Network Management Protocol

	version: v2c (1)
	community: public
	data: get-response (2)
	  get-response
	    request-id: 1066889284
	    error-status: noError (0)
	    error-index: 0
	    variable-bindings: 8 items
	      1.3.6.1.2.1.1.7.0: 104
	      1.3.6.1.2.1.2.2.1.10.1: 271070065 (Counter32)
	      1.3.6.1.2.1.2.2.1.5.1: 100000000 (Gauge32)
	      1.3.6.1.2.1.1.4.0: "Administrator"
	      1.3.6.1.2.1.43.5.1.1.15.1: Value (Null)
	      1.3.6.1.2.1.4.21.1.1.127.0.0.1: 127.0.0.1 (IpAddress)
	      1.3.6.1.4.1.23.2.5.1.1.1.4.2: 00159937762b (a MAC, not UTF-8)
	      1.3.6.1.2.1.1.3.0: 318870100 (TimeTicks)
*/
func printerResponseBytes() []byte {
	return []byte{
		0x30, 0x81, 0xc2, 0x02, 0x01, 0x01, 0x04, 0x06, 0x70, 0x75, 0x62, 0x6c,
		0x69, 0x63, 0xa2, 0x81, 0xb4, 0x02, 0x04, 0x3f, 0x97, 0x70, 0x44, 0x02,
		0x01, 0x00, 0x02, 0x01, 0x00, 0x30, 0x81, 0xa5, 0x30, 0x0d, 0x06, 0x08,
		0x2b, 0x06, 0x01, 0x02, 0x01, 0x01, 0x07, 0x00, 0x02, 0x01, 0x68, 0x30,
		0x12, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x0a,
		0x01, 0x41, 0x04, 0x10, 0x28, 0x33, 0x71, 0x30, 0x12, 0x06, 0x0a, 0x2b,
		0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x05, 0x01, 0x42, 0x04, 0x05,
		0xf5, 0xe1, 0x00, 0x30, 0x19, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01,
		0x01, 0x04, 0x00, 0x04, 0x0d, 0x41, 0x64, 0x6d, 0x69, 0x6e, 0x69, 0x73,
		0x74, 0x72, 0x61, 0x74, 0x6f, 0x72, 0x30, 0x0f, 0x06, 0x0b, 0x2b, 0x06,
		0x01, 0x02, 0x01, 0x2b, 0x05, 0x01, 0x01, 0x0f, 0x01, 0x05, 0x00, 0x30,
		0x15, 0x06, 0x0d, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x04, 0x15, 0x01, 0x01,
		0x7f, 0x00, 0x00, 0x01, 0x40, 0x04, 0x7f, 0x00, 0x00, 0x01, 0x30, 0x17,
		0x06, 0x0d, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x17, 0x02, 0x05, 0x01, 0x01,
		0x01, 0x04, 0x02, 0x04, 0x06, 0x00, 0x15, 0x99, 0x37, 0x76, 0x2b, 0x30,
		0x10, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x01, 0x03, 0x00, 0x43,
		0x04, 0x13, 0x01, 0x92, 0x54,
	}
}

/*
routerResponseBytes is a GetResponse from a router, covering the value tags
the printer capture misses:

Simple Network Management Protocol

	version: v2c (1)
	community: public
	data: get-response (2)
	  get-response
	    request-id: 4876669
	    error-status: noError (0)
	    error-index: 0
	    variable-bindings: 10 items
	      1.3.6.1.2.1.1.7.0: 78
	      1.3.6.1.2.1.2.2.1.2.6: "GigabitEthernet0"
	      1.3.6.1.2.1.2.2.1.5.3: 4294967295 (Gauge32 maximum)
	      1.3.6.1.2.1.2.2.1.7.2: noSuchInstance
	      1.3.6.1.2.1.2.2.1.9.3: 2970 (TimeTicks)
	      1.3.6.1.2.1.3.1.1.2.10.1.10.11.0.17: 00077d4d0900
	      1.3.6.1.2.1.3.1.1.3.10.1.10.11.0.2: 10.11.0.2 (IpAddress)
	      1.3.6.1.2.1.4.20.1.1.110.143.197.1: 110.143.197.1 (IpAddress)
	      1.3.6.1.66.1: noSuchObject
	      1.3.6.1.2.1.1.2.0: 1.3.6.1.4.1.9.1.1166 (OID)
*/
func routerResponseBytes() []byte {
	return []byte{
		0x30, 0x81,
		0xf1, 0x02, 0x01, 0x01, 0x04, 0x06, 0x70, 0x75, 0x62, 0x6c, 0x69, 0x63,
		0xa2, 0x81, 0xe3, 0x02, 0x03, 0x4a, 0x69, 0x7d, 0x02, 0x01, 0x00, 0x02,
		0x01, 0x00, 0x30, 0x81, 0xd5, 0x30, 0x0d, 0x06, 0x08, 0x2b, 0x06, 0x01,
		0x02, 0x01, 0x01, 0x07, 0x00, 0x02, 0x01, 0x4e, 0x30, 0x1e, 0x06, 0x0a,
		0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x02, 0x06, 0x04, 0x10,
		0x47, 0x69, 0x67, 0x61, 0x62, 0x69, 0x74, 0x45, 0x74, 0x68, 0x65, 0x72,
		0x6e, 0x65, 0x74, 0x30, 0x30, 0x13, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x02,
		0x01, 0x02, 0x02, 0x01, 0x05, 0x03, 0x42, 0x05, 0x00, 0xff, 0xff, 0xff,
		0xff, 0x30, 0x0e, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02,
		0x01, 0x07, 0x02, 0x81, 0x00, 0x30, 0x10, 0x06, 0x0a, 0x2b, 0x06, 0x01,
		0x02, 0x01, 0x02, 0x02, 0x01, 0x09, 0x03, 0x43, 0x02, 0x0b, 0x9a, 0x30,
		0x19, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x03, 0x01, 0x01, 0x02,
		0x0a, 0x01, 0x0a, 0x0b, 0x00, 0x11, 0x04, 0x06, 0x00, 0x07, 0x7d, 0x4d,
		0x09, 0x00, 0x30, 0x17, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x03,
		0x01, 0x01, 0x03, 0x0a, 0x01, 0x0a, 0x0b, 0x00, 0x02, 0x40, 0x04, 0x0a,
		0x0b, 0x00, 0x02, 0x30, 0x17, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x02, 0x01,
		0x04, 0x14, 0x01, 0x01, 0x6e, 0x81, 0x0f, 0x81, 0x45, 0x01, 0x40, 0x04,
		0x6e, 0x8f, 0xc5, 0x01, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x06, 0x01, 0x42,
		0x01, 0x80, 0x00, 0x30, 0x15, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01,
		0x01, 0x02, 0x00, 0x06, 0x09, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x09, 0x01,
		0x89, 0x0e,
	}
}

/*
printerGetRequestBytes is the GetRequest that produced printerResponseBytes:

Simple Network Management Protocol

	version: v2c (1)
	community: public
	data: get-request (0)
	  get-request
	    request-id: 1871507044
	    error-status: noError (0)
	    error-index: 0
	    variable-bindings: 8 items, all with NULL placeholder values
*/
func printerGetRequestBytes() []byte {
	return []byte{
		0x30, 0x81,
		0x9e, 0x02, 0x01, 0x01, 0x04, 0x06, 0x70, 0x75, 0x62, 0x6c, 0x69, 0x63,
		0xa0, 0x81, 0x90, 0x02, 0x04, 0x6f, 0x8c, 0xee, 0x64, 0x02, 0x01, 0x00,
		0x02, 0x01, 0x00, 0x30, 0x81, 0x81, 0x30, 0x0c, 0x06, 0x08, 0x2b, 0x06,
		0x01, 0x02, 0x01, 0x01, 0x07, 0x00, 0x05, 0x00, 0x30, 0x0e, 0x06, 0x0a,
		0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x0a, 0x01, 0x05, 0x00,
		0x30, 0x0e, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01,
		0x05, 0x01, 0x05, 0x00, 0x30, 0x0c, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02,
		0x01, 0x01, 0x04, 0x00, 0x05, 0x00, 0x30, 0x0f, 0x06, 0x0b, 0x2b, 0x06,
		0x01, 0x02, 0x01, 0x2b, 0x05, 0x01, 0x01, 0x0f, 0x01, 0x05, 0x00, 0x30,
		0x11, 0x06, 0x0d, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x04, 0x15, 0x01, 0x01,
		0x7f, 0x00, 0x00, 0x01, 0x05, 0x00, 0x30, 0x11, 0x06, 0x0d, 0x2b, 0x06,
		0x01, 0x04, 0x01, 0x17, 0x02, 0x05, 0x01, 0x01, 0x01, 0x04, 0x02, 0x05,
		0x00, 0x30, 0x0c, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x01, 0x03,
		0x00, 0x05, 0x00,
	}
}

/*
upsResponseV1Bytes is a GetResponse from a UPS speaking SNMPv1 (version field
0). The message length also uses a padded long form (0x82 0x00 0x35), which
must parse even though it is not minimal.
*/
func upsResponseV1Bytes() []byte {
	return []byte{
		0x30, 0x82, 0x00, 0x35, 0x02, 0x01, 0x00, 0x04, 0x0a, 0x70, 0x72, 0x69,
		0x76, 0x61, 0x74, 0x65, 0x6c, 0x61, 0x62, 0xa2, 0x24, 0x02, 0x04, 0x1f,
		0x67, 0xc8, 0xb8, 0x02, 0x01, 0x00, 0x02, 0x01, 0x00, 0x30, 0x16, 0x30,
		0x14, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x82, 0x3e, 0x01, 0x01,
		0x04, 0x04, 0x02, 0x01, 0x03, 0x05, 0x02, 0x01, 0x01,
	}
}

/*
bulkRequestBytes is a GetBulkRequest for the system subtree:

Simple Network Management Protocol

	version: v2c (1)
	community: public
	data: getBulkRequest (5)
	  getBulkRequest
	    request-id: 707607629
	    non-repeaters: 0
	    max-repetitions: 10
	    variable-bindings: 1 item
	      1.3.6.1.2.1.1: Value (Null)
*/
func bulkRequestBytes() []byte {
	return []byte{
		0x30, 0x27, 0x02, 0x01, 0x01, 0x04, 0x06, 0x70, 0x75, 0x62, 0x6c, 0x69,
		0x63, 0xa5, 0x1a, 0x02, 0x04, 0x2a, 0x1b, 0x3c, 0x4d, 0x02, 0x01, 0x00,
		0x02, 0x01, 0x0a, 0x30, 0x0c, 0x30, 0x0a, 0x06, 0x06, 0x2b, 0x06, 0x01,
		0x02, 0x01, 0x01, 0x05, 0x00,
	}
}

func TestMarshalGetRequest(t *testing.T) {
	oids := make([]OID, 0, 8)
	for _, s := range []string{
		"1.3.6.1.2.1.1.7.0",
		"1.3.6.1.2.1.2.2.1.10.1",
		"1.3.6.1.2.1.2.2.1.5.1",
		"1.3.6.1.2.1.1.4.0",
		"1.3.6.1.2.1.43.5.1.1.15.1",
		"1.3.6.1.2.1.4.21.1.1.127.0.0.1",
		"1.3.6.1.4.1.23.2.5.1.1.1.4.2",
		"1.3.6.1.2.1.1.3.0",
	} {
		oids = append(oids, MustParseOID(s))
	}

	req := newGetRequest("public", oids)
	req.RequestID = 1871507044

	got, err := req.marshal()
	require.NoError(t, err)

	exp := printerGetRequestBytes()
	if diff := cmp.Diff(exp, got); diff != "" {
		saveWirePcaps(t, exp, got)
		t.Fatalf("wire bytes mismatch (-exp +got):\n%s", diff)
	}
}

func TestMarshalGetBulkRequest(t *testing.T) {
	req := newGetBulkRequest("public", MustParseOID("1.3.6.1.2.1.1"), 10)
	req.RequestID = 707607629

	got, err := req.marshal()
	require.NoError(t, err)

	exp := bulkRequestBytes()
	if diff := cmp.Diff(exp, got); diff != "" {
		saveWirePcaps(t, exp, got)
		t.Fatalf("wire bytes mismatch (-exp +got):\n%s", diff)
	}
}

var testsUnmarshalResponse = []struct {
	name string
	in   func() []byte
	want *Packet
}{
	{
		"printer",
		printerResponseBytes,
		&Packet{
			Version:   Version2c,
			Community: "public",
			PDUType:   GetResponse,
			RequestID: 1066889284,
			VarBinds: []VarBind{
				{Name: OID{1, 3, 6, 1, 2, 1, 1, 7, 0}, Value: NewInteger(104)},
				{Name: OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 10, 1}, Value: Counter32(271070065)},
				{Name: OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 5, 1}, Value: Unsigned32(100000000)},
				{Name: OID{1, 3, 6, 1, 2, 1, 1, 4, 0}, Value: OctetString("Administrator")},
				{Name: OID{1, 3, 6, 1, 2, 1, 43, 5, 1, 1, 15, 1}},
				{Name: OID{1, 3, 6, 1, 2, 1, 4, 21, 1, 1, 127, 0, 0, 1}, Value: IPAddress{127, 0, 0, 1}},
				{Name: OID{1, 3, 6, 1, 4, 1, 23, 2, 5, 1, 1, 1, 4, 2}, Value: OctetString{0x00, 0x15, 0x99, 0x37, 0x76, 0x2b}},
				{Name: OID{1, 3, 6, 1, 2, 1, 1, 3, 0}, Value: TimeTicks(318870100)},
			},
		},
	},
	{
		"router",
		routerResponseBytes,
		&Packet{
			Version:   Version2c,
			Community: "public",
			PDUType:   GetResponse,
			RequestID: 4876669,
			VarBinds: []VarBind{
				{Name: OID{1, 3, 6, 1, 2, 1, 1, 7, 0}, Value: NewInteger(78)},
				{Name: OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 2, 6}, Value: OctetString("GigabitEthernet0")},
				{Name: OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 5, 3}, Value: Unsigned32(4294967295)},
				{Name: OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 7, 2}, Boundary: NoSuchInstance},
				{Name: OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 9, 3}, Value: TimeTicks(2970)},
				{Name: OID{1, 3, 6, 1, 2, 1, 3, 1, 1, 2, 10, 1, 10, 11, 0, 17}, Value: OctetString{0x00, 0x07, 0x7d, 0x4d, 0x09, 0x00}},
				{Name: OID{1, 3, 6, 1, 2, 1, 3, 1, 1, 3, 10, 1, 10, 11, 0, 2}, Value: IPAddress{10, 11, 0, 2}},
				{Name: OID{1, 3, 6, 1, 2, 1, 4, 20, 1, 1, 110, 143, 197, 1}, Value: IPAddress{110, 143, 197, 1}},
				{Name: OID{1, 3, 6, 1, 66, 1}, Boundary: NoSuchObject},
				{Name: OID{1, 3, 6, 1, 2, 1, 1, 2, 0}, Value: OID{1, 3, 6, 1, 4, 1, 9, 1, 1166}},
			},
		},
	},
}

func TestUnmarshalResponse(t *testing.T) {
	for _, tc := range testsUnmarshalResponse {
		t.Run(tc.name, func(t *testing.T) {
			got, err := unmarshalPacket(tc.in())
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got, integerComparer); diff != "" {
				t.Errorf("decoded packet mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Decoding a capture and re-encoding it must reproduce the capture exactly:
// both directions use minimal integer and length forms, as the originals do.
func TestReencodeCaptures(t *testing.T) {
	for _, tc := range testsUnmarshalResponse {
		t.Run(tc.name, func(t *testing.T) {
			exp := tc.in()
			pkt, err := unmarshalPacket(exp)
			require.NoError(t, err)

			got, err := pkt.marshal()
			require.NoError(t, err)
			if diff := cmp.Diff(exp, got); diff != "" {
				saveWirePcaps(t, exp, got)
				t.Fatalf("re-encoded bytes mismatch (-exp +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshalRejectsV1(t *testing.T) {
	_, err := unmarshalPacket(upsResponseV1Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.ErrorContains(t, err, "unsupported version")
}

func TestUnmarshalTruncated(t *testing.T) {
	data := printerResponseBytes()
	for i := 0; i < len(data); i++ {
		pkt, err := unmarshalPacket(data[:i])
		if err == nil {
			t.Fatalf("prefix of %d bytes decoded to %+v, want error", i, pkt)
		}
		if !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("prefix of %d bytes: error %v does not wrap ErrMalformedResponse", i, err)
		}
	}
}

func TestUnmarshalMutated(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte)
	}{
		{"message tag not a sequence", func(b []byte) { b[0] = 0x31 }},
		{"version field has wrong tag", func(b []byte) { b[3] = 0x04 }},
		{"community field has wrong tag", func(b []byte) { b[6] = 0x05 }},
		{"set-request pdu", func(b []byte) { b[14] = 0xa3 }},
		{"trap pdu", func(b []byte) { b[14] = 0xa4 }},
		{"value tag unassigned", func(b []byte) { b[44] = 0x99 }},
		{"varbind length overruns list", func(b []byte) { b[33] = 0x7f }},
		{"message claims more than datagram", func(b []byte) { b[2] = 0xff }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := printerResponseBytes()
			tc.mutate(data)
			_, err := unmarshalPacket(data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

// Any mix of the value syntaxes and markers survives an encode/decode trip.
func TestRoundTripAllSyntaxes(t *testing.T) {
	want := &Packet{
		Version:   Version2c,
		Community: "roundtrip",
		PDUType:   GetResponse,
		RequestID: 2047483647,
		VarBinds: []VarBind{
			{Name: OID{1, 3, 6, 1, 2, 1, 1, 7, 0}, Value: NewInteger(-512)},
			{Name: OID{1, 3, 6, 1, 9, 1}, Value: Integer{new(big.Int).Lsh(big.NewInt(1), 64)}},
			{Name: OID{1, 3, 6, 1, 9, 2}, Value: OctetString("text")},
			{Name: OID{1, 3, 6, 1, 9, 3}, Value: OID{1, 3, 6, 1, 4, 1, 2636}},
			{Name: OID{1, 3, 6, 1, 9, 4}, Value: IPAddress{192, 0, 2, 10}},
			{Name: OID{1, 3, 6, 1, 9, 5}, Value: Counter32(4294967295)},
			{Name: OID{1, 3, 6, 1, 9, 6}, Value: Unsigned32(100000000)},
			{Name: OID{1, 3, 6, 1, 9, 7}, Value: TimeTicks(360000)},
			{Name: OID{1, 3, 6, 1, 9, 8}, Value: Opaque{0x9f, 0x78, 0x04, 0x41, 0x20, 0x00, 0x00}},
			{Name: OID{1, 3, 6, 1, 9, 9}, Value: Counter64(18446744073709551615)},
			{Name: OID{1, 3, 6, 1, 9, 10}},
			{Name: OID{1, 3, 6, 1, 9, 11}, Boundary: NoSuchObject},
			{Name: OID{1, 3, 6, 1, 9, 12}, Boundary: NoSuchInstance},
			{Name: OID{1, 3, 6, 1, 9, 13}, Boundary: EndOfMibView},
		},
	}

	data, err := want.marshal()
	require.NoError(t, err)

	got, err := unmarshalPacket(data)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, integerComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// Integer32 exists for encoding; the wire format cannot tell it from
// Integer, so it decodes as Integer.
func TestInteger32DecodesAsInteger(t *testing.T) {
	in := &Packet{
		Version:   Version2c,
		Community: "public",
		PDUType:   GetResponse,
		RequestID: 1,
		VarBinds:  []VarBind{{Name: OID{1, 3, 6, 1, 9, 1}, Value: Integer32(-77)}},
	}
	data, err := in.marshal()
	require.NoError(t, err)

	out, err := unmarshalPacket(data)
	require.NoError(t, err)
	require.Len(t, out.VarBinds, 1)

	got, ok := out.VarBinds[0].Value.(Integer)
	require.True(t, ok, "decoded %T, want Integer", out.VarBinds[0].Value)
	assert.Zero(t, got.Cmp(big.NewInt(-77)))
}

func TestMarshalRejectsBadName(t *testing.T) {
	pkt := &Packet{
		Version:   Version2c,
		Community: "public",
		PDUType:   GetRequest,
		RequestID: 1,
		VarBinds:  []VarBind{{Name: OID{1}}},
	}
	_, err := pkt.marshal()
	assert.Error(t, err)
}

// saveWirePcaps writes the expected and actual bytes under -pcap for
// wireshark, wrapped in synthetic IP and UDP layers.
func saveWirePcaps(t *testing.T, exp, got []byte) {
	if *pcapDir == "" {
		return
	}
	dir := filepath.Join(*pcapDir, t.Name())
	if err := os.MkdirAll(dir, 0o777); err != nil {
		t.Logf("error creating pcap dir: %s", err)
		return
	}
	if err := writePcap(filepath.Join(dir, "exp"), exp); err != nil {
		t.Logf("error saving exp pcap: %s", err)
	}
	if err := writePcap(filepath.Join(dir, "got"), got); err != nil {
		t.Logf("error saving got pcap: %s", err)
	}
}

func writePcap(fn string, payload []byte) error {
	f, err := os.OpenFile(fn+".pcap", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
	if err != nil {
		return err
	}
	defer f.Close()

	l3 := &layers.IPv4{
		SrcIP:    net.ParseIP("192.0.2.1"),
		DstIP:    net.ParseIP("192.0.2.10"),
		Protocol: layers.IPProtocolUDP,
		Version:  4,
	}
	l4 := &layers.UDP{
		SrcPort: DefaultPort,
		DstPort: DefaultPort,
	}
	if err := l4.SetNetworkLayerForChecksum(l3); err != nil {
		return err
	}

	buf := gopacket.NewSerializeBuffer()
	err = gopacket.SerializeLayers(
		buf,
		gopacket.SerializeOptions{
			ComputeChecksums: true,
			FixLengths:       true,
		},
		l3,
		l4,
		gopacket.Payload(payload),
	)
	if err != nil {
		return err
	}

	pkt := gopacket.NewPacket(buf.Bytes(), layers.LinkTypeIPv4, gopacket.Default)

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(1600, layers.LinkTypeIPv4); err != nil {
		return err
	}
	return w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(pkt.Data()),
		Length:        len(pkt.Data()),
	}, pkt.Data())
}
