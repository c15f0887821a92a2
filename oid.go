// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is an SNMP object identifier: a non-empty sequence of 32 bit
// sub-identifiers. The zero value is not a valid identifier; build OIDs with
// ParseOID or a literal such as OID{1, 3, 6, 1, 2, 1}.
//
// An OID can also appear as the value of a varbind (syntax
// "ObjectIdentifier"), so it implements Value.
type OID []uint32

// ParseOID parses the dotted-decimal form "1.3.6.1.2.1.1.5.0". Every segment
// must be a decimal integer in [0, 4294967295]; empty segments, a leading or
// trailing dot, signs and whitespace are all rejected. Errors wrap
// ErrMalformedOID.
func ParseOID(s string) (OID, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrMalformedOID)
	}
	parts := strings.Split(s, ".")
	oid := make(OID, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: %q has an empty sub-identifier", ErrMalformedOID, s)
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: bad sub-identifier %q", ErrMalformedOID, s, part)
		}
		oid = append(oid, uint32(n))
	}
	return oid, nil
}

// MustParseOID is ParseOID for OIDs known at compile time. It panics on
// malformed input.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

// String renders the dotted-decimal form. ParseOID(o.String()) reproduces o
// for any OID ParseOID accepts.
func (o OID) String() string {
	if len(o) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(o) * 4)
	for i, n := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(n), 10))
	}
	return b.String()
}

// Equal reports whether o and other are the same identifier.
func (o OID) Equal(other OID) bool {
	return o.Compare(other) == 0
}

// StartsWith reports whether prefix is a prefix of o, i.e. whether o equals
// prefix or lies inside the subtree rooted at prefix. Every OID starts with
// the empty prefix.
func (o OID) StartsWith(prefix OID) bool {
	if len(prefix) > len(o) {
		return false
	}
	for i, n := range prefix {
		if o[i] != n {
			return false
		}
	}
	return true
}

// Compare orders identifiers in MIB lexicographic order, the order a walk
// visits them: sub-identifier by sub-identifier, with a prefix sorting before
// everything in its subtree. It returns -1, 0 or 1.
func (o OID) Compare(other OID) int {
	n := len(o)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		switch {
		case o[i] < other[i]:
			return -1
		case o[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	}
	return 0
}
