// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import (
	"errors"
	"fmt"
)

// Sentinel errors. Errors returned by this package wrap one of these or one
// of the typed errors below, so callers discriminate with errors.Is and
// errors.As rather than by matching message text.
var (
	// ErrMalformedOID reports a dotted-decimal string that does not parse
	// as an object identifier.
	ErrMalformedOID = errors.New("malformed object identifier")

	// ErrTimeout reports that every send attempt went unanswered.
	ErrTimeout = errors.New("request timed out")

	// ErrResponseTooLarge reports a reply datagram bigger than the
	// client's maximum message size.
	ErrResponseTooLarge = errors.New("response exceeds maximum message size")

	// ErrMalformedResponse reports a reply that could not be decoded as an
	// SNMPv2c message.
	ErrMalformedResponse = errors.New("malformed response")
)

// TransportError wraps a socket-level failure. Op is "dial", "send" or
// "receive". Context cancellation surfaces here too: Unwrap exposes the
// underlying context error for errors.Is.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "transport " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports an agent that answered but unhelpfully: either the
// response carried a non-zero error-status, or it echoed a request id other
// than the one sent. In the first case Status and Index hold the agent's
// error-status and error-index; in the second WantRequestID and GotRequestID
// differ.
type ProtocolError struct {
	Status        ErrorStatus
	Index         int
	WantRequestID int32
	GotRequestID  int32
}

func (e *ProtocolError) Error() string {
	if e.WantRequestID != e.GotRequestID {
		return fmt.Sprintf("request id mismatch: sent %d, agent answered %d",
			e.WantRequestID, e.GotRequestID)
	}
	return fmt.Sprintf("agent returned %v for varbind %d", e.Status, e.Index)
}

// BoundaryError reports a GET whose response flagged a varbind with an
// exception marker instead of a value.
type BoundaryError struct {
	Name     OID
	Boundary Boundary
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%v: %v", e.Name, e.Boundary)
}

// ErrorStatus is the error-status field of a response PDU, per RFC 3416.
type ErrorStatus int

const (
	NoError ErrorStatus = iota
	TooBig
	NoSuchName
	BadValue
	ReadOnly
	GenErr
	NoAccess
	WrongType
	WrongLength
	WrongEncoding
	WrongValue
	NoCreation
	InconsistentValue
	ResourceUnavailable
	CommitFailed
	UndoFailed
	AuthorizationError
	NotWritable
	InconsistentName
)

var errorStatusNames = []string{
	"noError",
	"tooBig",
	"noSuchName",
	"badValue",
	"readOnly",
	"genErr",
	"noAccess",
	"wrongType",
	"wrongLength",
	"wrongEncoding",
	"wrongValue",
	"noCreation",
	"inconsistentValue",
	"resourceUnavailable",
	"commitFailed",
	"undoFailed",
	"authorizationError",
	"notWritable",
	"inconsistentName",
}

func (s ErrorStatus) String() string {
	if s >= 0 && int(s) < len(errorStatusNames) {
		return errorStatusNames[s]
	}
	return fmt.Sprintf("errorStatus(%d)", int(s))
}
