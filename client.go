// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package snmpq is an SNMPv2c manager: it sends GET and GETBULK requests
// over UDP and decodes the replies into typed values.
//
// A zero Client is ready to use:
//
//	client := &snmpq.Client{}
//	target := snmpq.Target{Host: "192.0.2.10", Community: "public"}
//	binds, err := client.Get(ctx, target, []snmpq.OID{
//		snmpq.MustParseOID("1.3.6.1.2.1.1.1.0"),
//	})
//
// Every call opens its own socket, so one Client may be shared by any number
// of goroutines. Failures are ordinary errors: sentinels (ErrTimeout,
// ErrResponseTooLarge, ErrMalformedResponse, ErrMalformedOID) for conditions
// callers match with errors.Is, and typed errors (TransportError,
// ProtocolError, BoundaryError) for conditions that carry detail.
package snmpq

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultPort is the IANA-assigned SNMP agent port.
	DefaultPort = 161

	// DefaultTimeout is how long one attempt waits for a reply.
	DefaultTimeout = 2 * time.Second

	// DefaultRetries is how many times an unanswered request is re-sent.
	DefaultRetries = 3

	// DefaultMaxRepetitions is the GETBULK max-repetitions used when the
	// caller does not choose one.
	DefaultMaxRepetitions = 20

	// DefaultMaxMsgSize is the largest reply accepted: the IPv4 UDP
	// payload ceiling.
	DefaultMaxMsgSize = 65507
)

// Client issues SNMPv2c requests. The zero value uses the defaults above.
// Clients hold no connection state and are safe for concurrent use; fields
// must not be changed while calls are in flight.
type Client struct {
	// Timeout is the wait per attempt before the request is re-sent.
	Timeout time.Duration

	// Retries is the number of re-sends after the first attempt, so a
	// request is sent at most Retries+1 times. Zero means DefaultRetries;
	// a negative value disables re-sending.
	Retries int

	// ExponentialTimeout doubles the per-attempt timeout on each re-send.
	ExponentialTimeout bool

	// MaxRepetitions is the GETBULK max-repetitions used when the call
	// passes zero.
	MaxRepetitions uint32

	// MaxMsgSize caps the size of a reply datagram. Larger replies fail
	// with ErrResponseTooLarge.
	MaxMsgSize int

	// Logger receives debug output. Nil disables it.
	Logger Logger

	// Exchanger overrides the UDP transport, mainly for tests. Nil uses
	// the real one.
	Exchanger Exchanger
}

// Get fetches the named objects in one request. The returned varbinds are in
// the agent's response order, which agents keep aligned with the request.
//
// A response that flags any requested object with an exception marker fails
// with *BoundaryError for the first flagged varbind; an agent error-status
// fails with *ProtocolError.
func (c *Client) Get(ctx context.Context, target Target, oids []OID) ([]VarBind, error) {
	if len(oids) == 0 {
		return nil, errors.New("snmpq: Get needs at least one object identifier")
	}
	resp, err := c.exchange(ctx, target, newGetRequest(target.Community, oids))
	if err != nil {
		return nil, err
	}
	for _, vb := range resp.VarBinds {
		if vb.Value == nil {
			return nil, &BoundaryError{Name: vb.Name, Boundary: vb.Boundary}
		}
	}
	return resp.VarBinds, nil
}

// GetBulk fetches up to maxRepetitions successors of root in one request and
// returns those inside root's subtree, in MIB order. Passing zero for
// maxRepetitions uses the client default. Fewer than maxRepetitions varbinds
// means the subtree (or the agent's MIB view) ended; the caller decides
// whether to continue from the last name. BulkWalk does that loop.
func (c *Client) GetBulk(ctx context.Context, target Target, root OID, maxRepetitions uint32) ([]VarBind, error) {
	if len(root) == 0 {
		return nil, errors.New("snmpq: GetBulk needs a root identifier")
	}
	inside, _, err := c.getBulk(ctx, target, root, root, maxRepetitions)
	return inside, err
}

// getBulk requests successors of from and keeps the leading run that is
// still inside root's subtree. An exception marker or the first foreign name
// ends the run; agents keep going past the subtree, that is not an error.
// done reports that the run ended before the response did, so the subtree
// holds nothing further.
func (c *Client) getBulk(ctx context.Context, target Target, from, root OID, maxRepetitions uint32) (inside []VarBind, done bool, err error) {
	if maxRepetitions == 0 {
		maxRepetitions = c.MaxRepetitions
		if maxRepetitions == 0 {
			maxRepetitions = DefaultMaxRepetitions
		}
	}
	resp, err := c.exchange(ctx, target, newGetBulkRequest(target.Community, from, maxRepetitions))
	if err != nil {
		return nil, false, err
	}
	for _, vb := range resp.VarBinds {
		if vb.Value == nil || !vb.Name.StartsWith(root) {
			return inside, true, nil
		}
		inside = append(inside, vb)
	}
	return inside, false, nil
}

// BulkWalk visits every object in root's subtree in MIB order, calling fn
// for each varbind. It issues as many GETBULK rounds as the subtree needs,
// reseeding each round at the last name of the previous one. A non-nil error
// from fn stops the walk and is returned.
func (c *Client) BulkWalk(ctx context.Context, target Target, root OID, fn func(VarBind) error) error {
	if len(root) == 0 {
		return errors.New("snmpq: BulkWalk needs a root identifier")
	}
	seed := root
	for {
		varBinds, done, err := c.getBulk(ctx, target, seed, root, 0)
		if err != nil {
			return err
		}
		for _, vb := range varBinds {
			// A name that fails to advance would loop forever against
			// a buggy agent.
			if vb.Name.Compare(seed) <= 0 {
				return fmt.Errorf("snmpq: walk of %v stalled: %v does not follow %v", root, vb.Name, seed)
			}
			if err := fn(vb); err != nil {
				return err
			}
			seed = vb.Name
		}
		if done || len(varBinds) == 0 {
			return nil
		}
	}
}

// BulkWalkAll is BulkWalk collecting every varbind into a slice. Prefer
// BulkWalk for subtrees of unknown size.
func (c *Client) BulkWalkAll(ctx context.Context, target Target, root OID) ([]VarBind, error) {
	var results []VarBind
	err := c.BulkWalk(ctx, target, root, func(vb VarBind) error {
		results = append(results, vb)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) exchange(ctx context.Context, target Target, req *Packet) (*Packet, error) {
	c.logger().Printf("%v %v: %d varbind(s), request id %d",
		req.PDUType, target, len(req.VarBinds), req.RequestID)

	resp, err := c.exchanger().Exchange(ctx, target, req)
	if err != nil {
		return nil, err
	}
	if resp.ErrorStatus != NoError {
		return nil, &ProtocolError{
			Status:        resp.ErrorStatus,
			Index:         resp.ErrorIndex,
			WantRequestID: req.RequestID,
			GotRequestID:  resp.RequestID,
		}
	}
	c.logger().Printf("%v %v: request id %d, %d varbind(s)",
		resp.PDUType, target, resp.RequestID, len(resp.VarBinds))
	return resp, nil
}

func (c *Client) exchanger() Exchanger {
	if c.Exchanger != nil {
		return c.Exchanger
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := c.Retries
	switch {
	case retries == 0:
		retries = DefaultRetries
	case retries < 0:
		retries = 0
	}
	maxMsgSize := c.MaxMsgSize
	if maxMsgSize <= 0 {
		maxMsgSize = DefaultMaxMsgSize
	}
	return &udpExchanger{
		timeout:            timeout,
		retries:            retries,
		maxMsgSize:         maxMsgSize,
		exponentialTimeout: c.ExponentialTimeout,
		logger:             c.logger(),
	}
}

func (c *Client) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return noopLogger{}
}
