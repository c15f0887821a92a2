// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

//go:generate mockgen -source=transport.go -destination=mock_exchanger_test.go -package=snmpq

// Exchanger performs one request/response round trip. The Client uses a UDP
// implementation by default; tests substitute their own.
type Exchanger interface {
	Exchange(ctx context.Context, target Target, req *Packet) (*Packet, error)
}

// udpExchanger sends each request over a fresh connected UDP socket, so
// concurrent requests never share state and replies from other peers are
// filtered by the kernel.
type udpExchanger struct {
	timeout            time.Duration
	retries            int
	maxMsgSize         int
	exponentialTimeout bool
	logger             Logger
}

func (x *udpExchanger) Exchange(ctx context.Context, target Target, req *Packet) (*Packet, error) {
	out, err := req.marshal()
	if err != nil {
		return nil, err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", target.addr())
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	defer conn.Close()

	// Unblock a pending read or write the moment the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	// One extra byte so a reply that exceeds the limit is detectable
	// rather than silently truncated.
	buf := make([]byte, x.maxMsgSize+1)

	timeout := x.timeout
	for attempt := 0; attempt <= x.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &TransportError{Op: "send", Err: err}
		}
		if attempt > 0 {
			x.logger.Printf("%v: no reply, attempt %d of %d", target, attempt+1, x.retries+1)
			if x.exponentialTimeout {
				timeout *= 2
			}
		}
		deadline := time.Now().Add(timeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, &TransportError{Op: "send", Err: err}
		}

		// Re-sends carry the identical bytes, same request id included,
		// so a slow reply to an earlier attempt still matches.
		n, err := conn.Write(out)
		if err != nil {
			return nil, &TransportError{Op: "send", Err: transportCause(ctx, err)}
		}
		if n != len(out) {
			return nil, &TransportError{Op: "send", Err: fmt.Errorf("short write: %d of %d bytes", n, len(out))}
		}

		n, err = conn.Read(buf)
		if err != nil {
			if cause := transportCause(ctx, err); cause != err {
				return nil, &TransportError{Op: "receive", Err: cause}
			}
			if isTimeout(err) {
				continue
			}
			return nil, &TransportError{Op: "receive", Err: err}
		}
		if n > x.maxMsgSize {
			return nil, fmt.Errorf("%w: reply larger than %d bytes", ErrResponseTooLarge, x.maxMsgSize)
		}

		resp, err := unmarshalPacket(buf[:n])
		if err != nil {
			return nil, err
		}
		if resp.PDUType != GetResponse {
			return nil, fmt.Errorf("%w: reply pdu is a %v, not a GetResponse", ErrMalformedResponse, resp.PDUType)
		}
		if resp.RequestID != req.RequestID {
			return nil, &ProtocolError{
				WantRequestID: req.RequestID,
				GotRequestID:  resp.RequestID,
			}
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrTimeout, x.retries+1)
}

// transportCause substitutes the context's error for a socket error that was
// provoked by cancellation, so errors.Is(err, context.Canceled) works.
func transportCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
