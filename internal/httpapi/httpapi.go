// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package httpapi exposes SNMP queries over HTTP. One route does the work:
//
//	POST /agents/{agent}/request
//
// where agent is a host or host:port. The body selects the operation:
//
//	{"requestType": "Get", "oids": ["1.3.6.1.2.1.1.1.0"]}
//	{"requestType": "GetBulk", "oid": "1.3.6.1.2.1.1", "maxRepetitions": 10}
//
// A successful response maps each object identifier to its typed value.
// Failures carry a machine-readable kind and a detail message, with the
// HTTP status chosen per kind. The community string is server configuration;
// callers never supply it.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/snmpq/snmpq"
)

// Querier is the part of snmpq.Client the API needs.
type Querier interface {
	Get(ctx context.Context, target snmpq.Target, oids []snmpq.OID) ([]snmpq.VarBind, error)
	GetBulk(ctx context.Context, target snmpq.Target, root snmpq.OID, maxRepetitions uint32) ([]snmpq.VarBind, error)
}

var _ Querier = (*snmpq.Client)(nil)

// Config carries the server-side query settings.
type Config struct {
	// Community is sent with every query.
	Community string

	// AgentPort is used when the agent path segment names no port. Zero
	// means the default SNMP port.
	AgentPort uint16

	// MaxRepetitions is the GETBULK default when the request body passes
	// none. Zero defers to the client default.
	MaxRepetitions uint32

	// RequestTimeout bounds one HTTP request end to end, re-sends
	// included. Zero means no bound beyond the client's own.
	RequestTimeout time.Duration
}

// Handler routes and serves the API.
type Handler struct {
	querier Querier
	cfg     Config
	logger  *zap.Logger
	metrics *metrics
	router  *mux.Router
}

// NewHandler wires the routes, registers the metrics on registry, and
// returns a ready handler. A nil logger disables logging; a nil registry
// gets a private one, which keeps /metrics working.
func NewHandler(querier Querier, cfg Config, logger *zap.Logger, registry *prometheus.Registry) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	h := &Handler{
		querier: querier,
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(registry),
	}

	r := mux.NewRouter()
	r.HandleFunc("/agents/{agent}/request", h.handleRequest).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// apiRequest is the body of POST /agents/{agent}/request. OIDs is for Get,
// OID and MaxRepetitions are for GetBulk.
type apiRequest struct {
	RequestType    string   `json:"requestType"`
	OIDs           []string `json:"oids,omitempty"`
	OID            string   `json:"oid,omitempty"`
	MaxRepetitions uint32   `json:"maxRepetitions,omitempty"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqType := "unknown"
	outcome := "ok"
	defer func() {
		h.metrics.requests.WithLabelValues(reqType, outcome).Inc()
		h.metrics.duration.WithLabelValues(reqType).Observe(time.Since(start).Seconds())
	}()

	agent := mux.Vars(r)["agent"]

	var req apiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		outcome = "BadRequest"
		h.writeError(w, http.StatusBadRequest, outcome, "decoding request body: "+err.Error())
		return
	}
	if req.RequestType == "Get" || req.RequestType == "GetBulk" {
		reqType = req.RequestType
	}

	target, err := h.target(agent)
	if err != nil {
		outcome = "BadRequest"
		h.writeError(w, http.StatusBadRequest, outcome, err.Error())
		return
	}

	ctx := r.Context()
	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	var varBinds []snmpq.VarBind
	switch req.RequestType {
	case "Get":
		if len(req.OIDs) == 0 {
			outcome = "BadRequest"
			h.writeError(w, http.StatusBadRequest, outcome, "oids must name at least one object identifier")
			return
		}
		oids := make([]snmpq.OID, 0, len(req.OIDs))
		for _, s := range req.OIDs {
			oid, err := snmpq.ParseOID(s)
			if err != nil {
				outcome = h.fail(w, agent, reqType, err)
				return
			}
			oids = append(oids, oid)
		}
		varBinds, err = h.querier.Get(ctx, target, oids)
	case "GetBulk":
		var root snmpq.OID
		root, err = snmpq.ParseOID(req.OID)
		if err != nil {
			outcome = h.fail(w, agent, reqType, err)
			return
		}
		maxRepetitions := req.MaxRepetitions
		if maxRepetitions == 0 {
			maxRepetitions = h.cfg.MaxRepetitions
		}
		varBinds, err = h.querier.GetBulk(ctx, target, root, maxRepetitions)
	default:
		outcome = "BadRequest"
		h.writeError(w, http.StatusBadRequest, outcome, strconv.Quote(req.RequestType)+" is not a request type")
		return
	}
	if err != nil {
		outcome = h.fail(w, agent, reqType, err)
		return
	}

	h.logger.Debug("request served",
		zap.String("agent", agent),
		zap.String("type", reqType),
		zap.Int("varbinds", len(varBinds)),
		zap.Duration("took", time.Since(start)))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snmpq.BindingsMap(varBinds)); err != nil {
		h.logger.Warn("writing response", zap.Error(err))
	}
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// target resolves the agent path segment, a host with an optional port.
func (h *Handler) target(agent string) (snmpq.Target, error) {
	target := snmpq.Target{
		Host:      agent,
		Port:      h.cfg.AgentPort,
		Community: h.cfg.Community,
	}
	if host, port, err := net.SplitHostPort(agent); err == nil {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return snmpq.Target{}, errors.New("agent port must be a 16-bit number")
		}
		target.Host = host
		target.Port = uint16(p)
	}
	return target, nil
}

// fail classifies err, writes the error response, logs it, and returns the
// kind for the metrics outcome label.
func (h *Handler) fail(w http.ResponseWriter, agent, reqType string, err error) string {
	status, kind := classify(err)
	h.logger.Warn("request failed",
		zap.String("agent", agent),
		zap.String("type", reqType),
		zap.String("kind", kind),
		zap.Error(err))
	h.writeError(w, status, kind, err.Error())
	return kind
}

func (h *Handler) writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiError{Error: kind, Message: message}); err != nil {
		h.logger.Warn("writing error response", zap.Error(err))
	}
}

// classify maps a query error to an HTTP status and a machine-readable
// kind. Every error the client can produce has a distinct kind; nothing
// surfaces as a bare 500 unless it is genuinely unknown.
func classify(err error) (int, string) {
	var (
		boundaryErr  *snmpq.BoundaryError
		protocolErr  *snmpq.ProtocolError
		transportErr *snmpq.TransportError
	)
	switch {
	case errors.Is(err, snmpq.ErrMalformedOID):
		return http.StatusBadRequest, "MalformedIdentifier"
	case errors.As(err, &boundaryErr):
		return http.StatusNotFound, "BoundaryCondition"
	case errors.Is(err, snmpq.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Timeout"
	case errors.Is(err, snmpq.ErrResponseTooLarge):
		return http.StatusBadGateway, "ResponseTooLarge"
	case errors.Is(err, snmpq.ErrMalformedResponse):
		return http.StatusBadGateway, "MalformedResponse"
	case errors.As(err, &protocolErr):
		return http.StatusBadGateway, "ProtocolError"
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, "TransportError"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}
