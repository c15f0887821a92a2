// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package httpapi

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snmpq",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served, by request type and outcome.",
		}, []string{"type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "snmpq",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time from receiving a request to writing the response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}
