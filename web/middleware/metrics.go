// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package middleware provides http.Handler wrappers shared by the control
// endpoints.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/hashicorp/go-metrics"
)

var responseCounterName = []string{"http", "response"}

// Instrument wraps an http.Handler and updates metrics with the http response
func Instrument(inner http.Handler) http.Handler {
	return &handler{inner: inner}
}

type handler struct {
	inner http.Handler
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := &writerWrapper{w: w}
	h.inner.ServeHTTP(ww, r)
	if !ww.recorded {
		// the handler wrote nothing, net/http will send a 200
		ww.statusCode = http.StatusOK
	}
	metrics.IncrCounterWithLabels(responseCounterName, 1, []metrics.Label{
		{Name: "method", Value: r.Method},
		{Name: "endpoint", Value: r.URL.Path},
		{Name: "status", Value: strconv.Itoa(ww.statusCode)},
	})
}

// When a response is written, record the status code so it can be instrumented later
type writerWrapper struct {
	w          http.ResponseWriter
	statusCode int
	recorded   bool
}

var _ http.ResponseWriter = (*writerWrapper)(nil)

func (ww *writerWrapper) Header() http.Header {
	return ww.w.Header()
}

func (ww *writerWrapper) Write(b []byte) (int, error) {
	if !ww.recorded {
		ww.recorded = true
		ww.statusCode = http.StatusOK
	}
	return ww.w.Write(b)
}

func (ww *writerWrapper) WriteHeader(statusCode int) {
	if !ww.recorded {
		ww.recorded = true
		ww.statusCode = statusCode
	}
	ww.w.WriteHeader(statusCode)
}
