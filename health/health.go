// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package health tracks whether a component is working and reports it over HTTP.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/signalapp/hostbridge/logger"
)

// Health wraps an error (nil means "healthy"), and provides HTTP handling
// logic to serve that error.
type Health struct {
	name string
	mu   sync.Mutex
	err  error
}

// New creates a new health object, with initial health set based on the
// 'initial' error (nil==healthy).
func New(name string, initial error) *Health {
	return &Health{name: name, err: initial}
}

// Set sets the underlying error for this Health object; err=nil means "OK"
func (h *Health) Set(err error) {
	h.mu.Lock()
	changed := (h.err == nil) != (err == nil)
	h.err = err
	h.mu.Unlock()
	if changed {
		logger.Infow("health changed", "name", h.name, "err", err)
	}
}

// Err returns the current error, nil if healthy.
func (h *Health) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// ServeHTTP implements http.Handler.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.Err()
	if err == nil {
		fmt.Fprintf(w, "ok")
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, "error: %v", err)
}

// Monitor runs check immediately and then every period until ctx is done,
// recording each result in h. Each check gets its own timeout; a check that
// does not return in time is reported as a failure.
func (h *Health) Monitor(ctx context.Context, period, timeout time.Duration, check func(context.Context) error) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	err := runCheck(ctx, timeout, check)
	h.Set(err)
	logger.Infof("Starting %s check loop, initial check: %v", h.name, err)
	for {
		select {
		case <-ctx.Done():
			h.Set(fmt.Errorf("%s checks stopped: %w", h.name, ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			h.Set(runCheck(ctx, timeout, check))
		}
	}
}

func runCheck(ctx context.Context, timeout time.Duration, check func(context.Context) error) error {
	// check may ignore its context, so never wait on it past the timeout
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- check(ctx) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return fmt.Errorf("check context: %w", ctx.Err())
	}
}
