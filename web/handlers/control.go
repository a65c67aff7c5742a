// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package handlers

import (
	"errors"
	"net/http"

	"github.com/signalapp/hostbridge/host"
	"github.com/signalapp/hostbridge/logger"

	pb "github.com/signalapp/hostbridge/proto"
)

// IdentityResponse is the body served by NewIdentity.
type IdentityResponse struct {
	NodeID pb.NodeID `json:"nodeId"`
}

// NewIdentity returns a handler that answers GET requests with the host's
// node identity.
func NewIdentity(h host.Host) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		id, err := h.Identity(r.Context())
		if err != nil {
			hostError(w, "identity", err)
			return
		}
		writeJSON(w, IdentityResponse{NodeID: id})
	})
}

// NewBundles returns a handler that answers GET requests with the bundles
// known to the host. Query parameters are used as label filters.
func NewBundles(h host.Host) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		resp, err := h.BundleManager().BundleList(r.Context(), host.BundleListRequest{Labels: labels(r)})
		if err != nil {
			hostError(w, "bundles", err)
			return
		}
		writeJSON(w, resp)
	})
}

// NewVolumes returns a handler that answers GET requests with the volumes
// known to the host. Query parameters are used as label filters.
func NewVolumes(h host.Host) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		resp, err := h.VolumeManager().VolumeList(r.Context(), host.VolumeListRequest{Labels: labels(r)})
		if err != nil {
			hostError(w, "volumes", err)
			return
		}
		writeJSON(w, resp)
	})
}

func labels(r *http.Request) map[string]string {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil
	}
	out := make(map[string]string, len(q))
	for k := range q {
		out[k] = q.Get(k)
	}
	return out
}

// hostError reports a failed host call. Misbehaving hosts get a 502, other
// failures a 500.
func hostError(w http.ResponseWriter, what string, err error) {
	logger.Errorw("control request failed", "request", what, "err", err)
	status := http.StatusInternalServerError
	var decodeErr *host.DecodeError
	if errors.Is(err, host.ErrBadResponse) || errors.As(err, &decodeErr) {
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}
