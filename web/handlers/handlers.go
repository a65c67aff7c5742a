// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// package handlers provides http handlers for the bridge's control endpoints
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/signalapp/hostbridge/logger"
)

func writeJSON(w http.ResponseWriter, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(out); err != nil {
		logger.Warnw("error writing control response", "err", err)
	}
}
