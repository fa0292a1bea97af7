package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes data as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	// The status line is already on the wire, so an encode failure can only
	// be logged, not reported to the caller.
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response body", slog.String("error", err.Error()))
	}
}
