package api

import (
	"encoding/json"
	"net/http"
)

// listResponse is the envelope for collection reads.
type listResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Total   int  `json:"total"`
}

// dataResponse is the envelope for single-record reads and writes.
type dataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errorResponse is the envelope for every failure.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeList writes a 200 collection envelope.
func writeList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, listResponse{Success: true, Data: data, Total: total})
}

// writeData writes a success envelope with an optional message.
func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, dataResponse{Success: true, Message: message, Data: data})
}

// writeError writes a failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}
