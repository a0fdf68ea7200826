package main

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Response helpers for common HTTP response patterns

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes an error response with the given status code and message
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]any{
		"error":  message,
		"status": "error",
	})
}

// writeBadRequestResponse writes a 400 Bad Request response
func writeBadRequestResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusBadRequest, message)
}

// writeNotFoundResponse writes a 404 Not Found response
func writeNotFoundResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusNotFound, message)
}

// writeConflictResponse writes a 409 Conflict response
func writeConflictResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusConflict, message)
}

// writeInternalServerErrorResponse writes a 500 Internal Server Error response
func writeInternalServerErrorResponse(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal Server Error"
	}
	writeErrorResponse(w, http.StatusInternalServerError, message)
}

// parseLimit extracts a positive limit query parameter, falling back to
// the default when absent or invalid
func parseLimit(r *http.Request, defaultLimit int) int {
	limitParam := r.URL.Query().Get("limit")
	if limitParam == "" {
		return defaultLimit
	}
	if limit, err := strconv.Atoi(limitParam); err == nil && limit > 0 {
		return limit
	}
	return defaultLimit
}
