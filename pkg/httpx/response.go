package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the JSON shape every API response uses. Success responses carry
// Data and optionally Message and Meta; failures carry Error and optionally
// Message.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta carries pagination details for list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes a 200 success envelope around data.
func Success(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// SuccessMessage writes a success envelope with an accompanying message.
func SuccessMessage(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

// Created writes a 201 success envelope around data.
func Created(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Message: message})
}

// Paginated writes a success envelope with pagination meta.
func Paginated(w http.ResponseWriter, data any, meta Meta) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Meta: &meta})
}

// Error writes a failure envelope. The Error field carries the status
// taxonomy name ("Unauthorized", "Forbidden", ...) and message the
// human-readable detail.
func Error(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Error: http.StatusText(status), Message: message})
}

// NoCache marks the response as uncacheable. Token responses must not end up
// in shared caches.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
