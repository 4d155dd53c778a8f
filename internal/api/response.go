package api

import (
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"
)

// WriteJSON marshals v as JSON and writes it to w with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// DataResponse is the {"data": ...} envelope every resource is served in.
type DataResponse struct {
	Data any `json:"data"`
}

// WriteData writes v inside a DataResponse.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, DataResponse{Data: v})
}

// ReadJSON decodes the request body into v.
func ReadJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
