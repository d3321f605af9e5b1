package rest

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON error envelope returned by all handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// EncodeError writes the envelope to w. The status code must already be set.
func EncodeError(w http.ResponseWriter, resp ErrorResponse) {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
