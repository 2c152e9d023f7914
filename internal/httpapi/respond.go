package httpapi

import (
	"encoding/json"
	"net/http"
)

// maxRequestBody caps the request body size.  The largest request
// (scheduling with two DND windows) encodes well under 2 KiB, so 8 KiB is
// generous.
const maxRequestBody = 8192

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
