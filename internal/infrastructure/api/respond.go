package api

import (
	"encoding/json"
	"net/http"
)

// Identity headers set by the authenticating gateway in front of this
// service. The API trusts them as-is.
const (
	headerUserID   = "X-User-ID"
	headerUserName = "X-User-Name"
	headerUserRole = "X-User-Role"
)

func actingUser(r *http.Request) string {
	if id := r.Header.Get(headerUserID); id != "" {
		return id
	}
	return "anonymous"
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
