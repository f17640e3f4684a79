package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	sharederrors "autotundra/internal/shared/errors"
)

// writeJSON serialises payload as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError translates err into an HTTP response using the shared error
// taxonomy's status-code mapping, per §7's exit-code table.
func writeError(w http.ResponseWriter, err error) {
	status := sharederrors.StatusCode(err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// clientIP extracts the client IP from common proxy headers or the remote address.
func clientIP(r *http.Request) string {
	if realIP := r.Header.Get("X-Forwarded-For"); realIP != "" {
		parts := strings.Split(realIP, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return strings.Trim(r.RemoteAddr, "[]")
}
