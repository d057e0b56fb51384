package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hyperengineering/questboard/internal/types"
)

// writeText writes a short plain-text body.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// writeJSON writes v as a JSON body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// preflight answers a CORS preflight for a route that accepts method.
func preflight(w http.ResponseWriter, method string) {
	w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{method, http.MethodOptions}, ", "))
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

// writeMessage writes a {"message": ...} body.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.MessageResponse{Message: message})
}
