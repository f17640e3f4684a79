package http

import (
	"encoding/json"
	"net/http"

	"autotundra/internal/mcp"
	sharederrors "autotundra/internal/shared/errors"
)

func (s *server) handleMCPServers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.MCP.ListServers())
}

func (s *server) handleMCPToolCall(w http.ResponseWriter, r *http.Request) {
	var req mcp.CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, sharederrors.NewValidationError("name is required"))
		return
	}
	result := s.deps.MCP.Dispatch(r.Context(), req)
	writeJSON(w, http.StatusOK, result)
}
