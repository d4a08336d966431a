package httpapi

import (
	"encoding/json"
	"net/http"

	"nllbd/pkg/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError is used for transport-level rejections only; job failures
// travel in the run result.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

// runResult wraps a job output in the /runsync envelope.
func runResult(id string, out types.JobOutput) types.RunResponse {
	resp := types.RunResponse{ID: id, Status: types.StatusCompleted, Output: out}
	if out.Failed() {
		resp.Status = types.StatusFailed
	}
	return resp
}
