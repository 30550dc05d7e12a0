package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/falmar/swarmkeeper/internal/builder"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	JobID   string `json:"job_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeErr maps domain errors onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrClusterUnreachable):
		writeError(w, http.StatusServiceUnavailable, "cluster_unreachable", err.Error())
	case errors.Is(err, builder.ErrProjectsDirMissing):
		writeError(w, http.StatusServiceUnavailable, "projects_unavailable", err.Error())
	case errors.Is(err, model.ErrInvalidDefinition):
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, model.ErrBuildFailed):
		writeError(w, http.StatusInternalServerError, "build_failed", err.Error())
	case errors.Is(err, model.ErrOperationFailed):
		writeError(w, http.StatusInternalServerError, "operation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// writeOpErr is for calls that reached the cluster: anything but an
// unreachable cluster is a 500.
func writeOpErr(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, model.ErrClusterUnreachable) {
		writeError(w, http.StatusServiceUnavailable, "cluster_unreachable", fmt.Sprintf("%s: %v", message, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "operation_failed", fmt.Sprintf("%s: %v", message, err))
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidDefinition, err)
	}
	return nil
}
