package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.svc.ListNodes(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "cluster_unreachable", "Cannot reach Docker: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.svc.GetNode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *server) handleDrainNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Drain(r.Context(), id); err != nil {
		writeOpErr(w, err, "Failed to drain node")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "draining", "node_id": id})
}

func (s *server) handleActivateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Activate(r.Context(), id); err != nil {
		writeOpErr(w, err, "Failed to activate node")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active", "node_id": id})
}
