package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/falmar/swarmkeeper/internal/builder"
	"github.com/falmar/swarmkeeper/internal/manager"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/go-chi/chi/v5"
)

type createServiceRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Definition  model.ServiceDefinition `json:"definition"`
}

type updateServiceRequest struct {
	Description *string                  `json:"description"`
	Definition  *model.ServiceDefinition `json:"definition"`
}

type scaleRequest struct {
	Replicas *int `json:"replicas"`
}

type buildRequest struct {
	Platform string `json:"platform"`
}

func (s *server) handleListServices(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.ListServices(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleLiveServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.svc.LiveServices(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "cluster_unreachable", "Cannot reach Docker: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *server) handleGetService(w http.ResponseWriter, r *http.Request) {
	entry, err := s.svc.GetService(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	req := createServiceRequest{Definition: model.ServiceDefinition{Replicas: 1}}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	entry, err := s.svc.CreateService(r.Context(), req.Name, req.Description, req.Definition)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var req updateServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	entry, err := s.svc.UpdateService(r.Context(), chi.URLParam(r, "name"), req.Definition, req.Description)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.svc.DeleteService(r.Context(), name); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "name": name})
}

func (s *server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.svc.GetService(r.Context(), name); err != nil {
		writeErr(w, err)
		return
	}

	id, err := s.svc.Deploy(r.Context(), name)
	if err != nil {
		writeOpErr(w, err, "Deploy failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deployed", "name": name, "swarm_id": id})
}

func (s *server) handleRedeploy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.svc.GetService(r.Context(), name); err != nil {
		writeErr(w, err)
		return
	}

	id, err := s.svc.Redeploy(r.Context(), name)
	if err != nil {
		writeOpErr(w, err, "Update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "name": name, "swarm_id": id})
}

func (s *server) handleStop(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.svc.GetService(r.Context(), name); err != nil {
		writeErr(w, err)
		return
	}

	if err := s.svc.Stop(r.Context(), name); err != nil {
		writeOpErr(w, err, "Failed to stop service")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped", "name": name})
}

func (s *server) handleScale(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req scaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Replicas == nil || *req.Replicas < 0 || *req.Replicas > manager.MaxReplicas {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "replicas must be between 0 and 100")
		return
	}

	if err := s.svc.Scale(r.Context(), name, *req.Replicas); err != nil {
		writeOpErr(w, err, "Failed to scale service")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "scaled", "name": name, "replicas": *req.Replicas})
}

func (s *server) handleBuild(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req buildRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, err)
		return
	}

	job, err := s.svc.Build(r.Context(), name, req.Platform)
	if errors.Is(err, model.ErrBuildFailed) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "build_failed",
			Message: "Build failed:\n" + job.Log,
			JobID:   job.ID,
		})
		return
	} else if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "built",
		"name":   name,
		"image":  job.Image,
		"logs":   job.Log,
		"job_id": job.ID,
	})
}

func (s *server) handleLogs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	tail := 100
	if v := r.URL.Query().Get("tail"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request", "tail must be a positive integer")
			return
		}
		tail = n
	}

	writeJSON(w, http.StatusOK, map[string]string{"name": name, "logs": s.svc.Logs(r.Context(), name, tail)})
}

func (s *server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.Job(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := builder.ListProjects(s.projectsDir)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}
