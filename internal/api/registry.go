package api

import (
	"fmt"
	"net/http"
)

type repository struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

func (s *server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	names := s.registry.ListRepositories(r.Context())

	repos := make([]repository, 0, len(names))
	for _, n := range names {
		repos = append(repos, repository{Name: n, Tags: []string{}})
	}
	writeJSON(w, http.StatusOK, repos)
}

func (s *server) handleListTags(w http.ResponseWriter, r *http.Request) {
	repo, ok := requireQuery(w, r, "repository")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, repository{Name: repo, Tags: s.registry.ListTags(r.Context(), repo)})
}

func (s *server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	repo, ok := requireQuery(w, r, "repository")
	if !ok {
		return
	}
	tag, ok := requireQuery(w, r, "tag")
	if !ok {
		return
	}

	detail, err := s.registry.GetTag(r.Context(), repo, tag)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	repo, ok := requireQuery(w, r, "repository")
	if !ok {
		return
	}
	tag, ok := requireQuery(w, r, "tag")
	if !ok {
		return
	}

	if err := s.registry.DeleteTag(r.Context(), repo, tag); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "repository": repo, "tag": tag})
}

func requireQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", fmt.Sprintf("query parameter %q is required", key))
		return "", false
	}
	return v, true
}
