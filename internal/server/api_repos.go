package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bantamhq/gitdesk/internal/store"
)

func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), defaultPageSize)
	cursor := r.URL.Query().Get("cursor")

	repos, err := s.engine.Repositories(cursor, limit+1)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to list repositories")
		return
	}

	repos, next, hasMore := paginateSlice(repos, limit, func(r store.Repository) string { return r.ID })
	JSONList(w, repos, next, hasMore)
}

type addRepoRequest struct {
	Path      string  `json:"path"`
	ProfileID *string `json:"profile_id,omitempty"`
}

func (s *Server) handleAddRepo(w http.ResponseWriter, r *http.Request) {
	var req addRepoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		JSONError(w, http.StatusBadRequest, "Path is required")
		return
	}

	repo, err := s.engine.AddRepository(req.Path, req.ProfileID)
	if err != nil {
		JSONEngineError(w, err)
		return
	}
	JSON(w, http.StatusCreated, repo)
}

func (s *Server) handleOpenRepo(w http.ResponseWriter, r *http.Request) {
	repo, err := s.engine.OpenRepository(chi.URLParam(r, "id"))
	if err != nil {
		JSONEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, repo)
}

func (s *Server) handleCurrentRepo(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.engine.Selected()
	if !ok {
		JSONError(w, http.StatusNotFound, "No repository selected")
		return
	}
	JSON(w, http.StatusOK, repo)
}

type assignProfileRequest struct {
	ProfileID *string `json:"profile_id"`
}

func (s *Server) handleAssignProfile(w http.ResponseWriter, r *http.Request) {
	var req assignProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.engine.AssignProfile(req.ProfileID); err != nil {
		JSONEngineError(w, err)
		return
	}
	repo, _ := s.engine.Selected()
	JSON(w, http.StatusOK, repo)
}
