package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bantamhq/gitdesk/internal/changes"
)

type changesResponse struct {
	Tree        changes.FileTree `json:"tree"`
	Selected    int              `json:"selected"`
	Total       int              `json:"total"`
	AllSelected bool             `json:"all_selected"`
}

func (s *Server) writeChanges(w http.ResponseWriter) {
	selected, total := s.engine.ChangeCounts()
	JSON(w, http.StatusOK, changesResponse{
		Tree:        s.engine.Changes(),
		Selected:    selected,
		Total:       total,
		AllSelected: s.engine.AllSelected(),
	})
}

func (s *Server) handleGetChanges(w http.ResponseWriter, r *http.Request) {
	s.writeChanges(w)
}

func (s *Server) handleRefreshChanges(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Refresh(); err != nil {
		JSONEngineError(w, err)
		return
	}
	s.writeChanges(w)
}

type selectRequest struct {
	Selected bool `json:"selected"`
}

func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.engine.SelectFile(chi.URLParam(r, "*"), req.Selected); err != nil {
		JSONEngineError(w, err)
		return
	}
	s.writeChanges(w)
}

type folderRequest struct {
	Selected *bool `json:"selected,omitempty"`
	Expanded *bool `json:"expanded,omitempty"`
}

// handleUpdateFolder toggles a folder's checkbox, its expansion, or both.
// The root folder is addressed as "/changes/folders/".
func (s *Server) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Selected == nil && req.Expanded == nil {
		JSONError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	folder := chi.URLParam(r, "*")
	if req.Selected != nil {
		if err := s.engine.SelectFolder(folder, *req.Selected); err != nil {
			JSONEngineError(w, err)
			return
		}
	}
	if req.Expanded != nil {
		if err := s.engine.ExpandFolder(folder, *req.Expanded); err != nil {
			JSONEngineError(w, err)
			return
		}
	}
	s.writeChanges(w)
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.engine.SelectAll(req.Selected)
	s.writeChanges(w)
}

type viewRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleViewFile(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.engine.ViewFile(req.Path); err != nil {
		JSONEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
