package server

import (
	"net/http"

	"github.com/bantamhq/gitdesk/internal/engine"
)

// handleListCommits pages through history. The cursor is the last commit
// ID of the previous page; that commit is not repeated.
func (s *Server) handleListCommits(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), defaultPageSize)
	cursor := r.URL.Query().Get("cursor")

	page, err := s.engine.LoadCommitsLimit(cursor, limit)
	if err != nil {
		JSONEngineError(w, err)
		return
	}

	var next *string
	if page.HasMore {
		next = &page.Cursor
	}
	JSONList(w, page.Entries, next, page.HasMore)
}

type commitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Passphrase  string `json:"passphrase"`
}

type commitResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		JSONError(w, http.StatusBadRequest, "Title is required")
		return
	}

	hash, err := s.engine.Commit(engine.CommitInput{
		Title:       req.Title,
		Description: req.Description,
		Passphrase:  req.Passphrase,
	})
	if err != nil {
		JSONEngineError(w, err)
		return
	}
	JSON(w, http.StatusCreated, commitResponse{ID: hash.String()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Status()
	if err != nil {
		JSONEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}
