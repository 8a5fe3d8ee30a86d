package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := s.engine.Branches()
	if err != nil {
		JSONEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, branches)
}

type createBranchRequest struct {
	Name     string `json:"name"`
	Checkout bool   `json:"checkout"`
}

func (s *Server) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var req createBranchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	branch, err := s.engine.CreateBranch(req.Name)
	if err != nil {
		JSONEngineError(w, err)
		return
	}
	if req.Checkout {
		if err := s.engine.Checkout(branch.Name, false); err != nil {
			JSONEngineError(w, err)
			return
		}
		branch.Current = true
	}
	JSON(w, http.StatusCreated, branch)
}

type checkoutRequest struct {
	Name   string `json:"name"`
	Remote bool   `json:"remote"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		JSONError(w, http.StatusBadRequest, "Name is required")
		return
	}

	if err := s.engine.Checkout(req.Name, req.Remote); err != nil {
		JSONEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteBranch(chi.URLParam(r, "*")); err != nil {
		JSONEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
