package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bantamhq/gitdesk/internal/store"
)

// profileRequest carries the secret fields that store.Profile hides
// from JSON output.
type profileRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	PrivateKeyPath string `json:"private_key_path"`
	SigningKey     string `json:"signing_key"`
}

func (p profileRequest) toProfile(id string) store.Profile {
	return store.Profile{
		ID:             id,
		Name:           p.Name,
		Email:          p.Email,
		Username:       p.Username,
		Password:       p.Password,
		PrivateKeyPath: p.PrivateKeyPath,
		SigningKey:     p.SigningKey,
	}
}

type profileResponse struct {
	Profile store.Profile `json:"profile"`
	Renamed bool          `json:"renamed"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.engine.Profiles()
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}
	JSON(w, http.StatusOK, profiles)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile, renamed, err := s.engine.SaveProfile(req.toProfile(""))
	if err != nil {
		JSONEngineError(w, err)
		return
	}
	JSON(w, http.StatusCreated, profileResponse{Profile: profile, Renamed: renamed})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile, renamed, err := s.engine.SaveProfile(req.toProfile(chi.URLParam(r, "id")))
	if err != nil {
		JSONEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, profileResponse{Profile: profile, Renamed: renamed})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteProfile(chi.URLParam(r, "id")); err != nil {
		JSONEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
