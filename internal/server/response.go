package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bantamhq/gitdesk/internal/core"
	"github.com/bantamhq/gitdesk/internal/engine"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/store"
)

// Response is the standard JSON response format.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// ListResponse is the paginated list response format.
type ListResponse struct {
	Data       any     `json:"data"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// JSONError writes a JSON error response with the given status code.
func JSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// JSONList writes a paginated JSON list response.
func JSONList(w http.ResponseWriter, data any, cursor *string, hasMore bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ListResponse{
		Data:       data,
		NextCursor: cursor,
		HasMore:    hasMore,
	})
}

// JSONEngineError maps an engine or git error to a status and writes it
// with its kind so front ends can branch without parsing messages.
func JSONEngineError(w http.ResponseWriter, err error) {
	status, kind := errorStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: err.Error(), Kind: kind})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, engine.ErrUnknownPath), errors.Is(err, store.ErrProfileNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrRepositoryExists):
		return http.StatusConflict, "exists"
	case errors.Is(err, core.ErrEmptyName), errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrInvalidNameRune), errors.Is(err, core.ErrInvalidBranch):
		return http.StatusBadRequest, "invalid"
	}

	var gerr *gitops.Error
	if !errors.As(err, &gerr) {
		return http.StatusInternalServerError, "internal"
	}
	switch gerr.Kind {
	case gitops.KindPrecondition:
		return http.StatusPreconditionFailed, gerr.Kind.String()
	case gitops.KindInvalidCursor:
		return http.StatusBadRequest, gerr.Kind.String()
	case gitops.KindNotARepository:
		return http.StatusNotFound, gerr.Kind.String()
	case gitops.KindAuth:
		return http.StatusUnauthorized, gerr.Kind.String()
	case gitops.KindNameCollision:
		return http.StatusConflict, gerr.Kind.String()
	case gitops.KindIo:
		return http.StatusInternalServerError, gerr.Kind.String()
	}
	return http.StatusBadGateway, gerr.Kind.String()
}
