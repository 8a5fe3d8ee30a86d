package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/engine"
)

type credentialsRequest struct {
	Mode       string `json:"mode"`
	Username   string `json:"username"`
	Secret     string `json:"secret"`
	KeyPath    string `json:"key_path"`
	Passphrase string `json:"passphrase"`
}

type profileChoice struct {
	// Mode is "none", "new" or "selected".
	Mode    string         `json:"mode"`
	ID      string         `json:"id,omitempty"`
	Profile profileRequest `json:"profile"`
}

func (p *profileChoice) toMode() (engine.ProfileMode, bool) {
	if p == nil {
		return engine.NoProfile{}, true
	}
	switch p.Mode {
	case "", "none":
		return engine.NoProfile{}, true
	case "new":
		return engine.NewProfile{Profile: p.Profile.toProfile("")}, true
	case "selected":
		return engine.SelectedProfile{ID: p.ID}, p.ID != ""
	}
	return nil, false
}

type actionRequest struct {
	Branch      string              `json:"branch"`
	Remote      bool                `json:"remote"`
	URL         string              `json:"url"`
	ParentDir   string              `json:"parent_dir"`
	UseProfile  bool                `json:"use_profile"`
	Profile     *profileChoice      `json:"profile,omitempty"`
	Credentials *credentialsRequest `json:"credentials,omitempty"`
}

type actionResponse struct {
	Action engine.Action `json:"action"`
}

// handleStartAction starts a remote operation and returns 202 at once.
// The outcome arrives on /events as operation-finished, preceded by
// auth-required when credentials are needed.
func (s *Server) handleStartAction(w http.ResponseWriter, r *http.Request) {
	action, err := engine.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		JSONError(w, http.StatusNotFound, err.Error())
		return
	}

	var body actionRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}

	profile, ok := body.Profile.toMode()
	if !ok {
		JSONError(w, http.StatusBadRequest, "Invalid profile choice")
		return
	}

	req := engine.Request{
		Action:     action,
		Branch:     body.Branch,
		Remote:     body.Remote,
		URL:        body.URL,
		ParentDir:  body.ParentDir,
		Profile:    profile,
		UseProfile: body.UseProfile,
	}
	if c := body.Credentials; c != nil {
		mode := auth.SSH
		if c.Mode == auth.HTTPS.String() {
			mode = auth.HTTPS
		}
		req.Credentials = &engine.Credentials{
			Mode:       mode,
			Username:   c.Username,
			Secret:     c.Secret,
			KeyPath:    c.KeyPath,
			Passphrase: c.Passphrase,
		}
	}

	ch, err := s.engine.Start(s.base, req)
	if err != nil {
		JSONEngineError(w, err)
		return
	}

	go func() {
		if _, err := s.engine.Complete(<-ch); err != nil {
			logger.WithError(err).WithField("action", action).Debug("bridge action failed")
		}
	}()

	JSON(w, http.StatusAccepted, actionResponse{Action: action})
}

type runningResponse struct {
	Busy   bool           `json:"busy"`
	Action *engine.Action `json:"action,omitempty"`
}

func (s *Server) handleRunningAction(w http.ResponseWriter, r *http.Request) {
	action, busy := s.engine.Running()
	resp := runningResponse{Busy: busy}
	if busy {
		resp.Action = &action
	}
	JSON(w, http.StatusOK, resp)
}
