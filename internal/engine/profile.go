package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bantamhq/gitdesk/internal/core"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/store"
)

// ProfileMode is the profile choice made in a clone or settings dialog.
type ProfileMode interface {
	isProfileMode()
}

// NoProfile leaves the repository without a profile.
type NoProfile struct{}

// NewProfile saves Profile first and then uses it.
type NewProfile struct {
	Profile store.Profile
}

// SelectedProfile uses an existing profile.
type SelectedProfile struct {
	ID string
}

func (NoProfile) isProfileMode()       {}
func (NewProfile) isProfileMode()      {}
func (SelectedProfile) isProfileMode() {}

// Profiles lists all stored profiles.
func (e *Engine) Profiles() ([]store.Profile, error) {
	return e.store.ListProfiles()
}

// SaveProfile creates p when it has no ID and updates it otherwise. A
// display name already used by another profile gets a " (N)" suffix; the
// second return value reports whether that happened.
func (e *Engine) SaveProfile(p store.Profile) (store.Profile, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveProfileLocked(p)
}

func (e *Engine) saveProfileLocked(p store.Profile) (store.Profile, bool, error) {
	name, err := core.NormalizeProfileName(p.Name)
	if err != nil {
		return store.Profile{}, false, err
	}

	unique, renamed, err := store.UniqueProfileName(e.store, name, p.ID)
	if err != nil {
		return store.Profile{}, false, gitops.NewError(gitops.KindNameCollision, "save profile", err)
	}
	p.Name = unique

	if p.ID == "" {
		p.ID = uuid.New().String()
		p.CreatedAt = time.Now().UTC()
		err = e.store.CreateProfile(&p)
	} else {
		err = e.store.UpdateProfile(&p)
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: %s", store.ErrProfileNotFound, p.ID)
		}
	}
	if err != nil {
		return store.Profile{}, false, err
	}

	if renamed {
		e.log.WithField("profile", p.Name).Info("profile renamed to avoid a name collision")
	}
	return p, renamed, nil
}

// DeleteProfile removes a profile. Repositories using it keep working
// without one.
func (e *Engine) DeleteProfile(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.DeleteProfile(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", store.ErrProfileNotFound, id)
		}
		return err
	}
	if e.selected != nil && e.selected.Record.ProfileID != nil && *e.selected.Record.ProfileID == id {
		e.selected.Record.ProfileID = nil
	}
	return nil
}

// AssignProfile attaches a profile to the selected repository and writes
// its identity into the repository config. A nil id detaches.
func (e *Engine) AssignProfile(id *string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIdleLocked(); err != nil {
		return err
	}
	repo, err := e.selected.Repo()
	if err != nil {
		return err
	}

	var profile *store.Profile
	if id != nil {
		profile, err = e.getProfileLocked(*id)
		if err != nil {
			return err
		}
	}

	if err := e.store.SetRepositoryProfile(e.selected.Record.ID, id); err != nil {
		return err
	}
	e.selected.Record.ProfileID = id

	if profile != nil {
		return gitops.ApplyProfile(repo, *profile)
	}
	return nil
}

// resolveProfileLocked turns a dialog choice into a stored profile.
func (e *Engine) resolveProfileLocked(mode ProfileMode) (*store.Profile, error) {
	switch m := mode.(type) {
	case nil, NoProfile:
		return nil, nil
	case NewProfile:
		p := m.Profile
		p.ID = ""
		saved, _, err := e.saveProfileLocked(p)
		if err != nil {
			return nil, err
		}
		return &saved, nil
	case SelectedProfile:
		return e.getProfileLocked(m.ID)
	}
	return nil, fmt.Errorf("unknown profile mode %T", mode)
}

func (e *Engine) getProfileLocked(id string) (*store.Profile, error) {
	p, err := e.store.GetProfile(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrProfileNotFound, id)
	}
	return p, nil
}

// repositoryProfileLocked returns the selected repository's profile, or
// nil when it has none.
func (e *Engine) repositoryProfileLocked() *store.Profile {
	if e.selected == nil || e.selected.Record.ProfileID == nil {
		return nil
	}
	p, err := e.getProfileLocked(*e.selected.Record.ProfileID)
	if err != nil {
		e.log.WithError(err).Warn("repository profile unavailable")
		return nil
	}
	return p
}
