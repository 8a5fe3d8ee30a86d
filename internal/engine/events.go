package engine

import (
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/history"
	"github.com/bantamhq/gitdesk/internal/store"
)

// EventKind names an event on the wire.
type EventKind string

const (
	KindRepositoryOpened  EventKind = "repository-opened"
	KindChangeListUpdated EventKind = "change-list-updated"
	KindCommitPageLoaded  EventKind = "commit-page-loaded"
	KindOperationStarted  EventKind = "operation-started"
	KindOperationFinished EventKind = "operation-finished"
	KindAuthRequired      EventKind = "auth-required"
	KindViewedFileGone    EventKind = "viewed-file-gone"
	KindCloneFinished     EventKind = "clone-finished"
)

// Event is a notification from the engine to its front ends.
type Event interface {
	Kind() EventKind
}

type RepositoryOpened struct {
	Repository store.Repository `json:"repository"`
}

type ChangeListUpdated struct {
	Total    int `json:"total"`
	Selected int `json:"selected"`
}

type CommitPageLoaded struct {
	Entries []history.Entry `json:"entries"`
	HasMore bool            `json:"has_more"`
	// Reset is true for the first page after the history changed.
	Reset bool `json:"reset"`
}

type OperationStarted struct {
	Action Action `json:"action"`
}

type OperationFinished struct {
	Action       Action             `json:"action"`
	Fetch        gitops.FetchResult `json:"fetch"`
	AuthRequired bool               `json:"auth_required,omitempty"`
	Error        string             `json:"error,omitempty"`
	Err          error              `json:"-"`
}

// AuthRequired asks the front end for credentials so it can re-issue
// Action. Username and Secret prefill the dialog from the profile; Secret
// is the password for HTTPS and the private key path for SSH.
type AuthRequired struct {
	Mode      auth.CloneMode `json:"-"`
	ModeName  string         `json:"mode"`
	Username  string         `json:"username,omitempty"`
	Secret    string         `json:"secret,omitempty"`
	Action    Action         `json:"action"`
	Branch    string         `json:"branch,omitempty"`
	URL       string         `json:"url,omitempty"`
	ParentDir string         `json:"parent_dir,omitempty"`
	ProfileID string         `json:"profile_id,omitempty"`
}

type ViewedFileGone struct {
	Path string `json:"path"`
}

type CloneFinished struct {
	Repository *store.Repository `json:"repository,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func (RepositoryOpened) Kind() EventKind  { return KindRepositoryOpened }
func (ChangeListUpdated) Kind() EventKind { return KindChangeListUpdated }
func (CommitPageLoaded) Kind() EventKind  { return KindCommitPageLoaded }
func (OperationStarted) Kind() EventKind  { return KindOperationStarted }
func (OperationFinished) Kind() EventKind { return KindOperationFinished }
func (AuthRequired) Kind() EventKind      { return KindAuthRequired }
func (ViewedFileGone) Kind() EventKind    { return KindViewedFileGone }
func (CloneFinished) Kind() EventKind     { return KindCloneFinished }

const subscriberBuffer = 256

// bus fans events out to subscribers. Slow subscribers lose events
// rather than stall the engine.
type bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func (b *bus) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			logger.WithFields(logger.Fields{"subscriber": id, "event": ev.Kind()}).Warn("dropping event for slow subscriber")
		}
	}
}
