package tui

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/bantamhq/gitdesk/internal/engine"
	"github.com/bantamhq/gitdesk/internal/gitops"
)

type eventMsg struct {
	event engine.Event
}

// eventsClosedMsg ends the subscription loop.
type eventsClosedMsg struct{}

type resultMsg struct {
	result engine.Result
}

type ActionErrorMsg struct {
	Operation string
	Err       error
}

type committedMsg struct {
	hash plumbing.Hash
}

type branchesLoadedMsg struct {
	branches []gitops.Branch
}

type branchChangedMsg struct {
	status string
}

type statusLoadedMsg struct {
	branch string
	fetch  gitops.FetchResult
}
