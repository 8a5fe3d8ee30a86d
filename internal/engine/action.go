package engine

import (
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/store"
	"github.com/bantamhq/gitdesk/internal/workspace"
)

// Action is a long-running operation that runs on a worker goroutine.
type Action int

const (
	ActionFetch Action = iota
	ActionPull
	ActionPush
	ActionDeleteRemoteBranch
	ActionClone
	ActionCheckout
)

var actionNames = map[Action]string{
	ActionFetch:              "fetch",
	ActionPull:               "pull",
	ActionPush:               "push",
	ActionDeleteRemoteBranch: "delete-remote-branch",
	ActionClone:              "clone",
	ActionCheckout:           "checkout",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction maps a name such as "fetch" back to its Action.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Credentials are supplied by the user after an AuthRequired event.
type Credentials struct {
	Mode       auth.CloneMode
	Username   string
	Secret     string
	KeyPath    string
	Passphrase string
}

// Request describes one action.
type Request struct {
	Action Action

	// Branch is the remote branch for ActionDeleteRemoteBranch and the
	// branch to switch to for ActionCheckout. Remote marks it as a
	// remote-tracking branch.
	Branch string
	Remote bool

	// URL, ParentDir and Profile are used by ActionClone. An empty
	// ParentDir means the configured clone directory.
	URL       string
	ParentDir string
	Profile   ProfileMode

	// Credentials, when set, are used instead of the anonymous attempt.
	Credentials *Credentials

	// UseProfile builds credentials from the repository's profile. A
	// profile lacking the fields the remote needs short-circuits to
	// AuthRequired without touching the network.
	UseProfile bool
}

// Result is the single value a worker sends back.
type Result struct {
	Request Request
	Fetch   gitops.FetchResult
	Dir     string
	Err     error

	// repo is the worker's own handle; sel is the selection it was
	// forked from.
	repo          *git.Repository
	sel           *workspace.Selected
	profile       *store.Profile
	mode          auth.CloneMode
	authenticated bool
}

// Outcome is what Complete reports once a Result is consumed.
type Outcome struct {
	Action     Action
	Fetch      gitops.FetchResult
	Repository *store.Repository
	// Auth is set when the anonymous attempt was rejected and the caller
	// should retry with credentials.
	Auth *AuthRequired
}
