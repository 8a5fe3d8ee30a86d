package gitops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/bantamhq/gitdesk/internal/auth"
)

// Kind classifies a failed git operation.
type Kind int

const (
	KindIo Kind = iota
	KindNotARepository
	KindAuth
	KindProtocol
	KindPrecondition
	KindInvalidCursor
	KindNameCollision
)

var kindNames = map[Kind]string{
	KindIo:             "io",
	KindNotARepository: "not_a_repository",
	KindAuth:           "auth",
	KindProtocol:       "protocol",
	KindPrecondition:   "precondition",
	KindInvalidCursor:  "invalid_cursor",
	KindNameCollision:  "name_collision",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Transport is the wire protocol an Auth error came from.
type Transport int

const (
	TransportNone Transport = iota
	TransportHTTP
	TransportSSH
)

func (t Transport) String() string {
	switch t {
	case TransportHTTP:
		return "http"
	case TransportSSH:
		return "ssh"
	}
	return ""
}

// TransportFor is the inverse of Mode.
func TransportFor(mode auth.CloneMode) Transport {
	if mode == auth.HTTPS {
		return TransportHTTP
	}
	return TransportSSH
}

// Mode converts the transport to the credential mode needed to retry.
func (t Transport) Mode() auth.CloneMode {
	if t == TransportHTTP {
		return auth.HTTPS
	}
	return auth.SSH
}

var (
	ErrAlreadyExists      = errors.New("destination already exists")
	ErrCleanupFailed      = errors.New("could not remove partially cloned folder")
	ErrUncommittedChanges = errors.New("cannot pull with uncommitted changes")
	ErrDetachedHead       = errors.New("HEAD is not on a branch")
	ErrNoRemote           = errors.New("repository has no remote")
	ErrDiverged           = errors.New("branch has diverged from its upstream")
)

// Error is the single error type returned by git operations.
type Error struct {
	Kind      Kind
	Transport Transport
	Op        string
	Err       error
}

func (e *Error) Error() string {
	if e.Kind == KindAuth && e.Transport != TransportNone {
		return fmt.Sprintf("%s: %s authentication failed: %v", e.Op, e.Transport, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindProtocol for foreign errors.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindProtocol
}

// IsAuth reports whether err is an authentication failure and on which
// transport.
func IsAuth(err error) (Transport, bool) {
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Kind == KindAuth {
		return gerr.Transport, true
	}
	return TransportNone, false
}

var sshAuthMarkers = []string{
	"unable to authenticate",
	"no supported methods remain",
	"ssh agent",
	"ssh_auth_sock",
	"permission denied (publickey",
}

// classify wraps a go-git error in the taxonomy. ep may be nil when the
// remote is unknown.
func classify(op string, ep *transport.Endpoint, err error) error {
	if err == nil {
		return nil
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return err
	}

	t := transportOf(ep)
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod),
		errors.Is(err, auth.ErrNoCredentials):
		return &Error{Kind: KindAuth, Transport: t, Op: op, Err: err}
	case errors.Is(err, auth.ErrInvalidKey):
		return &Error{Kind: KindAuth, Transport: TransportSSH, Op: op, Err: err}
	case t == TransportSSH && hasSSHAuthMarker(err):
		return &Error{Kind: KindAuth, Transport: TransportSSH, Op: op, Err: err}
	case errors.Is(err, git.ErrRepositoryNotExists):
		return &Error{Kind: KindNotARepository, Op: op, Err: err}
	}
	return &Error{Kind: KindProtocol, Op: op, Err: err}
}

func hasSSHAuthMarker(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range sshAuthMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func transportOf(ep *transport.Endpoint) Transport {
	if ep == nil {
		return TransportNone
	}
	switch ep.Protocol {
	case "http", "https":
		return TransportHTTP
	case "ssh":
		return TransportSSH
	}
	return TransportNone
}
