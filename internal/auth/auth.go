// Package auth decides how a remote is authenticated and builds the
// credential providers handed to git transport operations.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/bantamhq/gitdesk/internal/store"
)

// CloneMode is the transport family of a remote URL.
type CloneMode int

const (
	HTTPS CloneMode = iota
	SSH
)

func (m CloneMode) String() string {
	if m == HTTPS {
		return "https"
	}
	return "ssh"
}

// ErrNoCredentials is returned by an SSH provider built without a username.
var ErrNoCredentials = errors.New("no credentials available")

// ErrInvalidKey wraps failures to read or parse an SSH private key.
var ErrInvalidKey = errors.New("cannot load ssh key")

// Provider supplies the auth method for an endpoint. It is invoked when
// the transport operation starts, so key files are read at use time.
type Provider func(ep *transport.Endpoint) (transport.AuthMethod, error)

// Anonymous is the provider used for the first, credential-less attempt.
func Anonymous(*transport.Endpoint) (transport.AuthMethod, error) {
	return nil, nil
}

// Classify returns HTTPS for URLs starting with "https://" and SSH for
// everything else, including ssh:// URLs, scp-like user@host:path and
// local paths.
func Classify(url string) CloneMode {
	if strings.HasPrefix(url, "https://") {
		return HTTPS
	}
	return SSH
}

// MissingAuth reports whether profile lacks the fields mode requires.
// HTTPS needs a username; SSH needs a username and a private key path.
func MissingAuth(profile store.Profile, mode CloneMode) bool {
	if profile.Username == "" {
		return true
	}
	return mode == SSH && profile.PrivateKeyPath == ""
}

// HostKeyOptions controls SSH server verification.
type HostKeyOptions struct {
	KnownHosts            string
	InsecureIgnoreHostKey bool
}

// Resolver builds providers. The zero value verifies SSH hosts against
// the user's default known_hosts files.
type Resolver struct {
	HostKeys HostKeyOptions
}

// Build returns a provider for mode. secret is the HTTPS password or
// token; keyPath and passphrase are only used for SSH.
func (r Resolver) Build(mode CloneMode, username, secret, keyPath, passphrase string) Provider {
	if mode == HTTPS {
		return func(ep *transport.Endpoint) (transport.AuthMethod, error) {
			if username == "" {
				if ep != nil && ep.User != "" {
					return &githttp.BasicAuth{Username: ep.User, Password: ep.Password}, nil
				}
				return nil, nil
			}
			return &githttp.BasicAuth{Username: username, Password: secret}, nil
		}
	}

	return func(*transport.Endpoint) (transport.AuthMethod, error) {
		if username == "" {
			return nil, ErrNoCredentials
		}

		keys, err := gitssh.NewPublicKeysFromFile(username, keyPath, passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrInvalidKey, keyPath, err)
		}

		callback, err := r.hostKeyCallback()
		if err != nil {
			return nil, err
		}
		keys.HostKeyCallback = callback

		return keys, nil
	}
}

// ForProfile builds a provider from a stored profile.
func (r Resolver) ForProfile(profile store.Profile, mode CloneMode, passphrase string) Provider {
	return r.Build(mode, profile.Username, profile.Password, profile.PrivateKeyPath, passphrase)
}

func (r Resolver) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if r.HostKeys.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if r.HostKeys.KnownHosts == "" {
		return gitssh.NewKnownHostsCallback()
	}

	callback, err := knownhosts.New(r.HostKeys.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("read known hosts: %w", err)
	}
	return callback, nil
}
