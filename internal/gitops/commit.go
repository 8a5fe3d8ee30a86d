package gitops

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signer produces a detached signature over a commit payload.
type Signer interface {
	Sign(payload []byte, keyID, passphrase string) ([]byte, error)
}

// CommitRequest describes a commit of selected files.
type CommitRequest struct {
	Files       []string
	Title       string
	Description string
	AuthorName  string
	AuthorEmail string
	SigningKey  string
	Passphrase  string
}

// Message joins title and description with a blank line.
func (r CommitRequest) Message() string {
	title := strings.TrimSpace(r.Title)
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return title
	}
	return title + "\n\n" + desc
}

// Commit stages exactly req.Files and commits them. When req.SigningKey
// is set the commit is signed through signer.
func Commit(repo *git.Repository, req CommitRequest, signer Signer) (plumbing.Hash, error) {
	const op = "commit"

	if strings.TrimSpace(req.Title) == "" {
		return plumbing.ZeroHash, NewError(KindPrecondition, op, errors.New("commit title is empty"))
	}
	if len(req.Files) == 0 {
		return plumbing.ZeroHash, NewError(KindPrecondition, op, errors.New("no files selected"))
	}
	if req.SigningKey != "" && signer == nil {
		return plumbing.ZeroHash, NewError(KindPrecondition, op, errors.New("signing key set but no signer configured"))
	}

	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, classify(op, nil, err)
	}

	for _, path := range req.Files {
		if _, err := wt.Add(path); err != nil {
			return plumbing.ZeroHash, NewError(KindIo, op, fmt.Errorf("stage %s: %w", path, err))
		}
	}

	sig := &object.Signature{Name: req.AuthorName, Email: req.AuthorEmail, When: time.Now()}
	opts := &git.CommitOptions{Author: sig, Committer: sig}
	if req.SigningKey != "" {
		opts.Signer = commitSigner{signer: signer, keyID: req.SigningKey, passphrase: req.Passphrase}
	}

	hash, err := wt.Commit(req.Message(), opts)
	if err != nil {
		return plumbing.ZeroHash, classify(op, nil, err)
	}
	return hash, nil
}

// commitSigner adapts a Signer to go-git's streaming signer.
type commitSigner struct {
	signer     Signer
	keyID      string
	passphrase string
}

func (s commitSigner) Sign(message io.Reader) ([]byte, error) {
	payload, err := io.ReadAll(message)
	if err != nil {
		return nil, err
	}
	return s.signer.Sign(payload, s.keyID, s.passphrase)
}
