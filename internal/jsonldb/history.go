// Records table mutations as git commits.

package jsonldb

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// History commits table files to a git repository.
type History struct {
	repo   *git.Repository
	Author object.Signature
}

// OpenHistory opens the git repository at dir, creating it if needed.
func OpenHistory(dir string) (*History, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository in %s: %w", dir, err)
	}
	return &History{
		repo:   repo,
		Author: object.Signature{Name: "propertyhub", Email: "propertyhub@localhost"},
	}, nil
}

// Commit stages the given paths, relative to the repository root, and
// commits them. It is a no-op when none of them changed.
func (h *History) Commit(msg string, paths ...string) error {
	wt, err := h.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}
	st, err := wt.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	staged := false
	for _, p := range paths {
		if fs, ok := st[p]; ok && fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			staged = true
			break
		}
	}
	if !staged {
		return nil
	}
	author := h.Author
	author.When = time.Now()
	if _, err := wt.Commit(msg, &git.CommitOptions{Author: &author}); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
