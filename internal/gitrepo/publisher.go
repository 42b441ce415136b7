package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const commitMessage = "Update BSI threat group data"

// Publisher commits changed artifact files to the local git repository under
// an automation identity, mirroring the hosted workflow's auto-commit step:
// pull latest remote state, stage, commit only when the worktree differs,
// optionally push.
type Publisher struct {
	path        string
	authorName  string
	authorEmail string
	push        bool
}

func NewPublisher(path, authorName, authorEmail string, push bool) *Publisher {
	return &Publisher{
		path:        path,
		authorName:  authorName,
		authorEmail: authorEmail,
		push:        push,
	}
}

func (p *Publisher) Publish(ctx context.Context, paths []string) error {
	repo, err := git.PlainOpenWithOptions(p.path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return err
	}

	if err := p.pullLatest(ctx, worktree); err != nil {
		return err
	}

	for _, path := range paths {
		rel, err := filepath.Rel(worktree.Filesystem.Root(), path)
		if err != nil {
			return err
		}
		if _, err := worktree.Add(rel); err != nil {
			return fmt.Errorf("stage %s: %w", rel, err)
		}
	}

	status, err := worktree.Status()
	if err != nil {
		return err
	}
	if status.IsClean() {
		log.Printf("[git] worktree clean, nothing to commit")
		return nil
	}

	hash, err := worktree.Commit(commitMessage, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.authorName,
			Email: p.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Printf("[git] committed %s", hash)

	if !p.push {
		return nil
	}
	if err := repo.PushContext(ctx, &git.PushOptions{}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// pullLatest fast-forwards from origin before committing. Repositories
// without a remote (local runs, tests) are left alone.
func (p *Publisher) pullLatest(ctx context.Context, worktree *git.Worktree) error {
	err := worktree.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	switch {
	case err == nil,
		errors.Is(err, git.NoErrAlreadyUpToDate),
		errors.Is(err, git.ErrRemoteNotFound):
		return nil
	default:
		return fmt.Errorf("pull: %w", err)
	}
}
