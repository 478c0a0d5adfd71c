// Package git provides adapters for reading branch and build number from local
// Git repositories. Both adapters implement the domain.RepoStateProbe interface.
package git

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// Logger defines the logging interface for the git adapters.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitProbe implements domain.RepoStateProbe in-process using go-git/v5.
type GoGitProbe struct {
	logger Logger
}

// NewGoGitProbe creates a new GoGitProbe.
func NewGoGitProbe(log Logger) *GoGitProbe {
	return &GoGitProbe{logger: log}
}

// Probe opens the repository containing workdir and reads HEAD.
// The build number counts every commit reachable from HEAD, matching
// `git rev-list --count HEAD`.
func (p *GoGitProbe) Probe(ctx context.Context, workdir string) (*domain.RepoState, error) {
	repo, err := git.PlainOpenWithOptions(workdir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open repository at %s: %w", domain.ErrQueryFailed, workdir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get HEAD: %w", domain.ErrQueryFailed, err)
	}

	if !head.Name().IsBranch() {
		p.logger.Warn(ctx, "HEAD is detached", map[string]interface{}{
			"head_sha": head.Hash().String(),
			"path":     workdir,
		})
		return nil, domain.ErrDetachedHead
	}

	count, err := countCommits(ctx, repo, head.Hash())
	if err != nil {
		return nil, err
	}

	state := &domain.RepoState{
		Branch:      head.Name().Short(),
		BuildNumber: strconv.Itoa(count),
	}

	p.logger.Debug(ctx, "read repository state", map[string]interface{}{
		"head_sha":     head.Hash().String(),
		"branch":       state.Branch,
		"build_number": state.BuildNumber,
	})

	return state, nil
}

// countCommits walks the full commit graph from hash, visiting each commit once.
func countCommits(ctx context.Context, repo *git.Repository, from plumbing.Hash) (int, error) {
	iter, err := repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read commit log: %w", domain.ErrQueryFailed, err)
	}
	defer iter.Close()

	count := 0
	err = iter.ForEach(func(_ *object.Commit) error {
		// Check context for cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to walk commit history: %w", domain.ErrQueryFailed, err)
	}

	return count, nil
}
