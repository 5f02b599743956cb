// Package gitver derives the documentation version from the source tree's
// git history, mirroring `git describe --abbrev=0` semantics: the most
// recent tag wins, with the short HEAD hash as fallback.
package gitver

import (
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Fallback is returned when the source tree has no usable git metadata.
const Fallback = "unknown"

// Resolve returns the version string to stamp into PROJECT_NUMBER for the
// given source directory. It never fails: missing repository, missing tags,
// and detached states all degrade to the next fallback.
func Resolve(sourceDir string) string {
	repo, err := git.PlainOpenWithOptions(sourceDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("Source tree is not a git repository", "path", sourceDir, "error", err)
		return Fallback
	}

	if tag := latestTag(repo); tag != "" {
		return tag
	}

	if head, err := repo.Head(); err == nil {
		return head.Hash().String()[:8]
	}

	return Fallback
}

// latestTag returns the name of the tag whose target commit is newest,
// or empty when the repository has no resolvable tags.
func latestTag(repo *git.Repository) string {
	iter, err := repo.Tags()
	if err != nil {
		return ""
	}

	var (
		best     string
		bestTime time.Time
	)
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		commit := tagCommit(repo, ref)
		if commit == nil {
			return nil
		}
		when := commit.Committer.When
		if best == "" || when.After(bestTime) {
			best = ref.Name().Short()
			bestTime = when
		}
		return nil
	})
	return best
}

// tagCommit resolves a tag reference to its target commit, handling both
// lightweight and annotated tags.
func tagCommit(repo *git.Repository, ref *plumbing.Reference) *object.Commit {
	if tag, err := repo.TagObject(ref.Hash()); err == nil {
		if commit, err := tag.Commit(); err == nil {
			return commit
		}
		return nil
	}
	if commit, err := repo.CommitObject(ref.Hash()); err == nil {
		return commit
	}
	return nil
}
