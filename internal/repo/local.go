package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// binaryExtensions lists file extensions never sent for review. Content
// detection via the patch is the primary check; this backs it up for
// files go-git cannot patch.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".7z": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".mov": true, ".jar": true, ".class": true,
	".wasm": true,
}

// lockFileNames lists dependency lock files excluded from review.
var lockFileNames = map[string]bool{
	"yarn.lock":      true,
	"pnpm-lock.yaml": true,
	"go.sum":         true,
	"Cargo.lock":     true,
	"composer.lock":  true,
	"Gemfile.lock":   true,
	"poetry.lock":    true,
}

// Local is a diff provider over a local git working copy.
type Local struct {
	dir  string
	repo *git.Repository
}

// NewLocal opens the working copy at dir.
func NewLocal(dir string) (*Local, error) {
	r, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	return &Local{dir: dir, repo: r}, nil
}

// ChangedFiles lists files added or modified between base and target.
func (l *Local) ChangedFiles(ctx context.Context, base, target string) ([]string, error) {
	changes, err := l.changes(ctx, base, target)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, err
		}
		if action != merkletrie.Insert && action != merkletrie.Modify {
			continue
		}

		name := change.To.Name
		if isExcluded(name) {
			continue
		}

		binary, err := isBinaryChange(ctx, change)
		if err != nil {
			return nil, err
		}
		if binary {
			continue
		}

		files = append(files, name)
	}

	return files, nil
}

// DiffFile returns the unified diff of one file between base and target.
// A file untouched by the range yields an empty diff.
func (l *Local) DiffFile(ctx context.Context, base, target, path string) (string, error) {
	changes, err := l.changes(ctx, base, target)
	if err != nil {
		return "", err
	}

	for _, change := range changes {
		if change.To.Name != path && change.From.Name != path {
			continue
		}
		patch, err := change.PatchContext(ctx)
		if err != nil {
			return "", err
		}
		return patch.String(), nil
	}

	return "", nil
}

// Diff returns the unified diff of the whole branch range.
func (l *Local) Diff(ctx context.Context, base, target string) (string, error) {
	baseTree, targetTree, err := l.trees(ctx, base, target)
	if err != nil {
		return "", err
	}

	patch, err := baseTree.PatchContext(ctx, targetTree)
	if err != nil {
		return "", err
	}
	return patch.String(), nil
}

func (l *Local) changes(ctx context.Context, base, target string) (object.Changes, error) {
	baseTree, targetTree, err := l.trees(ctx, base, target)
	if err != nil {
		return nil, err
	}
	return baseTree.DiffContext(ctx, targetTree)
}

func (l *Local) trees(ctx context.Context, base, target string) (*object.Tree, *object.Tree, error) {
	if err := l.fetch(ctx); err != nil {
		return nil, nil, err
	}

	baseTree, err := l.tree(base)
	if err != nil {
		return nil, nil, err
	}
	targetTree, err := l.tree(target)
	if err != nil {
		return nil, nil, err
	}
	return baseTree, targetTree, nil
}

// fetch updates remote refs with prune. Working copies without an origin
// remote are used as-is.
func (l *Local) fetch(ctx context.Context) error {
	if _, err := l.repo.Remote("origin"); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return nil
		}
		return err
	}

	err := l.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Prune:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch origin: %w", err)
	}
	return nil
}

// tree resolves a branch to its commit tree, preferring the remote-tracking
// ref when one exists.
func (l *Local) tree(branch string) (*object.Tree, error) {
	hash, err := l.repo.ResolveRevision(plumbing.Revision("origin/" + branch))
	if err != nil {
		hash, err = l.repo.ResolveRevision(plumbing.Revision(branch))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve branch %s: %w", branch, err)
		}
	}

	commit, err := l.repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func isBinaryChange(ctx context.Context, change *object.Change) (bool, error) {
	patch, err := change.PatchContext(ctx)
	if err != nil {
		return false, err
	}
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			return true, nil
		}
	}
	return false, nil
}

func isExcluded(name string) bool {
	base := filepath.Base(name)
	if lockFileNames[base] || strings.Contains(base, "package-lock") {
		return true
	}
	return binaryExtensions[strings.ToLower(filepath.Ext(name))]
}
