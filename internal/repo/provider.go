// Package repo provides branch diff access for reviewable repositories.
package repo

import (
	"context"
	"fmt"
)

// Provider exposes branch diff operations against one repository.
type Provider interface {
	// ChangedFiles lists files added or modified between base and target,
	// excluding binary files and lock files.
	ChangedFiles(ctx context.Context, base, target string) ([]string, error)

	// DiffFile returns the unified diff of one file between base and target.
	DiffFile(ctx context.Context, base, target, path string) (string, error)

	// Diff returns the unified diff of the whole branch range.
	Diff(ctx context.Context, base, target string) (string, error)
}

// New constructs a provider of the given type scoped to one working copy.
// "local" is the only implemented variant.
func New(providerType, dir string) (Provider, error) {
	switch providerType {
	case "local":
		return NewLocal(dir)
	default:
		return nil, fmt.Errorf("invalid repo provider type: %s", providerType)
	}
}
