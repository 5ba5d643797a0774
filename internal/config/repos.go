package config

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RepoConfig describes one reviewable repository.
type RepoConfig struct {
	// ID is the Azure DevOps repository identifier.
	ID string `json:"id"`
	// Dir is the local working copy the diff provider operates on.
	Dir string `json:"dir"`
	// Overview is an optional path to a project overview document
	// embedded into the review prompt.
	Overview string `json:"overview"`
}

// RepoMap maps repository names (as accepted by the API) to their configuration.
type RepoMap map[string]RepoConfig

// LoadRepoMapFromEnv parses the REPO_CONFIG environment variable, a JSON
// object of the form {"name": {"id": "...", "dir": "...", "overview": "..."}}.
func LoadRepoMapFromEnv() (RepoMap, error) {
	raw := GetEnv("REPO_CONFIG", "{}")

	var repos RepoMap
	if err := json.Unmarshal([]byte(raw), &repos); err != nil {
		return nil, fmt.Errorf("failed to parse REPO_CONFIG: %w", err)
	}
	return repos, nil
}

// Validate validates every configured repository.
func (m RepoMap) Validate() error {
	for name, rc := range m {
		if rc.ID == "" {
			return fmt.Errorf("repo %q: id is required", name)
		}
		if _, err := uuid.Parse(rc.ID); err != nil {
			return fmt.Errorf("repo %q: id must be a repository guid: %w", name, err)
		}
		if rc.Dir == "" {
			return fmt.Errorf("repo %q: dir is required", name)
		}
	}
	return nil
}
