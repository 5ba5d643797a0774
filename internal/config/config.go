// Package config provides environment-based application configuration.
package config

import "fmt"

// Config holds application configuration.
type Config struct {
	// Server holds HTTP server configuration.
	Server ServerConfig
	// Logger holds logger configuration.
	Logger LoggerConfig
	// Azure holds Azure DevOps connection configuration.
	Azure AzureConfig
	// LLM holds language model provider configuration.
	LLM LLMConfig
	// Repos maps repository names to their review configuration.
	Repos RepoMap
	// RepoProvider selects the diff provider implementation ("local").
	RepoProvider string
	// GinMode is the Gin framework mode (debug, release, test).
	GinMode string
}

// LoadFromEnv loads all configuration from environment variables.
func LoadFromEnv() (Config, error) {
	repos, err := LoadRepoMapFromEnv()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server:       LoadServerConfigFromEnv(),
		Logger:       LoadLoggerConfigFromEnv(),
		Azure:        LoadAzureConfigFromEnv(),
		LLM:          LoadLLMConfigFromEnv(),
		Repos:        repos,
		RepoProvider: GetEnv("REPO_PROVIDER", "local"),
		GinMode:      GetEnv("GIN_MODE", "release"),
	}, nil
}

// Validate validates all configuration.
func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}

	if err := c.Azure.Validate(); err != nil {
		return fmt.Errorf("azure config validation failed: %w", err)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config validation failed: %w", err)
	}

	if err := c.Repos.Validate(); err != nil {
		return fmt.Errorf("repo map validation failed: %w", err)
	}

	if c.RepoProvider != "local" {
		return fmt.Errorf("invalid REPO_PROVIDER: %s (must be: local)", c.RepoProvider)
	}

	validGinModes := map[string]bool{
		"debug":   true,
		"release": true,
		"test":    true,
	}
	if !validGinModes[c.GinMode] {
		return fmt.Errorf("invalid GIN_MODE: %s (must be: debug, release, test)", c.GinMode)
	}

	return nil
}
