package config

import "fmt"

// AzureConfig holds Azure DevOps connection configuration.
type AzureConfig struct {
	// OrgURL is the Azure DevOps organization URL.
	OrgURL string
	// PersonalAccessToken authenticates against the organization.
	PersonalAccessToken string
}

// LoadAzureConfigFromEnv loads Azure DevOps configuration from environment variables.
func LoadAzureConfigFromEnv() AzureConfig {
	return AzureConfig{
		OrgURL:              GetEnv("AZURE_ORG_URL", ""),
		PersonalAccessToken: GetEnv("AZURE_PERSONAL_ACCESS_TOKEN", ""),
	}
}

// Validate validates Azure DevOps configuration.
func (c AzureConfig) Validate() error {
	if c.OrgURL == "" {
		return fmt.Errorf("AZURE_ORG_URL is required")
	}
	if c.PersonalAccessToken == "" {
		return fmt.Errorf("AZURE_PERSONAL_ACCESS_TOKEN is required")
	}
	return nil
}
