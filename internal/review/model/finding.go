// Package model provides data transfer objects and domain models for the
// review module.
package model

import (
	"encoding/json"
	"fmt"
)

// Finding is one issue the language model identified in a file.
type Finding struct {
	FilePath       string `json:"filepath"`
	Issue          string `json:"issue"`
	LineNumber     int    `json:"lineNumber"`
	Reason         string `json:"reason"`
	Recommendation string `json:"recommendation"`
}

// FileReview groups the findings of one changed file.
type FileReview struct {
	FilePath string    `json:"filePath"`
	Findings []Finding `json:"findings"`
}

// FindingsSchema is the JSON schema the model's reply must conform to.
var FindingsSchema = json.RawMessage(`{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"filepath": {"type": "string"},
			"issue": {"type": "string"},
			"lineNumber": {"type": "integer"},
			"reason": {"type": "string"},
			"recommendation": {"type": "string"}
		},
		"required": ["filepath", "issue", "lineNumber", "reason", "recommendation"],
		"additionalProperties": false
	}
}`)

// ParseFindings decodes a model reply into findings. Any decode failure is
// wrapped in ErrBadFindings.
func ParseFindings(content string) ([]Finding, error) {
	var findings []Finding
	if err := json.Unmarshal([]byte(content), &findings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFindings, err)
	}
	return findings, nil
}
