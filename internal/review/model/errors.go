package model

import "errors"

var (
	// ErrUnknownRepo indicates that the repository name has no configured
	// identifier or working copy.
	ErrUnknownRepo = errors.New("invalid repoName")
	// ErrAlreadyReviewed indicates that a review record already exists for
	// the pull request.
	ErrAlreadyReviewed = errors.New("pull request already reviewed")
	// ErrNoFirstReview indicates a re-review on a pull request that was
	// never reviewed.
	ErrNoFirstReview = errors.New("no first review exists for pull request")
	// ErrBadFindings indicates a model reply that does not decode into the
	// findings schema.
	ErrBadFindings = errors.New("model reply does not match the findings schema")
)
