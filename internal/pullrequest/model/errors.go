package model

import "errors"

var (
	// ErrReviewExists indicates that a review record for the pull request already exists.
	ErrReviewExists = errors.New("pull request review record already exists")
	// ErrReviewNotFound indicates that no review record exists for the pull request.
	ErrReviewNotFound = errors.New("pull request review record not found")
)
