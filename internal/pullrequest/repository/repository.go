// Package repository provides data access for pull request review records.
package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	pullrequestModel "github.com/zpr-ai/zpr/internal/pullrequest/model"
)

// Repository defines data access operations for pull request review records.
type Repository interface {
	// Create inserts a review record. The insert is conditional on the
	// (repo_id, pull_request_id) unique index, so two concurrent reviews
	// of the same pull request cannot both succeed.
	Create(ctx context.Context, pr *pullrequestModel.PullRequest) error

	// GetByPullRequest finds the review record for a pull request.
	GetByPullRequest(ctx context.Context, repoID string, prID int) (*pullrequestModel.PullRequest, error)
}

type repository struct {
	db *gorm.DB
}

// New creates a new pull request repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts a review record, failing with ErrReviewExists on duplicates.
func (r *repository) Create(ctx context.Context, pr *pullrequestModel.PullRequest) error {
	err := r.db.WithContext(ctx).Create(pr).Error
	if err != nil {
		if isDuplicateError(err) {
			return pullrequestModel.ErrReviewExists
		}
		return err
	}
	return nil
}

// GetByPullRequest finds the review record for a pull request.
func (r *repository) GetByPullRequest(
	ctx context.Context,
	repoID string,
	prID int,
) (*pullrequestModel.PullRequest, error) {
	var pr pullrequestModel.PullRequest
	err := r.db.WithContext(ctx).
		Where("repo_id = ? AND pull_request_id = ?", repoID, prID).
		First(&pr).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pullrequestModel.ErrReviewNotFound
		}
		return nil, err
	}

	return &pr, nil
}

// isDuplicateError checks if err is a unique constraint violation.
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint")
}
