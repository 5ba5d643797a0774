// Package repository provides data access for stored review comments.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	prcommentModel "github.com/zpr-ai/zpr/internal/prcomment/model"
)

// Repository defines data access operations for review comments.
type Repository interface {
	// Insert stores a new review comment.
	Insert(ctx context.Context, comment *prcommentModel.ReviewComment) error

	// ListByPullRequest returns all review comments for a pull request,
	// in insertion order.
	ListByPullRequest(ctx context.Context, repoID string, prID int) ([]prcommentModel.ReviewComment, error)

	// GetByThread finds the review comment mirrored by a platform thread.
	GetByThread(ctx context.Context, repoID string, threadID int) (*prcommentModel.ReviewComment, error)

	// UpdateFeedback attaches or overwrites developer feedback on the
	// comment mirrored by threadID.
	UpdateFeedback(ctx context.Context, repoID string, threadID int, fb prcommentModel.DeveloperFeedback) error
}

type repository struct {
	db *gorm.DB
}

// New creates a new review comment repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Insert stores a new review comment.
func (r *repository) Insert(ctx context.Context, comment *prcommentModel.ReviewComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByPullRequest returns all review comments for a pull request in insertion order.
func (r *repository) ListByPullRequest(
	ctx context.Context,
	repoID string,
	prID int,
) ([]prcommentModel.ReviewComment, error) {
	var comments []prcommentModel.ReviewComment
	err := r.db.WithContext(ctx).
		Where("repo_id = ? AND pull_request_id = ?", repoID, prID).
		Order("id ASC").
		Find(&comments).Error

	if err != nil {
		return nil, err
	}

	if comments == nil {
		return []prcommentModel.ReviewComment{}, nil
	}
	return comments, nil
}

// GetByThread finds the review comment mirrored by a platform thread.
func (r *repository) GetByThread(
	ctx context.Context,
	repoID string,
	threadID int,
) (*prcommentModel.ReviewComment, error) {
	var comment prcommentModel.ReviewComment
	err := r.db.WithContext(ctx).
		Where("repo_id = ? AND thread_id = ?", repoID, threadID).
		First(&comment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prcommentModel.ErrCommentNotFound
		}
		return nil, err
	}

	return &comment, nil
}

// UpdateFeedback attaches or overwrites developer feedback on a comment.
func (r *repository) UpdateFeedback(
	ctx context.Context,
	repoID string,
	threadID int,
	fb prcommentModel.DeveloperFeedback,
) error {
	result := r.db.WithContext(ctx).
		Model(&prcommentModel.ReviewComment{}).
		Where("repo_id = ? AND thread_id = ?", repoID, threadID).
		Updates(map[string]interface{}{
			"feedback_false_alarm": fb.FalseAlarm,
			"feedback_scope":       fb.Scope,
			"feedback_content":     fb.Content,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return prcommentModel.ErrCommentNotFound
	}

	return nil
}
