// Package model provides domain models for reviewed pull requests.
package model

import "time"

// Pull request review statuses.
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	// StatusPassed is reserved; nothing transitions a record into it yet.
	StatusPassed = "passed"
)

// PullRequest records one reviewed pull request.
// Matches the pull_requests table schema.
type PullRequest struct {
	ID                 int64     `gorm:"primaryKey;column:id;type:bigserial"                                                           json:"-"`
	ProjectID          string    `gorm:"column:project_id;type:varchar(255);not null"                                                  json:"projectId"`
	RepoID             string    `gorm:"column:repo_id;type:varchar(255);not null;uniqueIndex:idx_pull_requests_repo_pr"               json:"repoId"`
	PullRequestID      int       `gorm:"column:pull_request_id;type:integer;not null;uniqueIndex:idx_pull_requests_repo_pr"            json:"pullRequestId"`
	SourceBranch       string    `gorm:"column:source_branch;type:varchar(512);not null"                                               json:"sourceBranch"`
	TargetBranch       string    `gorm:"column:target_branch;type:varchar(512);not null"                                               json:"targetBranch"`
	LastReviewedCommit string    `gorm:"column:last_reviewed_commit;type:varchar(64);not null"                                         json:"lastReviewedCommit"`
	Status             string    `gorm:"column:status;type:varchar(16);not null;index:idx_pull_requests_status"                        json:"status"`
	CreatedAt          time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"                                     json:"createdAt"`
}

// TableName specifies the table name for GORM.
func (PullRequest) TableName() string {
	return "pull_requests"
}
