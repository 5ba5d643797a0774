// Package model provides domain models for AI review comments.
package model

import "time"

// Feedback scopes.
const (
	ScopeProject = "project"
	ScopeGlobal  = "global"
)

// DeveloperFeedback is the classification of a human reply on a review
// comment thread. Scope is stored but not consumed downstream.
type DeveloperFeedback struct {
	FalseAlarm bool   `gorm:"column:false_alarm" json:"falseAlarm"`
	Scope      string `gorm:"column:scope;type:varchar(16)" json:"scope"`
	Content    string `gorm:"column:content" json:"content"`
}

// ReviewComment mirrors one AI finding posted as a pull request comment
// thread. Matches the review_comments table schema.
type ReviewComment struct {
	ID             int64              `gorm:"primaryKey;column:id;type:bigserial"                                                     json:"-"`
	RepoID         string             `gorm:"column:repo_id;type:varchar(255);not null;uniqueIndex:idx_review_comments_repo_thread"   json:"repoId"`
	ThreadID       int                `gorm:"column:thread_id;type:integer;not null;uniqueIndex:idx_review_comments_repo_thread"      json:"threadId"`
	CommentID      int                `gorm:"column:comment_id;type:integer;not null"                                                 json:"commentId"`
	PullRequestID  int                `gorm:"column:pull_request_id;type:integer;not null;index:idx_review_comments_repo_pr"          json:"prId"`
	FilePath       string             `gorm:"column:file_path;type:text;not null"                                                     json:"filePath"`
	LineNumber     int                `gorm:"column:line_number;type:integer;not null"                                                json:"lineNumber"`
	Issue          string             `gorm:"column:issue;type:text;not null"                                                         json:"issue"`
	Reason         string             `gorm:"column:reason;type:text;not null"                                                        json:"reason"`
	Recommendation string             `gorm:"column:recommendation;type:text;not null"                                                json:"recommendation"`
	DevFeedback    *DeveloperFeedback `gorm:"embedded;embeddedPrefix:feedback_"                                                       json:"devFeedback,omitempty"`
	CreatedAt      time.Time          `gorm:"column:created_at;type:timestamptz;not null;default:now()"                               json:"createdAt"`
}

// TableName specifies the table name for GORM.
func (ReviewComment) TableName() string {
	return "review_comments"
}
