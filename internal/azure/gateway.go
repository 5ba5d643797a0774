// Package azure provides pull request and comment thread access on the
// hosting platform.
package azure

import "context"

// PullRequestDetails holds the pull request fields the review flow needs.
type PullRequestDetails struct {
	ProjectID       string
	SourceBranch    string
	TargetBranch    string
	LastMergeCommit string
}

// NewComment describes a comment thread to create on a file/line.
type NewComment struct {
	FilePath string
	Content  string
	Line     int
}

// CreatedThread identifies a newly created thread and its first comment.
type CreatedThread struct {
	ThreadID  int
	CommentID int
}

// ThreadReply is one comment inside a thread, in reply order. The first
// reply is the AI-authored comment.
type ThreadReply struct {
	ID      int
	Content string
	Author  string
}

// ThreadStatusFixed is the platform status of a resolved thread.
const ThreadStatusFixed = "fixed"

// Thread is a comment thread on a pull request.
type Thread struct {
	ID      int
	Status  string
	Replies []ThreadReply
}

// Gateway exposes the comment thread operations of the hosting platform.
type Gateway interface {
	// GetPullRequestDetails fetches branch refs and project identity for a
	// pull request.
	GetPullRequestDetails(ctx context.Context, repoID string, prID int) (*PullRequestDetails, error)

	// CreateThread creates a comment thread anchored at a file/line.
	CreateThread(ctx context.Context, repoID string, prID int, comment NewComment) (*CreatedThread, error)

	// GetThreads fetches all comment threads of a pull request.
	GetThreads(ctx context.Context, repoID string, prID int) ([]Thread, error)

	// ResolveThread marks a thread as fixed.
	ResolveThread(ctx context.Context, repoID string, prID, threadID int) error
}
