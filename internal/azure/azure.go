package azure

import (
	"context"
	"fmt"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	adogit "github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"

	appConfig "github.com/zpr-ai/zpr/internal/config"
)

// Client is the Azure DevOps implementation of Gateway.
type Client struct {
	git adogit.Client
}

// NewClient connects to Azure DevOps with a personal access token.
func NewClient(ctx context.Context, cfg appConfig.AzureConfig) (*Client, error) {
	connection := azuredevops.NewPatConnection(cfg.OrgURL, cfg.PersonalAccessToken)

	gitClient, err := adogit.NewClient(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure devops git client: %w", err)
	}
	return &Client{git: gitClient}, nil
}

// GetPullRequestDetails fetches branch refs and project identity for a pull request.
func (c *Client) GetPullRequestDetails(
	ctx context.Context,
	repoID string,
	prID int,
) (*PullRequestDetails, error) {
	pr, err := c.git.GetPullRequest(ctx, adogit.GetPullRequestArgs{
		RepositoryId:  &repoID,
		PullRequestId: &prID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request %d: %w", prID, err)
	}

	details := &PullRequestDetails{}
	if pr.SourceRefName != nil {
		details.SourceBranch = *pr.SourceRefName
	}
	if pr.TargetRefName != nil {
		details.TargetBranch = *pr.TargetRefName
	}
	if pr.Repository != nil && pr.Repository.Project != nil && pr.Repository.Project.Id != nil {
		details.ProjectID = pr.Repository.Project.Id.String()
	}
	if pr.LastMergeSourceCommit != nil && pr.LastMergeSourceCommit.CommitId != nil {
		details.LastMergeCommit = *pr.LastMergeSourceCommit.CommitId
	}
	return details, nil
}

// CreateThread creates a comment thread anchored at a file/line.
func (c *Client) CreateThread(
	ctx context.Context,
	repoID string,
	prID int,
	comment NewComment,
) (*CreatedThread, error) {
	line := comment.Line
	if line < 1 {
		line = 1
	}
	endLine := line + 1
	startOffset := 4
	endOffset := 2

	thread := adogit.GitPullRequestCommentThread{
		Comments: &[]adogit.Comment{
			{
				Content:     &comment.Content,
				CommentType: &adogit.CommentTypeValues.CodeChange,
			},
		},
		ThreadContext: &adogit.CommentThreadContext{
			FilePath: &comment.FilePath,
			RightFileStart: &adogit.CommentPosition{
				Line:   &line,
				Offset: &startOffset,
			},
			RightFileEnd: &adogit.CommentPosition{
				Line:   &endLine,
				Offset: &endOffset,
			},
		},
	}

	created, err := c.git.CreateThread(ctx, adogit.CreateThreadArgs{
		CommentThread: &thread,
		RepositoryId:  &repoID,
		PullRequestId: &prID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create comment thread: %w", err)
	}

	result := &CreatedThread{}
	if created.Id != nil {
		result.ThreadID = *created.Id
	}
	if created.Comments != nil && len(*created.Comments) > 0 && (*created.Comments)[0].Id != nil {
		result.CommentID = *(*created.Comments)[0].Id
	}
	return result, nil
}

// GetThreads fetches all comment threads of a pull request.
func (c *Client) GetThreads(ctx context.Context, repoID string, prID int) ([]Thread, error) {
	threads, err := c.git.GetThreads(ctx, adogit.GetThreadsArgs{
		RepositoryId:  &repoID,
		PullRequestId: &prID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get comment threads: %w", err)
	}
	if threads == nil {
		return []Thread{}, nil
	}

	out := make([]Thread, 0, len(*threads))
	for _, th := range *threads {
		out = append(out, fromGitThread(th))
	}
	return out, nil
}

// ResolveThread marks a thread as fixed.
func (c *Client) ResolveThread(ctx context.Context, repoID string, prID, threadID int) error {
	_, err := c.git.UpdateThread(ctx, adogit.UpdateThreadArgs{
		CommentThread: &adogit.GitPullRequestCommentThread{
			Status: &adogit.CommentThreadStatusValues.Fixed,
		},
		RepositoryId:  &repoID,
		PullRequestId: &prID,
		ThreadId:      &threadID,
	})
	if err != nil {
		return fmt.Errorf("failed to update thread %d: %w", threadID, err)
	}
	return nil
}

func fromGitThread(th adogit.GitPullRequestCommentThread) Thread {
	out := Thread{}
	if th.Id != nil {
		out.ID = *th.Id
	}
	if th.Status != nil {
		out.Status = string(*th.Status)
	}
	if th.Comments == nil {
		return out
	}

	for _, cm := range *th.Comments {
		reply := ThreadReply{}
		if cm.Id != nil {
			reply.ID = *cm.Id
		}
		if cm.Content != nil {
			reply.Content = *cm.Content
		}
		if cm.Author != nil && cm.Author.DisplayName != nil {
			reply.Author = *cm.Author.DisplayName
		}
		out.Replies = append(out.Replies, reply)
	}
	return out
}
