// Package service provides the review orchestration and feedback
// reconciliation logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/zpr-ai/zpr/internal/azure"
	appConfig "github.com/zpr-ai/zpr/internal/config"
	"github.com/zpr-ai/zpr/internal/llm"
	prcommentModel "github.com/zpr-ai/zpr/internal/prcomment/model"
	prcommentRepo "github.com/zpr-ai/zpr/internal/prcomment/repository"
	pullrequestModel "github.com/zpr-ai/zpr/internal/pullrequest/model"
	pullrequestRepo "github.com/zpr-ai/zpr/internal/pullrequest/repository"
	"github.com/zpr-ai/zpr/internal/repo"
	reviewModel "github.com/zpr-ai/zpr/internal/review/model"
)

const refPrefix = "refs/heads/"

// ProviderFactory builds a diff provider scoped to one working copy.
type ProviderFactory func(dir string) (repo.Provider, error)

// Service drives review passes over pull requests.
type Service interface {
	// RunReview performs the first-pass review of a pull request: it
	// enumerates changed files, collects model findings per file, posts
	// each finding as a comment thread and records the review. A pull
	// request is reviewed at most once.
	RunReview(ctx context.Context, repoName string, prID int, modelName string) ([]reviewModel.FileReview, error)

	// RunReReview reconciles human replies on previously posted threads
	// into stored feedback classifications. Requires a prior RunReview.
	RunReReview(ctx context.Context, repoName string, prID int) error
}

type service struct {
	repos     appConfig.RepoMap
	gateway   azure.Gateway
	llm       llm.Provider
	providers ProviderFactory
	prRepo    pullrequestRepo.Repository
	comments  prcommentRepo.Repository
	logger    *zap.SugaredLogger
}

// New creates a new review service instance.
func New(
	repos appConfig.RepoMap,
	gateway azure.Gateway,
	llmProvider llm.Provider,
	providers ProviderFactory,
	prRepo pullrequestRepo.Repository,
	comments prcommentRepo.Repository,
	logger *zap.SugaredLogger,
) Service {
	return &service{
		repos:     repos,
		gateway:   gateway,
		llm:       llmProvider,
		providers: providers,
		prRepo:    prRepo,
		comments:  comments,
		logger:    logger,
	}
}

// RunReview performs the first-pass review of a pull request.
func (s *service) RunReview(
	ctx context.Context,
	repoName string,
	prID int,
	modelName string,
) ([]reviewModel.FileReview, error) {
	rc, ok := s.repos[repoName]
	if !ok {
		return nil, reviewModel.ErrUnknownRepo
	}

	// Fast-path guard. The record insert at the end is conditional on the
	// store's unique index, so a concurrent run that slips past this check
	// still cannot record a second review.
	_, err := s.prRepo.GetByPullRequest(ctx, rc.ID, prID)
	if err == nil {
		return nil, reviewModel.ErrAlreadyReviewed
	}
	if !errors.Is(err, pullrequestModel.ErrReviewNotFound) {
		return nil, err
	}

	details, err := s.gateway.GetPullRequestDetails(ctx, rc.ID, prID)
	if err != nil {
		return nil, err
	}
	source := strings.TrimPrefix(details.SourceBranch, refPrefix)
	target := strings.TrimPrefix(details.TargetBranch, refPrefix)

	provider, err := s.providers(rc.Dir)
	if err != nil {
		return nil, err
	}

	overview, err := readOverview(rc.Overview)
	if err != nil {
		return nil, err
	}

	// The target branch is the old tree; the source branch carries the
	// pull request's changes.
	files, err := provider.ChangedFiles(ctx, target, source)
	if err != nil {
		return nil, err
	}

	reviews := make([]reviewModel.FileReview, 0, len(files))
	for _, file := range files {
		patch, err := provider.DiffFile(ctx, target, source, file)
		if err != nil {
			return nil, err
		}

		findings, err := s.reviewFile(ctx, modelName, overview, patch)
		if err != nil {
			return nil, fmt.Errorf("review of %s failed: %w", file, err)
		}

		reviews = append(reviews, reviewModel.FileReview{FilePath: file, Findings: findings})
	}

	if err := s.postFindings(ctx, rc.ID, prID, reviews); err != nil {
		return nil, err
	}

	record := &pullrequestModel.PullRequest{
		ProjectID:          details.ProjectID,
		RepoID:             rc.ID,
		PullRequestID:      prID,
		SourceBranch:       details.SourceBranch,
		TargetBranch:       details.TargetBranch,
		LastReviewedCommit: details.LastMergeCommit,
		Status:             pullrequestModel.StatusReviewed,
	}
	if err := s.prRepo.Create(ctx, record); err != nil {
		if errors.Is(err, pullrequestModel.ErrReviewExists) {
			return nil, reviewModel.ErrAlreadyReviewed
		}
		return nil, err
	}

	return reviews, nil
}

// reviewFile sends one file's patch to the model and decodes its findings.
func (s *service) reviewFile(
	ctx context.Context,
	modelName, overview, patch string,
) ([]reviewModel.Finding, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(overview)},
		{Role: llm.RoleUser, Content: userPrompt(patch)},
	}

	resp, err := s.llm.ChatWithSchema(ctx, modelName, messages, reviewModel.FindingsSchema)
	if err != nil {
		return nil, err
	}

	return reviewModel.ParseFindings(resp.Content)
}

// postFindings creates one comment thread per finding, in (file, finding)
// order, and stores the mirroring record after each thread is created.
// Side effects are not transactional: a failure leaves earlier findings
// posted and recorded.
func (s *service) postFindings(
	ctx context.Context,
	repoID string,
	prID int,
	reviews []reviewModel.FileReview,
) error {
	for _, fileReview := range reviews {
		for _, finding := range fileReview.Findings {
			created, err := s.gateway.CreateThread(ctx, repoID, prID, azure.NewComment{
				FilePath: finding.FilePath,
				Content:  commentBody(finding),
				Line:     finding.LineNumber,
			})
			if err != nil {
				return err
			}

			comment := &prcommentModel.ReviewComment{
				RepoID:         repoID,
				ThreadID:       created.ThreadID,
				CommentID:      created.CommentID,
				PullRequestID:  prID,
				FilePath:       finding.FilePath,
				LineNumber:     finding.LineNumber,
				Issue:          finding.Issue,
				Reason:         finding.Reason,
				Recommendation: finding.Recommendation,
			}
			if err := s.comments.Insert(ctx, comment); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunReReview reconciles human replies on previously posted threads.
func (s *service) RunReReview(ctx context.Context, repoName string, prID int) error {
	rc, ok := s.repos[repoName]
	if !ok {
		return reviewModel.ErrUnknownRepo
	}

	if _, err := s.prRepo.GetByPullRequest(ctx, rc.ID, prID); err != nil {
		if errors.Is(err, pullrequestModel.ErrReviewNotFound) {
			return reviewModel.ErrNoFirstReview
		}
		return err
	}

	stored, err := s.comments.ListByPullRequest(ctx, rc.ID, prID)
	if err != nil {
		return err
	}
	owned := make(map[int]bool, len(stored))
	for _, comment := range stored {
		owned[comment.ThreadID] = true
	}

	threads, err := s.gateway.GetThreads(ctx, rc.ID, prID)
	if err != nil {
		return err
	}

	for _, thread := range threads {
		if !owned[thread.ID] {
			continue
		}
		// A single reply is the untouched AI comment.
		if len(thread.Replies) <= 1 {
			continue
		}

		// Only the most recent reply counts; directives are not
		// accumulated across replies.
		latest := thread.Replies[len(thread.Replies)-1]
		classification := Classify(latest.Content)
		if classification.Kind == KindUnclassified {
			continue
		}

		if err := s.applyFeedback(ctx, rc.ID, prID, thread, classification); err != nil {
			return err
		}
	}

	return nil
}

// applyFeedback persists a classification and, for the pure false-alarm
// directive only, resolves the platform thread. Both writes are skipped when
// already applied, so re-running over unchanged replies changes nothing.
func (s *service) applyFeedback(
	ctx context.Context,
	repoID string,
	prID int,
	thread azure.Thread,
	classification Classification,
) error {
	stored, err := s.comments.GetByThread(ctx, repoID, thread.ID)
	if err != nil {
		if errors.Is(err, prcommentModel.ErrCommentNotFound) {
			s.logger.Warnw("no stored comment for thread, skipping",
				"repo_id", repoID,
				"pr_id", prID,
				"thread_id", thread.ID,
			)
			return nil
		}
		return err
	}

	fb := classification.Feedback()
	if stored.DevFeedback == nil || *stored.DevFeedback != fb {
		if err := s.comments.UpdateFeedback(ctx, repoID, thread.ID, fb); err != nil {
			return err
		}
	}

	if classification.Kind != KindFalseAlarm {
		return nil
	}
	if thread.Status == azure.ThreadStatusFixed {
		return nil
	}
	return s.gateway.ResolveThread(ctx, repoID, prID, thread.ID)
}

// readOverview loads the optional project overview document.
func readOverview(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read repo overview %s: %w", path, err)
	}
	return string(data), nil
}
