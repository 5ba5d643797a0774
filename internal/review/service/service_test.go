package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zpr-ai/zpr/internal/azure"
	appConfig "github.com/zpr-ai/zpr/internal/config"
	"github.com/zpr-ai/zpr/internal/llm"
	prcommentModel "github.com/zpr-ai/zpr/internal/prcomment/model"
	pullrequestModel "github.com/zpr-ai/zpr/internal/pullrequest/model"
	"github.com/zpr-ai/zpr/internal/repo"
	reviewModel "github.com/zpr-ai/zpr/internal/review/model"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) GetPullRequestDetails(ctx context.Context, repoID string, prID int) (*azure.PullRequestDetails, error) {
	args := m.Called(ctx, repoID, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*azure.PullRequestDetails), args.Error(1)
}

func (m *mockGateway) CreateThread(ctx context.Context, repoID string, prID int, comment azure.NewComment) (*azure.CreatedThread, error) {
	args := m.Called(ctx, repoID, prID, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*azure.CreatedThread), args.Error(1)
}

func (m *mockGateway) GetThreads(ctx context.Context, repoID string, prID int) ([]azure.Thread, error) {
	args := m.Called(ctx, repoID, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]azure.Thread), args.Error(1)
}

func (m *mockGateway) ResolveThread(ctx context.Context, repoID string, prID, threadID int) error {
	args := m.Called(ctx, repoID, prID, threadID)
	return args.Error(0)
}

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Chat(ctx context.Context, model string, messages []llm.Message) (*llm.Response, error) {
	args := m.Called(ctx, model, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

func (m *mockLLM) ChatWithSchema(ctx context.Context, model string, messages []llm.Message, schema json.RawMessage) (*llm.Response, error) {
	args := m.Called(ctx, model, messages, schema)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

type mockDiffProvider struct {
	mock.Mock
}

func (m *mockDiffProvider) ChangedFiles(ctx context.Context, base, target string) ([]string, error) {
	args := m.Called(ctx, base, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockDiffProvider) DiffFile(ctx context.Context, base, target, path string) (string, error) {
	args := m.Called(ctx, base, target, path)
	return args.String(0), args.Error(1)
}

func (m *mockDiffProvider) Diff(ctx context.Context, base, target string) (string, error) {
	args := m.Called(ctx, base, target)
	return args.String(0), args.Error(1)
}

type mockPRRepo struct {
	mock.Mock
}

func (m *mockPRRepo) Create(ctx context.Context, pr *pullrequestModel.PullRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *mockPRRepo) GetByPullRequest(ctx context.Context, repoID string, prID int) (*pullrequestModel.PullRequest, error) {
	args := m.Called(ctx, repoID, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pullrequestModel.PullRequest), args.Error(1)
}

type mockCommentRepo struct {
	mock.Mock
}

func (m *mockCommentRepo) Insert(ctx context.Context, comment *prcommentModel.ReviewComment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockCommentRepo) ListByPullRequest(ctx context.Context, repoID string, prID int) ([]prcommentModel.ReviewComment, error) {
	args := m.Called(ctx, repoID, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]prcommentModel.ReviewComment), args.Error(1)
}

func (m *mockCommentRepo) GetByThread(ctx context.Context, repoID string, threadID int) (*prcommentModel.ReviewComment, error) {
	args := m.Called(ctx, repoID, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prcommentModel.ReviewComment), args.Error(1)
}

func (m *mockCommentRepo) UpdateFeedback(ctx context.Context, repoID string, threadID int, fb prcommentModel.DeveloperFeedback) error {
	args := m.Called(ctx, repoID, threadID, fb)
	return args.Error(0)
}

type fixture struct {
	gateway  *mockGateway
	llm      *mockLLM
	provider *mockDiffProvider
	prRepo   *mockPRRepo
	comments *mockCommentRepo
	svc      Service
}

const (
	testRepoID = "725032b3-6ebe-42c2-ac94-8ffc6bbddeb2"
	testPRID   = 28742
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		gateway:  &mockGateway{},
		llm:      &mockLLM{},
		provider: &mockDiffProvider{},
		prRepo:   &mockPRRepo{},
		comments: &mockCommentRepo{},
	}
	repos := appConfig.RepoMap{
		"insights_node_api": {ID: testRepoID, Dir: "/srv/repos/insights"},
	}
	providers := func(dir string) (repo.Provider, error) {
		return f.provider, nil
	}
	f.svc = New(repos, f.gateway, f.llm, providers, f.prRepo, f.comments, zap.NewNop().Sugar())
	return f
}

func prDetails() *azure.PullRequestDetails {
	return &azure.PullRequestDetails{
		ProjectID:       "a39f707b-32ab-4581-9985-bdf78fbba7cd",
		SourceBranch:    "refs/heads/feature",
		TargetBranch:    "refs/heads/main",
		LastMergeCommit: "deadbeef",
	}
}

func findingsJSON(findings []reviewModel.Finding) string {
	b, _ := json.Marshal(findings)
	return string(b)
}

func msgsWithPatch(patch string) interface{} {
	return mock.MatchedBy(func(messages []llm.Message) bool {
		return len(messages) == 2 && strings.Contains(messages[1].Content, patch)
	})
}

func TestRunReview(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown repo name", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.RunReview(ctx, "nope", testPRID, "qwen")

		assert.ErrorIs(t, err, reviewModel.ErrUnknownRepo)
		f.gateway.AssertNotCalled(t, "GetPullRequestDetails", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already reviewed aborts before side effects", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).
			Return(&pullrequestModel.PullRequest{Status: pullrequestModel.StatusReviewed}, nil)

		_, err := f.svc.RunReview(ctx, "insights_node_api", testPRID, "qwen")

		assert.ErrorIs(t, err, reviewModel.ErrAlreadyReviewed)
		f.gateway.AssertNotCalled(t, "GetPullRequestDetails", mock.Anything, mock.Anything, mock.Anything)
		f.gateway.AssertNotCalled(t, "CreateThread", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.prRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("posts findings in file and finding order", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).
			Return(nil, pullrequestModel.ErrReviewNotFound)
		f.gateway.On("GetPullRequestDetails", ctx, testRepoID, testPRID).Return(prDetails(), nil)
		f.provider.On("ChangedFiles", ctx, "main", "feature").Return([]string{"a.ts", "b.ts"}, nil)
		f.provider.On("DiffFile", ctx, "main", "feature", "a.ts").Return("patch-a", nil)
		f.provider.On("DiffFile", ctx, "main", "feature", "b.ts").Return("patch-b", nil)

		findingA := reviewModel.Finding{FilePath: "a.ts", Issue: "shadowed err", LineNumber: 10, Reason: "r1", Recommendation: "c1"}
		findingB1 := reviewModel.Finding{FilePath: "b.ts", Issue: "unchecked cast", LineNumber: 3, Reason: "r2", Recommendation: "c2"}
		findingB2 := reviewModel.Finding{FilePath: "b.ts", Issue: "dead branch", LineNumber: 8, Reason: "r3", Recommendation: "c3"}

		f.llm.On("ChatWithSchema", ctx, "qwen", msgsWithPatch("patch-a"), mock.Anything).
			Return(&llm.Response{Content: findingsJSON([]reviewModel.Finding{findingA})}, nil)
		f.llm.On("ChatWithSchema", ctx, "qwen", msgsWithPatch("patch-b"), mock.Anything).
			Return(&llm.Response{Content: findingsJSON([]reviewModel.Finding{findingB1, findingB2})}, nil)

		var postedOrder []string
		for i := 0; i < 3; i++ {
			id := 101 + i
			f.gateway.On("CreateThread", ctx, testRepoID, testPRID, mock.Anything).
				Run(func(args mock.Arguments) {
					comment := args.Get(3).(azure.NewComment)
					postedOrder = append(postedOrder, fmt.Sprintf("%s:%d", comment.FilePath, comment.Line))
				}).
				Return(&azure.CreatedThread{ThreadID: id, CommentID: id + 1000}, nil).Once()
		}

		var inserted []*prcommentModel.ReviewComment
		f.comments.On("Insert", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				inserted = append(inserted, args.Get(1).(*prcommentModel.ReviewComment))
			}).
			Return(nil)

		var record *pullrequestModel.PullRequest
		f.prRepo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				record = args.Get(1).(*pullrequestModel.PullRequest)
			}).
			Return(nil)

		result, err := f.svc.RunReview(ctx, "insights_node_api", testPRID, "qwen")
		require.NoError(t, err)

		// Grouped findings come back in enumeration order.
		require.Len(t, result, 2)
		assert.Equal(t, "a.ts", result[0].FilePath)
		assert.Equal(t, []reviewModel.Finding{findingA}, result[0].Findings)
		assert.Equal(t, []reviewModel.Finding{findingB1, findingB2}, result[1].Findings)

		// Threads are created in (file, finding) order.
		assert.Equal(t, []string{"a.ts:10", "b.ts:3", "b.ts:8"}, postedOrder)

		// Each stored comment references the thread it mirrors.
		require.Len(t, inserted, 3)
		assert.Equal(t, 101, inserted[0].ThreadID)
		assert.Equal(t, 1101, inserted[0].CommentID)
		assert.Equal(t, 103, inserted[2].ThreadID)
		assert.Equal(t, "shadowed err", inserted[0].Issue)
		assert.Equal(t, testPRID, inserted[0].PullRequestID)

		// One review record with status reviewed.
		require.NotNil(t, record)
		assert.Equal(t, pullrequestModel.StatusReviewed, record.Status)
		assert.Equal(t, "refs/heads/feature", record.SourceBranch)
		assert.Equal(t, "deadbeef", record.LastReviewedCommit)
		assert.Equal(t, testRepoID, record.RepoID)
	})

	t.Run("bad model reply aborts without partial persistence", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).
			Return(nil, pullrequestModel.ErrReviewNotFound)
		f.gateway.On("GetPullRequestDetails", ctx, testRepoID, testPRID).Return(prDetails(), nil)
		f.provider.On("ChangedFiles", ctx, "main", "feature").Return([]string{"a.ts"}, nil)
		f.provider.On("DiffFile", ctx, "main", "feature", "a.ts").Return("patch-a", nil)
		f.llm.On("ChatWithSchema", ctx, "qwen", mock.Anything, mock.Anything).
			Return(&llm.Response{Content: "not json at all"}, nil)

		_, err := f.svc.RunReview(ctx, "insights_node_api", testPRID, "qwen")

		assert.ErrorIs(t, err, reviewModel.ErrBadFindings)
		f.gateway.AssertNotCalled(t, "CreateThread", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.comments.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		f.prRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("conditional insert closes the guard race", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).
			Return(nil, pullrequestModel.ErrReviewNotFound)
		f.gateway.On("GetPullRequestDetails", ctx, testRepoID, testPRID).Return(prDetails(), nil)
		f.provider.On("ChangedFiles", ctx, "main", "feature").Return([]string{}, nil)
		f.prRepo.On("Create", ctx, mock.Anything).Return(pullrequestModel.ErrReviewExists)

		_, err := f.svc.RunReview(ctx, "insights_node_api", testPRID, "qwen")

		assert.ErrorIs(t, err, reviewModel.ErrAlreadyReviewed)
	})
}

func aiThread(id int, replies ...string) azure.Thread {
	thread := azure.Thread{ID: id, Status: "active"}
	for i, content := range replies {
		thread.Replies = append(thread.Replies, azure.ThreadReply{ID: i + 1, Content: content})
	}
	return thread
}

func storedComment(threadID int, fb *prcommentModel.DeveloperFeedback) *prcommentModel.ReviewComment {
	return &prcommentModel.ReviewComment{
		RepoID:        testRepoID,
		ThreadID:      threadID,
		PullRequestID: testPRID,
		DevFeedback:   fb,
	}
}

func storedComments(threadIDs ...int) []prcommentModel.ReviewComment {
	comments := make([]prcommentModel.ReviewComment, 0, len(threadIDs))
	for _, id := range threadIDs {
		comments = append(comments, prcommentModel.ReviewComment{
			RepoID:        testRepoID,
			ThreadID:      id,
			PullRequestID: testPRID,
		})
	}
	return comments
}

func TestRunReReview(t *testing.T) {
	ctx := context.Background()

	reviewed := &pullrequestModel.PullRequest{
		RepoID:        testRepoID,
		PullRequestID: testPRID,
		Status:        pullrequestModel.StatusReviewed,
	}

	t.Run("requires a prior review", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).
			Return(nil, pullrequestModel.ErrReviewNotFound)

		err := f.svc.RunReReview(ctx, "insights_node_api", testPRID)

		assert.ErrorIs(t, err, reviewModel.ErrNoFirstReview)
		f.gateway.AssertNotCalled(t, "GetThreads", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("untouched threads produce no writes", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).Return(reviewed, nil)
		f.comments.On("ListByPullRequest", ctx, testRepoID, testPRID).Return(storedComments(11, 12), nil)
		f.gateway.On("GetThreads", ctx, testRepoID, testPRID).Return([]azure.Thread{
			aiThread(11, "**line**: 10 ..."),
			aiThread(12, "**line**: 3 ..."),
		}, nil)

		err := f.svc.RunReReview(ctx, "insights_node_api", testPRID)

		require.NoError(t, err)
		f.comments.AssertNotCalled(t, "UpdateFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.gateway.AssertNotCalled(t, "ResolveThread", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("false alarm stores feedback and resolves thread", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).Return(reviewed, nil)
		f.comments.On("ListByPullRequest", ctx, testRepoID, testPRID).Return(storedComments(11), nil)
		f.gateway.On("GetThreads", ctx, testRepoID, testPRID).Return([]azure.Thread{
			aiThread(11, "ai comment", ":falseAlarm bad timing"),
		}, nil)
		f.comments.On("GetByThread", ctx, testRepoID, 11).Return(storedComment(11, nil), nil)
		f.comments.On("UpdateFeedback", ctx, testRepoID, 11, prcommentModel.DeveloperFeedback{
			FalseAlarm: true,
			Scope:      prcommentModel.ScopeGlobal,
			Content:    "bad timing",
		}).Return(nil)
		f.gateway.On("ResolveThread", ctx, testRepoID, testPRID, 11).Return(nil)

		err := f.svc.RunReReview(ctx, "insights_node_api", testPRID)

		require.NoError(t, err)
		f.comments.AssertExpectations(t)
		f.gateway.AssertExpectations(t)
	})

	t.Run("ignore directives do not change thread status", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).Return(reviewed, nil)
		f.comments.On("ListByPullRequest", ctx, testRepoID, testPRID).Return(storedComments(11), nil)
		f.gateway.On("GetThreads", ctx, testRepoID, testPRID).Return([]azure.Thread{
			aiThread(11, "ai comment", ":ignore-project false positive in test helper"),
		}, nil)
		f.comments.On("GetByThread", ctx, testRepoID, 11).Return(storedComment(11, nil), nil)
		f.comments.On("UpdateFeedback", ctx, testRepoID, 11, prcommentModel.DeveloperFeedback{
			FalseAlarm: true,
			Scope:      prcommentModel.ScopeProject,
			Content:    "false positive in test helper",
		}).Return(nil)

		err := f.svc.RunReReview(ctx, "insights_node_api", testPRID)

		require.NoError(t, err)
		f.comments.AssertExpectations(t)
		f.gateway.AssertNotCalled(t, "ResolveThread", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("threads not created by the reviewer are untouched", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).Return(reviewed, nil)
		f.comments.On("ListByPullRequest", ctx, testRepoID, testPRID).Return(storedComments(11), nil)
		f.gateway.On("GetThreads", ctx, testRepoID, testPRID).Return([]azure.Thread{
			aiThread(99, "human thread", ":falseAlarm definitely"),
		}, nil)

		err := f.svc.RunReReview(ctx, "insights_node_api", testPRID)

		require.NoError(t, err)
		f.comments.AssertNotCalled(t, "UpdateFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.gateway.AssertNotCalled(t, "ResolveThread", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("only the latest reply is evaluated", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).Return(reviewed, nil)
		f.comments.On("ListByPullRequest", ctx, testRepoID, testPRID).Return(storedComments(11), nil)
		// An earlier directive followed by a plain reply: nothing to store.
		f.gateway.On("GetThreads", ctx, testRepoID, testPRID).Return([]azure.Thread{
			aiThread(11, "ai comment", ":falseAlarm earlier", "ok"),
		}, nil)

		err := f.svc.RunReReview(ctx, "insights_node_api", testPRID)

		require.NoError(t, err)
		f.comments.AssertNotCalled(t, "UpdateFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.gateway.AssertNotCalled(t, "ResolveThread", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing stored comment is skipped", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).Return(reviewed, nil)
		f.comments.On("ListByPullRequest", ctx, testRepoID, testPRID).Return(storedComments(11, 12), nil)
		f.gateway.On("GetThreads", ctx, testRepoID, testPRID).Return([]azure.Thread{
			aiThread(11, "ai comment", ":falseAlarm gone"),
			aiThread(12, "ai comment", ":falseAlarm stays"),
		}, nil)
		f.comments.On("GetByThread", ctx, testRepoID, 11).
			Return(nil, prcommentModel.ErrCommentNotFound)
		f.comments.On("GetByThread", ctx, testRepoID, 12).Return(storedComment(12, nil), nil)
		f.comments.On("UpdateFeedback", ctx, testRepoID, 12, mock.Anything).Return(nil)
		f.gateway.On("ResolveThread", ctx, testRepoID, testPRID, 12).Return(nil)

		err := f.svc.RunReReview(ctx, "insights_node_api", testPRID)

		require.NoError(t, err)
		f.comments.AssertNotCalled(t, "UpdateFeedback", mock.Anything, mock.Anything, 11, mock.Anything)
		f.gateway.AssertNotCalled(t, "ResolveThread", mock.Anything, mock.Anything, mock.Anything, 11)
		f.gateway.AssertCalled(t, "ResolveThread", ctx, testRepoID, testPRID, 12)
	})

	t.Run("second run with unchanged replies writes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.prRepo.On("GetByPullRequest", ctx, testRepoID, testPRID).Return(reviewed, nil)
		f.comments.On("ListByPullRequest", ctx, testRepoID, testPRID).Return(storedComments(11), nil)

		fb := prcommentModel.DeveloperFeedback{
			FalseAlarm: true,
			Scope:      prcommentModel.ScopeGlobal,
			Content:    "bad timing",
		}

		// First run: active thread, no feedback stored yet.
		f.gateway.On("GetThreads", ctx, testRepoID, testPRID).Return([]azure.Thread{
			aiThread(11, "ai comment", ":falseAlarm bad timing"),
		}, nil).Once()
		f.comments.On("GetByThread", ctx, testRepoID, 11).Return(storedComment(11, nil), nil).Once()
		f.comments.On("UpdateFeedback", ctx, testRepoID, 11, fb).Return(nil).Once()
		f.gateway.On("ResolveThread", ctx, testRepoID, testPRID, 11).Return(nil).Once()

		require.NoError(t, f.svc.RunReReview(ctx, "insights_node_api", testPRID))

		// Second run: same replies, feedback stored and thread resolved.
		resolved := aiThread(11, "ai comment", ":falseAlarm bad timing")
		resolved.Status = azure.ThreadStatusFixed
		f.gateway.On("GetThreads", ctx, testRepoID, testPRID).
			Return([]azure.Thread{resolved}, nil).Once()
		f.comments.On("GetByThread", ctx, testRepoID, 11).Return(storedComment(11, &fb), nil).Once()

		require.NoError(t, f.svc.RunReReview(ctx, "insights_node_api", testPRID))

		f.comments.AssertNumberOfCalls(t, "UpdateFeedback", 1)
		f.gateway.AssertNumberOfCalls(t, "ResolveThread", 1)
	})

	t.Run("unknown repo name", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.RunReReview(ctx, "nope", testPRID)

		assert.ErrorIs(t, err, reviewModel.ErrUnknownRepo)
	})
}
