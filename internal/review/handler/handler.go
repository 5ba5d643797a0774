// Package handler provides HTTP handlers for review endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reviewModel "github.com/zpr-ai/zpr/internal/review/model"
	"github.com/zpr-ai/zpr/internal/review/service"
)

// Handler handles HTTP requests for review endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new review handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// DoReview handles POST /review: it runs the first-pass review of a pull
// request and returns the findings grouped by file.
func (h *Handler) DoReview(c *gin.Context) {
	var req reviewModel.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.RunReview(c.Request.Context(), req.RepoName, req.PullRequestID, req.ModelName)
	if err != nil {
		if errors.Is(err, reviewModel.ErrUnknownRepo) {
			errorResponse(c, "INVALID_REPO", "invalid repoName", http.StatusBadRequest)
			return
		}
		if errors.Is(err, reviewModel.ErrAlreadyReviewed) {
			errorResponse(c, "ALREADY_REVIEWED", "PR already reviewed, try re-reviewing it", http.StatusConflict)
			return
		}
		if errors.Is(err, reviewModel.ErrBadFindings) {
			h.logger.Errorw("review failed on model reply", "pr_id", req.PullRequestID, "error", err)
			errorResponse(c, "BAD_MODEL_REPLY", "model reply did not match the findings schema", http.StatusInternalServerError)
			return
		}
		h.logger.Errorw("review failed", "pr_id", req.PullRequestID, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "review",
		"result":  result,
	})
}

// DoReReview handles POST /re-review: it reconciles human replies on
// previously posted review threads.
func (h *Handler) DoReReview(c *gin.Context) {
	var req reviewModel.ReReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.RunReReview(c.Request.Context(), req.RepoName, req.PullRequestID)
	if err != nil {
		if errors.Is(err, reviewModel.ErrUnknownRepo) {
			errorResponse(c, "INVALID_REPO", "invalid repoName", http.StatusBadRequest)
			return
		}
		if errors.Is(err, reviewModel.ErrNoFirstReview) {
			errorResponse(c, "NO_FIRST_REVIEW", "cannot re-review a PR if no first review is done", http.StatusBadRequest)
			return
		}
		h.logger.Errorw("re-review failed", "pr_id", req.PullRequestID, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "complete"})
}
