package model

// ReviewRequest is the payload for POST /review.
type ReviewRequest struct {
	RepoName      string `json:"repoName"  binding:"required"`
	PullRequestID int    `json:"prId"      binding:"required"`
	ModelName     string `json:"modelName" binding:"required"`
}

// ReReviewRequest is the payload for POST /re-review.
type ReReviewRequest struct {
	RepoName      string `json:"repoName" binding:"required"`
	PullRequestID int    `json:"prId"     binding:"required"`
}
