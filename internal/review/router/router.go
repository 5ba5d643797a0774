// Package router provides review module route registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zpr-ai/zpr/internal/azure"
	appConfig "github.com/zpr-ai/zpr/internal/config"
	"github.com/zpr-ai/zpr/internal/llm"
	prcommentRepo "github.com/zpr-ai/zpr/internal/prcomment/repository"
	pullrequestRepo "github.com/zpr-ai/zpr/internal/pullrequest/repository"
	"github.com/zpr-ai/zpr/internal/repo"
	"github.com/zpr-ai/zpr/internal/review/handler"
	"github.com/zpr-ai/zpr/internal/review/service"
)

// RegisterRoutes registers review module routes.
func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cfg appConfig.Config,
	gateway azure.Gateway,
	llmProvider llm.Provider,
	logger *zap.SugaredLogger,
) {
	providers := func(dir string) (repo.Provider, error) {
		return repo.New(cfg.RepoProvider, dir)
	}

	svc := service.New(
		cfg.Repos,
		gateway,
		llmProvider,
		providers,
		pullrequestRepo.New(db),
		prcommentRepo.New(db),
		logger,
	)
	h := handler.New(svc, logger)

	r.POST("/review", h.DoReview)
	r.POST("/re-review", h.DoReReview)
}
