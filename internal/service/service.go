package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"compliance-hub/backend/config"
	"compliance-hub/backend/internal/repository"
	"compliance-hub/backend/pkg/jwt"
)

// TokenBlacklist Token 黑名单存储（Redis 实现见 pkg/redis）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth           AuthService
	User           UserService
	Job            JobService
	Responsibility ResponsibilityService
	Assignment     AssignmentService
	Export         ExportService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（Redis 不可用时降级：登出不吊销 Token）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:           NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:           NewUserService(repo, logger),
		Job:            NewJobService(repo, logger),
		Responsibility: NewResponsibilityService(repo, logger),
		Assignment:     NewAssignmentService(&cfg.Weighting, repo, logger),
		Export:         NewExportService(&cfg.Weighting, repo, logger),
	}
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
