package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"compliance-hub/backend/config"
	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/model"
	"compliance-hub/backend/pkg/jwt"
)

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	revoked map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-0123456789",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Weighting: config.WeightingConfig{BulkBatchSize: 50, BulkMode: config.BulkModeBestEffort},
	}
}

func setupTestAuthService(blacklist TokenBlacklist) (AuthService, *testRepos, *jwt.Manager, *config.Config) {
	cfg := testConfig()
	repos := newTestRepos()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	return NewAuthService(cfg, repos.repo, jwtMgr, blacklist, zap.NewNop()), repos, jwtMgr, cfg
}

func addUser(t *testing.T, repos *testRepos, email, password, role string, active bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("密码哈希失败: %v", err)
	}
	user := &model.User{Name: "测试用户", Email: email, PasswordHash: string(hash), Role: role, IsActive: active}
	_ = repos.users.Create(context.Background(), user)
	return user
}

// ── Login 测试 ──

func TestAuthService_Login(t *testing.T) {
	svc, repos, jwtMgr, _ := setupTestAuthService(nil)
	user := addUser(t, repos, "hr@example.com", "correct-pass", model.RoleHRManager, true)
	addUser(t, repos, "off@example.com", "correct-pass", model.RoleViewer, false)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "HR@example.com", Password: "correct-pass"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil || claims.UserID != user.UserID || claims.Role != model.RoleHRManager {
		t.Errorf("AccessToken 内容不符: %+v %v", claims, err)
	}
	if resp.ExpiresIn != 900 {
		t.Errorf("期望 expires_in=900，实际=%d", resp.ExpiresIn)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "hr@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误期望 ErrInvalidCredentials，实际: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在期望 ErrInvalidCredentials，实际: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "off@example.com", Password: "correct-pass"}); !errors.Is(err, ErrUserDisabled) {
		t.Errorf("停用账号期望 ErrUserDisabled，实际: %v", err)
	}
}

// ── RefreshToken 测试 ──

func TestAuthService_RefreshToken_Rotates(t *testing.T) {
	blacklist := newMockBlacklist()
	svc, repos, _, _ := setupTestAuthService(blacklist)
	addUser(t, repos, "hr@example.com", "correct-pass", model.RoleHRManager, true)
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "hr@example.com", Password: "correct-pass"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	if _, err := svc.RefreshToken(ctx, login.RefreshToken); err != nil {
		t.Fatalf("RefreshToken 应成功: %v", err)
	}
	if len(blacklist.revoked) != 1 {
		t.Errorf("旧 RefreshToken 应被吊销")
	}

	if _, err := svc.RefreshToken(ctx, login.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("重复使用期望 ErrTokenRevoked，实际: %v", err)
	}
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	svc, repos, _, _ := setupTestAuthService(nil)
	addUser(t, repos, "hr@example.com", "correct-pass", model.RoleHRManager, true)

	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "hr@example.com", Password: "correct-pass"})
	if _, err := svc.RefreshToken(context.Background(), login.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望 ErrInvalidToken，实际: %v", err)
	}
}

// ── Logout / GetCurrentUser 测试 ──

func TestAuthService_Logout(t *testing.T) {
	blacklist := newMockBlacklist()
	svc, _, _, _ := setupTestAuthService(blacklist)

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if _, ok := blacklist.revoked["jti-1"]; !ok {
		t.Error("jti 应写入黑名单")
	}

	noBlacklist, _, _, _ := setupTestAuthService(nil)
	if err := noBlacklist.Logout(context.Background(), "jti-2", time.Now()); err != nil {
		t.Errorf("无黑名单时登出应降级成功: %v", err)
	}
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	svc, repos, _, _ := setupTestAuthService(nil)
	user := addUser(t, repos, "viewer@example.com", "pass-1234", model.RoleViewer, true)

	got, err := svc.GetCurrentUser(context.Background(), user.UserID)
	if err != nil || got.Email != "viewer@example.com" || got.Role != model.RoleViewer {
		t.Errorf("结果不符: %+v %v", got, err)
	}
	if _, err := svc.GetCurrentUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── EnsureBootstrapAdmin 测试 ──

func TestAuthService_EnsureBootstrapAdmin(t *testing.T) {
	svc, repos, _, cfg := setupTestAuthService(nil)
	ctx := context.Background()

	// 未配置时不创建
	if err := svc.EnsureBootstrapAdmin(ctx); err != nil || len(repos.users.users) != 0 {
		t.Fatalf("未配置管理员邮箱时不应创建用户: %v", err)
	}

	cfg.Auth.BootstrapAdminEmail = "admin@example.com"
	cfg.Auth.BootstrapAdminPassword = "bootstrap-pass"
	if err := svc.EnsureBootstrapAdmin(ctx); err != nil {
		t.Fatalf("EnsureBootstrapAdmin 应成功: %v", err)
	}
	admin, err := repos.users.GetByEmail(ctx, "admin@example.com")
	if err != nil || admin.Role != model.RoleAdmin {
		t.Fatalf("应创建管理员: %+v %v", admin, err)
	}

	// 已有用户时不再创建
	if err := svc.EnsureBootstrapAdmin(ctx); err != nil || len(repos.users.users) != 1 {
		t.Errorf("已有用户时不应重复创建，实际用户数=%d", len(repos.users.users))
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "admin@example.com", Password: "bootstrap-pass"}); err != nil {
		t.Errorf("初始管理员应可登录: %v", err)
	}
}
