package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"compliance-hub/backend/internal/dto"
	"compliance-hub/backend/internal/model"
)

func setupTestUserService() (UserService, *testRepos) {
	repos := newTestRepos()
	return NewUserService(repos.repo, zap.NewNop()), repos
}

func TestUserService_CreateUser(t *testing.T) {
	svc, repos := setupTestUserService()
	ctx := context.Background()

	resp, err := svc.CreateUser(ctx, &dto.CreateUserRequest{Name: "王五", Email: "wang@example.com", Role: model.RoleHRManager}, "admin-1")
	if err != nil {
		t.Fatalf("CreateUser 应成功: %v", err)
	}
	if len(resp.TempPassword) != 10 {
		t.Errorf("期望10位临时密码，实际=%q", resp.TempPassword)
	}

	stored := repos.users.users[resp.User.ID]
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(resp.TempPassword)); err != nil {
		t.Error("存储的哈希应与临时密码匹配")
	}

	_, err = svc.CreateUser(ctx, &dto.CreateUserRequest{Name: "王五", Email: "WANG@example.com", Role: model.RoleViewer}, "admin-1")
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

func TestUserService_Update_SelfGuards(t *testing.T) {
	svc, repos := setupTestUserService()
	admin := &model.User{Name: "管理员", Email: "a@example.com", Role: model.RoleAdmin, IsActive: true}
	_ = repos.users.Create(context.Background(), admin)

	role := model.RoleViewer
	if _, err := svc.Update(context.Background(), admin.UserID, &dto.UpdateUserRequest{Role: &role}, admin.UserID); !errors.Is(err, ErrUserSelfRoleChange) {
		t.Errorf("期望 ErrUserSelfRoleChange，实际: %v", err)
	}
	if _, err := svc.Update(context.Background(), admin.UserID, &dto.UpdateUserRequest{IsActive: boolPtr(false)}, admin.UserID); !errors.Is(err, ErrUserSelfRoleChange) {
		t.Errorf("停用自己期望 ErrUserSelfRoleChange，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), admin.UserID, admin.UserID); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际: %v", err)
	}

	got, err := svc.Update(context.Background(), admin.UserID, &dto.UpdateUserRequest{Name: strPtr("新名字")}, admin.UserID)
	if err != nil || got.Name != "新名字" {
		t.Errorf("修改自己的姓名应成功: %+v %v", got, err)
	}
}

func TestUserService_ResetPassword(t *testing.T) {
	svc, repos := setupTestUserService()
	user := &model.User{Name: "赵六", Email: "z@example.com", PasswordHash: "old", Role: model.RoleViewer, IsActive: true}
	_ = repos.users.Create(context.Background(), user)

	resp, err := svc.ResetPassword(context.Background(), user.UserID, "admin-1")
	if err != nil {
		t.Fatalf("ResetPassword 应成功: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(resp.TempPassword)); err != nil {
		t.Error("密码哈希应已更新")
	}

	if _, err := svc.ResetPassword(context.Background(), "missing", "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd, err := generateTempPassword(8)
		if err != nil {
			t.Fatalf("生成失败: %v", err)
		}
		hasLetter, hasDigit := false, false
		for _, c := range pwd {
			switch {
			case c >= '0' && c <= '9':
				hasDigit = true
			case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
				hasLetter = true
			}
		}
		if len(pwd) != 8 || !hasLetter || !hasDigit {
			t.Errorf("临时密码不符合要求: %q", pwd)
		}
	}
}
