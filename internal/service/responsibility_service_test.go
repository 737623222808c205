package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"compliance-hub/backend/internal/dto"
)

func setupTestResponsibilityService() (*responsibilityService, *testRepos) {
	repos := newTestRepos()
	svc := NewResponsibilityService(repos.repo, zap.NewNop()).(*responsibilityService)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) }
	return svc, repos
}

func TestResponsibilityService_CreateAndList(t *testing.T) {
	svc, _ := setupTestResponsibilityService()
	ctx := context.Background()

	for _, req := range []dto.CreateResponsibilityRequest{
		{Name: "风险评估", Category: "风控"},
		{Name: "合规审计", Category: "审计"},
		{Name: "反洗钱复核", Category: "风控"},
	} {
		if _, err := svc.Create(ctx, &req, "admin-1"); err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
	}

	list, err := svc.List(ctx, &dto.ResponsibilityListRequest{Category: "风控"})
	if err != nil || len(list) != 2 {
		t.Errorf("按类别过滤期望2条，实际=%d err=%v", len(list), err)
	}
}

func TestResponsibilityService_Update(t *testing.T) {
	svc, repos := setupTestResponsibilityService()
	repos.addResponsibility("resp-1", "风险评估", true)

	got, err := svc.Update(context.Background(), "resp-1", &dto.UpdateResponsibilityRequest{IsActive: boolPtr(false)}, "u")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if got.IsActive {
		t.Error("职责应已停用")
	}

	if _, err := svc.Update(context.Background(), "missing", &dto.UpdateResponsibilityRequest{}, "u"); !errors.Is(err, ErrResponsibilityNotFound) {
		t.Errorf("期望 ErrResponsibilityNotFound，实际: %v", err)
	}
}

func TestResponsibilityService_Delete_InUse(t *testing.T) {
	svc, repos := setupTestResponsibilityService()
	repos.addResponsibility("resp-1", "风险评估", true)
	repos.addAssignment("job-1", "resp-1", 20, "2026-01-01", "")

	if err := svc.Delete(context.Background(), "resp-1", "u"); !errors.Is(err, ErrResponsibilityInUse) {
		t.Errorf("期望 ErrResponsibilityInUse，实际: %v", err)
	}
}

func TestResponsibilityService_Delete_OnlyHistory(t *testing.T) {
	svc, repos := setupTestResponsibilityService()
	repos.addResponsibility("resp-1", "风险评估", true)
	repos.addAssignment("job-1", "resp-1", 20, "2025-01-01", "2026-03-14")

	if err := svc.Delete(context.Background(), "resp-1", "u"); err != nil {
		t.Fatalf("仅有历史分配时应允许删除: %v", err)
	}
	if err := svc.Delete(context.Background(), "resp-1", "u"); !errors.Is(err, ErrResponsibilityNotFound) {
		t.Errorf("重复删除期望 ErrResponsibilityNotFound，实际: %v", err)
	}
}
