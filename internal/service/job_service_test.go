package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"compliance-hub/backend/internal/dto"
)

func setupTestJobService() (JobService, *testRepos) {
	repos := newTestRepos()
	return NewJobService(repos.repo, zap.NewNop()), repos
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestJobService_Create(t *testing.T) {
	svc, _ := setupTestJobService()
	ctx := context.Background()

	job, err := svc.Create(ctx, &dto.CreateJobRequest{Code: " J001 ", Title: "合规专员", Department: "法务部"}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if job.Code != "J001" || !job.IsActive || job.Version != 1 {
		t.Errorf("响应不符: %+v", job)
	}

	_, err = svc.Create(ctx, &dto.CreateJobRequest{Code: "J001", Title: "另一个岗位"}, "admin-1")
	if !errors.Is(err, ErrJobCodeTaken) {
		t.Errorf("期望 ErrJobCodeTaken，实际: %v", err)
	}
}

func TestJobService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestJobService()

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("期望 ErrJobNotFound，实际: %v", err)
	}
}

func TestJobService_List_Filters(t *testing.T) {
	svc, repos := setupTestJobService()
	repos.addJob("job-1", "J001", true)
	repos.addJob("job-2", "J002", false)
	repos.addJob("job-3", "J003", true)

	list, total, err := svc.List(context.Background(), &dto.JobListRequest{})
	if err != nil || total != 2 || len(list) != 2 {
		t.Fatalf("默认应只返回在用岗位，实际 total=%d len=%d err=%v", total, len(list), err)
	}

	list, total, err = svc.List(context.Background(), &dto.JobListRequest{
		IncludeInactive:   true,
		PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 2},
	})
	if err != nil || total != 3 || len(list) != 1 || list[0].Code != "J003" {
		t.Errorf("分页结果不符: total=%d list=%+v err=%v", total, list, err)
	}
}

func TestJobService_Update(t *testing.T) {
	svc, repos := setupTestJobService()
	repos.addJob("job-1", "J001", true)
	repos.addJob("job-2", "J002", true)
	ctx := context.Background()

	if _, err := svc.Update(ctx, "job-1", &dto.UpdateJobRequest{Code: strPtr("J002")}, "u"); !errors.Is(err, ErrJobCodeTaken) {
		t.Errorf("期望 ErrJobCodeTaken，实际: %v", err)
	}

	job, err := svc.Update(ctx, "job-1", &dto.UpdateJobRequest{Title: strPtr("高级合规专员"), IsActive: boolPtr(false)}, "u")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if job.Title != "高级合规专员" || job.IsActive || job.Version != 2 {
		t.Errorf("更新结果不符: %+v", job)
	}

	if _, err := svc.Update(ctx, "missing", &dto.UpdateJobRequest{}, "u"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("期望 ErrJobNotFound，实际: %v", err)
	}
}

func TestJobService_Delete(t *testing.T) {
	svc, repos := setupTestJobService()
	repos.addJob("job-1", "J001", true)

	if err := svc.Delete(context.Background(), "missing", "u"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("期望 ErrJobNotFound，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), "job-1", "u"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := repos.jobs.jobs["job-1"]; ok {
		t.Error("岗位应已删除")
	}
}
