package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"compliance-hub/backend/internal/model"
	"compliance-hub/backend/internal/repository"
	"compliance-hub/backend/internal/weighting"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *mockUserRepo) List(_ context.Context, role, keyword string, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		if keyword != "" && !strings.Contains(u.Name, keyword) && !strings.Contains(u.Email, keyword) {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	user.Version++
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock JobRepository ──

type mockJobRepo struct {
	jobs map[string]*model.Job
	seq  int
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: make(map[string]*model.Job)}
}

func (m *mockJobRepo) Create(_ context.Context, job *model.Job) error {
	if job.JobID == "" {
		m.seq++
		job.JobID = fmt.Sprintf("job-%d", m.seq)
	}
	if job.Version == 0 {
		job.Version = 1
	}
	m.jobs[job.JobID] = job
	return nil
}

func (m *mockJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	if j, ok := m.jobs[id]; ok {
		return j, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJobRepo) GetByCode(_ context.Context, code string) (*model.Job, error) {
	for _, j := range m.jobs {
		if j.Code == code {
			return j, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJobRepo) List(_ context.Context, filter repository.JobFilter, offset, limit int) ([]model.Job, int64, error) {
	var result []model.Job
	for _, j := range m.jobs {
		if !filter.IncludeInactive && !j.IsActive {
			continue
		}
		if filter.Department != "" && j.Department != filter.Department {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(j.Title, filter.Keyword) && !strings.Contains(j.Code, filter.Keyword) {
			continue
		}
		result = append(result, *j)
	}
	sort.Slice(result, func(i, k int) bool { return result[i].Code < result[k].Code })
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockJobRepo) Update(_ context.Context, job *model.Job) error {
	job.Version++
	m.jobs[job.JobID] = job
	return nil
}

func (m *mockJobRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.jobs, id)
	return nil
}

func (m *mockJobRepo) LockByID(ctx context.Context, id string) (*model.Job, error) {
	return m.GetByID(ctx, id)
}

// ── Mock ResponsibilityRepository ──

type mockResponsibilityRepo struct {
	items map[string]*model.Responsibility
	seq   int
}

func newMockResponsibilityRepo() *mockResponsibilityRepo {
	return &mockResponsibilityRepo{items: make(map[string]*model.Responsibility)}
}

func (m *mockResponsibilityRepo) Create(_ context.Context, resp *model.Responsibility) error {
	if resp.ResponsibilityID == "" {
		m.seq++
		resp.ResponsibilityID = fmt.Sprintf("resp-%d", m.seq)
	}
	if resp.Version == 0 {
		resp.Version = 1
	}
	m.items[resp.ResponsibilityID] = resp
	return nil
}

func (m *mockResponsibilityRepo) GetByID(_ context.Context, id string) (*model.Responsibility, error) {
	if r, ok := m.items[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResponsibilityRepo) GetByName(_ context.Context, name string) (*model.Responsibility, error) {
	for _, r := range m.items {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResponsibilityRepo) List(_ context.Context, category string, includeInactive bool) ([]model.Responsibility, error) {
	var result []model.Responsibility
	for _, r := range m.items {
		if !includeInactive && !r.IsActive {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockResponsibilityRepo) Update(_ context.Context, resp *model.Responsibility) error {
	resp.Version++
	m.items[resp.ResponsibilityID] = resp
	return nil
}

func (m *mockResponsibilityRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.items, id)
	return nil
}

// ── Mock JobResponsibilityRepository ──

type mockJobResponsibilityRepo struct {
	items     []*model.JobResponsibility
	resp      *mockResponsibilityRepo
	seq       int
	createErr error // 非 nil 时 Create 返回该错误
}

func newMockJobResponsibilityRepo(resp *mockResponsibilityRepo) *mockJobResponsibilityRepo {
	return &mockJobResponsibilityRepo{resp: resp}
}

func (m *mockJobResponsibilityRepo) Create(_ context.Context, a *model.JobResponsibility) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	a.AssignmentID = fmt.Sprintf("asg-%d", m.seq)
	a.CreatedAt = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	m.items = append(m.items, a)
	return nil
}

func (m *mockJobResponsibilityRepo) GetByID(_ context.Context, id string) (*model.JobResponsibility, error) {
	for _, a := range m.items {
		if a.AssignmentID == id {
			return m.withResponsibility(a), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJobResponsibilityRepo) ListByJob(_ context.Context, jobID string) ([]model.JobResponsibility, error) {
	var result []model.JobResponsibility
	for _, a := range m.items {
		if a.JobID == jobID {
			result = append(result, *m.withResponsibility(a))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (m *mockJobResponsibilityRepo) CountCurrentByResponsibility(_ context.Context, responsibilityID string, day time.Time) (int64, error) {
	var count int64
	for _, a := range m.items {
		if a.ResponsibilityID != responsibilityID {
			continue
		}
		if a.EndDate == nil || !weighting.Day(*a.EndDate).Before(day) {
			count++
		}
	}
	return count, nil
}

func (m *mockJobResponsibilityRepo) Delete(_ context.Context, id string) error {
	for i, a := range m.items {
		if a.AssignmentID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockJobResponsibilityRepo) withResponsibility(a *model.JobResponsibility) *model.JobResponsibility {
	if m.resp != nil {
		if r, ok := m.resp.items[a.ResponsibilityID]; ok {
			a.Responsibility = r
		}
	}
	return a
}

// ── 测试辅助 ──

type testRepos struct {
	repo   *repository.Repository
	users  *mockUserRepo
	jobs   *mockJobRepo
	resps  *mockResponsibilityRepo
	assign *mockJobResponsibilityRepo
}

func newTestRepos() *testRepos {
	users := newMockUserRepo()
	jobs := newMockJobRepo()
	resps := newMockResponsibilityRepo()
	assign := newMockJobResponsibilityRepo(resps)
	return &testRepos{
		repo: &repository.Repository{
			User:              users,
			Job:               jobs,
			Responsibility:    resps,
			JobResponsibility: assign,
		},
		users:  users,
		jobs:   jobs,
		resps:  resps,
		assign: assign,
	}
}

func (r *testRepos) addJob(id, code string, active bool) *model.Job {
	job := &model.Job{JobID: id, Code: code, Title: "岗位 " + code, IsActive: active}
	_ = r.jobs.Create(context.Background(), job)
	return job
}

func (r *testRepos) addResponsibility(id, name string, active bool) *model.Responsibility {
	resp := &model.Responsibility{ResponsibilityID: id, Name: name, IsActive: active}
	_ = r.resps.Create(context.Background(), resp)
	return resp
}

// addAssignment 直接写入 mock，绕过准入检查
func (r *testRepos) addAssignment(jobID, respID string, weight int, start, end string) *model.JobResponsibility {
	s, _ := weighting.ParseDate(start)
	e, _ := weighting.ParseOptionalDate(end)
	a := &model.JobResponsibility{JobID: jobID, ResponsibilityID: respID, Weighting: weight, StartDate: s, EndDate: e}
	_ = r.assign.Create(context.Background(), a)
	return a
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
