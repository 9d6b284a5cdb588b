package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/models"
	"github.com/noah-isme/regdocs-api/internal/repository"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
	"github.com/noah-isme/regdocs-api/pkg/jobs"
)

type reportRepoStub struct {
	mu   sync.Mutex
	jobs map[string]*models.ReportJob
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: make(map[string]*models.ReportJob)}
}

func (r *reportRepoStub) Create(ctx context.Context, job *models.ReportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	clone := *job
	r.jobs[job.ID] = &clone
	return nil
}

func (r *reportRepoStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (r *reportRepoStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *reportRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *reportRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type queueStub struct {
	mu       sync.Mutex
	enqueued []jobs.Job
	fail     bool
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return errors.New("queue full")
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

type exportStub struct {
	result *ExportResult
	err    error
	calls  int
}

func (e *exportStub) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

type auditStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func employeeClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleEmployee}
}

func TestReportServiceCreateJob(t *testing.T) {
	repo := newReportRepoStub()
	queue := &queueStub{}
	audit := &auditStub{}
	svc := NewReportService(repo, queue, nil, audit, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeUsage,
		Format: models.ReportFormatCSV,
	}, adminClaims())
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	require.Equal(t, resp.ID, queue.enqueued[0].ID)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionReportRequest, audit.logs[0].Action)
}

func TestReportServiceCreateJobForbiddenForEmployee(t *testing.T) {
	svc := NewReportService(newReportRepoStub(), &queueStub{}, nil, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeUsage,
		Format: models.ReportFormatCSV,
	}, employeeClaims("emp-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobValidation(t *testing.T) {
	svc := NewReportService(newReportRepoStub(), &queueStub{}, nil, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportType("bogus"),
		Format: models.ReportFormatCSV,
	}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	bad := "31-31-2024"
	_, err = svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:     models.ReportTypeUsage,
		Format:   models.ReportFormatCSV,
		DateFrom: &bad,
	}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	repo := newReportRepoStub()
	queue := &queueStub{fail: true}
	svc := NewReportService(repo, queue, nil, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeSummary,
		Format: models.ReportFormatPDF,
	}, adminClaims())
	require.Error(t, err)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		require.Equal(t, models.ReportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestReportServiceGetStatusOwnership(t *testing.T) {
	repo := newReportRepoStub()
	job := &models.ReportJob{
		Type:      models.ReportTypeUsage,
		Status:    models.ReportStatusProcessing,
		Progress:  10,
		CreatedBy: "emp-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	svc := NewReportService(repo, &queueStub{}, nil, nil, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.GetStatus(context.Background(), job.ID, employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusProcessing, resp.Status)

	_, err = svc.GetStatus(context.Background(), job.ID, employeeClaims("emp-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GetStatus(context.Background(), job.ID, adminClaims())
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), "missing", adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceResolveDownload(t *testing.T) {
	exporter, _ := newExportServiceForTest(t)
	repo := newReportRepoStub()
	job := &models.ReportJob{
		Type:      models.ReportTypeUsage,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV},
		CreatedBy: "admin-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	result, err := exporter.Generate(context.Background(), job)
	require.NoError(t, err)

	finished := models.ReportStatusFinished
	progress := 100
	require.NoError(t, repo.Update(context.Background(), job.ID, repository.UpdateReportJobParams{
		Status:    &finished,
		Progress:  &progress,
		ResultURL: &result.URL,
	}))

	svc := NewReportService(repo, &queueStub{}, exporter, nil, zap.NewNop(), ReportServiceConfig{})
	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	defer download.File.Close()
	require.Equal(t, models.ReportFormatCSV, download.Format)
	require.NotEmpty(t, download.Filename)

	_, err = svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	repo := newReportRepoStub()
	job := &models.ReportJob{Type: models.ReportTypeUsage}
	require.NoError(t, repo.Create(context.Background(), job))

	exporter := &exportStub{result: &ExportResult{
		RelativePath: "reports/u.csv",
		URL:          "/api/v1/export/tok",
		Format:       models.ReportFormatCSV,
	}}
	worker := NewReportWorker(repo, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1})
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusFinished, stored.Status)
	require.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultURL)
	require.Equal(t, "/api/v1/export/tok", *stored.ResultURL)
}

func TestReportWorkerHandleRetriesThenFails(t *testing.T) {
	repo := newReportRepoStub()
	job := &models.ReportJob{Type: models.ReportTypeUsage}
	require.NoError(t, repo.Create(context.Background(), job))

	exporter := &exportStub{err: errors.New("render failed")}
	worker := NewReportWorker(repo, exporter, 2, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1})
	require.Error(t, err)
	stored, _ := repo.GetByID(context.Background(), job.ID)
	require.Equal(t, models.ReportStatusQueued, stored.Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 2})
	require.Error(t, err)
	stored, _ = repo.GetByID(context.Background(), job.ID)
	require.Equal(t, models.ReportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	require.Equal(t, 2, exporter.calls)
}
