package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/models"
	appErrors "github.com/noah-isme/regdocs-api/pkg/errors"
	"github.com/noah-isme/regdocs-api/pkg/storage"
)

type recordRepoStub struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*models.Record
}

func newRecordRepoStub() *recordRepoStub {
	return &recordRepoStub{records: make(map[int64]*models.Record)}
}

func (r *recordRepoStub) Create(ctx context.Context, record *models.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	record.ID = r.nextID
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *recordRepoStub) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.DeletedAt != nil {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (r *recordRepoStub) List(ctx context.Context) ([]models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.records))
	for id, record := range r.records {
		if record.DeletedAt == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.records[id])
	}
	return out, nil
}

func (r *recordRepoStub) Update(ctx context.Context, record *models.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[record.ID]
	if !ok || existing.DeletedAt != nil {
		return sql.ErrNoRows
	}
	clone := *record
	clone.UpdatedAt = time.Now().UTC()
	r.records[record.ID] = &clone
	return nil
}

func (r *recordRepoStub) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.DeletedAt != nil {
		return sql.ErrNoRows
	}
	record.DeletedAt = &deletedAt
	return nil
}

func (r *recordRepoStub) Catalog(ctx context.Context) (models.RecordCatalog, error) {
	records, _ := r.List(ctx)
	catalog := models.RecordCatalog{}
	seen := map[string]map[string]struct{}{"dept": {}, "section": {}, "type": {}}
	add := func(kind, value string, dst *[]string) {
		if value == "" {
			return
		}
		if _, ok := seen[kind][value]; ok {
			return
		}
		seen[kind][value] = struct{}{}
		*dst = append(*dst, value)
	}
	for _, record := range records {
		add("dept", record.Department, &catalog.Departments)
		for _, section := range record.Sections {
			add("section", section, &catalog.Sections)
		}
		for _, dt := range record.DocumentTypes {
			add("type", dt, &catalog.DocumentTypes)
		}
	}
	sort.Strings(catalog.Departments)
	sort.Strings(catalog.Sections)
	sort.Strings(catalog.DocumentTypes)
	return catalog, nil
}

type savedIDStub struct {
	ids map[int64]struct{}
}

func (s *savedIDStub) IDSet(ctx context.Context, userID string) (map[int64]struct{}, error) {
	return s.ids, nil
}

type actionLoggerStub struct {
	mu      sync.Mutex
	entries []*models.HistoryEntry
}

func (a *actionLoggerStub) Log(ctx context.Context, entry *models.HistoryEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *actionLoggerStub) actions() []models.ActionType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.ActionType, 0, len(a.entries))
	for _, entry := range a.entries {
		out = append(out, entry.Action)
	}
	return out
}

type recordServiceFixture struct {
	svc     *RecordService
	repo    *recordRepoStub
	saved   *savedIDStub
	history *actionLoggerStub
	audit   *auditStub
	store   *storage.LocalStorage
}

func newRecordServiceFixture(t *testing.T) *recordServiceFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	repo := newRecordRepoStub()
	saved := &savedIDStub{}
	history := &actionLoggerStub{}
	audit := &auditStub{}
	svc := NewRecordService(repo, saved, history, store, signer, audit, zap.NewNop(), RecordServiceConfig{})
	return &recordServiceFixture{svc: svc, repo: repo, saved: saved, history: history, audit: audit, store: store}
}

func pdfUpload(name string) RecordUpload {
	content := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF")
	return RecordUpload{
		Filename: name,
		Size:     int64(len(content)),
		Content:  bytes.NewReader(content),
	}
}

func TestRecordServiceUpload(t *testing.T) {
	f := newRecordServiceFixture(t)
	record, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:       "Leave Policy",
		Department:  "HR",
		Sections:    []string{"Benefits", " "},
		VersionDate: "2024-03-10",
	}, pdfUpload("leave.pdf"), adminClaims())
	require.NoError(t, err)
	require.Equal(t, int64(1), record.ID)
	require.Equal(t, "application/pdf", record.MimeType)
	require.Equal(t, models.StringSet{"Benefits"}, record.Sections)
	require.Equal(t, "admin-1", record.CreatedBy)

	info, err := os.Stat(f.store.Path(record.FilePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	require.Len(t, f.audit.logs, 1)
	require.Equal(t, models.AuditActionRecordCreate, f.audit.logs[0].Action)
}

func TestRecordServiceUploadForbiddenForEmployee(t *testing.T) {
	f := newRecordServiceFixture(t)
	_, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:      "Policy",
		Department: "HR",
	}, pdfUpload("p.pdf"), employeeClaims("emp-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceUploadRejectsBadInput(t *testing.T) {
	f := newRecordServiceFixture(t)

	_, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{Department: "HR"}, pdfUpload("p.pdf"), adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:       "Policy",
		Department:  "HR",
		VersionDate: "March tenth",
	}, pdfUpload("p.pdf"), adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	text := []byte("plain text body, nothing like a document")
	_, err = f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:      "Policy",
		Department: "HR",
	}, RecordUpload{Filename: "p.txt", Size: int64(len(text)), Content: bytes.NewReader(text)}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceUploadRejectsOversize(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewRecordService(newRecordRepoStub(), nil, nil, store, nil, nil, zap.NewNop(), RecordServiceConfig{MaxFileSize: 10})

	_, err = svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:      "Policy",
		Department: "HR",
	}, pdfUpload("p.pdf"), adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceListSavedOnly(t *testing.T) {
	f := newRecordServiceFixture(t)
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{
			Title:      title,
			Department: "HR",
		}, pdfUpload(strings.ToLower(title)+".pdf"), adminClaims())
		require.NoError(t, err)
	}
	f.saved.ids = map[int64]struct{}{2: {}}

	records, err := f.svc.List(context.Background(), FilterCriteria{SavedOnly: true}, employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Beta", records[0].Title)

	records, err = f.svc.List(context.Background(), FilterCriteria{}, employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Len(t, records, 3)
}

func TestRecordServiceGetLogsDetailOpen(t *testing.T) {
	f := newRecordServiceFixture(t)
	created, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:      "Policy",
		Department: "HR",
	}, pdfUpload("p.pdf"), adminClaims())
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), created.ID, employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, []models.ActionType{models.ActionShowDetails}, f.history.actions())

	_, err = f.svc.Get(context.Background(), 999, employeeClaims("emp-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceUpdatePartial(t *testing.T) {
	f := newRecordServiceFixture(t)
	created, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:      "Policy",
		Department: "HR",
	}, pdfUpload("p.pdf"), adminClaims())
	require.NoError(t, err)

	newTitle := "Updated Policy"
	updated, err := f.svc.Update(context.Background(), created.ID, dto.UpdateRecordRequest{
		Title:    &newTitle,
		Sections: []string{"Leave"},
	}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, "Updated Policy", updated.Title)
	require.Equal(t, models.StringSet{"Leave"}, updated.Sections)
	require.Equal(t, "HR", updated.Department)

	_, err = f.svc.Update(context.Background(), created.ID, dto.UpdateRecordRequest{Title: &newTitle}, employeeClaims("emp-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	empty := "  "
	_, err = f.svc.Update(context.Background(), created.ID, dto.UpdateRecordRequest{Title: &empty}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceDownloadRoundTrip(t *testing.T) {
	f := newRecordServiceFixture(t)
	created, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:      "Policy",
		Department: "HR",
	}, pdfUpload("p.pdf"), adminClaims())
	require.NoError(t, err)

	downloadURL, err := f.svc.GetDownloadURL(context.Background(), created.ID, employeeClaims("emp-1"))
	require.NoError(t, err)
	parsed, err := url.Parse(downloadURL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)

	download, err := f.svc.Download(context.Background(), created.ID, token, employeeClaims("emp-1"))
	require.NoError(t, err)
	defer download.File.Close()
	require.Equal(t, "application/pdf", download.MimeType)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	require.Contains(t, f.history.actions(), models.ActionDownload)

	_, err = f.svc.Download(context.Background(), created.ID, "bad-token", employeeClaims("emp-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceDelete(t *testing.T) {
	f := newRecordServiceFixture(t)
	created, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:      "Policy",
		Department: "HR",
	}, pdfUpload("p.pdf"), adminClaims())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID, adminClaims()))

	_, err = f.svc.Get(context.Background(), created.ID, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = f.svc.Delete(context.Background(), created.ID, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceCatalog(t *testing.T) {
	f := newRecordServiceFixture(t)
	_, err := f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:         "Policy",
		Department:    "HR",
		Sections:      []string{"Benefits"},
		DocumentTypes: []string{"Policy"},
	}, pdfUpload("p.pdf"), adminClaims())
	require.NoError(t, err)
	_, err = f.svc.Upload(context.Background(), dto.CreateRecordRequest{
		Title:      "Baseline",
		Department: "IT",
	}, pdfUpload("b.pdf"), adminClaims())
	require.NoError(t, err)

	catalog, err := f.svc.Catalog(context.Background(), employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Equal(t, []string{"HR", "IT"}, catalog.Departments)
	require.Equal(t, []string{"Benefits"}, catalog.Sections)
	require.Equal(t, []string{"Policy"}, catalog.DocumentTypes)
}
