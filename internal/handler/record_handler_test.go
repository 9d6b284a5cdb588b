package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/regdocs-api/internal/dto"
	"github.com/noah-isme/regdocs-api/internal/middleware"
	"github.com/noah-isme/regdocs-api/internal/models"
	"github.com/noah-isme/regdocs-api/internal/service"
)

type recordServiceMock struct {
	records      []models.Record
	record       *models.Record
	download     *service.RecordDownload
	downloadURL  string
	catalog      models.RecordCatalog
	listCriteria service.FilterCriteria
	err          error
}

func (m *recordServiceMock) Upload(ctx context.Context, meta dto.CreateRecordRequest, upload service.RecordUpload, actor *models.JWTClaims) (*models.Record, error) {
	return m.record, m.err
}

func (m *recordServiceMock) List(ctx context.Context, criteria service.FilterCriteria, actor *models.JWTClaims) ([]models.Record, error) {
	m.listCriteria = criteria
	return m.records, m.err
}

func (m *recordServiceMock) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Record, error) {
	return m.record, m.err
}

func (m *recordServiceMock) Update(ctx context.Context, id int64, req dto.UpdateRecordRequest, actor *models.JWTClaims) (*models.Record, error) {
	return m.record, m.err
}

func (m *recordServiceMock) GetDownloadURL(ctx context.Context, id int64, actor *models.JWTClaims) (string, error) {
	return m.downloadURL, m.err
}

func (m *recordServiceMock) Download(ctx context.Context, id int64, token string, actor *models.JWTClaims) (*service.RecordDownload, error) {
	return m.download, m.err
}

func (m *recordServiceMock) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	return m.err
}

func (m *recordServiceMock) Catalog(ctx context.Context, actor *models.JWTClaims) (models.RecordCatalog, error) {
	return m.catalog, m.err
}

func employeeContext(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee})
}

func TestRecordHandlerListBuildsCriteria(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &recordServiceMock{records: []models.Record{{ID: 1, Title: "Policy"}}}
	handler := NewRecordHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/records?department=HR&sections=Benefits&sections=Leave&title=policy&dateFrom=2024-01-01&savedOnly=true&sort=newest", nil)
	employeeContext(c)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "HR", mockSvc.listCriteria.Department)
	require.Equal(t, []string{"Benefits", "Leave"}, mockSvc.listCriteria.Sections)
	require.Equal(t, "policy", mockSvc.listCriteria.Title)
	require.True(t, mockSvc.listCriteria.SavedOnly)
	require.Equal(t, service.SortNewest, mockSvc.listCriteria.Sort)
	require.NotNil(t, mockSvc.listCriteria.DateFrom)
}

func TestRecordHandlerListRejectsBadQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRecordHandler(&recordServiceMock{})

	c, w := newGinContext(http.MethodGet, "/records?sort=fancy", nil)
	employeeContext(c)
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/records?dateFrom=yesterday", nil)
	employeeContext(c)
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordHandlerGetAttachesDownloadURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &recordServiceMock{
		record:      &models.Record{ID: 7, Title: "Policy"},
		downloadURL: "/api/v1/records/7/download?token=abc",
	}
	handler := NewRecordHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/records/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	employeeContext(c)

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.RecordDownloadResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, int64(7), envelope.Data.ID)
	require.Equal(t, "/api/v1/records/7/download?token=abc", envelope.Data.DownloadURL)
}

func TestRecordHandlerGetInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRecordHandler(&recordServiceMock{})

	c, w := newGinContext(http.MethodGet, "/records/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	employeeContext(c)

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordHandlerDownloadStreamsFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp("", "doc*.pdf")
	require.NoError(t, err)
	defer os.Remove(file.Name())
	_, _ = file.WriteString("%PDF-1.4 test")
	_, _ = file.Seek(0, 0)

	mockSvc := &recordServiceMock{download: &service.RecordDownload{
		File:      file,
		Filename:  "doc.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 13,
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	handler := NewRecordHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/records/7/download?token=abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	employeeContext(c)

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "doc.pdf")
}

func TestRecordHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRecordHandler(&recordServiceMock{})

	c, w := newGinContext(http.MethodGet, "/records/7/download", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	employeeContext(c)

	handler.Download(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordHandlerCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &recordServiceMock{catalog: models.RecordCatalog{Departments: []string{"HR"}}}
	handler := NewRecordHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/records/catalog", nil)
	employeeContext(c)

	handler.Catalog(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.RecordCatalog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, []string{"HR"}, envelope.Data.Departments)
}
