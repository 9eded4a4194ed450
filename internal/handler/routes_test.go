package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-erp-api/internal/middleware"
	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/internal/repository"
	"github.com/noah-isme/edu-erp-api/internal/seed"
	"github.com/noah-isme/edu-erp-api/internal/service"
	"github.com/noah-isme/edu-erp-api/pkg/jobs"
	"github.com/noah-isme/edu-erp-api/pkg/storage"
)

type testServer struct {
	router *gin.Engine
	leads  *repository.LeadRepository
	audit  *service.LogAuditSink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	directory := repository.NewDirectoryRepository()
	leads := repository.NewLeadRepository(repository.LeadRepositoryOptions{DefaultOwnerID: "USR-001"})
	seed.Load(ctx, seed.Generate(seed.Options{Leads: 5, Seed: 7}), leads, directory)

	metrics := service.NewMetricsService()
	leadSvc := service.NewLeadService(leads, directory, validator.New(), metrics, nil, service.LeadServiceConfig{Location: time.UTC})
	audit := service.NewLogAuditSink(nil, 0)

	uploads, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	statuses := repository.NewMemoryImportJobRepository()
	importCfg := service.ImportServiceConfig{MaxFileSize: 1 << 20}
	worker := service.NewImportWorker(statuses, uploads, leadSvc, importCfg, nil)
	queue := jobs.NewQueue("lead_imports_test", worker.Handle, jobs.QueueConfig{OnGiveUp: worker.GiveUp})
	queue.Start(ctx)
	t.Cleanup(queue.Stop)

	h := Handlers{
		Leads:     NewLeadHandler(leadSvc),
		Pipeline:  NewPipelineHandler(service.NewDashboardService(service.DashboardServiceParams{Leads: leads})),
		Reports:   NewReportHandler(service.NewReportService(leads, directory, nil)),
		Directory: NewDirectoryHandler(service.NewDirectoryService(directory, nil)),
		Imports:   NewImportHandler(service.NewImportService(statuses, uploads, queue, importCfg, nil)),
		Audit:     NewAuditHandler(audit),
	}

	r := gin.New()
	r.Use(middleware.Actor())
	RegisterRoutes(r.Group("/api/v1"), h, audit, nil)
	return &testServer{router: r, leads: leads, audit: audit}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ActorHeader, "USR-101")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRoutesCreateLead(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/leads", map[string]interface{}{
		"name":         "Riya Sen",
		"email":        "riya.sen@example.com",
		"phoneNumbers": []map[string]string{{"number": "+919876543210"}},
		"source":       "Website",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `Lead \"Riya Sen\" created successfully.`)
	assert.Equal(t, 6, srv.leads.Count(context.Background()))

	w = srv.do(t, http.MethodPost, "/api/v1/leads", map[string]interface{}{
		"name":         "Riya Sen",
		"email":        "not-an-email",
		"phoneNumbers": []map[string]string{{"number": "12"}},
		"source":       "Website",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w)
	fields := body["error"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phoneNumbers[0].number")
	assert.Equal(t, 6, srv.leads.Count(context.Background()))
}

func TestRoutesBulkDeleteIsAllOrNothingAndAudited(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/leads/bulk-delete", map[string]interface{}{"leadIds": []string{"LEAD-00001", "LEAD-99999"}})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "LEAD-99999")
	assert.Equal(t, 5, srv.leads.Count(context.Background()))

	entries, err := srv.audit.ListByAction(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	w = srv.do(t, http.MethodPost, "/api/v1/leads/bulk-delete", map[string]interface{}{"leadIds": []string{"LEAD-00001", "LEAD-00002"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2 lead(s) deleted successfully.")
	assert.Equal(t, 3, srv.leads.Count(context.Background()))

	w = srv.do(t, http.MethodGet, "/api/v1/audit-logs?action="+models.AuditActionLeadBulkDelete, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decodeEnvelope(t, w)["data"].([]interface{})
	require.Len(t, logs, 1)
	assert.Equal(t, "USR-101", logs[0].(map[string]interface{})["user_id"])
}

func TestRoutesDistributeAndBoard(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/leads/distribute", map[string]interface{}{
		"counselorIds": []string{"USR-002", "USR-003"},
		"leadIds":      []string{"LEAD-00001", "LEAD-00002", "LEAD-00003"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	lead, err := srv.leads.FindLead(context.Background(), "LEAD-00003")
	require.NoError(t, err)
	assert.Equal(t, "USR-002", lead.AssignedUserID)

	w = srv.do(t, http.MethodGet, "/api/v1/pipeline/board?sort=priority", nil)
	require.Equal(t, http.StatusOK, w.Code)
	columns := decodeEnvelope(t, w)["data"].(map[string]interface{})["columns"].([]interface{})
	assert.Len(t, columns, len(models.LeadStages))

	w = srv.do(t, http.MethodGet, "/api/v1/pipeline/board?sort=shoe-size", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutesTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/leads/LEAD-00004/tasks", map[string]interface{}{
		"type":           "Follow-up",
		"dueDate":        "2026-05-01",
		"priority":       "High",
		"notes":          "Call about scholarship",
		"assignedUserId": "USR-002",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decodeEnvelope(t, w)["data"].(map[string]interface{})["task"].(map[string]interface{})
	taskID := task["id"].(string)

	w = srv.do(t, http.MethodPatch, "/api/v1/tasks/"+taskID+"/status", map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Task marked as Completed.")

	w = srv.do(t, http.MethodPatch, "/api/v1/tasks/missing/status", map[string]string{"status": "Completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutesReportDownload(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/reports/funnel?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "funnel-")

	w = srv.do(t, http.MethodGet, "/api/v1/reports/revenue?format=csv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/reports/funnel?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutesImportUpload(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name,email,phone,source\nKiran Das,kiran@example.com,+919812345678,Website\nBad Row,nope,+919812345679,Website\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads/imports", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	jobID := decodeEnvelope(t, w)["data"].(map[string]interface{})["id"].(string)

	var job map[string]interface{}
	require.Eventually(t, func() bool {
		w := srv.do(t, http.MethodGet, "/api/v1/leads/imports/"+jobID, nil)
		if w.Code != http.StatusOK {
			return false
		}
		job = decodeEnvelope(t, w)["data"].(map[string]interface{})
		return job["status"] == string(models.ImportCompleted)
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, float64(1), job["created"])
	assert.Equal(t, float64(1), job["failed"])
	assert.Equal(t, 6, srv.leads.Count(context.Background()))

	w = srv.do(t, http.MethodGet, "/api/v1/leads/imports/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutesDirectory(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/users?roleId="+models.RoleCounselor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decodeEnvelope(t, w)["data"].([]interface{})
	assert.Len(t, users, 6)

	w = srv.do(t, http.MethodGet, "/api/v1/roles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.RoleManager)
}
