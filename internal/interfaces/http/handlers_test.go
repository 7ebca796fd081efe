package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/service"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/report"
)

type mockRunner struct {
	submitFunc func(req *entity.SubmissionRequest) *entity.SubmissionOutcome
	release    chan struct{}
	finished   chan struct{}
	requests   []*entity.SubmissionRequest
}

func newMockRunner() *mockRunner {
	return &mockRunner{release: make(chan struct{}), finished: make(chan struct{}, 4)}
}

func (m *mockRunner) Submit(ctx context.Context, req *entity.SubmissionRequest) *service.Attempt {
	m.requests = append(m.requests, req)
	if m.submitFunc != nil {
		return &service.Attempt{Outcome: m.submitFunc(req)}
	}
	auto := true
	return &service.Attempt{Outcome: &entity.SubmissionOutcome{
		Success:       true,
		Message:       "Submission successful!",
		PONumber:      req.PONumber,
		AutoSubmitted: &auto,
	}}
}

func (m *mockRunner) Finish(ctx context.Context, attempt *service.Attempt) {
	select {
	case <-m.release:
	case <-ctx.Done():
	}
	m.finished <- struct{}{}
}

type mockHistory struct {
	records     []*entity.SubmissionRecord
	listFilter  entity.HistoryFilter
	deleteErr   error
	purgedBy    string
	exportPath  string
	analyticsFn func(month string) (*report.Summary, error)
}

func (m *mockHistory) List(ctx context.Context, filter entity.HistoryFilter) ([]*entity.SubmissionRecord, error) {
	m.listFilter = filter
	return m.records, nil
}

func (m *mockHistory) Delete(ctx context.Context, timestamp string) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return 1, nil
}

func (m *mockHistory) Purge(ctx context.Context, createdBy string) (int64, error) {
	m.purgedBy = createdBy
	return 3, nil
}

func (m *mockHistory) Analytics(ctx context.Context, month string) (*report.Summary, []*entity.SubmissionRecord, error) {
	if m.analyticsFn != nil {
		s, err := m.analyticsFn(month)
		return s, nil, err
	}
	return &report.Summary{Month: month, Count: 2}, nil, nil
}

func (m *mockHistory) Export(ctx context.Context, month, dir string) (string, error) {
	if _, _, err := m.Analytics(ctx, month); err != nil {
		return "", err
	}
	return m.exportPath, nil
}

func setupServer(t *testing.T, runner *mockRunner, history *mockHistory) *Server {
	t.Helper()
	s := NewServer(DefaultServerConfig(), runner, history, zap.NewNop())
	t.Cleanup(func() {
		close(runner.release)
		_ = s.Stop()
	})
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

const haydenAcres = `{
	"student": "Student Two",
	"request_type": "Direct Pay",
	"vendor_name": "Hayden Acres LLC",
	"amount": "200.85",
	"expense_category": "Tutoring & Teaching Services - Accredited Individual",
	"po_number": "20251030_1030",
	"comment": "October lessons",
	"files": {"Invoice": "/tmp/invoice.pdf"}
}`

func TestHealthCheck(t *testing.T) {
	s := setupServer(t, newMockRunner(), &mockHistory{})

	rec := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"busy":false`)
}

func TestSubmit(t *testing.T) {
	runner := newMockRunner()
	s := setupServer(t, runner, &mockHistory{})

	rec := do(s, http.MethodPost, "/api/v1/submit", haydenAcres)
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome entity.SubmissionOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.True(t, outcome.Success)
	assert.Equal(t, "20251030_1030", outcome.PONumber)

	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	assert.Equal(t, entity.RequestDirectPay, req.RequestType)
	assert.Equal(t, "200.85", req.Amount.StringFixed(2))
	assert.Equal(t, []string{"/tmp/invoice.pdf"}, req.Files.Paths())
}

func TestSubmit_OutlivesServerWriteTimeout(t *testing.T) {
	runner := newMockRunner()
	runner.submitFunc = func(req *entity.SubmissionRequest) *entity.SubmissionOutcome {
		time.Sleep(600 * time.Millisecond)
		return &entity.SubmissionOutcome{Success: true, Message: "Submission successful!", PONumber: req.PONumber}
	}
	s := setupServer(t, runner, &mockHistory{})

	ts := httptest.NewUnstartedServer(s.Router())
	ts.Config.WriteTimeout = 300 * time.Millisecond
	ts.Start()
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/submit", "application/json", strings.NewReader(haydenAcres))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome entity.SubmissionOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	assert.True(t, outcome.Success)
	assert.Equal(t, "20251030_1030", outcome.PONumber)
}

func TestSubmit_NumericAmount(t *testing.T) {
	runner := newMockRunner()
	s := setupServer(t, runner, &mockHistory{})

	body := strings.Replace(haydenAcres, `"200.85"`, `200.85`, 1)
	rec := do(s, http.MethodPost, "/api/v1/submit", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "200.85", runner.requests[0].Amount.StringFixed(2))
}

func TestSubmit_RejectsInvalidRequests(t *testing.T) {
	runner := newMockRunner()
	s := setupServer(t, runner, &mockHistory{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"missing vendor", strings.Replace(haydenAcres, `"vendor_name": "Hayden Acres LLC",`, "", 1)},
		{"bad type", strings.Replace(haydenAcres, `"Direct Pay"`, `"Refund"`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, "/api/v1/submit", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error_code":"INVALID_REQUEST"`)
			assert.Contains(t, rec.Body.String(), `"success":false`)
		})
	}
	assert.Empty(t, runner.requests)
}

func TestSubmit_ConflictWhileReviewHeld(t *testing.T) {
	runner := newMockRunner()
	s := setupServer(t, runner, &mockHistory{})

	first := do(s, http.MethodPost, "/api/v1/submit", haydenAcres)
	require.Equal(t, http.StatusOK, first.Code)

	second := do(s, http.MethodPost, "/api/v1/submit", haydenAcres)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "already in progress")
	assert.Len(t, runner.requests, 1)

	health := do(s, http.MethodGet, "/health", "")
	assert.Contains(t, health.Body.String(), `"busy":true`)

	runner.release <- struct{}{}
	select {
	case <-runner.finished:
	case <-time.After(5 * time.Second):
		t.Fatal("review hold did not finish")
	}

	require.Eventually(t, func() bool {
		return do(s, http.MethodPost, "/api/v1/submit", haydenAcres).Code == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
}

func TestListSubmissions(t *testing.T) {
	history := &mockHistory{records: []*entity.SubmissionRecord{
		{Type: entity.RecordTypeDirectPay, Student: "Student Two", VendorName: "Hayden Acres LLC", Amount: "200.85", Timestamp: "20251030_103000.000"},
	}}
	s := setupServer(t, newMockRunner(), history)

	rec := do(s, http.MethodGet, "/api/v1/submissions?limit=5&created_by=production", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Hayden Acres LLC", resp.Submissions[0].VendorName)
	assert.Equal(t, 5, history.listFilter.Limit)
	assert.Equal(t, "production", history.listFilter.CreatedBy)

	bad := do(s, http.MethodGet, "/api/v1/submissions?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestDeleteSubmissions(t *testing.T) {
	history := &mockHistory{}
	s := setupServer(t, newMockRunner(), history)

	rec := do(s, http.MethodDelete, "/api/v1/submissions/20251030_103000.000", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted successfully")

	history.deleteErr = service.ErrRecordNotFound
	rec = do(s, http.MethodDelete, "/api/v1/submissions/20251030_103000.000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	history.deleteErr = errors.New("database is locked")
	rec = do(s, http.MethodDelete, "/api/v1/submissions/20251030_103000.000", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(s, http.MethodDelete, "/api/v1/submissions?created_by=test", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted_count":3`)
	assert.Equal(t, "test", history.purgedBy)
}

func TestAnalytics(t *testing.T) {
	history := &mockHistory{analyticsFn: func(month string) (*report.Summary, error) {
		if _, err := report.ValidateMonth(month, time.UTC); err != nil {
			return nil, err
		}
		return &report.Summary{Month: month, Count: 2}, nil
	}}
	s := setupServer(t, newMockRunner(), history)

	rec := do(s, http.MethodGet, "/api/v1/reports/analytics?month=2025-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"month":"2025-10"`)

	rec = do(s, http.MethodGet, "/api/v1/reports/analytics?month=2025-13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := filepath.Join(t.TempDir(), "submissions_2025-10.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0644))
	history.exportPath = path
	rec = do(s, http.MethodGet, "/api/v1/reports/analytics?month=2025-10&format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "submissions_2025-10.xlsx")
}
