package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/browser/browsertest"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/domain/workflow"
)

// mockSteps records step invocations. Each step succeeds unless its
// func field is set.
type mockSteps struct {
	mu    sync.Mutex
	calls []string

	authenticateFunc       func(creds entity.Credentials) entity.StepResult
	selectStudentFunc      func(student string) entity.StepResult
	startReimbursementFunc func(store string, amount decimal.Decimal) entity.StepResult
	startDirectPayFunc     func(vendor string, amount decimal.Decimal, searchTerm string) entity.StepResult
	uploadFilesFunc        func(files entity.FileSet) entity.StepResult
	selectCategoryFunc     func(category string) entity.StepResult
	fillPOFunc             func(po, comment string, advance bool) entity.StepResult
	fillDirectPayFunc      func(po, comment string) entity.StepResult
	proceedFunc            func() entity.StepResult
	submitFunc             func(requestType entity.RequestType) entity.StepResult
	confirmFunc            func() entity.StepResult
}

var _ port.StepLibrary = (*mockSteps)(nil)

func ok(step string) entity.StepResult {
	return entity.StepResult{Step: step, OK: true}
}

func failed(step string, err error) entity.StepResult {
	return entity.StepResult{
		Step:        step,
		Err:         err,
		Diagnostics: &entity.PageDiagnostics{URL: "https://app.classwallet.com/page"},
	}
}

func (m *mockSteps) record(step string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, step)
}

func (m *mockSteps) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockSteps) Authenticate(ctx context.Context, creds entity.Credentials) entity.StepResult {
	m.record("authenticate")
	if m.authenticateFunc != nil {
		return m.authenticateFunc(creds)
	}
	return ok("authenticate")
}

func (m *mockSteps) SelectStudent(ctx context.Context, student string) entity.StepResult {
	m.record("select_student")
	if m.selectStudentFunc != nil {
		return m.selectStudentFunc(student)
	}
	return ok("select_student")
}

func (m *mockSteps) StartReimbursement(ctx context.Context, store string, amount decimal.Decimal) entity.StepResult {
	m.record("start_reimbursement")
	if m.startReimbursementFunc != nil {
		return m.startReimbursementFunc(store, amount)
	}
	return ok("start_reimbursement")
}

func (m *mockSteps) StartDirectPay(ctx context.Context, vendor string, amount decimal.Decimal, searchTerm string) entity.StepResult {
	m.record("start_direct_pay")
	if m.startDirectPayFunc != nil {
		return m.startDirectPayFunc(vendor, amount, searchTerm)
	}
	return ok("start_direct_pay")
}

func (m *mockSteps) UploadFiles(ctx context.Context, files entity.FileSet) entity.StepResult {
	m.record("upload_files")
	if m.uploadFilesFunc != nil {
		return m.uploadFilesFunc(files)
	}
	return ok("upload_files")
}

func (m *mockSteps) SelectExpenseCategory(ctx context.Context, category string) entity.StepResult {
	m.record("select_expense_category")
	if m.selectCategoryFunc != nil {
		return m.selectCategoryFunc(category)
	}
	return ok("select_expense_category")
}

func (m *mockSteps) FillPOAndComment(ctx context.Context, po, comment string, advance bool) entity.StepResult {
	m.record("fill_po_and_comment")
	if m.fillPOFunc != nil {
		return m.fillPOFunc(po, comment, advance)
	}
	return ok("fill_po_and_comment")
}

func (m *mockSteps) FillDirectPayInfo(ctx context.Context, po, comment string) entity.StepResult {
	m.record("fill_direct_pay_info")
	if m.fillDirectPayFunc != nil {
		return m.fillDirectPayFunc(po, comment)
	}
	return ok("fill_direct_pay_info")
}

func (m *mockSteps) ProceedToReview(ctx context.Context) entity.StepResult {
	m.record("proceed_to_review")
	if m.proceedFunc != nil {
		return m.proceedFunc()
	}
	return ok("proceed_to_review")
}

func (m *mockSteps) Submit(ctx context.Context, requestType entity.RequestType) entity.StepResult {
	m.record("submit")
	if m.submitFunc != nil {
		return m.submitFunc(requestType)
	}
	return ok("submit")
}

func (m *mockSteps) WaitForConfirmation(ctx context.Context) entity.StepResult {
	m.record("wait_for_confirmation")
	if m.confirmFunc != nil {
		return m.confirmFunc()
	}
	res := ok("wait_for_confirmation")
	res.Confirmation = &entity.Confirmation{Status: entity.ConfirmationConfirmed, Message: "Success"}
	return res
}

type mockHistory struct {
	recordFunc func(ctx context.Context, rec *entity.SubmissionRecord) error
	records    []*entity.SubmissionRecord
}

func (m *mockHistory) Record(ctx context.Context, rec *entity.SubmissionRecord) error {
	m.records = append(m.records, rec)
	if m.recordFunc != nil {
		return m.recordFunc(ctx, rec)
	}
	return nil
}

type mockInspector struct {
	inspectFunc func(path string) (*port.DocumentInfo, error)
}

func (m *mockInspector) Inspect(path string) (*port.DocumentInfo, error) {
	if m.inspectFunc != nil {
		return m.inspectFunc(path)
	}
	return &port.DocumentInfo{Path: path, Kind: "pdf", Pages: 1}, nil
}

func testConfig(auto bool) SubmissionConfig {
	return SubmissionConfig{
		Identity:                 "parent@example.com",
		Secret:                   "hunter2",
		AutoSubmit:               auto,
		AssumeSubmittedOnTimeout: true,
		CreatedBy:                "test",
	}
}

func reimbursementRequest() *entity.SubmissionRequest {
	return &entity.SubmissionRequest{
		Student:         "Student One",
		RequestType:     entity.RequestReimbursement,
		StoreName:       "Target",
		Amount:          decimal.RequireFromString("45.50"),
		ExpenseCategory: "Curriculum",
		PONumber:        "20251030_1015",
		Comment:         "workbooks",
	}
}

func haydenAcresRequest() *entity.SubmissionRequest {
	return &entity.SubmissionRequest{
		Student:         "Student Two",
		RequestType:     entity.RequestDirectPay,
		VendorName:      "Hayden Acres",
		SearchTerm:      "hayden acres llc",
		Amount:          decimal.RequireFromString("200.85"),
		ExpenseCategory: "Tutoring & Teaching Services - Accredited Individual",
		PONumber:        "20251030_1030",
		Comment:         "October lessons",
	}
}

func newSession(steps *mockSteps, driver *browsertest.Driver) SessionFactory {
	return func() *Session {
		return &Session{Driver: driver, Steps: steps}
	}
}

// prepared returns a service that is logged in and ready to Run
func prepared(t *testing.T, cfg SubmissionConfig, steps *mockSteps, history port.HistoryRecorder) *SubmissionService {
	t.Helper()
	svc := NewSubmissionService(cfg, newSession(steps, browsertest.New()), history, nil, nil, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, svc.LoadCredentials(ctx))
	require.NoError(t, svc.InitializeSession(ctx))
	require.NoError(t, svc.Authenticate(ctx))
	return svc
}

func TestSubmissionService_ReimbursementAutoSubmit(t *testing.T) {
	steps := &mockSteps{}
	history := &mockHistory{}
	svc := prepared(t, testConfig(true), steps, history)

	var advanced bool
	steps.fillPOFunc = func(po, comment string, advance bool) entity.StepResult {
		advanced = advance
		return ok("fill_po_and_comment")
	}

	res, err := svc.Run(context.Background(), reimbursementRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"authenticate", "select_student", "start_reimbursement", "upload_files",
		"select_expense_category", "fill_po_and_comment", "submit", "wait_for_confirmation",
	}, steps.Calls())
	assert.True(t, advanced)
	assert.True(t, res.AutoSubmitted)
	assert.Equal(t, workflow.StateSubmitted, res.State)
	require.NotNil(t, res.Confirmation)
	assert.Equal(t, entity.ConfirmationConfirmed, res.Confirmation.Status)

	require.Len(t, history.records, 1)
	rec := history.records[0]
	assert.Equal(t, entity.RecordTypeReimbursement, rec.Type)
	assert.Equal(t, "Target", rec.StoreName)
	assert.Equal(t, "45.50", rec.Amount)
	assert.Equal(t, svc.AttemptID(), rec.AttemptID)
	assert.Equal(t, "confirmed", rec.Confirmation)
}

func TestSubmissionService_StopsForReviewWithoutSubmitting(t *testing.T) {
	steps := &mockSteps{}
	svc := prepared(t, testConfig(false), steps, &mockHistory{})

	var advanced = true
	steps.fillPOFunc = func(po, comment string, advance bool) entity.StepResult {
		advanced = advance
		return ok("fill_po_and_comment")
	}

	res, err := svc.Run(context.Background(), reimbursementRequest())
	require.NoError(t, err)

	assert.NotContains(t, steps.Calls(), "submit")
	assert.NotContains(t, steps.Calls(), "wait_for_confirmation")
	assert.False(t, advanced)
	assert.False(t, res.AutoSubmitted)
	assert.Equal(t, workflow.StateStoppedForReview, res.State)

	outcome := NewReporter(zap.NewNop()).Success(reimbursementRequest(), res)
	assert.True(t, outcome.Success)
	assert.Equal(t, messageReview, outcome.Message)
	require.NotNil(t, outcome.AutoSubmitted)
	assert.False(t, *outcome.AutoSubmitted)
}

func TestSubmissionService_RequestOverridesAutoSubmit(t *testing.T) {
	steps := &mockSteps{}
	svc := prepared(t, testConfig(true), steps, nil)

	req := reimbursementRequest()
	off := false
	req.AutoSubmit = &off

	res, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.AutoSubmitted)
	assert.NotContains(t, steps.Calls(), "submit")
}

func TestSubmissionService_HaydenAcresDirectPay(t *testing.T) {
	steps := &mockSteps{}
	history := &mockHistory{}
	svc := prepared(t, testConfig(true), steps, history)

	var vendorArg, termArg string
	var amountArg decimal.Decimal
	steps.startDirectPayFunc = func(vendor string, amount decimal.Decimal, searchTerm string) entity.StepResult {
		vendorArg, amountArg, termArg = vendor, amount, searchTerm
		return ok("start_direct_pay")
	}
	var submittedType entity.RequestType
	steps.submitFunc = func(rt entity.RequestType) entity.StepResult {
		submittedType = rt
		return ok("submit")
	}

	res, err := svc.Run(context.Background(), haydenAcresRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"authenticate", "select_student", "start_direct_pay", "upload_files",
		"select_expense_category", "fill_direct_pay_info", "proceed_to_review",
		"submit", "wait_for_confirmation",
	}, steps.Calls())
	assert.Equal(t, "Hayden Acres", vendorArg)
	assert.Equal(t, "200.85", amountArg.StringFixed(2))
	assert.Equal(t, "hayden acres llc", termArg)
	assert.Equal(t, entity.RequestDirectPay, submittedType)
	assert.Equal(t, workflow.StateSubmitted, res.State)

	require.Len(t, history.records, 1)
	rec := history.records[0]
	assert.Equal(t, "direct_pay", rec.Type)
	assert.Equal(t, "Student Two", rec.Student)
	assert.Equal(t, "Hayden Acres", rec.VendorName)
	assert.Empty(t, rec.StoreName)
	assert.Equal(t, "200.85", rec.Amount)
	assert.Equal(t, "20251030_1030", rec.PONumber)
	assert.Equal(t, "Tutoring & Teaching Services - Accredited Individual", rec.ExpenseCategory)
	assert.Equal(t, "October lessons", rec.Comment)
	assert.Equal(t, "test", rec.CreatedBy)
}

func TestSubmissionService_ShortCircuitsOnFirstFailure(t *testing.T) {
	steps := &mockSteps{
		startDirectPayFunc: func(vendor string, amount decimal.Decimal, searchTerm string) entity.StepResult {
			return failed("start_direct_pay", errors.New("no results"))
		},
	}
	history := &mockHistory{}
	svc := prepared(t, testConfig(true), steps, history)

	_, err := svc.Run(context.Background(), haydenAcresRequest())
	require.Error(t, err)

	assert.NotContains(t, steps.Calls(), "upload_files")
	assert.NotContains(t, steps.Calls(), "submit")
	assert.Empty(t, history.records)

	assert.True(t, errors.Is(err, entity.ErrSubmission))
	assert.Equal(t, entity.ErrorCodeSubmission, ErrorCodeFor(err))
	assert.Equal(t,
		"Could not find vendor 'Hayden Acres' in ClassWallet. Check the vendor name and search term.",
		OperatorMessage(err))

	outcome := NewReporter(zap.NewNop()).Failure(svc.AttemptID(), err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "start_direct_pay", outcome.FailedStep)
	assert.Equal(t, "FAILED", outcome.State)
	require.NotNil(t, outcome.Diagnostics)
	assert.Equal(t, "https://app.classwallet.com/page", outcome.Diagnostics.URL)
}

func TestSubmissionService_StepFailureMessages(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		req     *entity.SubmissionRequest
		setup   func(m *mockSteps)
		message string
	}{
		{
			name: "student",
			req:  reimbursementRequest(),
			setup: func(m *mockSteps) {
				m.selectStudentFunc = func(string) entity.StepResult { return failed("select_student", boom) }
			},
			message: "Could not select student 'Student One' in ClassWallet. Please verify the student exists in ClassWallet.",
		},
		{
			name: "reimbursement start",
			req:  reimbursementRequest(),
			setup: func(m *mockSteps) {
				m.startReimbursementFunc = func(string, decimal.Decimal) entity.StepResult {
					return failed("start_reimbursement", boom)
				}
			},
			message: "Could not start reimbursement for 'Target'. The ClassWallet interface may have changed. Check the logs for details.",
		},
		{
			name: "upload",
			req:  reimbursementRequest(),
			setup: func(m *mockSteps) {
				m.uploadFilesFunc = func(entity.FileSet) entity.StepResult { return failed("upload_files", boom) }
			},
			message: "Failed to upload files to ClassWallet. Check file format and size. The interface may have changed.",
		},
		{
			name: "category",
			req:  reimbursementRequest(),
			setup: func(m *mockSteps) {
				m.selectCategoryFunc = func(string) entity.StepResult { return failed("select_expense_category", boom) }
			},
			message: "Could not select expense category 'Curriculum'. Please verify the category is available in ClassWallet.",
		},
		{
			name: "po and comment",
			req:  reimbursementRequest(),
			setup: func(m *mockSteps) {
				m.fillPOFunc = func(string, string, bool) entity.StepResult { return failed("fill_po_and_comment", boom) }
			},
			message: "Failed to fill purchase order number or comment. The ClassWallet interface may have changed.",
		},
		{
			name: "direct pay review",
			req:  haydenAcresRequest(),
			setup: func(m *mockSteps) {
				m.proceedFunc = func() entity.StepResult { return failed("proceed_to_review", boom) }
			},
			message: "Could not proceed to review page. The ClassWallet interface may have changed.",
		},
		{
			name: "reimbursement submit",
			req:  reimbursementRequest(),
			setup: func(m *mockSteps) {
				m.submitFunc = func(entity.RequestType) entity.StepResult { return failed("submit", boom) }
			},
			message: "Failed to submit reimbursement. Please review the form in ClassWallet and submit manually.",
		},
		{
			name: "direct pay submit",
			req:  haydenAcresRequest(),
			setup: func(m *mockSteps) {
				m.submitFunc = func(entity.RequestType) entity.StepResult { return failed("submit", boom) }
			},
			message: "Failed to submit direct pay. Please review the form in ClassWallet and submit manually.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := &mockSteps{}
			tt.setup(steps)
			svc := prepared(t, testConfig(true), steps, nil)

			_, err := svc.Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.message, OperatorMessage(err))
			assert.True(t, errors.Is(err, boom))
		})
	}
}

func TestSubmissionService_Confirmation(t *testing.T) {
	unconfirmed := func() entity.StepResult {
		res := ok("wait_for_confirmation")
		res.Confirmation = &entity.Confirmation{Status: entity.ConfirmationUnconfirmed, Message: "no confirmation"}
		return res
	}

	t.Run("unconfirmed assumed submitted", func(t *testing.T) {
		steps := &mockSteps{confirmFunc: unconfirmed}
		svc := prepared(t, testConfig(true), steps, nil)

		res, err := svc.Run(context.Background(), reimbursementRequest())
		require.NoError(t, err)
		assert.Equal(t, workflow.StateSubmitted, res.State)

		outcome := NewReporter(zap.NewNop()).Success(reimbursementRequest(), res)
		assert.Equal(t, messageUnconfirmed, outcome.Message)
		assert.Equal(t, entity.ConfirmationUnconfirmed, outcome.Confirmation.Status)
	})

	t.Run("unconfirmed treated as failure", func(t *testing.T) {
		cfg := testConfig(true)
		cfg.AssumeSubmittedOnTimeout = false
		steps := &mockSteps{confirmFunc: unconfirmed}
		history := &mockHistory{}
		svc := prepared(t, cfg, steps, history)

		_, err := svc.Run(context.Background(), reimbursementRequest())
		require.Error(t, err)
		assert.Equal(t, entity.ErrorCodeSubmission, ErrorCodeFor(err))
		assert.Contains(t, OperatorMessage(err), "could not be confirmed")
		assert.Empty(t, history.records)
	})

	t.Run("rejected", func(t *testing.T) {
		steps := &mockSteps{confirmFunc: func() entity.StepResult {
			res := failed("wait_for_confirmation", errors.New("rejected"))
			res.Confirmation = &entity.Confirmation{Status: entity.ConfirmationRejected, Message: "Amount exceeds balance"}
			return res
		}}
		svc := prepared(t, testConfig(true), steps, nil)

		_, err := svc.Run(context.Background(), reimbursementRequest())
		require.Error(t, err)
		assert.Contains(t, OperatorMessage(err), "Amount exceeds balance")
	})
}

func TestSubmissionService_HistoryFailureIsNotFatal(t *testing.T) {
	steps := &mockSteps{}
	history := &mockHistory{recordFunc: func(context.Context, *entity.SubmissionRecord) error {
		return errors.New("disk full")
	}}
	svc := prepared(t, testConfig(true), steps, history)

	res, err := svc.Run(context.Background(), reimbursementRequest())
	require.NoError(t, err)
	assert.Equal(t, workflow.StateSubmitted, res.State)
	assert.Len(t, history.records, 1)
}

func TestSubmissionService_LoadCredentials(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0600))
		return path
	}

	tests := []struct {
		name    string
		cfg     SubmissionConfig
		wantErr bool
		want    string
	}{
		{
			name: "file",
			cfg:  SubmissionConfig{CredentialsPath: write("creds.json", `{"identity":"a@b.c","secret":"s"}`)},
			want: "a@b.c",
		},
		{
			name: "legacy keys",
			cfg:  SubmissionConfig{CredentialsPath: write("legacy.json", `{"email":"old@b.c","password":"p"}`)},
			want: "old@b.c",
		},
		{
			name: "environment wins",
			cfg: SubmissionConfig{
				CredentialsPath: write("other.json", `{"identity":"file@b.c","secret":"s"}`),
				Identity:        "env@b.c",
				Secret:          "e",
			},
			want: "env@b.c",
		},
		{
			name:    "missing file",
			cfg:     SubmissionConfig{CredentialsPath: filepath.Join(dir, "nope.json")},
			wantErr: true,
		},
		{
			name:    "incomplete",
			cfg:     SubmissionConfig{CredentialsPath: write("partial.json", `{"identity":"a@b.c"}`)},
			wantErr: true,
		},
		{
			name:    "malformed",
			cfg:     SubmissionConfig{CredentialsPath: write("bad.json", `{`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSubmissionService(tt.cfg, newSession(&mockSteps{}, browsertest.New()), nil, nil, nil, zap.NewNop())
			err := svc.LoadCredentials(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, entity.ErrorCodeCredentials, ErrorCodeFor(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.creds.Identity)
		})
	}
}

func TestSubmissionService_InitAndLoginErrors(t *testing.T) {
	t.Run("browser fails to open", func(t *testing.T) {
		d := browsertest.New()
		d.OpenErr = errors.New("chrome not found")
		svc := NewSubmissionService(testConfig(true), newSession(&mockSteps{}, d), nil, nil, nil, zap.NewNop())

		require.NoError(t, svc.LoadCredentials(context.Background()))
		err := svc.InitializeSession(context.Background())
		require.Error(t, err)
		assert.Equal(t, entity.ErrorCodeAutomation, ErrorCodeFor(err))
		assert.Contains(t, OperatorMessage(err), "chrome not found")
	})

	t.Run("login rejected", func(t *testing.T) {
		steps := &mockSteps{authenticateFunc: func(entity.Credentials) entity.StepResult {
			return failed("authenticate", errors.New("still on login page"))
		}}
		svc := NewSubmissionService(testConfig(true), newSession(steps, browsertest.New()), nil, nil, nil, zap.NewNop())

		ctx := context.Background()
		require.NoError(t, svc.LoadCredentials(ctx))
		require.NoError(t, svc.InitializeSession(ctx))
		err := svc.Authenticate(ctx)
		require.Error(t, err)
		assert.Equal(t, entity.ErrorCodeLogin, ErrorCodeFor(err))
	})

	t.Run("run before login", func(t *testing.T) {
		svc := NewSubmissionService(testConfig(true), newSession(&mockSteps{}, browsertest.New()), nil, nil, nil, zap.NewNop())
		_, err := svc.Run(context.Background(), reimbursementRequest())
		require.Error(t, err)
		assert.Equal(t, entity.ErrorCodeAutomation, ErrorCodeFor(err))
	})
}

func TestSubmissionService_DocumentPreflight(t *testing.T) {
	steps := &mockSteps{}
	cfg := testConfig(true)
	cfg.VerifyDocuments = true
	inspector := &mockInspector{inspectFunc: func(path string) (*port.DocumentInfo, error) {
		if path == "/missing.pdf" {
			return nil, os.ErrNotExist
		}
		return nil, errors.New("cannot open document")
	}}

	svc := NewSubmissionService(cfg, newSession(steps, browsertest.New()), nil, inspector, nil, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, svc.LoadCredentials(ctx))
	require.NoError(t, svc.InitializeSession(ctx))
	require.NoError(t, svc.Authenticate(ctx))

	req := reimbursementRequest()
	req.Files = entity.FileSet{{DocType: entity.DocumentReceipt, Files: []entity.FileRef{{Path: "/broken.pdf"}}}}
	_, err := svc.Run(ctx, req)
	require.Error(t, err)
	assert.Equal(t, entity.ErrorCodeInvalidRequest, ErrorCodeFor(err))
	assert.Equal(t, []string{"authenticate"}, steps.Calls())

	req.Files = entity.FileSet{{DocType: entity.DocumentReceipt, Files: []entity.FileRef{{Path: "/missing.pdf"}}}}
	_, err = svc.Run(ctx, req)
	require.NoError(t, err)
}

func TestSubmitter_Submit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		steps := &mockSteps{}
		d := browsertest.New()
		s := NewSubmitter(testConfig(true), false, newSession(steps, d), zap.NewNop())

		attempt := s.Submit(context.Background(), reimbursementRequest())
		require.NotNil(t, attempt.Outcome)
		assert.True(t, attempt.Outcome.Success)
		assert.Equal(t, messageSubmitted, attempt.Outcome.Message)
		assert.Equal(t, "20251030_1015", attempt.Outcome.PONumber)
		assert.NotEmpty(t, attempt.Outcome.AttemptID)

		s.Finish(context.Background(), attempt)
		assert.Equal(t, 1, d.CallCount("Close"))
	})

	t.Run("invalid request opens nothing", func(t *testing.T) {
		d := browsertest.New()
		s := NewSubmitter(testConfig(true), false, newSession(&mockSteps{}, d), zap.NewNop())

		req := reimbursementRequest()
		req.PONumber = ""
		attempt := s.Submit(context.Background(), req)
		assert.False(t, attempt.Outcome.Success)
		assert.Equal(t, entity.ErrorCodeInvalidRequest, attempt.Outcome.ErrorCode)
		assert.Empty(t, d.Calls())
	})

	t.Run("missing credentials", func(t *testing.T) {
		s := NewSubmitter(SubmissionConfig{}, false, newSession(&mockSteps{}, browsertest.New()), zap.NewNop())
		attempt := s.Submit(context.Background(), reimbursementRequest())
		assert.Equal(t, entity.ErrorCodeCredentials, attempt.Outcome.ErrorCode)
		assert.Nil(t, attempt.Driver())
	})

	t.Run("panic becomes unexpected error", func(t *testing.T) {
		steps := &mockSteps{selectCategoryFunc: func(string) entity.StepResult { panic("nil map") }}
		s := NewSubmitter(testConfig(true), false, newSession(steps, browsertest.New()), zap.NewNop())

		attempt := s.Submit(context.Background(), reimbursementRequest())
		require.NotNil(t, attempt.Outcome)
		assert.False(t, attempt.Outcome.Success)
		assert.Equal(t, entity.ErrorCodeUnexpected, attempt.Outcome.ErrorCode)
		assert.Contains(t, attempt.Outcome.Message, "nil map")
		assert.NotNil(t, attempt.Driver(), "session stays available for inspection")
	})
}

func TestReporter_HoldForReview(t *testing.T) {
	t.Run("returns when browser closes", func(t *testing.T) {
		d := browsertest.New()
		polls := 0
		d.AliveFunc = func() bool {
			polls++
			return polls < 2
		}

		done := make(chan struct{})
		go func() {
			NewReporter(zap.NewNop()).HoldForReview(context.Background(), d)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("hold did not end after browser closed")
		}
		assert.Equal(t, 2, polls)
	})

	t.Run("returns on cancel", func(t *testing.T) {
		d := browsertest.New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		NewReporter(zap.NewNop()).HoldForReview(ctx, d)
		assert.Equal(t, 1, d.CallCount("Alive"))
	})
}
