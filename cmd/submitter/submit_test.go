package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/classwallet-submitter/internal/config"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

func TestReadRequest(t *testing.T) {
	now := time.Date(2025, 10, 30, 10, 30, 0, 0, time.UTC)
	body := `{
		"student": "Student One",
		"request_type": "Reimbursement",
		"store_name": "Target",
		"amount": "45.50",
		"expense_category": "Curriculum",
		"comment": "Workbooks",
		"files": {"Receipt": ["/tmp/r1.jpg", {"name": "r2", "path": "/tmp/r2.pdf"}]}
	}`

	t.Run("file with generated PO number", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "request.json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))

		req, err := readRequest(nil, path, now)
		require.NoError(t, err)
		assert.Equal(t, "20251030_1030", req.PONumber)
		assert.Equal(t, entity.RequestReimbursement, req.RequestType)
		assert.Equal(t, []string{"/tmp/r1.jpg", "/tmp/r2.pdf"}, req.Files.Paths())
		assert.NoError(t, req.Validate())
	})

	t.Run("stdin keeps given PO number", func(t *testing.T) {
		withPO := strings.Replace(body, `"comment"`, `"po_number": "PO-7", "comment"`, 1)
		req, err := readRequest(strings.NewReader(withPO), "-", now)
		require.NoError(t, err)
		assert.Equal(t, "PO-7", req.PONumber)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readRequest(nil, filepath.Join(t.TempDir(), "nope.json"), now)
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := readRequest(strings.NewReader("{"), "-", now)
		assert.Error(t, err)
	})
}

func TestApplySubmitFlags(t *testing.T) {
	cmd := newSubmitCmd()
	opts := &submitOptions{}
	cfg := &config.Config{}
	cfg.Automation.KeepOpen = true
	cfg.Automation.AutoSubmit = true

	applySubmitFlags(cfg, cmd, opts)
	assert.True(t, cfg.Automation.AutoSubmit, "unset flag keeps config value")
	assert.True(t, cfg.Automation.KeepOpen)

	require.NoError(t, cmd.Flags().Set("auto-submit", "false"))
	require.NoError(t, cmd.Flags().Set("headless", "true"))
	opts.autoSubmit = false
	opts.headless = true
	opts.noHold = true

	applySubmitFlags(cfg, cmd, opts)
	assert.False(t, cfg.Automation.AutoSubmit)
	assert.False(t, cfg.Automation.KeepOpen)
	assert.True(t, cfg.Browser.Headless)
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printOutcome(&buf, &entity.SubmissionOutcome{
		Message:   "Invalid request: missing required fields: store_name",
		ErrorCode: entity.ErrorCodeInvalidRequest,
	}))
	assert.Contains(t, buf.String(), `"success": false`)
	assert.Contains(t, buf.String(), `"error_code": "INVALID_REQUEST"`)
}

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, []*entity.SubmissionRecord{
		{Type: entity.RecordTypeDirectPay, Student: "Student Two", VendorName: "Hayden Acres LLC", Amount: "200.85", Timestamp: "20251030_103000.000", CreatedBy: "production"},
		{Type: entity.RecordTypeReimbursement, Student: "Student One", StoreName: "Target", Amount: "45.50", Timestamp: "20251029_090000", CreatedBy: "test"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Hayden Acres LLC")
	assert.Contains(t, out, "Target")
	assert.Contains(t, out, "2 record(s)")
}
