package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRequest_UnmarshalJSON(t *testing.T) {
	payload := `{
		"student": "student1",
		"request_type": "Reimbursement",
		"store_name": "Target",
		"amount": "45.50",
		"expense_category": "Curriculum",
		"po_number": "20250101_0930",
		"comment": "Math workbook",
		"files": {
			"Receipt": "/tmp/receipt.pdf",
			"Invoice": {"name": "inv.pdf", "path": "/tmp/inv.pdf"},
			"Attestation": ["/tmp/a1.pdf", {"name": "a2", "path": "/tmp/a2.pdf"}]
		},
		"auto_submit": true
	}`

	var req SubmissionRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	assert.Equal(t, RequestReimbursement, req.RequestType)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("45.50")))
	assert.Equal(t, "Target", req.PayeeName())
	assert.True(t, req.ShouldAutoSubmit(false))

	require.Len(t, req.Files, 3)
	assert.Equal(t, "Receipt", req.Files[0].DocType)
	assert.Equal(t, "Invoice", req.Files[1].DocType)
	assert.Equal(t, "inv.pdf", req.Files[1].Files[0].Name)
	assert.Equal(t, "Attestation", req.Files[2].DocType)
	assert.Equal(t,
		[]string{"/tmp/receipt.pdf", "/tmp/inv.pdf", "/tmp/a1.pdf", "/tmp/a2.pdf"},
		req.Files.Paths())
}

func TestSubmissionRequest_NumericAmount(t *testing.T) {
	var req SubmissionRequest
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 200.85}`), &req))
	assert.Equal(t, "200.85", req.Amount.StringFixed(2))
}

func TestFileSet_RejectsUnsupportedEntry(t *testing.T) {
	var fs FileSet
	err := json.Unmarshal([]byte(`{"Receipt": 42}`), &fs)
	assert.Error(t, err)
}

func TestFileSet_MarshalRoundTripKeepsOrder(t *testing.T) {
	fs := FileSet{
		{DocType: "Receipt", Files: []FileRef{{Path: "/r.pdf"}}},
		{DocType: "Curriculum", Files: []FileRef{{Name: "c", Path: "/c.pdf"}}},
	}
	data, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.Equal(t, `{"Receipt":[{"path":"/r.pdf"}],"Curriculum":[{"name":"c","path":"/c.pdf"}]}`, string(data))
}

func TestSubmissionRequest_Validate(t *testing.T) {
	base := func() SubmissionRequest {
		return SubmissionRequest{
			Student:         "student1",
			RequestType:     RequestDirectPay,
			VendorName:      "Hayden Acres",
			Amount:          decimal.RequireFromString("200.85"),
			ExpenseCategory: "Curriculum",
			PONumber:        "20250101_0930",
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *SubmissionRequest)
		wantErr bool
	}{
		{"valid direct pay", func(r *SubmissionRequest) {}, false},
		{"missing vendor", func(r *SubmissionRequest) { r.VendorName = "" }, true},
		{"store name ignored for direct pay", func(r *SubmissionRequest) { r.StoreName = "" }, false},
		{"reimbursement needs store", func(r *SubmissionRequest) { r.RequestType = RequestReimbursement }, true},
		{"unknown type", func(r *SubmissionRequest) { r.RequestType = "Refund" }, true},
		{"zero amount", func(r *SubmissionRequest) { r.Amount = decimal.Zero }, true},
		{"missing po", func(r *SubmissionRequest) { r.PONumber = " " }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRequest))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmissionRequest_VendorSearchTerm(t *testing.T) {
	req := SubmissionRequest{RequestType: RequestDirectPay, VendorName: "Hayden Acres"}
	assert.Equal(t, "Hayden Acres", req.VendorSearchTerm())

	req.SearchTerm = "hayden acres llc"
	assert.Equal(t, "hayden acres llc", req.VendorSearchTerm())
}

func TestCredentials_LegacyKeys(t *testing.T) {
	var c Credentials
	require.NoError(t, json.Unmarshal([]byte(`{"email":"p@example.com","password":"pw"}`), &c))
	assert.Equal(t, "p@example.com", c.Identity)
	assert.True(t, c.Complete())
	assert.NotContains(t, c.String(), "pw")

	var empty Credentials
	require.NoError(t, json.Unmarshal([]byte(`{"identity":"p@example.com"}`), &empty))
	assert.False(t, empty.Complete())
}

func TestNewSubmissionRecord(t *testing.T) {
	now := time.Date(2025, 3, 4, 15, 6, 7, 0, time.Local)
	req := &SubmissionRequest{
		Student:         "student2",
		RequestType:     RequestDirectPay,
		VendorName:      "Hayden Acres",
		Amount:          decimal.RequireFromString("200.85"),
		ExpenseCategory: "Curriculum",
		PONumber:        "20250304_1506",
		Comment:         "Spring co-op",
	}

	rec := NewSubmissionRecord(req, now, "")

	assert.Equal(t, RecordTypeDirectPay, rec.Type)
	assert.Equal(t, "Hayden Acres", rec.VendorName)
	assert.Empty(t, rec.StoreName)
	assert.Equal(t, "200.85", rec.Amount)
	assert.Equal(t, "20250304_150607", rec.Timestamp)
	assert.Equal(t, DefaultCreatedBy, rec.CreatedBy)
	assert.Equal(t, "Curriculum", rec.ExpenseCategory)
	assert.Equal(t, "Spring co-op", rec.Comment)
}

func TestConfirmation_Succeeded(t *testing.T) {
	var nilConf *Confirmation
	assert.False(t, nilConf.Succeeded(true))
	assert.True(t, (&Confirmation{Status: ConfirmationConfirmed}).Succeeded(false))
	assert.False(t, (&Confirmation{Status: ConfirmationRejected}).Succeeded(true))
	assert.True(t, (&Confirmation{Status: ConfirmationUnconfirmed}).Succeeded(true))
	assert.False(t, (&Confirmation{Status: ConfirmationUnconfirmed}).Succeeded(false))
}
