package entity

import "time"

// History record types
const (
	RecordTypeReimbursement = "reimbursement"
	RecordTypeDirectPay     = "direct_pay"
)

// DefaultCreatedBy marks records written by real submissions
const DefaultCreatedBy = "production"

// SubmissionRecord is the history entry written after a successful run
type SubmissionRecord struct {
	ID              int64     `json:"-"`
	AttemptID       string    `json:"attempt_id,omitempty"`
	Type            string    `json:"type"`
	Student         string    `json:"student"`
	StoreName       string    `json:"store_name,omitempty"`
	VendorName      string    `json:"vendor_name,omitempty"`
	Amount          string    `json:"amount"`
	PONumber        string    `json:"po_number"`
	ExpenseCategory string    `json:"expense_category"`
	Comment         string    `json:"comment"`
	LoggedAt        time.Time `json:"logged_at"`
	Timestamp       string    `json:"timestamp"`
	CreatedBy       string    `json:"created_by"`
	AutoSubmitted   bool      `json:"auto_submitted"`
	Confirmation    string    `json:"confirmation,omitempty"`
}

// NewSubmissionRecord builds the history entry for req logged at now
func NewSubmissionRecord(req *SubmissionRequest, now time.Time, createdBy string) *SubmissionRecord {
	if createdBy == "" {
		createdBy = DefaultCreatedBy
	}
	rec := &SubmissionRecord{
		Type:            req.RequestType.RecordType(),
		Student:         req.Student,
		Amount:          req.Amount.StringFixed(2),
		PONumber:        req.PONumber,
		ExpenseCategory: req.ExpenseCategory,
		Comment:         req.Comment,
		LoggedAt:        now,
		Timestamp:       RecordTimestamp(now),
		CreatedBy:       createdBy,
	}
	if req.RequestType == RequestDirectPay {
		rec.VendorName = req.VendorName
	} else {
		rec.StoreName = req.StoreName
	}
	return rec
}

// PayeeName returns whichever of store or vendor is set
func (r *SubmissionRecord) PayeeName() string {
	if r.VendorName != "" {
		return r.VendorName
	}
	return r.StoreName
}

// RecordTimestampLayout keys records to the millisecond so attempts in the
// same second do not share a key
const RecordTimestampLayout = "20060102_150405.000"

// RecordTimestamp formats t as the record key (YYYYMMDD_HHMMSS.mmm)
func RecordTimestamp(t time.Time) string {
	return t.Format(RecordTimestampLayout)
}

// HistoryFilter narrows history queries
type HistoryFilter struct {
	CreatedBy string
	From      time.Time
	To        time.Time
	Limit     int
}
