package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RequestType is the kind of ClassWallet submission
type RequestType string

const (
	RequestReimbursement RequestType = "Reimbursement"
	RequestDirectPay     RequestType = "Direct Pay"
)

// IsValid reports whether t is a supported request type
func (t RequestType) IsValid() bool {
	return t == RequestReimbursement || t == RequestDirectPay
}

// RecordType returns the history record type for t
func (t RequestType) RecordType() string {
	if t == RequestDirectPay {
		return RecordTypeDirectPay
	}
	return RecordTypeReimbursement
}

// Document types commonly attached to a submission. Callers may use any label.
const (
	DocumentReceipt     = "Receipt"
	DocumentInvoice     = "Invoice"
	DocumentAttestation = "Attestation"
	DocumentCurriculum  = "Curriculum"
)

// FileRef is one file to upload
type FileRef struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path"`
}

// FileGroup holds the files supplied for one document type
type FileGroup struct {
	DocType string
	Files   []FileRef
}

// FileSet is an ordered mapping of document type to files.
// On the wire it is a JSON object whose values are a path string,
// a {name, path} object, or a list of either.
type FileSet []FileGroup

// Paths flattens the set into upload order
func (fs FileSet) Paths() []string {
	var paths []string
	for _, g := range fs {
		for _, f := range g.Files {
			if f.Path != "" {
				paths = append(paths, f.Path)
			}
		}
	}
	return paths
}

// UnmarshalJSON decodes the object form while keeping key order
func (fs *FileSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*fs = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("files: expected object, got %v", tok)
	}

	var out FileSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("files[%s]: %w", key, err)
		}
		refs, err := decodeFileRefs(raw)
		if err != nil {
			return fmt.Errorf("files[%s]: %w", key, err)
		}
		out = append(out, FileGroup{DocType: key, Files: refs})
	}

	*fs = out
	return nil
}

// MarshalJSON encodes the set back to its object form
func (fs FileSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.DocType)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(g.Files)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeFileRefs(raw json.RawMessage) ([]FileRef, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var path string
		if err := json.Unmarshal(trimmed, &path); err != nil {
			return nil, err
		}
		return []FileRef{{Path: path}}, nil
	case '{':
		var ref FileRef
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return nil, err
		}
		return []FileRef{ref}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		var refs []FileRef
		for _, item := range items {
			sub, err := decodeFileRefs(item)
			if err != nil {
				return nil, err
			}
			refs = append(refs, sub...)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported file entry %s", string(trimmed))
	}
}

// SubmissionRequest is one request to file in ClassWallet
type SubmissionRequest struct {
	Student         string          `json:"student"`
	RequestType     RequestType     `json:"request_type"`
	StoreName       string          `json:"store_name,omitempty"`
	VendorName      string          `json:"vendor_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	ExpenseCategory string          `json:"expense_category"`
	PONumber        string          `json:"po_number"`
	Comment         string          `json:"comment"`
	Files           FileSet         `json:"files,omitempty"`
	SearchTerm      string          `json:"classwallet_search_term,omitempty"`
	AutoSubmit      *bool           `json:"auto_submit,omitempty"`
}

// PayeeName returns the store (Reimbursement) or vendor (Direct Pay)
func (r *SubmissionRequest) PayeeName() string {
	if r.RequestType == RequestDirectPay {
		return r.VendorName
	}
	return r.StoreName
}

// VendorSearchTerm returns the term typed into the vendor search box
func (r *SubmissionRequest) VendorSearchTerm() string {
	if strings.TrimSpace(r.SearchTerm) != "" {
		return r.SearchTerm
	}
	return r.PayeeName()
}

// ShouldAutoSubmit resolves the per-request override against the default
func (r *SubmissionRequest) ShouldAutoSubmit(def bool) bool {
	if r.AutoSubmit != nil {
		return *r.AutoSubmit
	}
	return def
}

// Validate checks required-field presence. It does not touch the filesystem.
func (r *SubmissionRequest) Validate() error {
	var missing []string

	if strings.TrimSpace(r.Student) == "" {
		missing = append(missing, "student")
	}
	if r.RequestType == "" {
		missing = append(missing, "request_type")
	} else if !r.RequestType.IsValid() {
		return fmt.Errorf("%w: unsupported request_type %q", ErrInvalidRequest, r.RequestType)
	}
	if strings.TrimSpace(r.ExpenseCategory) == "" {
		missing = append(missing, "expense_category")
	}
	if strings.TrimSpace(r.PONumber) == "" {
		missing = append(missing, "po_number")
	}
	if r.RequestType == RequestReimbursement && strings.TrimSpace(r.StoreName) == "" {
		missing = append(missing, "store_name")
	}
	if r.RequestType == RequestDirectPay && strings.TrimSpace(r.VendorName) == "" {
		missing = append(missing, "vendor_name")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}

	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidRequest)
	}

	return nil
}
