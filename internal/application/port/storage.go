package port

import "github.com/garyjia/classwallet-submitter/internal/domain/entity"

// SubmissionLogStore keeps one JSON file per submission record
type SubmissionLogStore interface {
	Save(rec *entity.SubmissionRecord) (string, error)
	Get(timestamp string) (*entity.SubmissionRecord, error)
	List() ([]*entity.SubmissionRecord, error)
	Delete(timestamp string) error
	DeleteAll(createdBy string) (int, error)
}

// DocumentInspector checks an upload before it is sent to the portal
type DocumentInspector interface {
	Inspect(path string) (*DocumentInfo, error)
}

// DocumentInfo describes an inspected document
type DocumentInfo struct {
	Path  string
	Kind  string
	Pages int
}
