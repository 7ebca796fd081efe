package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

const (
	logPrefix = "submission_"
	logSuffix = ".json"
)

// Keys written before millisecond keys were introduced have no fraction
var timestampPattern = regexp.MustCompile(`^\d{8}_\d{6}(\.\d{3})?$`)

// ErrInvalidTimestamp is returned for keys that are not YYYYMMDD_HHMMSS[.mmm]
var ErrInvalidTimestamp = errors.New("invalid submission timestamp")

// SubmissionLogStore keeps one submission_<timestamp>.json file per record
type SubmissionLogStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewSubmissionLogStore creates a store rooted at baseDir
func NewSubmissionLogStore(baseDir string, logger *zap.Logger) *SubmissionLogStore {
	return &SubmissionLogStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes rec and returns the file path. A record with the same
// timestamp is overwritten.
func (s *SubmissionLogStore) Save(rec *entity.SubmissionRecord) (string, error) {
	fullPath, err := s.pathFor(rec.Timestamp)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create log directory", zap.String("path", s.baseDir), zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if _, err := os.Stat(fullPath); err == nil {
		s.logger.Warn("Overwriting submission log", zap.String("path", fullPath))
	}

	content, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode submission record: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write submission log", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Submission log saved", zap.String("path", fullPath))
	return fullPath, nil
}

// Get reads the record stored under timestamp
func (s *SubmissionLogStore) Get(timestamp string) (*entity.SubmissionRecord, error) {
	fullPath, err := s.pathFor(timestamp)
	if err != nil {
		return nil, err
	}
	return s.read(fullPath)
}

// List returns every readable record, newest first. Unreadable files are
// logged and skipped.
func (s *SubmissionLogStore) List() ([]*entity.SubmissionRecord, error) {
	paths, err := s.files()
	if err != nil {
		return nil, err
	}

	records := make([]*entity.SubmissionRecord, 0, len(paths))
	for _, p := range paths {
		rec, err := s.read(p)
		if err != nil {
			s.logger.Warn("Skipping unreadable submission log", zap.String("path", p), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
	return records, nil
}

// Delete removes the record file. Deleting a missing record is not an error.
func (s *SubmissionLogStore) Delete(timestamp string) error {
	fullPath, err := s.pathFor(timestamp)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("Failed to delete submission log", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// DeleteAll removes every record file, or only those of createdBy when set
func (s *SubmissionLogStore) DeleteAll(createdBy string) (int, error) {
	paths, err := s.files()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, p := range paths {
		if createdBy != "" {
			rec, err := s.read(p)
			if err != nil || rec.CreatedBy != createdBy {
				continue
			}
		}
		if err := os.Remove(p); err != nil {
			s.logger.Warn("Failed to delete submission log", zap.String("path", p), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (s *SubmissionLogStore) files() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.baseDir, logPrefix+"*"+logSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list submission logs: %w", err)
	}
	var out []string
	for _, p := range paths {
		ts := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), logPrefix), logSuffix)
		if timestampPattern.MatchString(ts) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *SubmissionLogStore) read(fullPath string) (*entity.SubmissionRecord, error) {
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var rec entity.SubmissionRecord
	if err := json.Unmarshal(content, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(fullPath), err)
	}
	return &rec, nil
}

// pathFor builds the file path for timestamp, rejecting anything that is
// not a record key.
func (s *SubmissionLogStore) pathFor(timestamp string) (string, error) {
	if !timestampPattern.MatchString(timestamp) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimestamp, timestamp)
	}
	return filepath.Join(s.baseDir, logPrefix+timestamp+logSuffix), nil
}

var _ port.SubmissionLogStore = (*SubmissionLogStore)(nil)
