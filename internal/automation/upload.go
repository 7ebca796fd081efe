package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// ResolveFiles flattens files into absolute paths in upload order and checks
// that every one of them exists.
func ResolveFiles(files entity.FileSet) ([]string, error) {
	var paths []string
	for _, group := range files {
		for i, f := range group.Files {
			if f.Path == "" {
				return nil, fmt.Errorf("%w: no path for %s #%d", ErrFileMissing, group.DocType, i+1)
			}
			abs, err := filepath.Abs(f.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", f.Path, err)
			}
			info, err := os.Stat(abs)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrFileMissing, f.Path, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%w: %s is a directory", ErrFileMissing, f.Path)
			}
			paths = append(paths, abs)
		}
	}
	return paths, nil
}

// UploadFiles sends every file to the portal in one operation, dismisses the
// image editor dialogs it raises, and moves on. Missing files fail the step
// before the browser is touched.
func (s *Steps) UploadFiles(ctx context.Context, files entity.FileSet) entity.StepResult {
	log := s.logger.With(zap.String("step", StepUploadFiles))

	paths, err := ResolveFiles(files)
	if err != nil {
		log.Error("Upload precondition failed", zap.Error(err))
		return entity.StepResult{Step: StepUploadFiles, Err: err}
	}
	if len(paths) == 0 {
		log.Info("No files to upload")
		return entity.StepResult{Step: StepUploadFiles, OK: true}
	}

	return s.run(ctx, StepUploadFiles, func(ctx context.Context, log *zap.Logger) error {
		t := s.timings.Timeouts
		log.Info("Uploading files", zap.Int("count", len(paths)), zap.Strings("paths", paths))

		if err := s.driver.Upload(ctx, s.portal.FileInput, paths, t.Default); err != nil {
			return err
		}
		if err := browser.Sleep(ctx, s.timings.AfterUpload); err != nil {
			return err
		}

		n, err := s.DismissImageEditors(ctx)
		if err != nil {
			return err
		}
		log.Info("Files uploaded", zap.Int("image_editors", n))

		return s.clickNext(ctx, s.portal.NextButton, t.Default)
	})
}

// DismissImageEditors saves each image editor dialog the portal shows after
// an upload. It gives up after MaxImageEditors dialogs.
func (s *Steps) DismissImageEditors(ctx context.Context) (int, error) {
	t := s.timings.Timeouts
	for n := 0; n < s.timings.MaxImageEditors; n++ {
		err := s.driver.WaitClickable(ctx, s.portal.ImageEditorSave, t.Probe)
		if errors.Is(err, browser.ErrElementNotFound) || errors.Is(err, browser.ErrTimeout) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		s.logger.Info("Saving image editor dialog", zap.Int("dialog", n+1))
		if err := s.driver.Click(ctx, s.portal.ImageEditorSave, t.Probe); err != nil {
			return n, err
		}
		if err := browser.Sleep(ctx, s.timings.AfterModal); err != nil {
			return n + 1, err
		}
	}
	return s.timings.MaxImageEditors, fmt.Errorf("%w: %d dialogs", ErrTooManyModals, s.timings.MaxImageEditors)
}
