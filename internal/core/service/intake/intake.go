package intake

import (
	"context"
	"errors"
	"fmt"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

// Limits bounds the size of a batch
type Limits struct {
	MaxFiles      int
	MaxFileBytes  int64
	MaxBatchBytes int64
}

type intakeService struct {
	registry port.ConversionRegistry
	workDir  string
	limits   Limits
	logger   *slog.Logger
}

// NewIntakeService creates a new intake service staging batches under workDir
func NewIntakeService(registry port.ConversionRegistry, workDir string, limits Limits, logger *slog.Logger) port.UploadIntake {
	return &intakeService{
		registry: registry,
		workDir:  workDir,
		limits:   limits,
		logger:   logger,
	}
}

// Intake validates files against the conversion and copies the accepted ones into a new session namespace
func (s *intakeService) Intake(ctx context.Context, conversionID string, files []domain.UploadedFile) (*domain.StagedBatch, error) {
	spec, err := s.registry.Lookup(conversionID)
	if err != nil {
		return nil, err
	}

	named := make([]domain.UploadedFile, 0, len(files))
	for _, file := range files {
		if displayName(file.Filename) == "" {
			continue
		}
		named = append(named, file)
	}
	if len(named) == 0 {
		return nil, domain.ErrNoFiles
	}

	if err := s.checkCapacity(named); err != nil {
		return nil, err
	}

	batch := &domain.StagedBatch{
		SessionID: uuid.New(),
		Spec:      spec,
	}
	batch.WorkDir = filepath.Join(s.workDir, batch.SessionID.String())
	inputDir := filepath.Join(batch.WorkDir, "input")

	if err := os.MkdirAll(inputDir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: failed to create session namespace: %v", domain.ErrStorage, err)
	}

	for position, file := range named {
		if err := ctx.Err(); err != nil {
			s.discard(batch)
			return nil, err
		}

		name := displayName(file.Filename)
		ext := domain.Extension(name)

		if !spec.Accepts(name) {
			batch.Rejected = append(batch.Rejected, domain.FileFailure{
				Position: position,
				Filename: name,
				Reason:   unsupportedReason(ext, spec.SourceExtensions),
			})
			continue
		}
		if s.limits.MaxFileBytes > 0 && file.Size > s.limits.MaxFileBytes {
			batch.Rejected = append(batch.Rejected, s.tooLarge(position, name))
			continue
		}

		path := filepath.Join(inputDir, fmt.Sprintf("%03d.%s", position, ext))
		written, err := s.stage(path, file.Content)
		switch {
		case errors.Is(err, syscall.ENOSPC):
			s.discard(batch)
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		case errors.Is(err, domain.ErrFileTooLarge):
			batch.Rejected = append(batch.Rejected, s.tooLarge(position, name))
			continue
		case err != nil:
			s.logger.Error("failed to stage upload", "session_id", batch.SessionID, "filename", name, "error", err)
			batch.Rejected = append(batch.Rejected, domain.FileFailure{
				Position: position,
				Filename: name,
				Reason:   "the file could not be stored",
			})
			continue
		}

		batch.Files = append(batch.Files, domain.StagedFile{
			Position:     position,
			OriginalName: name,
			Extension:    ext,
			Path:         path,
			SizeBytes:    written,
		})
	}

	if len(batch.Files) == 0 {
		s.discard(batch)
		return nil, &domain.RejectedBatchError{Failures: batch.Rejected}
	}

	s.logger.Info("batch staged",
		"session_id", batch.SessionID,
		"conversion_id", spec.ID,
		"accepted", len(batch.Files),
		"rejected", len(batch.Rejected),
	)
	return batch, nil
}

func (s *intakeService) checkCapacity(files []domain.UploadedFile) error {
	if s.limits.MaxFiles > 0 && len(files) > s.limits.MaxFiles {
		return fmt.Errorf("%w: %d files submitted, at most %d allowed", domain.ErrCapacityExceeded, len(files), s.limits.MaxFiles)
	}

	var total int64
	for _, file := range files {
		total += file.Size
	}
	if s.limits.MaxBatchBytes > 0 && total > s.limits.MaxBatchBytes {
		return fmt.Errorf("%w: batch of %s exceeds %s", domain.ErrCapacityExceeded,
			domain.HumanSize(total), domain.HumanSize(s.limits.MaxBatchBytes))
	}
	return nil
}

// stage copies content to path. The declared size of a part is not trusted, the copy
// stops one byte past the per-file limit.
func (s *intakeService) stage(path string, content io.Reader) (int64, error) {
	if content == nil {
		return 0, errors.New("missing content")
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return 0, err
	}

	reader := content
	if s.limits.MaxFileBytes > 0 {
		reader = io.LimitReader(content, s.limits.MaxFileBytes+1)
	}

	written, copyErr := io.Copy(out, reader)
	closeErr := out.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return 0, copyErr
	case closeErr != nil:
		_ = os.Remove(path)
		return 0, closeErr
	case s.limits.MaxFileBytes > 0 && written > s.limits.MaxFileBytes:
		_ = os.Remove(path)
		return 0, domain.ErrFileTooLarge
	}
	return written, nil
}

func (s *intakeService) tooLarge(position int, name string) domain.FileFailure {
	return domain.FileFailure{
		Position: position,
		Filename: name,
		Reason:   fmt.Sprintf("file exceeds the %s size limit", domain.HumanSize(s.limits.MaxFileBytes)),
	}
}

func (s *intakeService) discard(batch *domain.StagedBatch) {
	if err := os.RemoveAll(batch.WorkDir); err != nil {
		s.logger.Error("failed to remove session namespace", "session_id", batch.SessionID, "error", err)
	}
}

func unsupportedReason(ext string, accepted []string) string {
	if ext == "" {
		return fmt.Sprintf("file has no extension, expected %s", strings.Join(accepted, ", "))
	}
	return fmt.Sprintf("unsupported file type .%s, expected %s", ext, strings.Join(accepted, ", "))
}

// displayName strips any client supplied directory from a filename
func displayName(filename string) string {
	name := strings.TrimSpace(strings.ReplaceAll(filename, "\\", "/"))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}
