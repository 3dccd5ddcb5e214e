package conversion

import (
	"context"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type conversionService struct {
	registry   port.ConversionRegistry
	intake     port.UploadIntake
	dispatcher port.ConversionDispatcher
	sessions   port.SessionService
	storage    port.ArtifactStorage
	logger     *slog.Logger
}

// NewConversionService creates a new conversion service
func NewConversionService(
	registry port.ConversionRegistry,
	intake port.UploadIntake,
	dispatcher port.ConversionDispatcher,
	sessions port.SessionService,
	storage port.ArtifactStorage,
	logger *slog.Logger,
) port.ConversionService {
	return &conversionService{
		registry:   registry,
		intake:     intake,
		dispatcher: dispatcher,
		sessions:   sessions,
		storage:    storage,
		logger:     logger,
	}
}

// ListConversions returns the catalog
func (s *conversionService) ListConversions() []domain.ConversionSpec {
	return s.registry.List()
}

// Convert stages, converts and records a batch. Validation errors fail the request before
// any session exists; once a file entered conversion a session is always returned.
func (s *conversionService) Convert(ctx context.Context, conversionID string, files []domain.UploadedFile) (*domain.Session, error) {
	batch, err := s.intake.Intake(ctx, conversionID, files)
	if err != nil {
		return nil, err
	}
	defer s.removeWorkDir(batch)

	outcomes, err := s.dispatcher.Run(ctx, batch)
	if err != nil {
		s.discardArtifacts(batch.SessionID)
		return nil, err
	}

	session, err := s.sessions.Create(ctx, batch, outcomes)
	if err != nil {
		s.discardArtifacts(batch.SessionID)
		return nil, err
	}
	return session, nil
}

// GetSession returns an active session
func (s *conversionService) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.sessions.Get(ctx, id)
}

// removeWorkDir drops staged inputs and raw codec outputs, artifacts live in storage
func (s *conversionService) removeWorkDir(batch *domain.StagedBatch) {
	if err := os.RemoveAll(batch.WorkDir); err != nil {
		s.logger.Error("failed to remove work dir", "session_id", batch.SessionID, "error", err)
	}
}

// discardArtifacts runs detached from the request so a cancelled client does not leak storage
func (s *conversionService) discardArtifacts(sessionID uuid.UUID) {
	if err := s.storage.DeletePrefix(context.Background(), domain.StoragePrefix(sessionID)); err != nil {
		s.logger.Error("failed to discard artifacts", "session_id", sessionID, "error", err)
	}
}
