package port

import (
	"context"
	"formatwave/internal/core/domain"
	"io"

	"github.com/google/uuid"
)

// UploadIntake validates a batch and stages it in a fresh session namespace
type UploadIntake interface {
	Intake(ctx context.Context, conversionID string, files []domain.UploadedFile) (*domain.StagedBatch, error)
}

// ConversionDispatcher converts every staged file of a batch. Per-file failures are
// reported in the outcomes, the error is reserved for systemic storage failures.
type ConversionDispatcher interface {
	Run(ctx context.Context, batch *domain.StagedBatch) ([]domain.ConversionOutcome, error)
}

// ConversionService is the entry point of the conversion engine
type ConversionService interface {
	ListConversions() []domain.ConversionSpec
	Convert(ctx context.Context, conversionID string, files []domain.UploadedFile) (*domain.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error)
}

// ArtifactStream is an open artifact. Closing it releases the session.
type ArtifactStream struct {
	Artifact domain.ResultArtifact
	io.ReadCloser
}

// BundleStream is a session archive written on demand. Closing it releases the session.
type BundleStream interface {
	Filename() string
	WriteTo(w io.Writer) (int64, error)
	Close() error
}

// ArtifactPackager serves single artifacts, previews and archive bundles
type ArtifactPackager interface {
	OpenArtifact(ctx context.Context, sessionID, artifactID uuid.UUID) (*ArtifactStream, error)
	OpenPreview(ctx context.Context, sessionID, artifactID uuid.UUID) (*ArtifactStream, error)
	OpenBundle(ctx context.Context, sessionID uuid.UUID) (BundleStream, error)
}
