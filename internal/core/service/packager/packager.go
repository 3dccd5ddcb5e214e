package packager

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type packagerService struct {
	sessions port.SessionService
	storage  port.ArtifactStorage
	logger   *slog.Logger
}

// NewPackagerService creates a new packager service
func NewPackagerService(sessions port.SessionService, storage port.ArtifactStorage, logger *slog.Logger) port.ArtifactPackager {
	return &packagerService{
		sessions: sessions,
		storage:  storage,
		logger:   logger,
	}
}

// OpenArtifact opens one artifact of an active session
func (p *packagerService) OpenArtifact(ctx context.Context, sessionID, artifactID uuid.UUID) (*port.ArtifactStream, error) {
	return p.open(ctx, sessionID, artifactID, false)
}

// OpenPreview opens an artifact a browser can render inline
func (p *packagerService) OpenPreview(ctx context.Context, sessionID, artifactID uuid.UUID) (*port.ArtifactStream, error) {
	return p.open(ctx, sessionID, artifactID, true)
}

func (p *packagerService) open(ctx context.Context, sessionID, artifactID uuid.UUID, preview bool) (*port.ArtifactStream, error) {
	session, release, err := p.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	artifact, ok := session.Artifact(artifactID)
	if !ok {
		release()
		return nil, domain.ErrArtifactNotFound
	}
	if preview && !artifact.Previewable {
		release()
		return nil, domain.ErrNotPreviewable
	}

	rc, err := p.storage.Open(ctx, artifact.StorageKey)
	if err != nil {
		release()
		if errors.Is(err, domain.ErrObjectNotFound) {
			p.logger.Error("artifact missing from storage", "session_id", sessionID, "key", artifact.StorageKey)
			return nil, fmt.Errorf("%w: %v", domain.ErrArtifactNotFound, err)
		}
		return nil, err
	}

	reader := &leasedReader{ReadCloser: rc, ctx: ctx, release: release}
	reader.stop = context.AfterFunc(ctx, reader.releaseLease)

	return &port.ArtifactStream{
		Artifact:   *artifact,
		ReadCloser: reader,
	}, nil
}

// OpenBundle prepares the archive of every artifact of a session. The archive itself is
// written by WriteTo, straight to the client.
func (p *packagerService) OpenBundle(ctx context.Context, sessionID uuid.UUID) (port.BundleStream, error) {
	session, release, err := p.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.Artifacts) == 0 {
		release()
		return nil, domain.ErrEmptySession
	}

	b := &bundle{
		ctx:     ctx,
		session: session,
		storage: p.storage,
		release: release,
	}
	b.stop = context.AfterFunc(ctx, b.releaseLease)
	return b, nil
}

// leasedReader holds a session lease until it is closed or its request context ends
type leasedReader struct {
	io.ReadCloser
	ctx     context.Context
	release func()
	stop    func() bool
	once    sync.Once
}

func (r *leasedReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.ReadCloser.Read(p)
}

func (r *leasedReader) releaseLease() {
	r.once.Do(r.release)
}

func (r *leasedReader) Close() error {
	r.stop()
	err := r.ReadCloser.Close()
	r.releaseLease()
	return err
}

type bundle struct {
	ctx     context.Context
	session *domain.Session
	storage port.ArtifactStorage
	release func()
	stop    func() bool
	once    sync.Once
}

// BundleFilename is the download name of a session archive
func BundleFilename(sessionID uuid.UUID) string {
	return fmt.Sprintf("FormatWave_%s.zip", sessionID)
}

func (b *bundle) Filename() string {
	return BundleFilename(b.session.ID)
}

// WriteTo writes a zip with one entry per artifact, in artifact order. Entry times are
// the session creation time so the same session always yields the same bytes.
func (b *bundle) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, artifact := range b.session.Artifacts {
		if err := b.ctx.Err(); err != nil {
			return cw.n, err
		}
		if err := b.addEntry(zw, artifact); err != nil {
			return cw.n, err
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finish archive: %w", err)
	}
	return cw.n, nil
}

func (b *bundle) addEntry(zw *zip.Writer, artifact domain.ResultArtifact) error {
	rc, err := b.storage.Open(b.ctx, artifact.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", artifact.ConvertedName, err)
	}
	defer rc.Close()

	header := &zip.FileHeader{
		Name:     artifact.ConvertedName,
		Method:   zip.Deflate,
		Modified: b.session.CreatedAt.UTC(),
	}
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", artifact.ConvertedName, err)
	}
	if _, err := io.Copy(entry, rc); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", artifact.ConvertedName, err)
	}
	return nil
}

func (b *bundle) releaseLease() {
	b.once.Do(b.release)
}

func (b *bundle) Close() error {
	b.stop()
	b.releaseLease()
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
