package dispatch

import (
	"context"
	"errors"
	"fmt"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options tunes the worker pool
type Options struct {
	Workers     int
	FileTimeout time.Duration
}

type dispatcher struct {
	registry port.ConversionRegistry
	storage  port.ArtifactStorage
	opts     Options
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher running at most opts.Workers conversions at once
func NewDispatcher(registry port.ConversionRegistry, storage port.ArtifactStorage, opts Options, logger *slog.Logger) port.ConversionDispatcher {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &dispatcher{
		registry: registry,
		storage:  storage,
		opts:     opts,
		logger:   logger,
	}
}

// Run converts every staged file. Outcomes are returned in submission order whatever the
// completion order. A non nil error means storage is out of space and the batch is void.
func (d *dispatcher) Run(ctx context.Context, batch *domain.StagedBatch) ([]domain.ConversionOutcome, error) {
	outcomes := make([]domain.ConversionOutcome, len(batch.Files))

	converter, err := d.registry.Converter(batch.Spec.ID)
	if err != nil {
		d.logger.Error("no converter bound", "conversion_id", batch.Spec.ID, "error", err)
		for i, file := range batch.Files {
			outcomes[i] = failed(file, "this conversion is currently unavailable")
		}
		return outcomes, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(d.opts.Workers)

	for i, file := range batch.Files {
		i, file := i, file
		// per-file failures land in outcomes, only a systemic storage error is returned
		g.Go(func() error {
			outcome, err := d.convertFile(ctx, batch, converter, file)
			outcomes[i] = outcome
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	uniqueNames(outcomes)

	converted := 0
	for _, outcome := range outcomes {
		converted += len(outcome.Artifacts)
	}
	d.logger.Info("batch converted",
		"session_id", batch.SessionID,
		"conversion_id", batch.Spec.ID,
		"files", len(batch.Files),
		"artifacts", converted,
	)
	return outcomes, nil
}

// convertFile never lets a panic or a codec error escape: both become a failure outcome.
// The error is only set when the disk is full.
func (d *dispatcher) convertFile(ctx context.Context, batch *domain.StagedBatch, converter port.Converter, file domain.StagedFile) (outcome domain.ConversionOutcome, systemic error) {
	logger := d.logger.With("session_id", batch.SessionID, "filename", file.OriginalName)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("converter panicked", "panic", r)
			outcome = failed(file, "an unexpected error occurred while converting the file")
			systemic = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		return failed(file, reasonFor(err)), nil
	}

	outputDir := filepath.Join(batch.WorkDir, "output", fmt.Sprintf("%03d", file.Position))
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		logger.Error("failed to create output dir", "error", err)
		if errors.Is(err, syscall.ENOSPC) {
			return failed(file, "the file could not be stored"), err
		}
		return failed(file, "the file could not be stored"), nil
	}

	fileCtx := ctx
	if d.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, d.opts.FileTimeout)
		defer cancel()
	}

	start := time.Now()
	paths, err := converter.Convert(fileCtx, file.Path, outputDir)
	if err == nil && len(paths) == 0 {
		err = domain.NewConversionError("the conversion produced no output", nil)
	}
	if err != nil {
		logger.Warn("conversion failed", "error", err, "duration", time.Since(start))
		if errors.Is(err, syscall.ENOSPC) {
			return failed(file, "the file could not be stored"), err
		}
		return failed(file, reasonFor(err)), nil
	}

	names := convertedNames(file.OriginalName, batch.Spec, len(paths))
	artifacts := make([]domain.ResultArtifact, 0, len(paths))
	for i, path := range paths {
		artifact, err := d.store(ctx, batch.SessionID, batch.Spec.TargetExtension, file.OriginalName, names[i], path)
		if err != nil {
			logger.Error("failed to store artifact", "error", err)
			if errors.Is(err, syscall.ENOSPC) {
				return failed(file, "the file could not be stored"), err
			}
			return failed(file, "the converted file could not be stored"), nil
		}
		artifacts = append(artifacts, artifact)
	}

	logger.Debug("file converted", "artifacts", len(artifacts), "duration", time.Since(start))
	return domain.ConversionOutcome{Position: file.Position, Artifacts: artifacts}, nil
}

func (d *dispatcher) store(ctx context.Context, sessionID uuid.UUID, ext, originalName, convertedName, path string) (domain.ResultArtifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ResultArtifact{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.ResultArtifact{}, err
	}

	artifactID := uuid.New()
	key := domain.StorageKey(sessionID, artifactID, ext)
	contentType := domain.ContentTypeFor(ext)

	if err := d.storage.Put(ctx, key, f, info.Size(), contentType); err != nil {
		return domain.ResultArtifact{}, err
	}

	artifact := domain.ResultArtifact{
		ID:            artifactID,
		OriginalName:  originalName,
		ConvertedName: convertedName,
		StorageKey:    key,
		SizeBytes:     info.Size(),
		SizeHuman:     domain.HumanSize(info.Size()),
		ContentType:   contentType,
		Previewable:   domain.IsPreviewable(ext),
		DownloadURL:   domain.DownloadPath(sessionID, artifactID),
	}
	if artifact.Previewable {
		artifact.PreviewURL = domain.PreviewPath(sessionID, artifactID)
	}
	return artifact, nil
}

// convertedNames derives the user facing names: <stem>.<ext>, or <stem>_page_NNN.<ext>
// for specs producing one artifact per page.
func convertedNames(originalName string, spec domain.ConversionSpec, count int) []string {
	stem := domain.Stem(originalName)
	names := make([]string, count)
	for i := range names {
		if spec.Arity == domain.ArityPerPage || count > 1 {
			names[i] = fmt.Sprintf("%s_page_%03d.%s", stem, i+1, spec.TargetExtension)
			continue
		}
		names[i] = fmt.Sprintf("%s.%s", stem, spec.TargetExtension)
	}
	return names
}

// uniqueNames suffixes duplicate converted names, first come first served in submission order
func uniqueNames(outcomes []domain.ConversionOutcome) {
	seen := make(map[string]struct{})
	for i := range outcomes {
		for j := range outcomes[i].Artifacts {
			artifact := &outcomes[i].Artifacts[j]
			name := artifact.ConvertedName
			ext := filepath.Ext(name)
			base := strings.TrimSuffix(name, ext)
			for n := 2; ; n++ {
				if _, taken := seen[strings.ToLower(name)]; !taken {
					break
				}
				name = fmt.Sprintf("%s (%d)%s", base, n, ext)
			}
			seen[strings.ToLower(name)] = struct{}{}
			artifact.ConvertedName = name
		}
	}
}

func failed(file domain.StagedFile, reason string) domain.ConversionOutcome {
	return domain.ConversionOutcome{
		Position: file.Position,
		Failure: &domain.FileFailure{
			Position: file.Position,
			Filename: file.OriginalName,
			Reason:   reason,
		},
	}
}

// reasonFor turns an error into a message safe to show to end users
func reasonFor(err error) string {
	var conversionErr *domain.ConversionError
	switch {
	case errors.As(err, &conversionErr):
		return conversionErr.Reason
	case errors.Is(err, context.DeadlineExceeded):
		return "the conversion took too long and was stopped"
	case errors.Is(err, context.Canceled):
		return "the conversion was cancelled"
	default:
		return "the file could not be converted"
	}
}
