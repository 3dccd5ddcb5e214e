package conversion_test

import (
	"context"
	"errors"
	"fmt"
	"formatwave/internal/adapters/codec"
	"formatwave/internal/adapters/repository/memory"
	"formatwave/internal/adapters/storage/local"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"formatwave/internal/core/service/conversion"
	"formatwave/internal/core/service/dispatch"
	"formatwave/internal/core/service/intake"
	"formatwave/internal/core/service/packager"
	"formatwave/internal/core/service/registry"
	"formatwave/internal/core/service/session"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeCodec copies the input, fails on content "corrupt" and emits three pages for pdfs
func fakeCodec(ctx context.Context, inputPath string, outputDir string) ([]string, error) {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, err
	}
	switch string(content) {
	case "corrupt":
		return nil, domain.NewConversionError("the file could not be read as a valid image", errors.New("bad magic"))
	case "nospace":
		return nil, fmt.Errorf("encode: %w", syscall.ENOSPC)
	}

	pages := 1
	if domain.Extension(inputPath) == "pdf" {
		pages = 3
	}
	var outputs []string
	for i := 1; i <= pages; i++ {
		out := filepath.Join(outputDir, fmt.Sprintf("out-%d", i))
		if err := os.WriteFile(out, append(content, byte('0'+i)), 0o600); err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

type fixture struct {
	service  port.ConversionService
	packager port.ArtifactPackager
	storage  *local.Adapter
	workDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	binding := codec.NewBinding()
	for _, spec := range registry.DefaultCatalog() {
		binding.Register(spec.SourceFormat, spec.TargetFormat, port.ConverterFunc(fakeCodec))
	}
	reg, err := registry.New(registry.DefaultCatalog(), binding)
	require.NoError(t, err)

	storage, err := local.NewAdapter(t.TempDir(), discardLogger)
	require.NoError(t, err)

	workDir := t.TempDir()
	limits := intake.Limits{MaxFiles: 10, MaxFileBytes: 1 << 20, MaxBatchBytes: 10 << 20}
	sessions := session.NewSessionService(memory.NewSessionRepository(), storage, nil, time.Hour, discardLogger)

	return &fixture{
		service: conversion.NewConversionService(
			reg,
			intake.NewIntakeService(reg, workDir, limits, discardLogger),
			dispatch.NewDispatcher(reg, storage, dispatch.Options{Workers: 4, FileTimeout: time.Second}, discardLogger),
			sessions,
			storage,
			discardLogger,
		),
		packager: packager.NewPackagerService(sessions, storage, discardLogger),
		storage:  storage,
		workDir:  workDir,
	}
}

func upload(name, content string) domain.UploadedFile {
	return domain.UploadedFile{Filename: name, Size: int64(len(content)), Content: strings.NewReader(content)}
}

func TestConversionService_Convert(t *testing.T) {
	ctx := context.Background()

	t.Run("success - results and errors partition the input", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		files := []domain.UploadedFile{
			upload("a.webp", "aaa"),
			upload("b.gif", "bbb"),
			upload("c.webp", "corrupt"),
			upload("d.WEBP", "ddd"),
			upload("e.txt", "eee"),
		}

		// Act
		s, err := f.service.Convert(ctx, "webp-to-png", files)

		// Assert
		require.NoError(t, err)
		assert.Len(t, s.Artifacts, 2)
		assert.Len(t, s.Failures, 3)
		assert.Equal(t, 2, s.TotalConverted)

		var names []string
		for _, artifact := range s.Artifacts {
			names = append(names, artifact.OriginalName)
		}
		for _, failure := range s.Failures {
			names = append(names, failure.Filename)
		}
		sort.Strings(names)
		assert.Equal(t, []string{"a.webp", "b.gif", "c.webp", "d.WEBP", "e.txt"}, names)

		assert.Equal(t, "a.png", s.Artifacts[0].ConvertedName)
		assert.Equal(t, "d.png", s.Artifacts[1].ConvertedName)
		assert.Equal(t, "b.gif", s.Failures[0].Filename)
		assert.Equal(t, "c.webp", s.Failures[1].Filename)
		assert.Equal(t, "e.txt", s.Failures[2].Filename)
	})

	t.Run("success - one file with the wrong extension", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		s, err := f.service.Convert(ctx, "webp-to-png", []domain.UploadedFile{
			upload("photo.webp", "x"), upload("anim.gif", "y"),
		})

		// Assert
		require.NoError(t, err)
		assert.Len(t, s.Artifacts, 1)
		require.Len(t, s.Failures, 1)
		assert.Equal(t, "anim.gif", s.Failures[0].Filename)
	})

	t.Run("success - a three page pdf yields one artifact per page", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		s, err := f.service.Convert(ctx, "pdf-to-png", []domain.UploadedFile{upload("report.pdf", "%PDF")})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, s.TotalConverted)
		require.Len(t, s.Artifacts, 3)
		assert.Equal(t, "report_page_001.png", s.Artifacts[0].ConvertedName)
		assert.Equal(t, "report_page_003.png", s.Artifacts[2].ConvertedName)

		bundle, err := f.packager.OpenBundle(ctx, s.ID)
		require.NoError(t, err)
		defer bundle.Close()
		n, err := bundle.WriteTo(io.Discard)
		require.NoError(t, err)
		assert.Positive(t, n)
	})

	t.Run("success - every conversion failing still yields a session", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		s, err := f.service.Convert(ctx, "png-to-jpg", []domain.UploadedFile{upload("x.png", "corrupt")})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 0, s.TotalConverted)
		assert.Len(t, s.Failures, 1)

		_, bundleErr := f.packager.OpenBundle(ctx, s.ID)
		assert.ErrorIs(t, bundleErr, domain.ErrEmptySession)

		found, err := f.service.GetSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, found.ID)
	})

	t.Run("success - work dir is removed after conversion", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		s, err := f.service.Convert(ctx, "bmp-to-png", []domain.UploadedFile{upload("x.bmp", "BM")})

		// Assert
		require.NoError(t, err)
		assert.NoDirExists(t, filepath.Join(f.workDir, s.ID.String()))
	})

	t.Run("success - concurrent batches get disjoint namespaces", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		var wg sync.WaitGroup
		sessions := make([]*domain.Session, 2)
		ids := []string{"webp-to-png", "jpg-to-png"}
		files := [][]domain.UploadedFile{
			{upload("same.webp", "from-a")},
			{upload("same.jpg", "from-b")},
		}

		// Act
		for i := range sessions {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := f.service.Convert(ctx, ids[i], files[i])
				if assert.NoError(t, err) {
					sessions[i] = s
				}
			}()
		}
		wg.Wait()

		// Assert
		a, b := sessions[0], sessions[1]
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.NotEqual(t, a.ID, b.ID)
		assert.True(t, strings.HasPrefix(a.Artifacts[0].StorageKey, domain.StoragePrefix(a.ID)))
		assert.True(t, strings.HasPrefix(b.Artifacts[0].StorageKey, domain.StoragePrefix(b.ID)))

		_, err := f.packager.OpenArtifact(ctx, b.ID, a.Artifacts[0].ID)
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	})

	t.Run("error - every file rejected creates no session", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		s, err := f.service.Convert(ctx, "webp-to-png", []domain.UploadedFile{upload("a.gif", "x")})

		// Assert
		assert.Nil(t, s)
		var rejected *domain.RejectedBatchError
		require.True(t, errors.As(err, &rejected))
		assert.Equal(t, "a.gif", rejected.Failures[0].Filename)
	})

	t.Run("error - unknown conversion", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.service.Convert(ctx, "doc-to-pdf", []domain.UploadedFile{upload("a.doc", "x")})

		// Assert
		assert.ErrorIs(t, err, domain.ErrUnknownConversion)
	})

	t.Run("error - out of disk discards the batch", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		s, err := f.service.Convert(ctx, "webp-to-png", []domain.UploadedFile{
			upload("ok.webp", "fine"), upload("full.webp", "nospace"),
		})

		// Assert
		assert.Nil(t, s)
		assert.ErrorIs(t, err, domain.ErrStorage)
		entries, readErr := os.ReadDir(f.workDir)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})
}

func TestConversionService_ListConversions(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	specs := f.service.ListConversions()

	// Assert
	require.Len(t, specs, len(registry.DefaultCatalog()))
	assert.Equal(t, "pdf-to-png", specs[0].ID)
}
