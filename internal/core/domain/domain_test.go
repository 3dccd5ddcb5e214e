package domain_test

import (
	"errors"
	"formatwave/internal/core/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanSize(t *testing.T) {
	cases := map[int64]string{
		0:       "0.0 B",
		512:     "512.0 B",
		1024:    "1.0 KB",
		1536:    "1.5 KB",
		5 << 20: "5.0 MB",
		3 << 30: "3.0 GB",
		2 << 40: "2.0 TB",
	}
	for size, expected := range cases {
		assert.Equal(t, expected, domain.HumanSize(size), size)
	}
}

func TestConversionSpec_Accepts(t *testing.T) {
	spec := domain.ConversionSpec{SourceExtensions: []string{"jpg", "jpeg"}}

	assert.True(t, spec.Accepts("holiday.JPG"))
	assert.True(t, spec.Accepts("dir/holiday.jpeg"))
	assert.False(t, spec.Accepts("holiday.png"))
	assert.False(t, spec.Accepts("jpg"))
}

func TestExtensionAndStem(t *testing.T) {
	assert.Equal(t, "pdf", domain.Extension("Report.Final.PDF"))
	assert.Equal(t, "", domain.Extension("README"))
	assert.Equal(t, "Report.Final", domain.Stem("/tmp/in/Report.Final.PDF"))
	assert.Equal(t, "README", domain.Stem("README"))
}

func TestIsPreviewable(t *testing.T) {
	assert.True(t, domain.IsPreviewable("png"))
	assert.True(t, domain.IsPreviewable(".JPG"))
	assert.False(t, domain.IsPreviewable("tiff"))
	assert.False(t, domain.IsPreviewable("pdf"))
	assert.Equal(t, "image/webp", domain.ContentTypeFor("WEBP"))
	assert.Equal(t, "application/octet-stream", domain.ContentTypeFor("xyz"))
}

func TestSession(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	artifactID := uuid.New()
	purgedAt := now
	session := domain.Session{
		ID:        uuid.New(),
		Artifacts: []domain.ResultArtifact{{ID: artifactID, ConvertedName: "a.png"}},
		Failures:  []domain.FileFailure{{Position: 1, Filename: "b.png"}},
		ExpiresAt: now.Add(time.Hour),
		PurgedAt:  &purgedAt,
	}

	t.Run("expiry boundary is inclusive", func(t *testing.T) {
		assert.False(t, session.IsExpired(now))
		assert.True(t, session.IsExpired(now.Add(time.Hour)))
	})

	t.Run("artifact lookup", func(t *testing.T) {
		artifact, ok := session.Artifact(artifactID)
		require.True(t, ok)
		assert.Equal(t, "a.png", artifact.ConvertedName)

		_, ok = session.Artifact(uuid.New())
		assert.False(t, ok)
	})

	t.Run("clone does not share state", func(t *testing.T) {
		// Act
		clone := session.Clone()
		clone.Artifacts[0].ConvertedName = "changed.png"
		clone.Failures[0].Filename = "changed.png"
		*clone.PurgedAt = now.Add(time.Minute)

		// Assert
		assert.Equal(t, "a.png", session.Artifacts[0].ConvertedName)
		assert.Equal(t, "b.png", session.Failures[0].Filename)
		assert.Equal(t, now, *session.PurgedAt)
	})

	t.Run("paths", func(t *testing.T) {
		sid := session.ID
		assert.Equal(t, sid.String()+"/", domain.StoragePrefix(sid))
		assert.Equal(t, sid.String()+"/"+artifactID.String()+".png", domain.StorageKey(sid, artifactID, "png"))
		assert.Equal(t, "/download/"+sid.String()+"/"+artifactID.String(), domain.DownloadPath(sid, artifactID))
		assert.Equal(t, "/preview/"+sid.String()+"/"+artifactID.String(), domain.PreviewPath(sid, artifactID))
		assert.Equal(t, "/download-all/"+sid.String(), domain.DownloadAllPath(sid))
	})
}

func TestErrors(t *testing.T) {
	t.Run("conversion error keeps both causes", func(t *testing.T) {
		cause := errors.New("decoder exploded")
		err := domain.NewConversionError("the file could not be read as a valid image", cause)

		assert.ErrorIs(t, err, domain.ErrConversionFailed)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "the file could not be read as a valid image: decoder exploded", err.Error())
		assert.Equal(t, "no pages", domain.NewConversionError("no pages", nil).Error())
	})

	t.Run("rejected batch error", func(t *testing.T) {
		var err error = &domain.RejectedBatchError{Failures: []domain.FileFailure{{Position: 0}, {Position: 1}}}

		assert.ErrorIs(t, err, domain.ErrAllFilesRejected)
		assert.Equal(t, "all files rejected: 2 file(s)", err.Error())
	})

	t.Run("session event snapshot", func(t *testing.T) {
		now := time.Now()
		session := domain.Session{
			ID:             uuid.New(),
			ConversionID:   "png-to-jpg",
			TotalConverted: 3,
			Failures:       []domain.FileFailure{{}},
			ExpiresAt:      now.Add(time.Hour),
		}

		event := domain.NewSessionEvent(domain.EventTypeSessionCreated, session, now)

		assert.Equal(t, session.ID, event.SessionID)
		assert.Equal(t, 3, event.TotalConverted)
		assert.Equal(t, 1, event.TotalErrors)
		assert.Equal(t, now, event.OccurredAt)
	})
}
