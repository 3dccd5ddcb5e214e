package memory_test

import (
	"context"
	"formatwave/internal/adapters/repository/memory"
	"formatwave/internal/core/domain"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(createdAt time.Time, ttl time.Duration) domain.Session {
	id := uuid.New()
	artifactID := uuid.New()
	return domain.Session{
		ID:           id,
		ConversionID: "webp-to-png",
		Artifacts: []domain.ResultArtifact{{
			ID:            artifactID,
			OriginalName:  "cat.webp",
			ConvertedName: "cat.png",
			StorageKey:    domain.StorageKey(id, artifactID, "png"),
		}},
		TotalConverted: 1,
		Status:         domain.SessionStatusActive,
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(ttl),
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success - create and find", func(t *testing.T) {
		// Arrange
		repo := memory.NewSessionRepository()
		session := newSession(now, time.Hour)

		// Act
		err := repo.Create(ctx, session)
		require.NoError(t, err)
		found, err := repo.FindByID(ctx, session.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, session, *found)
	})

	t.Run("success - returned sessions are copies", func(t *testing.T) {
		// Arrange
		repo := memory.NewSessionRepository()
		session := newSession(now, time.Hour)
		require.NoError(t, repo.Create(ctx, session))

		// Act
		found, err := repo.FindByID(ctx, session.ID)
		require.NoError(t, err)
		found.Artifacts[0].ConvertedName = "tampered.png"

		// Assert
		again, err := repo.FindByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "cat.png", again.Artifacts[0].ConvertedName)
	})

	t.Run("error - duplicate id", func(t *testing.T) {
		// Arrange
		repo := memory.NewSessionRepository()
		session := newSession(now, time.Hour)
		require.NoError(t, repo.Create(ctx, session))

		// Act
		err := repo.Create(ctx, session)

		// Assert
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("error - not found", func(t *testing.T) {
		// Arrange
		repo := memory.NewSessionRepository()

		// Act
		_, err := repo.FindByID(ctx, uuid.New())
		updateErr := repo.UpdateStatus(ctx, uuid.New(), domain.SessionStatusExpired)
		purgeErr := repo.MarkPurged(ctx, uuid.New(), now)

		// Assert
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.ErrorIs(t, updateErr, domain.ErrSessionNotFound)
		assert.ErrorIs(t, purgeErr, domain.ErrSessionNotFound)
	})

	t.Run("success - find expired skips live and purged sessions", func(t *testing.T) {
		// Arrange
		repo := memory.NewSessionRepository()
		old := newSession(now.Add(-2*time.Hour), time.Hour)
		older := newSession(now.Add(-3*time.Hour), time.Hour)
		live := newSession(now, time.Hour)
		purged := newSession(now.Add(-5*time.Hour), time.Hour)
		for _, s := range []domain.Session{old, older, live, purged} {
			require.NoError(t, repo.Create(ctx, s))
		}
		require.NoError(t, repo.MarkPurged(ctx, purged.ID, now))

		// Act
		expired, err := repo.FindAllExpired(ctx, now)

		// Assert
		require.NoError(t, err)
		require.Len(t, expired, 2)
		assert.Equal(t, older.ID, expired[0].ID)
		assert.Equal(t, old.ID, expired[1].ID)
	})

	t.Run("success - tombstones drop artifacts then disappear", func(t *testing.T) {
		// Arrange
		repo := memory.NewSessionRepository()
		session := newSession(now.Add(-2*time.Hour), time.Hour)
		require.NoError(t, repo.Create(ctx, session))

		// Act
		require.NoError(t, repo.MarkPurged(ctx, session.ID, now))
		tombstone, err := repo.FindByID(ctx, session.ID)
		require.NoError(t, err)
		kept, err := repo.DeleteTombstones(ctx, now)
		require.NoError(t, err)
		deleted, err := repo.DeleteTombstones(ctx, now.Add(time.Second))
		require.NoError(t, err)

		// Assert
		assert.Equal(t, domain.SessionStatusPurged, tombstone.Status)
		assert.Empty(t, tombstone.Artifacts)
		require.NotNil(t, tombstone.PurgedAt)
		assert.Equal(t, 0, kept)
		assert.Equal(t, 1, deleted)
		_, err = repo.FindByID(ctx, session.ID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("success - concurrent writers and readers", func(t *testing.T) {
		// Arrange
		repo := memory.NewSessionRepository()
		var wg sync.WaitGroup
		ids := make([]uuid.UUID, 50)

		// Act
		for i := range ids {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				session := newSession(now, time.Hour)
				ids[i] = session.ID
				assert.NoError(t, repo.Create(ctx, session))
				_, err := repo.FindByID(ctx, session.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		// Assert
		for _, id := range ids {
			_, err := repo.FindByID(ctx, id)
			assert.NoError(t, err)
		}
	})
}
