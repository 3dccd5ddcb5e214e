package session_test

import (
	"context"
	"errors"
	"formatwave/internal/adapters/eventbroker"
	"formatwave/internal/adapters/repository/memory"
	"formatwave/internal/adapters/storage"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"formatwave/internal/core/service/session"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	repo      *memory.SessionRepository
	storage   *storage.MockStorage
	publisher *eventbroker.MockPublisher
	clock     *clock
	service   port.SessionService
}

func newFixture() *fixture {
	f := &fixture{
		repo:      memory.NewSessionRepository(),
		storage:   storage.NewMockStorage(),
		publisher: eventbroker.NewMockPublisher(),
		clock:     &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.service = session.NewSessionService(f.repo, f.storage, f.publisher, time.Hour, discardLogger, session.WithClock(f.clock.Now))
	return f
}

func artifact(sessionID uuid.UUID, name string) domain.ResultArtifact {
	id := uuid.New()
	return domain.ResultArtifact{
		ID:            id,
		OriginalName:  name + ".webp",
		ConvertedName: name + ".png",
		StorageKey:    domain.StorageKey(sessionID, id, "png"),
	}
}

func (f *fixture) create(t *testing.T) *domain.Session {
	t.Helper()
	batch := &domain.StagedBatch{SessionID: uuid.New(), Spec: domain.ConversionSpec{ID: "webp-to-png"}}
	outcomes := []domain.ConversionOutcome{{Position: 0, Artifacts: []domain.ResultArtifact{artifact(batch.SessionID, "cat")}}}
	s, err := f.service.Create(context.Background(), batch, outcomes)
	require.NoError(t, err)
	return s
}

func TestSessionService_Create(t *testing.T) {
	t.Run("success - merges rejections and failures in submission order", func(t *testing.T) {
		// Arrange
		f := newFixture()
		batch := &domain.StagedBatch{
			SessionID: uuid.New(),
			Spec:      domain.ConversionSpec{ID: "webp-to-png"},
			Rejected:  []domain.FileFailure{{Position: 1, Filename: "anim.gif", Reason: "unsupported"}},
		}
		outcomes := []domain.ConversionOutcome{
			{Position: 3, Failure: &domain.FileFailure{Position: 3, Filename: "broken.webp", Reason: "corrupt"}},
			{Position: 0, Artifacts: []domain.ResultArtifact{artifact(batch.SessionID, "a")}},
			{Position: 2, Artifacts: []domain.ResultArtifact{artifact(batch.SessionID, "b")}},
		}

		// Act
		s, err := f.service.Create(context.Background(), batch, outcomes)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, batch.SessionID, s.ID)
		assert.Equal(t, domain.SessionStatusActive, s.Status)
		assert.Equal(t, f.clock.Now().Add(time.Hour), s.ExpiresAt)
		assert.Equal(t, 2, s.TotalConverted)
		require.Len(t, s.Artifacts, 2)
		assert.Equal(t, "a.png", s.Artifacts[0].ConvertedName)
		assert.Equal(t, "b.png", s.Artifacts[1].ConvertedName)
		require.Len(t, s.Failures, 2)
		assert.Equal(t, "anim.gif", s.Failures[0].Filename)
		assert.Equal(t, "broken.webp", s.Failures[1].Filename)

		f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e domain.SessionEvent) bool {
			return e.Type == domain.EventTypeSessionCreated && e.SessionID == s.ID && e.TotalErrors == 2
		}))
	})

	t.Run("success - session with zero conversions is still created", func(t *testing.T) {
		// Arrange
		f := newFixture()
		batch := &domain.StagedBatch{SessionID: uuid.New(), Spec: domain.ConversionSpec{ID: "webp-to-png"}}
		outcomes := []domain.ConversionOutcome{
			{Position: 0, Failure: &domain.FileFailure{Position: 0, Filename: "broken.webp", Reason: "corrupt"}},
		}

		// Act
		s, err := f.service.Create(context.Background(), batch, outcomes)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 0, s.TotalConverted)
		assert.Empty(t, s.Artifacts)
		assert.Len(t, s.Failures, 1)
	})

	t.Run("success - publisher failure does not fail creation", func(t *testing.T) {
		// Arrange
		f := newFixture()
		f.publisher = eventbroker.NewMockPublisher()
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
		f.service = session.NewSessionService(f.repo, f.storage, f.publisher, time.Hour, discardLogger)

		// Act
		s := f.create(t)

		// Assert
		assert.NotNil(t, s)
	})
}

func TestSessionService_Get(t *testing.T) {
	t.Run("success - before expiry", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)
		f.clock.Advance(59 * time.Minute)

		// Act
		s, err := f.service.Get(context.Background(), created.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, created.ID, s.ID)
	})

	t.Run("error - expired by the wall clock before any sweep", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)
		f.clock.Advance(time.Hour)

		// Act
		_, err := f.service.Get(context.Background(), created.ID)

		// Assert
		assert.ErrorIs(t, err, domain.ErrSessionExpired)
	})

	t.Run("error - unknown session", func(t *testing.T) {
		// Arrange
		f := newFixture()

		// Act
		_, err := f.service.Get(context.Background(), uuid.New())

		// Assert
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("error - purged session reports expired", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)
		f.storage.On("DeletePrefix", mock.Anything, domain.StoragePrefix(created.ID)).Return(nil)
		f.clock.Advance(2 * time.Hour)
		require.NoError(t, f.service.Expire(context.Background(), created.ID))
		require.NoError(t, f.service.Purge(context.Background(), created.ID))

		// Act
		_, err := f.service.Get(context.Background(), created.ID)

		// Assert
		assert.ErrorIs(t, err, domain.ErrSessionExpired)
	})
}

func TestSessionService_Purge(t *testing.T) {
	ctx := context.Background()

	t.Run("success - deletes storage once and is idempotent", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)
		f.storage.On("DeletePrefix", ctx, domain.StoragePrefix(created.ID)).Return(nil).Once()

		// Act
		err := f.service.Purge(ctx, created.ID)
		again := f.service.Purge(ctx, created.ID)

		// Assert
		require.NoError(t, err)
		require.NoError(t, again)
		f.storage.AssertNumberOfCalls(t, "DeletePrefix", 1)
		tombstone, findErr := f.repo.FindByID(ctx, created.ID)
		require.NoError(t, findErr)
		assert.Equal(t, domain.SessionStatusPurged, tombstone.Status)
		f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e domain.SessionEvent) bool {
			return e.Type == domain.EventTypeSessionPurged
		}))
	})

	t.Run("success - unknown session is a no-op", func(t *testing.T) {
		// Arrange
		f := newFixture()

		// Act
		err := f.service.Purge(ctx, uuid.New())

		// Assert
		assert.NoError(t, err)
		f.storage.AssertNotCalled(t, "DeletePrefix", mock.Anything, mock.Anything)
	})

	t.Run("error - leased session is not purged until released", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)
		f.storage.On("DeletePrefix", ctx, domain.StoragePrefix(created.ID)).Return(nil)
		_, release, err := f.service.Acquire(ctx, created.ID)
		require.NoError(t, err)

		// Act
		inUse := f.service.Purge(ctx, created.ID)
		release()
		release()
		purged := f.service.Purge(ctx, created.ID)

		// Assert
		assert.ErrorIs(t, inUse, domain.ErrSessionInUse)
		assert.NoError(t, purged)
		f.storage.AssertNumberOfCalls(t, "DeletePrefix", 1)
	})

	t.Run("error - storage failure keeps the session for a retry", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)
		f.storage.On("DeletePrefix", ctx, domain.StoragePrefix(created.ID)).Return(errors.New("disk offline")).Once()
		f.storage.On("DeletePrefix", ctx, domain.StoragePrefix(created.ID)).Return(nil).Once()

		// Act
		first := f.service.Purge(ctx, created.ID)
		_, _, acquireErr := f.service.Acquire(ctx, created.ID)
		second := f.service.Purge(ctx, created.ID)

		// Assert
		assert.Error(t, first)
		assert.ErrorIs(t, acquireErr, domain.ErrSessionExpired)
		assert.NoError(t, second)
	})
}

func TestSessionService_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("success - concurrent readers share a session", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)
		var wg sync.WaitGroup

		// Act
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, release, err := f.service.Acquire(ctx, created.ID)
				if assert.NoError(t, err) {
					assert.Equal(t, created.ID, s.ID)
					release()
				}
			}()
		}
		wg.Wait()

		// Assert
		f.storage.On("DeletePrefix", ctx, domain.StoragePrefix(created.ID)).Return(nil)
		assert.NoError(t, f.service.Purge(ctx, created.ID))
	})

	t.Run("error - expired session", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)
		f.clock.Advance(time.Hour)

		// Act
		_, release, err := f.service.Acquire(ctx, created.ID)

		// Assert
		assert.ErrorIs(t, err, domain.ErrSessionExpired)
		assert.Nil(t, release)
	})
}

func TestSessionService_Expire(t *testing.T) {
	ctx := context.Background()

	t.Run("success - flags once and publishes once", func(t *testing.T) {
		// Arrange
		f := newFixture()
		created := f.create(t)

		// Act
		require.NoError(t, f.service.Expire(ctx, created.ID))
		require.NoError(t, f.service.Expire(ctx, created.ID))

		// Assert
		found, err := f.repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusExpired, found.Status)

		expired := 0
		for _, call := range f.publisher.Calls {
			if e, ok := call.Arguments.Get(1).(domain.SessionEvent); ok && e.Type == domain.EventTypeSessionExpired {
				expired++
			}
		}
		assert.Equal(t, 1, expired)
	})
}
