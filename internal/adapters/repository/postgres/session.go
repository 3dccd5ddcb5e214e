package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"formatwave/internal/core/domain"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SessionRepository stores sessions in PostgreSQL so they survive a restart
type SessionRepository struct {
	db *sql.DB
}

// NewSQLSessionRepository creates a SessionRepository
func NewSQLSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session with its artifacts and failures in one transaction
func (s *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	err := execute(ctx, s.db, func(tx SQLQuerier) error {
		query := `
			INSERT INTO conversion_session (
				id, conversion_id, status, total_converted, created_at, expires_at
			) VALUES ($1, $2, $3, $4, $5, $6)`

		if _, err := tx.ExecContext(ctx, query,
			session.ID,
			session.ConversionID,
			session.Status,
			session.TotalConverted,
			session.CreatedAt,
			session.ExpiresAt,
		); err != nil {
			return err
		}

		for position, artifact := range session.Artifacts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO result_artifact (
					id, session_id, position, original_name, converted_name, storage_key, size_bytes, content_type, previewable
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				artifact.ID,
				session.ID,
				position,
				artifact.OriginalName,
				artifact.ConvertedName,
				artifact.StorageKey,
				artifact.SizeBytes,
				artifact.ContentType,
				artifact.Previewable,
			); err != nil {
				return err
			}
		}

		for _, failure := range session.Failures {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO file_failure (session_id, position, filename, reason) VALUES ($1, $2, $3, $4)`,
				session.ID,
				failure.Position,
				failure.Filename,
				failure.Reason,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("session %s : %w", session.ID, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// FindByID loads a session with its artifacts and failures
func (s *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT id, conversion_id, status, total_converted, created_at, expires_at, purged_at
		FROM conversion_session
		WHERE id = $1`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	if session.Artifacts, err = s.findArtifacts(ctx, id); err != nil {
		return nil, err
	}
	if session.Failures, err = s.findFailures(ctx, id); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionRepository) findArtifacts(ctx context.Context, sessionID uuid.UUID) ([]domain.ResultArtifact, error) {
	query := `
		SELECT id, original_name, converted_name, storage_key, size_bytes, content_type, previewable
		FROM result_artifact
		WHERE session_id = $1
		ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []domain.ResultArtifact
	for rows.Next() {
		var a domain.ResultArtifact
		if err := rows.Scan(&a.ID, &a.OriginalName, &a.ConvertedName, &a.StorageKey, &a.SizeBytes, &a.ContentType, &a.Previewable); err != nil {
			return nil, err
		}
		a.SizeHuman = domain.HumanSize(a.SizeBytes)
		a.DownloadURL = domain.DownloadPath(sessionID, a.ID)
		if a.Previewable {
			a.PreviewURL = domain.PreviewPath(sessionID, a.ID)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

func (s *SessionRepository) findFailures(ctx context.Context, sessionID uuid.UUID) ([]domain.FileFailure, error) {
	query := `
		SELECT position, filename, reason
		FROM file_failure
		WHERE session_id = $1
		ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []domain.FileFailure
	for rows.Next() {
		var f domain.FileFailure
		if err := rows.Scan(&f.Position, &f.Filename, &f.Reason); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// FindAllExpired returns the active or expired sessions whose expiry is not after now.
// Artifacts and failures are not loaded.
func (s *SessionRepository) FindAllExpired(ctx context.Context, now time.Time) ([]domain.Session, error) {
	query := `
		SELECT id, conversion_id, status, total_converted, created_at, expires_at, purged_at
		FROM conversion_session
		WHERE status IN ('active', 'expired') AND expires_at <= $1
		ORDER BY expires_at`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// UpdateStatus changes the status of a session
func (s *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
	query := `UPDATE conversion_session SET status = $1 WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// MarkPurged turns the session into a tombstone and drops its artifacts and failures
func (s *SessionRepository) MarkPurged(ctx context.Context, id uuid.UUID, purgedAt time.Time) error {
	return execute(ctx, s.db, func(tx SQLQuerier) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE conversion_session SET status = 'purged', purged_at = $1 WHERE id = $2`,
			purgedAt, id)
		if err != nil {
			return err
		}
		if err := expectOneRow(result); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM result_artifact WHERE session_id = $1`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM file_failure WHERE session_id = $1`, id)
		return err
	})
}

// DeleteTombstones deletes sessions purged before purgedBefore
func (s *SessionRepository) DeleteTombstones(ctx context.Context, purgedBefore time.Time) (int, error) {
	query := `DELETE FROM conversion_session WHERE status = 'purged' AND purged_at < $1`

	result, err := s.db.ExecContext(ctx, query, purgedBefore)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		session  domain.Session
		purgedAt sql.NullTime
	)
	err := row.Scan(
		&session.ID,
		&session.ConversionID,
		&session.Status,
		&session.TotalConverted,
		&session.CreatedAt,
		&session.ExpiresAt,
		&purgedAt,
	)
	if err != nil {
		return nil, err
	}
	if purgedAt.Valid {
		t := purgedAt.Time
		session.PurgedAt = &t
	}
	return &session, nil
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
