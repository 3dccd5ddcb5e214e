package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle status of a session
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusExpired SessionStatus = "expired"
	SessionStatusPurged  SessionStatus = "purged"
)

// ResultArtifact represents a converted file belonging to a session
type ResultArtifact struct {
	ID            uuid.UUID
	OriginalName  string
	ConvertedName string
	StorageKey    string
	SizeBytes     int64
	SizeHuman     string
	ContentType   string
	Previewable   bool
	PreviewURL    string
	DownloadURL   string
}

// Session represents the outcome of one batch conversion request
type Session struct {
	ID             uuid.UUID
	ConversionID   string
	Artifacts      []ResultArtifact
	Failures       []FileFailure
	TotalConverted int
	Status         SessionStatus
	CreatedAt      time.Time
	ExpiresAt      time.Time
	PurgedAt       *time.Time
}

// IsExpired compares the session expiry against now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Artifact finds an artifact by id
func (s *Session) Artifact(id uuid.UUID) (*ResultArtifact, bool) {
	for i := range s.Artifacts {
		if s.Artifacts[i].ID == id {
			return &s.Artifacts[i], true
		}
	}
	return nil, false
}

// Clone returns a copy that does not share slices with s
func (s Session) Clone() Session {
	s.Artifacts = append([]ResultArtifact(nil), s.Artifacts...)
	s.Failures = append([]FileFailure(nil), s.Failures...)
	if s.PurgedAt != nil {
		purgedAt := *s.PurgedAt
		s.PurgedAt = &purgedAt
	}
	return s
}

// StoragePrefix returns the namespace holding every object of a session
func StoragePrefix(sessionID uuid.UUID) string {
	return sessionID.String() + "/"
}

// StorageKey returns the key of an artifact inside its session namespace
func StorageKey(sessionID, artifactID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%s.%s", StoragePrefix(sessionID), artifactID, ext)
}

// DownloadPath is the HTTP path to download one artifact
func DownloadPath(sessionID, artifactID uuid.UUID) string {
	return fmt.Sprintf("/download/%s/%s", sessionID, artifactID)
}

// PreviewPath is the HTTP path to preview one artifact
func PreviewPath(sessionID, artifactID uuid.UUID) string {
	return fmt.Sprintf("/preview/%s/%s", sessionID, artifactID)
}

// DownloadAllPath is the HTTP path to download a session bundle
func DownloadAllPath(sessionID uuid.UUID) string {
	return fmt.Sprintf("/download-all/%s", sessionID)
}

// HumanSize formats a byte count with binary units and one decimal
func HumanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 && size > -1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}
