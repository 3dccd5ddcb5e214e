package domain

import (
	"io"

	"github.com/google/uuid"
)

// UploadedFile represents a file received from a client, only alive during intake
type UploadedFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// StagedFile represents an accepted file copied into the session namespace
type StagedFile struct {
	Position     int
	OriginalName string
	Extension    string
	Path         string
	SizeBytes    int64
}

// StagedBatch represents a validated batch ready to be dispatched
type StagedBatch struct {
	SessionID uuid.UUID
	Spec      ConversionSpec
	WorkDir   string
	Files     []StagedFile
	Rejected  []FileFailure
}

// FileFailure represents a file that could not be converted
type FileFailure struct {
	Position int
	Filename string
	Reason   string
}

// ConversionOutcome is the result of one staged file: Artifacts on success, Failure otherwise
type ConversionOutcome struct {
	Position  int
	Artifacts []ResultArtifact
	Failure   *FileFailure
}

// Succeeded reports whether the outcome carries artifacts
func (o ConversionOutcome) Succeeded() bool {
	return o.Failure == nil
}
