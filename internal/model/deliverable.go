package model

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// Deliverable is a document uploaded for a task.
// A deliverable is referenced by exactly one task pointer at a time, either
// as the staged upload or as the submitted version.
type Deliverable struct {
	// ID is the primary key of the deliverable.
	ID int64

	// TaskID is the owning task.
	TaskID int64

	// Filename is the name supplied by the uploader.
	Filename string

	// ContentType is the MIME type supplied by the uploader.
	ContentType string

	// Content holds the raw document bytes.
	Content []byte `json:"-"`

	// Checksum is the hex SHA3-256 digest of Content.
	Checksum string

	// SubmittedAt is when the upload happened.
	SubmittedAt time.Time

	// SubmittedBy is the uploading user.
	SubmittedBy int64
}

// Size returns the length of the document in bytes.
func (d *Deliverable) Size() int {
	return len(d.Content)
}

// Checksum returns the hex SHA3-256 digest of content.
func Checksum(content []byte) string {
	sum := sha3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
