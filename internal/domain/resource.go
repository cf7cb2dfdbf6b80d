package domain

import "time"

// Audit provides the common audit envelope for every persisted record.
// It is embedded in all document types so the store can treat
// creation, modification, and soft-deletion uniformly.
type Audit struct {
	ID             string     `json:"id"`
	Created        time.Time  `json:"created"`
	LastModified   time.Time  `json:"last_modified"`
	LastModifiedBy string     `json:"last_modified_by,omitempty"`
	Deleted        *time.Time `json:"deleted,omitempty"`
}

// Init sets both timestamps to now and records the acting user.
// Call this when creating a new record.
func (a *Audit) Init(by string) {
	now := time.Now()
	a.Created = now
	a.LastModified = now
	a.LastModifiedBy = by
}

// Touch updates LastModified and the acting user.
// Call this whenever the underlying record changes.
func (a *Audit) Touch(by string) {
	a.LastModified = time.Now()
	a.LastModifiedBy = by
}

// IsDeleted returns true if this record has been soft-deleted.
func (a *Audit) IsDeleted() bool {
	return a.Deleted != nil
}

// MarkDeleted soft-deletes the record. Records are never physically
// removed; a soft-deleted row simply stops counting in queries.
func (a *Audit) MarkDeleted(by string) {
	now := time.Now()
	a.Deleted = &now
	a.LastModified = now
	a.LastModifiedBy = by
}
