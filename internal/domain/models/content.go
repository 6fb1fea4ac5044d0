package models

import (
	"time"
)

// Placement is the four-field contract shared by every folderable entity:
// which container it sits in, where it sorts inside that container, and
// who placed it when. Embedded by each concrete content model.
type Placement struct {
	FolderID   *string    `json:"folder_id" db:"folder_id"` // NULL = unfiled
	OrderIndex int        `json:"order_index" db:"order_index"`
	AddedAt    *time.Time `json:"added_to_folder_at,omitempty" db:"added_to_folder_at"`
	AddedBy    *string    `json:"added_to_folder_by,omitempty" db:"added_to_folder_by"`
}

// Document is a text content entity. Only the embedded Placement belongs
// to the folder core; everything else is owned by the document store.
type Document struct {
	ID          string `json:"id" db:"id"`
	TenantID    string `json:"tenant_id" db:"tenant_id"`
	Title       string `json:"title" db:"title"`
	Body        string `json:"body" db:"body"`
	ContentType string `json:"content_type" db:"content_type"` // extension-like suffix, e.g. "md"
	Placement
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PostStatus is the publication state of a post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Post is a publishable content entity
type Post struct {
	ID       string     `json:"id" db:"id"`
	TenantID string     `json:"tenant_id" db:"tenant_id"`
	Title    string     `json:"title" db:"title"`
	Body     string     `json:"body" db:"body"`
	Status   PostStatus `json:"status" db:"status"`
	Placement
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MediaAsset is an uploaded binary content entity. The binary itself lives
// in object storage; this row only carries metadata and placement.
type MediaAsset struct {
	ID        string `json:"id" db:"id"`
	TenantID  string `json:"tenant_id" db:"tenant_id"`
	FileName  string `json:"file_name" db:"file_name"`
	MimeType  string `json:"mime_type" db:"mime_type"`
	SizeBytes int64  `json:"size_bytes" db:"size_bytes"`
	Placement
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
