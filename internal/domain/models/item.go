package models

import (
	"time"
)

// ItemType discriminates the concrete content entity behind an item
// reference. The core never inspects type-specific fields; the type key
// only routes operations to the matching content store.
type ItemType string

const (
	ItemTypeDocument ItemType = "document"
	ItemTypePost     ItemType = "post"
	ItemTypeMedia    ItemType = "media"
)

// ItemRef is a tagged reference to one content entity of any type
type ItemRef struct {
	Type ItemType `json:"type"`
	ID   string   `json:"id"`
}

// ItemSummary is the uniform projection every content store returns for
// its items. It carries exactly the placement contract (container, order,
// placed-at, placed-by) plus enough to render a display name; the core
// treats all types identically when aggregating, sorting, or moving.
type ItemSummary struct {
	ID          string     `json:"id"`
	Type        ItemType   `json:"type"`
	DisplayName string     `json:"display_name"`
	FolderID    *string    `json:"folder_id"` // NULL = unfiled
	OrderIndex  int        `json:"order_index"`
	AddedAt     *time.Time `json:"added_to_folder_at,omitempty"`
	AddedBy     *string    `json:"added_to_folder_by,omitempty"`
	TenantID    string     `json:"tenant_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
