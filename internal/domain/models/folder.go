package models

import (
	"time"
)

// Folder is a named container node in a per-tenant forest. ParentID is a
// key reference, never an owning pointer; traversal is iterative lookup
// by id, so the model carries no recursive structure.
type Folder struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	ParentID    *string   `json:"parent_folder_id" db:"parent_id"` // NULL = root level
	OrderIndex  int       `json:"order_index" db:"order_index"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Breadcrumb is one entry of a folder's ancestor trail. The first entry
// of every trail is the synthetic root marker {ID:"", Name:"Root"}.
type Breadcrumb struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsRoot bool   `json:"is_root,omitempty"`
}
