package models

import (
	"time"
)

// PermissionLevel is an ordinal access rank. Levels compare by Rank, so
// "at least write" style checks work across the whole set.
type PermissionLevel string

const (
	// PermissionNone is the zero value: no grant anywhere on the
	// ancestor path. It is a legitimate lookup result, not an error.
	PermissionNone PermissionLevel = ""

	PermissionRead  PermissionLevel = "read"
	PermissionWrite PermissionLevel = "write"
	PermissionAdmin PermissionLevel = "admin"
)

// Rank returns the ordinal value used for level comparison:
// read(1) < write(2) < admin(3). Unknown levels rank 0.
func (l PermissionLevel) Rank() int {
	switch l {
	case PermissionRead:
		return 1
	case PermissionWrite:
		return 2
	case PermissionAdmin:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether l satisfies the required level.
// PermissionNone never satisfies anything, including itself.
func (l PermissionLevel) AtLeast(required PermissionLevel) bool {
	return l.Rank() > 0 && l.Rank() >= required.Rank()
}

// Valid reports whether l is one of the known grantable levels
func (l PermissionLevel) Valid() bool {
	return l.Rank() > 0
}

// FolderPermission is an explicit access grant for one user on one folder.
// At most one grant exists per (folder, user) pair; re-granting replaces
// the prior grant atomically.
type FolderPermission struct {
	ID        string          `json:"id" db:"id"`
	FolderID  string          `json:"folder_id" db:"folder_id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Level     PermissionLevel `json:"level" db:"level"`
	TenantID  string          `json:"tenant_id" db:"tenant_id"`
	GrantedBy string          `json:"granted_by" db:"granted_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
