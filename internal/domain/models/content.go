package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the type of Looker content handled by the cleanup.
type Kind string

const (
	KindDashboard Kind = "dashboard"
	KindLook      Kind = "look"
)

// ParseKind accepts the content_usage.content_type values reported by System Activity.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindDashboard:
		return KindDashboard, nil
	case KindLook:
		return KindLook, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string { return string(k) }

// Title returns the display form used in notifications.
func (k Kind) Title() string {
	switch k {
	case KindDashboard:
		return "Dashboard"
	case KindLook:
		return "Look"
	}
	return string(k)
}

// ContentItem is one row returned by a usage report.
type ContentItem struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"kind"`
	Title          string     `json:"title"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	FolderID       string     `json:"folder_id,omitempty"`
	FolderName     string     `json:"folder_name,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DaysInTrash    *int       `json:"days_in_trash,omitempty"`
}

// State derives the lifecycle state from the platform's trash marker.
func (c ContentItem) State() LifecycleState {
	if c.DeletedAt != nil || c.DaysInTrash != nil {
		return StateSoftDeleted
	}
	return StateActive
}

// Folder returns the folder name, falling back to its id.
func (c ContentItem) Folder() string {
	if c.FolderName != "" {
		return c.FolderName
	}
	if c.FolderID != "" {
		return c.FolderID
	}
	return "-"
}

// InactiveDays is the number of whole days since the item was last accessed.
func (c ContentItem) InactiveDays(now time.Time) int {
	return AgeDays(now, c.LastAccessedAt)
}

// TrashDays is the number of whole days the item has been soft deleted.
// ok is false when the item carries no trash information.
func (c ContentItem) TrashDays(now time.Time) (days int, ok bool) {
	if c.DaysInTrash != nil {
		return *c.DaysInTrash, true
	}
	if c.DeletedAt != nil {
		return AgeDays(now, *c.DeletedAt), true
	}
	return 0, false
}

// AgeDays returns floor((now - t) / 24h). A zero t counts as infinitely old.
func AgeDays(now, t time.Time) int {
	if t.IsZero() {
		return int(^uint(0) >> 1)
	}
	return int(now.Sub(t) / (24 * time.Hour))
}
