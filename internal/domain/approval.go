package domain

import (
	"context"
	"time"
)

// Approval statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// PendingAction is a destructive agent operation waiting for the user.
type PendingAction struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Metadata    string    `json:"metadata"` // JSON, e.g. the shape ids to highlight
	CreatedAt   time.Time `json:"createdAt"`
}

// ApprovalStore lets a headless agent process and the desktop app share
// approval requests through the database.
type ApprovalStore interface {
	CreateApproval(ctx context.Context, a *PendingAction) error
	ApprovalStatus(ctx context.Context, id string) (string, error)
	ResolveApproval(ctx context.Context, id string, approved bool) error
	DeleteApproval(ctx context.Context, id string) error
	ListPendingApprovals(ctx context.Context) ([]PendingAction, error)
}
