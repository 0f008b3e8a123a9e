package models

import "time"

type ApprovalRequest struct {
	ID             int64      `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	PostID         int64      `db:"post_id" json:"post_id"`
	Status         string     `db:"status" json:"status"`
	RequestedAt    time.Time  `db:"requested_at" json:"requested_at"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at"`
	ResolutionNote string     `db:"resolution_note" json:"resolution_note"`
}

const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)
