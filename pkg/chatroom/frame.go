// Package chatroom provides the process-local chatroom substrate: the
// participant registry and the broadcast bus with its replay ring.
package chatroom

import (
	"time"

	"github.com/google/uuid"
)

// FrameKind discriminates message frames on the wire.
type FrameKind string

const (
	KindUser    FrameKind = "user"
	KindAI      FrameKind = "ai"
	KindPlanner FrameKind = "planner"
	KindError   FrameKind = "error"
)

// Frame is one chatroom message snapshot. Two frames with the same ID are
// successive snapshots of the same logical message: consumers replace by ID,
// and the replay ring keeps only the latest snapshot. Streaming marks an
// incremental snapshot; the final snapshot carries Streaming=false.
type Frame struct {
	ID        string    `json:"id"`
	Kind      FrameKind `json:"kind"`
	UserID    string    `json:"user_id,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	Agent     string    `json:"agent,omitempty"`   // set for ai frames
	Planner   string    `json:"planner,omitempty"` // set for planner frames
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Streaming bool      `json:"streaming"`
}

// NewFrame creates a frame with a fresh id and the current time.
func NewFrame(kind FrameKind, content string) Frame {
	return Frame{
		ID:        uuid.New().String(),
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}
}
