package api

import "github.com/tripwise/tripchat/pkg/chatroom"

// SSE event types sent on /chat.
const (
	eventStart           = "start"
	eventAgent           = "agent"
	eventChunk           = "chunk"
	eventPlannerStart    = "planner_start"
	eventPlannerChunk    = "planner_chunk"
	eventPlannerComplete = "planner_complete"
	eventBillIDs         = "bill_ids"
	eventComplete        = "complete"
	eventError           = "error"
	eventHeartbeat       = "heartbeat"
)

// chatEvent is one typed SSE payload on the /chat stream. Fields are
// type-specific; unused ones are omitted.
type chatEvent struct {
	Type     string  `json:"type"`
	UserID   string  `json:"user_id,omitempty"`
	UserName string  `json:"user_name,omitempty"`
	Agent    string  `json:"agent,omitempty"`
	Planner  string  `json:"planner,omitempty"`
	Content  string  `json:"content,omitempty"`
	BillIDs  []int64 `json:"bill_ids,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// roomEvent is one payload on the /events stream: a frame snapshot tagged
// with its kind. Consumers replace by id.
type roomEvent struct {
	Type string `json:"type"`
	chatroom.Frame
}

func newRoomEvent(frame chatroom.Frame) roomEvent {
	return roomEvent{Type: string(frame.Kind), Frame: frame}
}
