package api

import (
	"time"

	"github.com/tripwise/tripchat/pkg/chatroom"
)

// chatEmitter receives orchestrator output for one /chat request. Every
// event goes to the requester's SSE stream, and message content is mirrored
// to the broadcast bus as frame snapshots so /events subscribers see the
// same stream. One logical message keeps one frame id across snapshots.
type chatEmitter struct {
	send        func(payload any)
	bus         *chatroom.Bus
	participant chatroom.Participant

	agent         string
	aiFrame       *chatroom.Frame
	plannerFrames map[string]*chatroom.Frame
}

func newChatEmitter(send func(payload any), bus *chatroom.Bus, p chatroom.Participant) *chatEmitter {
	return &chatEmitter{
		send:          send,
		bus:           bus,
		participant:   p,
		plannerFrames: make(map[string]*chatroom.Frame),
	}
}

func (e *chatEmitter) Agent(agent string) {
	e.agent = agent
	e.send(chatEvent{Type: eventAgent, Agent: agent})
}

func (e *chatEmitter) Chunk(delta string) {
	e.send(chatEvent{Type: eventChunk, Content: delta})

	if e.aiFrame == nil {
		frame := chatroom.NewFrame(chatroom.KindAI, "")
		frame.Agent = e.agent
		frame.Streaming = true
		e.aiFrame = &frame
	}
	e.aiFrame.Content += delta
	e.publishSnapshot(*e.aiFrame)
}

func (e *chatEmitter) PlannerStart(planner string) {
	e.send(chatEvent{Type: eventPlannerStart, Planner: planner})

	frame := chatroom.NewFrame(chatroom.KindPlanner, "")
	frame.Planner = planner
	frame.Streaming = true
	e.plannerFrames[planner] = &frame
	e.publishSnapshot(frame)
}

func (e *chatEmitter) PlannerChunk(planner, delta string) {
	e.send(chatEvent{Type: eventPlannerChunk, Planner: planner, Content: delta})

	if frame, ok := e.plannerFrames[planner]; ok {
		frame.Content += delta
		e.publishSnapshot(*frame)
	}
}

func (e *chatEmitter) PlannerComplete(planner, content string) {
	e.send(chatEvent{Type: eventPlannerComplete, Planner: planner, Content: content})

	frame, ok := e.plannerFrames[planner]
	if !ok {
		f := chatroom.NewFrame(chatroom.KindPlanner, "")
		f.Planner = planner
		frame = &f
	}
	frame.Content = content
	frame.Streaming = false
	frame.Timestamp = time.Now()
	e.publishSnapshot(*frame)
	delete(e.plannerFrames, planner)
}

func (e *chatEmitter) BillIDs(ids []int64) {
	e.send(chatEvent{Type: eventBillIDs, BillIDs: ids})
}

func (e *chatEmitter) Error(message string) {
	e.send(chatEvent{Type: eventError, Message: message})

	frame := chatroom.NewFrame(chatroom.KindError, message)
	e.publishSnapshot(frame)
}

// finish seals the in-flight ai frame, if any. Planner frames seal in
// PlannerComplete.
func (e *chatEmitter) finish() {
	if e.aiFrame != nil {
		e.aiFrame.Streaming = false
		e.publishSnapshot(*e.aiFrame)
		e.aiFrame = nil
	}
}

func (e *chatEmitter) publishSnapshot(frame chatroom.Frame) {
	e.bus.Publish(frame)
}
