// Package api is the HTTP edge: request intake on /chat, the /events
// subscription stream, participant issuance, and the bills and
// travel-plans retrieval endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tripwise/tripchat/pkg/chatroom"
	"github.com/tripwise/tripchat/pkg/orchestrator"
	"github.com/tripwise/tripchat/pkg/storage"
)

// heartbeatInterval is the idle keepalive on /events.
const heartbeatInterval = time.Second

const errNotConfigured = "OPENAI_API_KEY is not configured; the assistant cannot respond"

// Server carries the handlers' collaborators.
type Server struct {
	orch          *orchestrator.Orchestrator
	registry      *chatroom.Registry
	bus           *chatroom.Bus
	store         *storage.Store
	llmConfigured bool
	heartbeat     time.Duration
}

// NewServer builds the HTTP server facade.
func NewServer(orch *orchestrator.Orchestrator, registry *chatroom.Registry, bus *chatroom.Bus, store *storage.Store, llmConfigured bool) *Server {
	return &Server{
		orch:          orch,
		registry:      registry,
		bus:           bus,
		store:         store,
		llmConfigured: llmConfigured,
		heartbeat:     heartbeatInterval,
	}
}

// Router assembles the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), corsMiddleware())

	r.POST("/chat", s.handleChat)
	r.GET("/events", s.handleEvents)
	r.GET("/user", s.handleUser)
	r.POST("/user", s.handleUser)
	r.GET("/health", s.handleHealth)

	r.GET("/bills", s.handleListBills)
	r.POST("/bills", s.handleCreateBills)
	r.GET("/bills/:id", s.handleGetBill)
	r.GET("/travel-plans", s.handleListPlans)
	r.GET("/travel-plans/:id", s.handleGetPlan)

	return r
}

// sseSender prepares c for server-sent events and returns the payload
// writer. Returns nil when the connection cannot stream.
func sseSender(c *gin.Context) func(payload any) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return nil
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	return func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		flusher.Flush()
	}
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = c.GetHeader("X-User-ID")
	}
	participant, _ := s.registry.Ensure(userID)

	send := sseSender(c)
	if send == nil {
		return
	}
	send(chatEvent{Type: eventStart, UserID: participant.ID, UserName: participant.Name})

	// Echo the utterance to the room before any planner output.
	userFrame := chatroom.NewFrame(chatroom.KindUser, message)
	userFrame.UserID = participant.ID
	userFrame.UserName = participant.Name
	s.bus.Publish(userFrame)

	if !s.llmConfigured {
		send(chatEvent{Type: eventError, Message: errNotConfigured})
		s.bus.Publish(chatroom.NewFrame(chatroom.KindError, errNotConfigured))
		send(chatEvent{Type: eventComplete})
		return
	}

	em := newChatEmitter(send, s.bus, participant)
	_ = s.orch.HandleUtterance(c.Request.Context(), em, participant.ID, message)
	em.finish()
	send(chatEvent{Type: eventComplete})
}

func (s *Server) handleEvents(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		userID = c.GetHeader("X-User-ID")
	}
	participant, _ := s.registry.Ensure(userID)

	send := sseSender(c)
	if send == nil {
		return
	}
	if !s.llmConfigured {
		send(chatEvent{Type: eventError, Message: errNotConfigured})
	}

	sub := s.bus.Subscribe(participant.ID)
	defer sub.Close()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sub.C():
			if !ok {
				return
			}
			send(newRoomEvent(frame))
			// Heartbeats are idle keepalives; a delivered frame pushes
			// the next one back.
			heartbeat.Reset(s.heartbeat)
		case <-heartbeat.C:
			send(chatEvent{Type: eventHeartbeat})
		}
	}
}

func (s *Server) handleUser(c *gin.Context) {
	var userID string
	if c.Request.Method == http.MethodPost {
		var req struct {
			UserID string `json:"user_id"`
		}
		_ = c.ShouldBindJSON(&req)
		userID = req.UserID
	} else {
		userID = c.Query("user_id")
		if userID != "" {
			participant, ok := s.registry.Lookup(userID)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown user_id"})
				return
			}
			c.JSON(http.StatusOK, participant)
			return
		}
	}

	participant, _ := s.registry.Ensure(userID)
	c.JSON(http.StatusOK, participant)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.DB().PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":           "unhealthy",
			"model_configured": s.llmConfigured,
			"error":            err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"model_configured": s.llmConfigured,
		"database":         "connected",
	})
}

type billPayload struct {
	Topic        string   `json:"topic"`
	Payer        string   `json:"payer"`
	Participants []string `json:"participants"`
	Amount       float64  `json:"amount"`
	Currency     string   `json:"currency"`
	Note         string   `json:"note"`
}

func (s *Server) handleCreateBills(c *gin.Context) {
	var req struct {
		Bills     []billPayload `json:"bills"`
		UserInput string        `json:"user_input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Bills) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bills array is required"})
		return
	}

	var created []storage.Bill
	for _, payload := range req.Bills {
		if payload.Topic == "" || payload.Amount <= 0 {
			continue
		}
		bill := &storage.Bill{
			Topic:        payload.Topic,
			Payer:        payload.Payer,
			Participants: payload.Participants,
			Amount:       payload.Amount,
			Currency:     payload.Currency,
			Note:         payload.Note,
			UserInput:    req.UserInput,
		}
		if err := s.store.SaveBill(c.Request.Context(), bill); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save bill"})
			return
		}
		created = append(created, *bill)
	}
	if len(created) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid bills in request"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bills": created})
}

func (s *Server) handleListBills(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	bills, total, err := s.store.ListBills(c.Request.Context(), storage.BillQuery{
		Payer:   c.Query("payer"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bills"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bills":    bills,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (s *Server) handleGetBill(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bill id"})
		return
	}
	bill, err := s.store.GetBill(c.Request.Context(), id)
	if err == storage.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "bill not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get bill"})
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (s *Server) handleListPlans(c *gin.Context) {
	plans, err := s.store.ListTravelPlans(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list travel plans"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"travel_plans": plans})
}

func (s *Server) handleGetPlan(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid travel plan id"})
		return
	}
	plan, err := s.store.GetTravelPlan(c.Request.Context(), id)
	if err == storage.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "travel plan not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get travel plan"})
		return
	}
	c.JSON(http.StatusOK, plan)
}
