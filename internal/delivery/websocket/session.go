package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"comictalk/infrastructure/ws"
	"comictalk/internal/entity"
	"comictalk/internal/metrics"
	"comictalk/internal/usecase"

	"github.com/rs/zerolog"
)

type SessionState int

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const defaultPersistTimeout = 10 * time.Second

var ErrSessionNotAuthenticated = errors.New("session is not in the authenticated state")

// Session is the chat protocol state machine for one authenticated connection.
// Dispatch must be called from a single goroutine.
type Session struct {
	client    *ws.UserClient
	hub       ws.IHub
	messageUc usecase.MessageUsecase
	userUc    usecase.UserUsecase
	log       zerolog.Logger

	persistTimeout time.Duration

	mu    sync.Mutex
	state SessionState
}

// NewSession creates a session for a client whose identity was already
// verified at the handshake.
func NewSession(client *ws.UserClient, hub ws.IHub, messageUc usecase.MessageUsecase, userUc usecase.UserUsecase, log zerolog.Logger) *Session {
	return &Session{
		client:         client,
		hub:            hub,
		messageUc:      messageUc,
		userUc:         userUc,
		log:            log.With().Int64("user_id", client.UserId).Str("session_id", client.SessionId).Logger(),
		persistTimeout: defaultPersistTimeout,
		state:          StateAuthenticated,
	}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) UserId() int64 {
	return s.client.UserId
}

// Activate registers presence, records activity and announces the new online set.
func (s *Session) Activate(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return ErrSessionNotAuthenticated
	}
	s.state = StateActive
	s.mu.Unlock()

	if replaced := s.hub.Presence().Register(s.client); replaced != nil {
		s.log.Info().Str("replaced_session", replaced.SessionId).Msg("newer connection took over presence")
	}
	metrics.OnlineUsers.Set(float64(s.hub.Presence().Count()))

	s.touch(ctx)
	s.hub.NotifyPresenceChanged()

	s.log.Info().Msg("session active")
	return nil
}

// Dispatch handles one raw frame. Frames are ignored unless the session is active.
func (s *Session) Dispatch(ctx context.Context, raw []byte) {
	if s.State() != StateActive {
		return
	}

	var event entity.Event
	if err := json.Unmarshal(raw, &event); err != nil || event.Event == "" {
		s.fail("unknown", "invalid event format")
		return
	}

	switch event.Event {
	case entity.EventJoinChat:
		s.handleJoinChat(event.Data)
	case entity.EventSendMessage:
		s.handleSendMessage(ctx, event.Data)
	case entity.EventMarkAsRead:
		s.handleMarkAsRead(ctx, event.Data)
	default:
		s.fail("unknown", "unknown event: "+event.Event)
	}
}

// Throttled tells the connection that a frame was dropped by the rate limiter.
func (s *Session) Throttled() {
	metrics.RateLimitHits.WithLabelValues("ws").Inc()
	s.fail("rateLimited", "rate limit exceeded; event dropped")
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	wasActive := s.state == StateActive
	s.state = StateClosed
	s.mu.Unlock()

	s.hub.LeaveAll(s.client)
	s.client.Close()

	if !wasActive {
		return
	}

	released := s.hub.Presence().Release(s.client.UserId, s.client)
	metrics.OnlineUsers.Set(float64(s.hub.Presence().Count()))
	s.touch(context.Background())
	if released {
		s.hub.NotifyPresenceChanged()
	}

	s.log.Info().Msg("session closed")
}

func (s *Session) handleJoinChat(data json.RawMessage) {
	var otherUserId int64
	if err := json.Unmarshal(data, &otherUserId); err != nil || otherUserId <= 0 {
		s.fail(entity.EventJoinChat, "joinChat expects a positive user id")
		return
	}

	s.hub.Join(s.client, ws.RoomKey(s.client.UserId, otherUserId))
	metrics.EventsTotal.WithLabelValues(entity.EventJoinChat, "ok").Inc()
}

func (s *Session) handleSendMessage(ctx context.Context, data json.RawMessage) {
	var req entity.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.fail(entity.EventSendMessage, "sendMessage expects {receiverId, message}")
		return
	}

	persistCtx, cancel := s.persistContext(ctx)
	defer cancel()

	message, err := s.messageUc.Send(persistCtx, s.client.UserId, req.ReceiverId, req.Message)
	if err != nil {
		s.fail(entity.EventSendMessage, PublicMessage(err))
		return
	}
	metrics.MessagesSent.WithLabelValues("ws").Inc()
	metrics.EventsTotal.WithLabelValues(entity.EventSendMessage, "ok").Inc()

	payload, err := entity.EncodeEvent(entity.EventNewMessage, message)
	if err != nil {
		s.log.Error().Err(err).Msg("encode newMessage")
		return
	}

	targets := s.hub.RoomMembers(ws.RoomKey(message.SenderId, message.ReceiverId))
	if receiver, ok := s.hub.Presence().HandleFor(message.ReceiverId); ok {
		targets = append([]*ws.UserClient{receiver}, targets...)
	}
	s.hub.Deliver(payload, targets...)
}

func (s *Session) handleMarkAsRead(ctx context.Context, data json.RawMessage) {
	var senderId int64
	if err := json.Unmarshal(data, &senderId); err != nil {
		s.fail(entity.EventMarkAsRead, "markAsRead expects a sender id")
		return
	}

	persistCtx, cancel := s.persistContext(ctx)
	defer cancel()

	if _, err := s.messageUc.MarkRead(persistCtx, senderId, s.client.UserId); err != nil {
		s.fail(entity.EventMarkAsRead, PublicMessage(err))
		return
	}
	metrics.EventsTotal.WithLabelValues(entity.EventMarkAsRead, "ok").Inc()
}

// persistContext detaches storage calls from the connection so an in-flight
// write completes after a disconnect.
func (s *Session) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
}

func (s *Session) touch(ctx context.Context) {
	touchCtx, cancel := s.persistContext(ctx)
	defer cancel()
	if err := s.userUc.Touch(touchCtx, s.client.UserId); err != nil {
		s.log.Warn().Err(err).Msg("record last seen")
	}
}

// fail reports an event failure to this connection only.
func (s *Session) fail(event, message string) {
	metrics.EventsTotal.WithLabelValues(event, "error").Inc()
	s.log.Debug().Str("event", event).Str("reason", message).Msg("event rejected")

	payload, err := entity.EncodeEvent(entity.EventError, entity.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	s.client.Send(payload)
}

// PublicMessage is the client-facing text for a use-case error. Anything
// outside the error taxonomy is reported generically.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrNotFound),
		errors.Is(err, usecase.ErrConflict),
		errors.Is(err, usecase.ErrAuthentication),
		errors.Is(err, usecase.ErrPersistence):
		return err.Error()
	default:
		return "internal error"
	}
}
