package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"comictalk/infrastructure/ws"
	"comictalk/internal/entity"
	"comictalk/internal/metrics"
	"comictalk/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HttpHandler struct {
	messageUc usecase.MessageUsecase
	userUc    usecase.UserUsecase
	hub       ws.IHub
	health    HealthCheck
	log       zerolog.Logger
}

func NewHttpHandler(messageUc usecase.MessageUsecase, userUc usecase.UserUsecase, hub ws.IHub, health HealthCheck, log zerolog.Logger) *HttpHandler {
	return &HttpHandler{
		messageUc: messageUc,
		userUc:    userUc,
		hub:       hub,
		health:    health,
		log:       log,
	}
}

// Method Get /api/chat/messages/{userId}
func (h *HttpHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	otherUserId, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	messages, err := h.messageUc.Between(r.Context(), claims.UserId, otherUserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "success", messages)
}

// Method Get /api/chat/conversations
func (h *HttpHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	conversations, err := h.messageUc.ConversationsFor(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "success", conversations)
}

// Method Post /api/chat/send
func (h *HttpHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	var req entity.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.messageUc.Send(r.Context(), claims.UserId, req.ReceiverId, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.MessagesSent.WithLabelValues("http").Inc()

	// Keep a connected receiver in sync with messages sent over REST.
	if payload, err := entity.EncodeEvent(entity.EventNewMessage, message); err == nil {
		h.hub.SendToUser(message.ReceiverId, payload)
	} else {
		h.log.Error().Err(err).Msg("encode newMessage")
	}

	writeJSON(w, http.StatusCreated, "message sent", message)
}

// Method Put /api/chat/mark-read/{senderId}
func (h *HttpHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	senderId, ok := idParam(w, r, "senderId")
	if !ok {
		return
	}

	updated, err := h.messageUc.MarkRead(r.Context(), senderId, claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "messages marked as read", map[string]int64{"updated": updated})
}

// Method Get /api/chat/online-users
func (h *HttpHandler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	ids := h.hub.Presence().ListOnline()

	users, err := h.userUc.GetMany(r.Context(), ids)
	if err != nil {
		writeError(w, err)
		return
	}

	summaries := make([]entity.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, user.Summary())
	}

	writeJSON(w, http.StatusOK, "success", summaries)
}

// Method Get /health
func (h *HttpHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":      "ok",
		"onlineUsers": h.hub.GetClientCount(),
		"time":        time.Now().UTC(),
	}

	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			h.log.Warn().Err(err).Msg("health check failed")
			status["status"] = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, "unhealthy", status)
			return
		}
	}

	writeJSON(w, http.StatusOK, "healthy", status)
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}
