package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"comictalk/infrastructure/ws"
	"comictalk/internal/metrics"
	"comictalk/internal/usecase"
	"comictalk/pkg/jwt"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type HandlerConfig struct {
	AllowedOrigins []string
	Client         ws.ClientConfig
	PersistTimeout time.Duration
}

type WebsocketHandler struct {
	hub       ws.IHub
	authUc    usecase.AuthUsecase
	userUc    usecase.UserUsecase
	messageUc usecase.MessageUsecase
	upgrader  websocket.Upgrader
	cfg       HandlerConfig
	log       zerolog.Logger
}

func NewWebsocketHandler(
	hub ws.IHub,
	authUc usecase.AuthUsecase,
	userUc usecase.UserUsecase,
	messageUc usecase.MessageUsecase,
	cfg HandlerConfig,
	log zerolog.Logger,
) *WebsocketHandler {
	origins := ws.NewOriginChecker(cfg.AllowedOrigins)
	return &WebsocketHandler{
		hub:       hub,
		authUc:    authUc,
		userUc:    userUc,
		messageUc: messageUc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.Check,
		},
		cfg: cfg,
		log: log,
	}
}

// HandleWebSocket authenticates the handshake, upgrades the connection and
// runs the chat session until the transport closes.
func (h *WebsocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := jwt.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		// Browsers cannot set headers on a websocket upgrade.
		token = r.URL.Query().Get("token")
	}

	claims, err := h.authUc.ValidateAccessToken(token)
	if err != nil {
		metrics.HandshakeFailures.Inc()
		h.log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket handshake rejected")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", claims.UserId).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(claims.UserId, conn, h.cfg.Client, h.log)
	session := NewSession(client, h.hub, h.messageUc, h.userUc, h.log)
	if h.cfg.PersistTimeout > 0 {
		session.persistTimeout = h.cfg.PersistTimeout
	}
	defer session.Close()

	ctx := r.Context()
	go client.WritePump()

	if err := session.Activate(ctx); err != nil {
		h.log.Error().Err(err).Msg("activate session")
		return
	}

	client.ReadPump(func(data []byte) {
		session.Dispatch(ctx, data)
	}, session.Throttled)
}
