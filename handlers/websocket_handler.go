package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/hoops-predictor/chat"
	"github.com/Dosada05/hoops-predictor/middleware"
	"github.com/Dosada05/hoops-predictor/services"
)

type ChatHandler struct {
	chatService services.ChatService
	hub         *chat.Hub
	tokens      *middleware.TokenManager
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewChatHandler accepts websocket upgrades only from allowedOrigins; "*" allows any origin.
func NewChatHandler(cs services.ChatService, hub *chat.Hub, tokens *middleware.TokenManager, allowedOrigins []string, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: cs,
		hub:         hub,
		tokens:      tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Не браузерные клиенты Origin не присылают
		return origin == "" || set[origin]
	}
}

// HistoryHandler обрабатывает GET /api/chat/history?limit=
func (h *ChatHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	messages, err := h.chatService.History(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"messages": messages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ServeWs обрабатывает GET /ws/chat?token=. Токен проверяется до апгрейда.
func (h *ChatHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		unauthorizedResponse(w, r, "token query parameter is required")
		return
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	identity := chat.Identity{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}
	client := chat.NewClient(h.hub, conn, identity, h.chatService, h.logger)
	if err := h.hub.Register(client); err != nil {
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump(r.Context())
}
