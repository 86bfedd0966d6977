package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/realtime"
	"github.com/vietanh2810/encore-api/internal/service"
)

var publicTopics = []string{service.TopicChat, service.TopicGames, service.TopicGuestbook, service.TopicEvent}

var adminTopics = map[string]bool{service.TopicAdmin: true, service.TopicRoster: true}

type ChatService interface {
	Post(ctx context.Context, session domain.SessionState, text string) (domain.ChatMessage, error)
	Messages(ctx context.Context, limit, offset int) ([]domain.ChatMessage, error)
}

type SessionLoader interface {
	Current(ctx context.Context, id string) (domain.SessionState, error)
}

type ChatHandler struct {
	svc      ChatService
	sessions SessionLoader
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewChatHandler(svc ChatService, sessions SessionLoader, hub *realtime.Hub, allowedOrigins []string) *ChatHandler {
	return &ChatHandler{
		svc:      svc,
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// HandleWebSocket godoc
// @Summary      Subscribe to realtime topics
// @Description  Upgrades to a websocket. Events arrive as {topic, type, payload, at}. Send {"type":"chat","text":"..."} to post in the chat room. The admin and roster topics need an admin session.
// @Tags         realtime
// @Param        topics  query     string  false  "comma separated topics, default chat,games,guestbook,event"
// @Param        token   query     string  false  "session token when the Authorization header cannot be set"
// @Success      101     {string}  string  "Switching Protocols"
// @Failure      401     {object}  response.Err
// @Router       /ws [get]
// @Security BearerAuth
func (h *ChatHandler) HandleWebSocket(ctx *gin.Context) {
	state, respErr := getSessionFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	topics := requestedTopics(ctx.Query("topics"), state.IsAdmin())

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := realtime.NewClient(h.hub, conn, state.ID, topics)
	client.Serve(ctx.Request.Context(), h.handleInbound)
}

func (h *ChatHandler) handleInbound(ctx context.Context, c *realtime.Client, msg realtime.InboundMessage) {
	if msg.Type != "chat" {
		return
	}

	// Re-read so a nickname change made over HTTP is picked up.
	state, err := h.sessions.Current(ctx, c.SessionID)
	if err != nil {
		zap.L().Warn("failed to load session for chat message", zap.String("sessionID", c.SessionID), zap.Error(err))
		c.Reply(service.TopicChat, "error", "session unavailable")
		return
	}

	if _, err := h.svc.Post(ctx, state, msg.Text); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidChatMessage), errors.Is(err, service.ErrNoActiveSession):
			c.Reply(service.TopicChat, "error", err.Error())
		default:
			zap.L().Error("failed to post chat message", zap.String("sessionID", c.SessionID), zap.Error(err))
			c.Reply(service.TopicChat, "error", "message could not be saved")
		}
	}
}

// HandleGetChatMessages godoc
// @Summary      Chat history
// @Description  Returns up to limit messages, oldest first. offset skips that many of the newest messages.
// @Tags         chat
// @Produce      json
// @Param        limit   query     int  false  "number of messages (default 50, max 300)"
// @Param        offset  query     int  false  "newest messages to skip (default 0)"
// @Success      200     {array}   domain.ChatMessage
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /chat/messages [get]
// @Security BearerAuth
func (h *ChatHandler) HandleGetChatMessages(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	offset, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid offset %q", ctx.Query("offset"))))
		return
	}

	messages, err := h.svc.Messages(ctx.Request.Context(), limit, offset)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetChatMessages -> h.svc.Messages -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

func requestedTopics(raw string, isAdmin bool) []string {
	if strings.TrimSpace(raw) == "" {
		return publicTopics
	}

	var topics []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || (adminTopics[t] && !isAdmin) {
			continue
		}
		topics = append(topics, t)
	}

	return topics
}

// originChecker allows every origin when none is configured or "*" is listed.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}
