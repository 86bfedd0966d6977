package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/pkg/jwthelper"
)

const (
	ContextKeySessionID = "sessionID"
	ContextKeySession   = "session"
)

var (
	errMissingToken  = errors.New("missing bearer token")
	errNotAnAttendee = errors.New("an attendee session is required")
	errNotAnAdmin    = errors.New("an admin session is required")
	errSessionLookup = errors.New("failed to load session")
)

type SessionLoader interface {
	Current(ctx context.Context, id string) (domain.SessionState, error)
}

type Authenticator struct {
	signingKey []byte
	sessions   SessionLoader
}

func NewAuthenticator(signingKey string, sessions SessionLoader) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
		sessions:   sessions,
	}
}

// VerifyJWT rejects requests without a valid token and loads the session the
// token points at. Browsers that cannot set headers (websocket) may pass the
// token as ?token=.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		if !a.loadSession(ctx, claims.SessionID) {
			return
		}
		ctx.Next()
	}
}

// OptionalJWT is VerifyJWT for endpoints that also serve anonymous callers.
// An invalid token is treated as absent.
func (a *Authenticator) OptionalJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := bearerToken(ctx); token != "" {
			if claims, err := jwthelper.ParseToken(a.signingKey, token); err == nil {
				if !a.loadSession(ctx, claims.SessionID) {
					return
				}
			}
		}
		ctx.Next()
	}
}

func (a *Authenticator) loadSession(ctx *gin.Context, id string) bool {
	if id == "" {
		response.RenderErr(ctx, response.ErrUnauthorized(jwthelper.ErrInvalidToken))
		return false
	}

	state, err := a.sessions.Current(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(errors.Join(errSessionLookup, err)))
		return false
	}
	ctx.Set(ContextKeySessionID, id)
	ctx.Set(ContextKeySession, state)

	return true
}

// RequireAttendee must run after VerifyJWT.
func RequireAttendee() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		state, _ := SessionFromContext(ctx)
		if !state.IsAttendee() && !state.IsAdmin() {
			response.RenderErr(ctx, response.ErrUnauthorized(errNotAnAttendee))
			return
		}
		ctx.Next()
	}
}

// RequireAdmin must run after VerifyJWT.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		state, _ := SessionFromContext(ctx)
		if !state.IsAdmin() {
			response.RenderErr(ctx, response.ErrPermissionDenied(errNotAnAdmin))
			return
		}
		ctx.Next()
	}
}

func SessionIDFromContext(ctx *gin.Context) string {
	return ctx.GetString(ContextKeySessionID)
}

func SessionFromContext(ctx *gin.Context) (domain.SessionState, bool) {
	v, ok := ctx.Get(ContextKeySession)
	if !ok {
		return domain.SessionState{}, false
	}
	state, ok := v.(domain.SessionState)

	return state, ok
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ctx.Query("token")
}
