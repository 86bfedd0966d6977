package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/api/middleware"
	"github.com/vietanh2810/encore-api/internal/domain"
)

var errNoSession = errors.New("no session found in the request context")

// getSessionFromContext returns the session loaded by the auth middleware.
func getSessionFromContext(ctx *gin.Context) (domain.SessionState, *response.Err) {
	state, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return domain.SessionState{}, response.ErrUnauthorized(errNoSession)
	}

	return state, nil
}

// getIdentityFromContext is getSessionFromContext for routes that need a guest identity.
func getIdentityFromContext(ctx *gin.Context) (domain.SessionIdentity, *response.Err) {
	state, respErr := getSessionFromContext(ctx)
	if respErr != nil {
		return domain.SessionIdentity{}, respErr
	}
	if state.User == nil {
		return domain.SessionIdentity{}, response.ErrUnauthorized(errNoSession)
	}

	return *state.User, nil
}
