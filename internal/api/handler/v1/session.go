package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/api/middleware"
	"github.com/vietanh2810/encore-api/internal/config"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/pkg/jwthelper"
	"github.com/vietanh2810/encore-api/internal/service"
)

type SessionService interface {
	Current(ctx context.Context, id string) (domain.SessionState, error)
	LoginAttendee(ctx context.Context, id, name, phone string) (domain.SessionState, error)
	LoginAdmin(ctx context.Context, id, name, code string) (domain.SessionState, error)
	Refresh(ctx context.Context, id string) (domain.SessionState, bool, error)
	Logout(ctx context.Context, id string) error
}

type SessionHandler struct {
	conf *config.APIConfig
	svc  SessionService
}

func NewSessionHandler(conf *config.APIConfig, svc SessionService) *SessionHandler {
	return &SessionHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleAttendeeLogin godoc
// @Summary      Log in as an attendee
// @Description  Matches name and phone against the reservation roster and caches the guest identity in the session.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body      request.AttendeeLoginRequest  true  "request body"
// @Success      200      {object}  response.SessionResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /session/attendee [post]
func (h *SessionHandler) HandleAttendeeLogin(ctx *gin.Context) {
	var req request.AttendeeLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	state, err := h.svc.LoginAttendee(ctx.Request.Context(), middleware.SessionIDFromContext(ctx), req.Name, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrNoMatchingReservation):
			response.RenderErr(ctx, response.ErrWrongCredentials(err))
		default:
			err = fmt.Errorf("v1.HandleAttendeeLogin -> h.svc.LoginAttendee -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	h.renderSession(ctx, state)
}

// HandleAdminLogin godoc
// @Summary      Log in as an admin
// @Description  Requires the shared admin code and a name from the performer list.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body      request.AdminLoginRequest  true  "request body"
// @Success      200      {object}  response.SessionResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /session/admin [post]
func (h *SessionHandler) HandleAdminLogin(ctx *gin.Context) {
	var req request.AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	state, err := h.svc.LoginAdmin(ctx.Request.Context(), middleware.SessionIDFromContext(ctx), req.Name, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrInvalidAdminCode):
			response.RenderErr(ctx, response.ErrWrongCredentials(err))
		case errors.Is(err, service.ErrNotAPerformer):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleAdminLogin -> h.svc.LoginAdmin -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	h.renderSession(ctx, state)
}

// HandleGetSession godoc
// @Summary      Get the current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  response.SessionResponse
// @Failure      401  {object}  response.Err
// @Router       /session [get]
// @Security BearerAuth
func (h *SessionHandler) HandleGetSession(ctx *gin.Context) {
	state, respErr := getSessionFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ctx.JSON(http.StatusOK, response.SessionResponse{Session: state})
}

// HandleRefreshSession godoc
// @Summary      Refresh check-in fields from the roster
// @Tags         session
// @Produce      json
// @Success      200  {object}  response.SessionResponse
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /session/refresh [post]
// @Security BearerAuth
func (h *SessionHandler) HandleRefreshSession(ctx *gin.Context) {
	state, _, err := h.svc.Refresh(ctx.Request.Context(), middleware.SessionIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		err = fmt.Errorf("v1.HandleRefreshSession -> h.svc.Refresh -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.SessionResponse{Session: state})
}

// HandleLogout godoc
// @Summary      Clear the current session
// @Tags         session
// @Success      204
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /session [delete]
// @Security BearerAuth
func (h *SessionHandler) HandleLogout(ctx *gin.Context) {
	if err := h.svc.Logout(ctx.Request.Context(), middleware.SessionIDFromContext(ctx)); err != nil {
		err = fmt.Errorf("v1.HandleLogout -> h.svc.Logout -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *SessionHandler) renderSession(ctx *gin.Context, state domain.SessionState) {
	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), state.ID, ctx.Request.UserAgent(), h.conf.SessionTTL)
	if err != nil {
		err = fmt.Errorf("v1.renderSession -> jwthelper.GenerateToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.SessionResponse{
		Token:   token,
		Session: state,
	})
}
