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
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/service"
)

type ProfileService interface {
	SaveNickname(ctx context.Context, sessionID, nickname string) (domain.SessionState, error)
}

type ProfileHandler struct {
	svc ProfileService
}

func NewProfileHandler(svc ProfileService) *ProfileHandler {
	return &ProfileHandler{
		svc: svc,
	}
}

// HandleSaveNickname godoc
// @Summary      Set the nickname shown in chat and on the guestbook
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request  body      request.NicknameRequest  true  "request body"
// @Success      200      {object}  response.SessionResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /profile/nickname [put]
// @Security BearerAuth
func (h *ProfileHandler) HandleSaveNickname(ctx *gin.Context) {
	var req request.NicknameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	state, err := h.svc.SaveNickname(ctx.Request.Context(), middleware.SessionIDFromContext(ctx), req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrNoActiveSession):
			response.RenderErr(ctx, response.ErrUnauthorized(err))
		case errors.Is(err, service.ErrDuplicateNickname):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleSaveNickname -> h.svc.SaveNickname -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.SessionResponse{Session: state})
}
