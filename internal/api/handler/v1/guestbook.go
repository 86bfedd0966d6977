package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/service"
)

type GuestbookService interface {
	List(ctx context.Context) ([]domain.Memo, error)
	Add(ctx context.Context, session domain.SessionState, content, color string) (domain.Memo, error)
	Delete(ctx context.Context, session domain.SessionState, id string) error
}

type GuestbookHandler struct {
	svc GuestbookService
}

func NewGuestbookHandler(svc GuestbookService) *GuestbookHandler {
	return &GuestbookHandler{
		svc: svc,
	}
}

// HandleGetMemos godoc
// @Summary      Guestbook memos
// @Tags         guestbook
// @Produce      json
// @Success      200  {array}   domain.Memo
// @Failure      500  {object}  response.Err
// @Router       /guestbook [get]
func (h *GuestbookHandler) HandleGetMemos(ctx *gin.Context) {
	memos, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMemos -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, memos)
}

// HandleCreateMemo godoc
// @Summary      Post a memo
// @Tags         guestbook
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateMemoRequest  true  "request body"
// @Success      201      {object}  domain.Memo
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /guestbook [post]
// @Security BearerAuth
func (h *GuestbookHandler) HandleCreateMemo(ctx *gin.Context) {
	state, respErr := getSessionFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateMemoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	memo, err := h.svc.Add(ctx.Request.Context(), state, req.Content, req.Color)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMemo):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrNoActiveSession):
			response.RenderErr(ctx, response.ErrUnauthorized(err))
		default:
			err = fmt.Errorf("v1.HandleCreateMemo -> h.svc.Add -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, memo)
}

// HandleDeleteMemo godoc
// @Summary      Delete a memo
// @Description  Only the author or an admin may delete a memo.
// @Tags         guestbook
// @Param        memoID  path      string  true  "memo id"
// @Success      204
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /guestbook/{memoID} [delete]
// @Security BearerAuth
func (h *GuestbookHandler) HandleDeleteMemo(ctx *gin.Context) {
	state, respErr := getSessionFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	memoID := ctx.Param("memoID")
	if err := h.svc.Delete(ctx.Request.Context(), state, memoID); err != nil {
		switch {
		case errors.Is(err, service.ErrMemoNotFound):
			response.RenderErr(ctx, response.ErrNotFound("memo", "id", memoID))
		case errors.Is(err, service.ErrForbidden):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrNoActiveSession):
			response.RenderErr(ctx, response.ErrUnauthorized(err))
		default:
			err = fmt.Errorf("v1.HandleDeleteMemo -> h.svc.Delete -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
