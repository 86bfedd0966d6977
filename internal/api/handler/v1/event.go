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

type EventService interface {
	Bundle(ctx context.Context) (domain.EventBundle, error)
	UpdateInfo(ctx context.Context, info domain.EventInfo, ticket domain.TicketInfo) (domain.EventBundle, error)
	ImportSetlist(ctx context.Context, rows []map[string]string) (domain.EventBundle, error)
	SetAdminCode(ctx context.Context, code string) error
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleGetEvent godoc
// @Summary      Event and ticket info
// @Tags         event
// @Produce      json
// @Success      200  {object}  domain.EventBundle
// @Failure      500  {object}  response.Err
// @Router       /event [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	bundle, ok := h.bundle(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, bundle)
}

// HandleGetSetlist godoc
// @Summary      Setlist
// @Tags         event
// @Produce      json
// @Success      200  {array}   domain.SetlistEntry
// @Failure      500  {object}  response.Err
// @Router       /setlist [get]
func (h *EventHandler) HandleGetSetlist(ctx *gin.Context) {
	bundle, ok := h.bundle(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, bundle.Setlist)
}

// HandleGetPerformers godoc
// @Summary      Performer names
// @Tags         event
// @Produce      json
// @Success      200  {array}   string
// @Failure      500  {object}  response.Err
// @Router       /performers [get]
func (h *EventHandler) HandleGetPerformers(ctx *gin.Context) {
	bundle, ok := h.bundle(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, bundle.Performers)
}

// HandleUpdateEvent godoc
// @Summary      Update event and ticket info
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.UpdateEventRequest  true  "request body"
// @Success      200      {object}  domain.EventBundle
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/event [put]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	info, ticket := req.ToDomain()
	bundle, err := h.svc.UpdateInfo(ctx.Request.Context(), info, ticket)
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdateEvent -> h.svc.UpdateInfo -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, bundle)
}

// HandleImportSetlist godoc
// @Summary      Replace the setlist from a spreadsheet
// @Description  The performer list is rebuilt from the imported role columns.
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "setlist spreadsheet"
// @Success      200   {object}  domain.EventBundle
// @Failure      400   {object}  response.Err
// @Failure      403   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /admin/setlist/import [post]
// @Security BearerAuth
func (h *EventHandler) HandleImportSetlist(ctx *gin.Context) {
	rows, respErr := readUploadedRows(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	bundle, err := h.svc.ImportSetlist(ctx.Request.Context(), rows)
	if err != nil {
		err = fmt.Errorf("v1.HandleImportSetlist -> h.svc.ImportSetlist -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, bundle)
}

// HandleSetAdminCode godoc
// @Summary      Change the door and admin code
// @Tags         admin
// @Accept       json
// @Param        request  body      request.AdminCodeRequest  true  "request body"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/settings/code [put]
// @Security BearerAuth
func (h *EventHandler) HandleSetAdminCode(ctx *gin.Context) {
	var req request.AdminCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.SetAdminCode(ctx.Request.Context(), req.Code); err != nil {
		if errors.Is(err, service.ErrInvalidAdminCodeFormat) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleSetAdminCode -> h.svc.SetAdminCode -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *EventHandler) bundle(ctx *gin.Context) (domain.EventBundle, bool) {
	bundle, err := h.svc.Bundle(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.bundle -> h.svc.Bundle -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return domain.EventBundle{}, false
	}

	return bundle, true
}
