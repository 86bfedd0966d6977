package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/api/middleware"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/service"
)

const (
	statusCheckedIn        = "checked_in"
	statusAlreadyCheckedIn = "already_checked_in"

	qrSize = 320
)

type CheckInService interface {
	CheckIn(ctx context.Context, name, phone string) (service.CheckInResult, error)
	CheckInWithCode(ctx context.Context, code, name, phone string) (service.CheckInResult, error)
	LastNotice() (domain.CheckInNotice, bool)
}

type SessionRefresher interface {
	Refresh(ctx context.Context, id string) (domain.SessionState, bool, error)
}

type CheckInHandler struct {
	svc        CheckInService
	sessions   SessionRefresher
	checkInURL string
}

// NewCheckInHandler builds the handler. checkInURL is what the door QR code encodes.
func NewCheckInHandler(svc CheckInService, sessions SessionRefresher, checkInURL string) *CheckInHandler {
	return &CheckInHandler{
		svc:        svc,
		sessions:   sessions,
		checkInURL: checkInURL,
	}
}

// HandleCheckInWithCode godoc
// @Summary      Check in with the door code
// @Description  Admits the logged-in attendee after the shared code is verified. A guest already admitted gets the same entry number back.
// @Tags         checkin
// @Accept       json
// @Produce      json
// @Param        request  body      request.CheckInCodeRequest  true  "request body"
// @Success      200      {object}  response.CheckInResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /checkin/code [post]
// @Security BearerAuth
func (h *CheckInHandler) HandleCheckInWithCode(ctx *gin.Context) {
	user, respErr := getIdentityFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CheckInCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.CheckInWithCode(ctx.Request.Context(), req.Code, user.Name, user.Phone)
	h.renderResult(ctx, user.Name, result, err, true)
}

// HandleCheckInByURL godoc
// @Summary      Check in by scanning the door QR code
// @Tags         checkin
// @Produce      json
// @Success      200  {object}  response.CheckInResponse
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /checkin/enter [get]
// @Security BearerAuth
func (h *CheckInHandler) HandleCheckInByURL(ctx *gin.Context) {
	user, respErr := getIdentityFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	result, err := h.svc.CheckIn(ctx.Request.Context(), user.Name, user.Phone)
	h.renderResult(ctx, user.Name, result, err, true)
}

// HandleAdminCheckIn godoc
// @Summary      Check a guest in manually
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.GuestRequest  true  "request body"
// @Success      200      {object}  response.CheckInResponse
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/checkin [post]
// @Security BearerAuth
func (h *CheckInHandler) HandleAdminCheckIn(ctx *gin.Context) {
	var req request.GuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.CheckIn(ctx.Request.Context(), req.Name, req.Phone)
	h.renderResult(ctx, req.Name, result, err, false)
}

// HandleLastCheckIn godoc
// @Summary      Most recent check-in seen by this instance
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.CheckInNotice
// @Success      204
// @Router       /admin/checkin/last [get]
// @Security BearerAuth
func (h *CheckInHandler) HandleLastCheckIn(ctx *gin.Context) {
	notice, ok := h.svc.LastNotice()
	if !ok {
		ctx.Status(http.StatusNoContent)
		return
	}

	ctx.JSON(http.StatusOK, notice)
}

// HandleCheckInQRCode godoc
// @Summary      QR code pointing at the check-in URL
// @Tags         checkin
// @Produce      png
// @Success      200  {file}    binary
// @Failure      500  {object}  response.Err
// @Router       /checkin/qr.png [get]
func (h *CheckInHandler) HandleCheckInQRCode(ctx *gin.Context) {
	png, err := qrcode.Encode(h.checkInURL, qrcode.Medium, qrSize)
	if err != nil {
		err = fmt.Errorf("v1.HandleCheckInQRCode -> qrcode.Encode -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, "image/png", png)
}

func (h *CheckInHandler) renderResult(ctx *gin.Context, name string, result service.CheckInResult, err error, withSession bool) {
	status := statusCheckedIn
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyCheckedIn):
			status = statusAlreadyCheckedIn
		case errors.Is(err, service.ErrInvalidInput):
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		case errors.Is(err, service.ErrInvalidCheckInCode):
			response.RenderErr(ctx, response.ErrWrongCredentials(err))
			return
		case errors.Is(err, service.ErrUnregisteredGuest):
			response.RenderErr(ctx, response.ErrNotFound("guest", "name", name))
			return
		default:
			err = fmt.Errorf("v1.renderResult -> h.svc.CheckIn -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
	}

	resp := response.CheckInResponse{
		Status:      status,
		EntryNumber: result.EntryNumber,
		Guest:       result.Guest,
	}
	if withSession {
		state, _, err := h.sessions.Refresh(ctx.Request.Context(), middleware.SessionIDFromContext(ctx))
		if err != nil {
			zap.L().Warn("failed to refresh session after check-in", zap.Error(err))
		} else {
			resp.Session = &state
		}
	}

	ctx.JSON(http.StatusOK, resp)
}
