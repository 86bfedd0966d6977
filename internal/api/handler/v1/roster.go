package v1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/pkg/spreadsheet"
	"github.com/vietanh2810/encore-api/internal/service"
)

const maxUploadSize = 10 << 20

type RosterService interface {
	List(ctx context.Context) (domain.Roster, error)
	Stats(ctx context.Context) (domain.RosterStats, error)
	Import(ctx context.Context, rows []map[string]string) (int, error)
	Reset(ctx context.Context) error
	RegisterWalkIn(ctx context.Context, name, phone string) (domain.GuestRecord, error)
	SetPaymentConfirmed(ctx context.Context, index int, confirmed bool) (domain.GuestRecord, error)
	Export(ctx context.Context, w io.Writer, format spreadsheet.Format) error
}

type RosterHandler struct {
	svc RosterService
}

func NewRosterHandler(svc RosterService) *RosterHandler {
	return &RosterHandler{
		svc: svc,
	}
}

// HandleGetRoster godoc
// @Summary      List every guest
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.GuestRecord
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/roster [get]
// @Security BearerAuth
func (h *RosterHandler) HandleGetRoster(ctx *gin.Context) {
	roster, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetRoster -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, roster)
}

// HandleGetRosterStats godoc
// @Summary      Roster counters
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.RosterStats
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/roster/stats [get]
// @Security BearerAuth
func (h *RosterHandler) HandleGetRosterStats(ctx *gin.Context) {
	stats, err := h.svc.Stats(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetRosterStats -> h.svc.Stats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleImportRoster godoc
// @Summary      Replace the roster from a spreadsheet
// @Description  Accepts .xlsx or .csv in the "file" form field. The existing roster, check-ins included, is replaced.
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "roster spreadsheet"
// @Success      200   {object}  response.ImportResponse
// @Failure      400   {object}  response.Err
// @Failure      403   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /admin/roster/import [post]
// @Security BearerAuth
func (h *RosterHandler) HandleImportRoster(ctx *gin.Context) {
	rows, respErr := readUploadedRows(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	n, err := h.svc.Import(ctx.Request.Context(), rows)
	if err != nil {
		err = fmt.Errorf("v1.HandleImportRoster -> h.svc.Import -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.ImportResponse{Imported: n})
}

// HandleExportRoster godoc
// @Summary      Download the roster
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,text/csv
// @Param        format  query     string  false  "xlsx (default) or csv"
// @Success      200     {file}    binary
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /admin/roster/export [get]
// @Security BearerAuth
func (h *RosterHandler) HandleExportRoster(ctx *gin.Context) {
	format, err := spreadsheet.ParseFormat(ctx.DefaultQuery("format", string(spreadsheet.FormatXLSX)))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(ctx.Request.Context(), &buf, format); err != nil {
		err = fmt.Errorf("v1.HandleExportRoster -> h.svc.Export -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	filename := fmt.Sprintf("roster-%s.%s", time.Now().Format("20060102-1504"), format)
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// HandleResetRoster godoc
// @Summary      Delete every guest
// @Tags         admin
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/roster [delete]
// @Security BearerAuth
func (h *RosterHandler) HandleResetRoster(ctx *gin.Context) {
	if err := h.svc.Reset(ctx.Request.Context()); err != nil {
		err = fmt.Errorf("v1.HandleResetRoster -> h.svc.Reset -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleRegisterWalkIn godoc
// @Summary      Register a walk-in guest
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.GuestRequest  true  "request body"
// @Success      201      {object}  domain.GuestRecord
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/roster/walkin [post]
// @Security BearerAuth
func (h *RosterHandler) HandleRegisterWalkIn(ctx *gin.Context) {
	var req request.GuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	guest, err := h.svc.RegisterWalkIn(ctx.Request.Context(), req.Name, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrGuestAlreadyRegistered):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleRegisterWalkIn -> h.svc.RegisterWalkIn -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, guest)
}

// HandleSetPayment godoc
// @Summary      Confirm or revoke a walk-in payment
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        index    path      int                     true  "roster index"
// @Param        request  body      request.PaymentRequest  true  "request body"
// @Success      200      {object}  domain.GuestRecord
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/roster/{index}/payment [put]
// @Security BearerAuth
func (h *RosterHandler) HandleSetPayment(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.PaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	guest, err := h.svc.SetPaymentConfirmed(ctx.Request.Context(), index, *req.Confirmed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGuestIndexInvalid):
			response.RenderErr(ctx, response.ErrNotFound("guest", "index", index))
		case errors.Is(err, service.ErrNotWalkIn):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleSetPayment -> h.svc.SetPaymentConfirmed -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, guest)
}

// readUploadedRows parses the spreadsheet sent in the "file" form field.
func readUploadedRows(ctx *gin.Context) ([]map[string]string, *response.Err) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxUploadSize)

	header, err := ctx.FormFile("file")
	if err != nil {
		return nil, response.ErrBadRequest(err)
	}

	format, err := spreadsheet.ParseFormat(header.Filename)
	if err != nil {
		return nil, response.ErrBadRequest(err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, response.ErrInternalServerError(fmt.Errorf("header.Open -> %w", err))
	}
	defer file.Close()

	rows, err := spreadsheet.ReadRows(file, format)
	if err != nil {
		return nil, response.ErrBadRequest(err)
	}

	return rows, nil
}
