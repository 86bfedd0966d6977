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

type GameService interface {
	State(ctx context.Context) (domain.GameState, error)
	SpinRoulette(ctx context.Context, options []string) (domain.GameState, error)
	DrawNumber(ctx context.Context) (domain.GameState, error)
	ResetDraw(ctx context.Context) (domain.GameState, error)
	SetMarquee(ctx context.Context, text string, speed int, color string) (domain.GameState, error)
}

type GameHandler struct {
	svc GameService
}

func NewGameHandler(svc GameService) *GameHandler {
	return &GameHandler{
		svc: svc,
	}
}

// HandleGetGames godoc
// @Summary      Current party game state
// @Tags         games
// @Produce      json
// @Success      200  {object}  domain.GameState
// @Failure      500  {object}  response.Err
// @Router       /games [get]
func (h *GameHandler) HandleGetGames(ctx *gin.Context) {
	state, err := h.svc.State(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetGames -> h.svc.State -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, state)
}

// HandleSpinRoulette godoc
// @Summary      Spin the roulette
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.RouletteRequest  true  "request body"
// @Success      200      {object}  domain.GameState
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/games/roulette [post]
// @Security BearerAuth
func (h *GameHandler) HandleSpinRoulette(ctx *gin.Context) {
	var req request.RouletteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	state, err := h.svc.SpinRoulette(ctx.Request.Context(), req.Options)
	h.render(ctx, state, err)
}

// HandleDrawNumber godoc
// @Summary      Draw an entry number
// @Description  Picks a checked-in entry number that has not been drawn yet.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.GameState
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/games/draw [post]
// @Security BearerAuth
func (h *GameHandler) HandleDrawNumber(ctx *gin.Context) {
	state, err := h.svc.DrawNumber(ctx.Request.Context())
	h.render(ctx, state, err)
}

// HandleResetDraw godoc
// @Summary      Clear the draw history
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.GameState
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/games/draw [delete]
// @Security BearerAuth
func (h *GameHandler) HandleResetDraw(ctx *gin.Context) {
	state, err := h.svc.ResetDraw(ctx.Request.Context())
	h.render(ctx, state, err)
}

// HandleSetMarquee godoc
// @Summary      Set the LED marquee
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.MarqueeRequest  true  "request body"
// @Success      200      {object}  domain.GameState
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/games/marquee [put]
// @Security BearerAuth
func (h *GameHandler) HandleSetMarquee(ctx *gin.Context) {
	var req request.MarqueeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	state, err := h.svc.SetMarquee(ctx.Request.Context(), req.Text, req.Speed, req.Color)
	h.render(ctx, state, err)
}

func (h *GameHandler) render(ctx *gin.Context, state domain.GameState, err error) {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoOptions), errors.Is(err, service.ErrInvalidMarquee):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrNoCandidates):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.render -> h.svc -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, state)
}
