package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// periodHandler manages fiscal periods and year-end closing.
type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade) {
	h := &periodHandler{periodService: periodService}

	periods := rg.Group("/periods")
	{
		periods.POST("", h.openPeriod)
		periods.GET("", h.listPeriods)
		periods.GET("/:id", h.getPeriod)
		periods.POST("/:id/close", h.closePeriod)
		periods.GET("/:id/snapshots", h.listSnapshots)
	}
}

func (h *periodHandler) openPeriod(c *gin.Context) {
	var req dto.OpenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "OpenPeriod")
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	period, err := h.periodService.OpenPeriod(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to open fiscal period")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Fiscal period opened", slog.String("period_id", period.PeriodID))
	c.JSON(http.StatusCreated, period)
}

func (h *periodHandler) listPeriods(c *gin.Context) {
	periods, err := h.periodService.ListPeriods(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list fiscal periods")
		return
	}
	c.JSON(http.StatusOK, periods)
}

func (h *periodHandler) getPeriod(c *gin.Context) {
	period, err := h.periodService.GetPeriodByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve fiscal period")
		return
	}
	c.JSON(http.StatusOK, period)
}

// closePeriod accepts an empty body, in which case the configured retained earnings account is used.
func (h *periodHandler) closePeriod(c *gin.Context) {
	var req dto.ClosePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err, "ClosePeriod")
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	period, err := h.periodService.ClosePeriod(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to close fiscal period")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Fiscal period closed", slog.String("period_id", period.PeriodID))
	c.JSON(http.StatusOK, period)
}

func (h *periodHandler) listSnapshots(c *gin.Context) {
	snaps, err := h.periodService.ListSnapshots(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list closing snapshots")
		return
	}
	c.JSON(http.StatusOK, snaps)
}
