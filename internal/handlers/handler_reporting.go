package handlers

import (
	"net/http"
	"time"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/gin-gonic/gin"
)

// reportingHandler serves the financial statements.
type reportingHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func registerReportingRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &reportingHandler{ledgerService: ledgerService}

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance/:periodID", h.getTrialBalance)
		reports.GET("/income-statement", h.getIncomeStatement)
		reports.GET("/balance-sheet", h.getBalanceSheet)
	}
}

func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	tb, err := h.ledgerService.TrialBalance(c.Request.Context(), c.Param("periodID"))
	if err != nil {
		respondError(c, err, "Failed to build trial balance")
		return
	}
	c.JSON(http.StatusOK, tb)
}

func (h *reportingHandler) getIncomeStatement(c *gin.Context) {
	var params dto.DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err, "IncomeStatement query")
		return
	}
	from, _ := time.Parse(dateLayout, params.From)
	to, _ := time.Parse(dateLayout, params.To)

	is, err := h.ledgerService.IncomeStatement(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err, "Failed to build income statement")
		return
	}
	c.JSON(http.StatusOK, is)
}

func (h *reportingHandler) getBalanceSheet(c *gin.Context) {
	var params dto.AsOfParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err, "BalanceSheet query")
		return
	}
	asOf, _ := time.Parse(dateLayout, params.AsOf)

	bs, err := h.ledgerService.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err, "Failed to build balance sheet")
		return
	}
	c.JSON(http.StatusOK, bs)
}
