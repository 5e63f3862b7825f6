package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reconciliationHandler matches bank statement lines against posted entries.
type reconciliationHandler struct {
	reconService portssvc.ReconciliationSvcFacade
}

func registerReconciliationRoutes(rg *gin.RouterGroup, reconService portssvc.ReconciliationSvcFacade) {
	h := &reconciliationHandler{reconService: reconService}

	statements := rg.Group("/statements")
	{
		statements.POST("/:id/transactions", h.importTransactions)
		statements.GET("/:id/suggestions", h.suggestMatches)
	}

	recon := rg.Group("/reconciliation")
	{
		recon.POST("/auto-commit", h.autoCommit)
		recon.POST("/matches", h.manualMatch)
		recon.DELETE("/matches/:id", h.unmatch)
	}
}

func (h *reconciliationHandler) importTransactions(c *gin.Context) {
	var req dto.ImportTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "ImportTransactions")
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	statementID := c.Param("id")
	txns, err := h.reconService.ImportTransactions(c.Request.Context(), statementID, req, userID)
	if err != nil {
		respondError(c, err, "Failed to import bank transactions")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Bank transactions imported",
		slog.String("statement_id", statementID), slog.Int("count", len(txns)))
	c.JSON(http.StatusCreated, txns)
}

func (h *reconciliationHandler) suggestMatches(c *gin.Context) {
	suggestions, err := h.reconService.SuggestMatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to score match candidates")
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

func (h *reconciliationHandler) autoCommit(c *gin.Context) {
	var req dto.AutoCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "AutoCommit")
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	result, err := h.reconService.AutoCommit(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to auto-commit matches")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *reconciliationHandler) manualMatch(c *gin.Context) {
	var req dto.ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "ManualMatch")
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}
	match, err := h.reconService.ManualMatch(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to record match")
		return
	}
	c.JSON(http.StatusCreated, match)
}

func (h *reconciliationHandler) unmatch(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	if err := h.reconService.Unmatch(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "Failed to remove match")
		return
	}
	c.Status(http.StatusNoContent)
}
