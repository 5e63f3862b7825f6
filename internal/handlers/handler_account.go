package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	ledgerService  portssvc.LedgerSvcFacade
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	h := &accountHandler{accountService: accountService, ledgerService: ledgerService}

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/tree", h.getChart)
		accounts.GET("/:id", h.getAccount)
		accounts.PATCH("/:id", h.updateAccount)
		accounts.POST("/:id/deactivate", h.deactivateAccount)
		accounts.POST("/:id/reparent", h.reparentAccount)
		accounts.GET("/:id/balance", h.getBalance)
		accounts.GET("/:id/activity", h.getActivity)
	}
}

func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "CreateAccount")
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}

	logger.Info("Received request to create account", slog.String("code", req.Code), slog.String("account_type", string(req.AccountType)))
	account, err := h.accountService.CreateAccount(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create account")
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAccountResponse(accounts))
}

func (h *accountHandler) getChart(c *gin.Context) {
	tree, err := h.accountService.Chart(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to build chart of accounts")
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *accountHandler) getAccount(c *gin.Context) {
	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) updateAccount(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "UpdateAccount")
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) deactivateAccount(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	accountID := c.Param("id")
	if err := h.accountService.DeactivateAccount(c.Request.Context(), accountID, userID); err != nil {
		respondError(c, err, "Failed to deactivate account")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Account deactivated", slog.String("account_id", accountID))
	c.Status(http.StatusNoContent)
}

func (h *accountHandler) reparentAccount(c *gin.Context) {
	var req dto.ReparentAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "ReparentAccount")
		return
	}
	userID, ok := actor(c)
	if !ok {
		return
	}

	parentID := ""
	if req.ParentAccountID != nil {
		parentID = *req.ParentAccountID
	}
	account, err := h.accountService.ReparentAccount(c.Request.Context(), c.Param("id"), parentID, userID)
	if err != nil {
		respondError(c, err, "Failed to reparent account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getBalance answers the balance on ?asOf=YYYY-MM-DD, today when omitted.
func (h *accountHandler) getBalance(c *gin.Context) {
	asOf, ok := dateQuery(c, "asOf", time.Now().UTC())
	if !ok {
		return
	}
	accountID := c.Param("id")
	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to retrieve account")
		return
	}
	balance, err := h.ledgerService.Balance(c.Request.Context(), accountID, asOf)
	if err != nil {
		respondError(c, err, "Failed to calculate balance")
		return
	}
	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID:  accountID,
		AsOf:       asOf.Format(dateLayout),
		NormalSide: account.NormalSide,
		Balance:    balance,
	})
}

func (h *accountHandler) getActivity(c *gin.Context) {
	var params dto.DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err, "AccountActivity query")
		return
	}
	from, _ := time.Parse(dateLayout, params.From)
	to, _ := time.Parse(dateLayout, params.To)

	activity, err := h.ledgerService.AccountActivity(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondError(c, err, "Failed to build account activity")
		return
	}
	c.JSON(http.StatusOK, activity)
}
