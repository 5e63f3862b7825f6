package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/handlers"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/repositories/memory"
	"github.com/SscSPs/ledger_core/internal/utils/matching"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testSecret = "test-secret"
	testIssuer = "ledger-core"
)

type HandlersTestSuite struct {
	suite.Suite
	router *gin.Engine
	token  string
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:     testSecret,
		JWTIssuer:     testIssuer,
		CurrencyScale: 2,
		Matching:      matching.DefaultConfig(),
	}
	store := memory.NewStore()
	container, err := services.NewServiceContainer(cfg, store.Repositories(), services.Collaborators{})
	s.Require().NoError(err)

	s.router = gin.New()
	s.router.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	handlers.RegisterRoutes(s.router, cfg, container, nil)

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	s.token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	s.Require().NoError(err)
}

func (s *HandlersTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](s *HandlersTestSuite, w *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *HandlersTestSuite) createAccount(code string, typ domain.AccountType) string {
	w := s.do(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		Code: code, Name: "Account " + code, AccountType: typ, Kind: domain.Detail,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.AccountResponse](s, w).AccountID
}

func (s *HandlersTestSuite) openFY2024() string {
	w := s.do(http.MethodPost, "/api/v1/periods", dto.OpenPeriodRequest{
		Name:      "FY2024",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.FiscalPeriod](s, w).PeriodID
}

func entryBody(on time.Time, debitAcc, creditAcc string, debit, credit string, post bool) dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		EntryDate:   on,
		Description: "test entry",
		Lines: []dto.LineRequest{
			{AccountID: debitAcc, DebitAmount: decimal.RequireFromString(debit)},
			{AccountID: creditAcc, CreditAmount: decimal.RequireFromString(credit)},
		},
		Post: post,
	}
}

func (s *HandlersTestSuite) TestHealth_NoAuthNeeded() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func TestHealth_ReadinessFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret, EnableDBCheck: true, Matching: matching.DefaultConfig()}
	container, err := services.NewServiceContainer(cfg, memory.NewStore().Repositories(), services.Collaborators{})
	require.NoError(t, err)

	r := gin.New()
	handlers.RegisterRoutes(r, cfg, container, func(context.Context) error { return errors.New("db down") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func (s *HandlersTestSuite) TestMissingToken_Unauthorized() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestPostEntry_BalanceReflectsPosting() {
	cash := s.createAccount("1010", domain.Asset)
	capital := s.createAccount("3010", domain.Equity)
	s.openFY2024()

	w := s.do(http.MethodPost, "/api/v1/entries", entryBody(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cash, capital, "1000", "1000", true))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	entry := decode[dto.EntryResponse](s, w)
	s.Equal(domain.Posted, entry.Status)
	s.Equal(int64(1), entry.EntryNumber)

	w = s.do(http.MethodGet, "/api/v1/accounts/"+cash+"/balance?asOf=2024-12-31", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	bal := decode[dto.AccountBalanceResponse](s, w)
	s.True(decimal.NewFromInt(1000).Equal(bal.Balance), "got %s", bal.Balance)
	s.Equal(domain.Debit, bal.NormalSide)

	w = s.do(http.MethodGet, "/api/v1/accounts/"+cash+"/balance?asOf=2024-02-28", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(decode[dto.AccountBalanceResponse](s, w).Balance.IsZero())
}

func (s *HandlersTestSuite) TestUnbalancedPost_BadRequest() {
	cash := s.createAccount("1010", domain.Asset)
	capital := s.createAccount("3010", domain.Equity)
	s.openFY2024()

	w := s.do(http.MethodPost, "/api/v1/entries", entryBody(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cash, capital, "1000", "900", true))
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
}

func (s *HandlersTestSuite) TestNegativeAmount_RejectedAtBinding() {
	cash := s.createAccount("1010", domain.Asset)
	capital := s.createAccount("3010", domain.Equity)
	s.openFY2024()

	w := s.do(http.MethodPost, "/api/v1/entries", entryBody(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cash, capital, "-5", "5", false))
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
	s.Contains(w.Body.String(), "Invalid request format")
}

func (s *HandlersTestSuite) TestEntryOutsideAnyPeriod_BadRequest() {
	cash := s.createAccount("1010", domain.Asset)
	capital := s.createAccount("3010", domain.Equity)
	s.openFY2024()

	w := s.do(http.MethodPost, "/api/v1/entries", entryBody(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), cash, capital, "10", "10", false))
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
}

func (s *HandlersTestSuite) TestReverseTwice_Conflict() {
	cash := s.createAccount("1010", domain.Asset)
	capital := s.createAccount("3010", domain.Equity)
	s.openFY2024()

	w := s.do(http.MethodPost, "/api/v1/entries", entryBody(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cash, capital, "50", "50", true))
	s.Require().Equal(http.StatusCreated, w.Code)
	id := decode[dto.EntryResponse](s, w).EntryID

	w = s.do(http.MethodPost, "/api/v1/entries/"+id+"/reverse", dto.ReverseEntryRequest{Reason: "typo"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	reversal := decode[dto.EntryResponse](s, w)
	s.Equal(id, reversal.ReversesEntryID)

	w = s.do(http.MethodPost, "/api/v1/entries/"+id+"/reverse", dto.ReverseEntryRequest{Reason: "again"})
	s.Equal(http.StatusConflict, w.Code, w.Body.String())
}

func (s *HandlersTestSuite) TestUnknownEntry_NotFound() {
	w := s.do(http.MethodGet, "/api/v1/entries/does-not-exist", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestOverlappingPeriod_Conflict() {
	s.openFY2024()
	w := s.do(http.MethodPost, "/api/v1/periods", dto.OpenPeriodRequest{
		Name:      "H2-2024",
		StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	s.Equal(http.StatusConflict, w.Code, w.Body.String())
}

func (s *HandlersTestSuite) TestClosePeriod_WithoutRetainedEarnings_BadRequest() {
	periodID := s.openFY2024()
	w := s.do(http.MethodPost, "/api/v1/periods/"+periodID+"/close", nil)
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
}

func (s *HandlersTestSuite) TestReports_BalanceSheetAndTrialBalance() {
	cash := s.createAccount("1010", domain.Asset)
	capital := s.createAccount("3010", domain.Equity)
	periodID := s.openFY2024()
	w := s.do(http.MethodPost, "/api/v1/entries", entryBody(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cash, capital, "250", "250", true))
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/v1/reports/balance-sheet?asOf=2024-12-31", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	bs := decode[domain.BalanceSheet](s, w)
	s.True(bs.Balanced)
	s.True(decimal.NewFromInt(250).Equal(bs.TotalAssets))

	w = s.do(http.MethodGet, "/api/v1/reports/trial-balance/"+periodID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	tb := decode[domain.TrialBalance](s, w)
	s.True(tb.Balanced)
	s.Len(tb.Rows, 2)

	w = s.do(http.MethodGet, "/api/v1/reports/income-statement?from=2024-01-01", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
