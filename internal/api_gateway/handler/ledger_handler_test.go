package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openledger-engine/internal/api_gateway/service"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/archive"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) PostTransaction(ctx context.Context, draft *journal.Draft) (*journal.Transaction, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, page, perPage int) ([]*journal.Transaction, int64, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*journal.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerService) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, accountID uuid.UUID, asOf time.Time, rollup bool) (money.Money, error) {
	args := m.Called(ctx, accountID, asOf, rollup)
	return args.Get(0).(money.Money), args.Error(1)
}

func (m *MockLedgerService) GetPeriodBalance(ctx context.Context, accountID uuid.UUID, start, end time.Time, rollup bool) (money.Money, error) {
	args := m.Called(ctx, accountID, start, end, rollup)
	return args.Get(0).(money.Money), args.Error(1)
}

func (m *MockLedgerService) GetEntriesByAccountID(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*archive.Entry, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*archive.Entry), args.Get(1).(int64), args.Error(2)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	return r
}

func mustAmount(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.FromString(s, money.AmountScale)
	require.NoError(t, err)
	return m
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var topLevel Response
	require.NoError(t, json.Unmarshal(body, &topLevel))
	require.NotNil(t, topLevel.Data, "'data' field should not be nil")

	dataBytes, err := json.Marshal(topLevel.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(dataBytes, &out))
	return out
}

func validCreateRequest(debitID, creditID uuid.UUID) CreateTransactionRequest {
	return CreateTransactionRequest{
		Date:        "2025-04-10",
		Type:        "general_journal",
		Description: "office rent",
		Entries: []EntryRequest{
			{AccountID: debitID.String(), Debit: "900.00"},
			{AccountID: creditID.String(), Credit: "900.00"},
		},
	}
}

func TestLedgerHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	debitID := uuid.New()
	creditID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		txID := uuid.New()
		committed := &journal.Transaction{
			ID:          txID,
			Number:      7,
			Date:        time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC),
			Type:        journal.TypeGeneralJournal,
			Description: "office rent",
			Entries: []journal.Entry{
				{ID: uuid.New(), TransactionID: txID, AccountID: debitID, Debit: mustAmount(t, "900.00"), Credit: money.Zero(money.AmountScale)},
				{ID: uuid.New(), TransactionID: txID, AccountID: creditID, Debit: money.Zero(money.AmountScale), Credit: mustAmount(t, "900.00")},
			},
			CreatedAt: time.Now(),
		}
		mockService.On("PostTransaction", mock.Anything, mock.MatchedBy(func(draft *journal.Draft) bool {
			return len(draft.Entries) == 2 &&
				draft.Type == journal.TypeGeneralJournal &&
				draft.Entries[0].Debit.StringFixed() == "900.00"
		})).Return(committed, nil)

		router := setupTestRouter()
		router.POST("/transactions", h.Create)

		jsonBody, _ := json.Marshal(validCreateRequest(debitID, creditID))
		req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		responseBody := decodeData[TransactionResponse](t, rr.Body.Bytes())
		assert.Equal(t, txID.String(), responseBody.ID)
		assert.Equal(t, int64(7), responseBody.Number)
		assert.Equal(t, "2025-04-10", responseBody.Date)
		require.Len(t, responseBody.Entries, 2)
		assert.Equal(t, "900.00", responseBody.Entries[0].Debit)
		assert.Equal(t, "0.00", responseBody.Entries[0].Credit)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/transactions", h.Create)

		req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(`{"invalid`)) // Malformed JSON
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t) // Ensure no service methods were called
	})

	t.Run("SingleEntryRejectedByBinding", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/transactions", h.Create)

		reqBody := validCreateRequest(debitID, creditID)
		reqBody.Entries = reqBody.Entries[:1]
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("UnbalancedDraft", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		mockService.On("PostTransaction", mock.Anything, mock.AnythingOfType("*journal.Draft")).
			Return(nil, journal.ErrUnbalanced{Debits: mustAmount(t, "900.00"), Credits: mustAmount(t, "899.99")})

		router := setupTestRouter()
		router.POST("/transactions", h.Create)

		jsonBody, _ := json.Marshal(validCreateRequest(debitID, creditID))
		req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "BAD_REQUEST", response.Error.Code)
		assert.Contains(t, response.Error.Message, "unbalanced")
		mockService.AssertExpectations(t)
	})

	t.Run("DuplicateTransaction", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		mockService.On("PostTransaction", mock.Anything, mock.AnythingOfType("*journal.Draft")).
			Return(nil, journal.ErrDuplicateTransaction{TransactionID: uuid.New()})

		router := setupTestRouter()
		router.POST("/transactions", h.Create)

		jsonBody, _ := json.Marshal(validCreateRequest(debitID, creditID))
		req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		mockService.On("PostTransaction", mock.Anything, mock.AnythingOfType("*journal.Draft")).
			Return(nil, errors.New("repository unavailable"))

		router := setupTestRouter()
		router.POST("/transactions", h.Create)

		jsonBody, _ := json.Marshal(validCreateRequest(debitID, creditID))
		req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLedgerHandler_GetBalance(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		accountID := uuid.New()
		asOf := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
		mockService.On("GetBalance", mock.Anything, accountID, asOf, true).
			Return(mustAmount(t, "1234.56"), nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/balance", h.GetBalance)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/balance?as_of=2025-03-31&rollup=true", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		responseBody := decodeData[BalanceResponse](t, rr.Body.Bytes())
		assert.Equal(t, accountID.String(), responseBody.AccountID)
		assert.Equal(t, "2025-03-31", responseBody.AsOf)
		assert.True(t, responseBody.Rollup)
		assert.Equal(t, "1234.56", responseBody.Balance)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id/balance", h.GetBalance)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/not-a-uuid/balance", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidDate", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id/balance", h.GetBalance)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+uuid.New().String()+"/balance?as_of=31-03-2025", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		accountID := uuid.New()
		mockService.On("GetBalance", mock.Anything, accountID, mock.AnythingOfType("time.Time"), false).
			Return(money.Money{}, account.ErrAccountNotFound{AccountID: accountID})

		router := setupTestRouter()
		router.GET("/accounts/:id/balance", h.GetBalance)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/balance?as_of=2025-03-31", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLedgerHandler_GetPeriodBalance(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		accountID := uuid.New()
		start := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
		mockService.On("GetPeriodBalance", mock.Anything, accountID, start, end, false).
			Return(mustAmount(t, "-750.00"), nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/period-balance", h.GetPeriodBalance)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/period-balance?start=2025-02-01&end=2025-02-28", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		responseBody := decodeData[PeriodBalanceResponse](t, rr.Body.Bytes())
		assert.Equal(t, "-750.00", responseBody.Balance)
		assert.Equal(t, "2025-02-01", responseBody.Start)
		assert.Equal(t, "2025-02-28", responseBody.End)

		mockService.AssertExpectations(t)
	})

	t.Run("MissingPeriod", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id/period-balance", h.GetPeriodBalance)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+uuid.New().String()+"/period-balance", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id/period-balance", h.GetPeriodBalance)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+uuid.New().String()+"/period-balance?start=2025-02-28&end=2025-02-01", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLedgerHandler_ListAccounts(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	mockService := new(MockLedgerService)
	h := NewLedgerHandler(logger, mockService)

	parent, err := account.New("1000", "Assets", account.TypeAsset, uuid.Nil)
	require.NoError(t, err)
	child, err := account.New("1100", "Cash", account.TypeAsset, parent.ID)
	require.NoError(t, err)
	child.CashFlowTag = account.CashFlowOperating
	mockService.On("ListAccounts", mock.Anything).Return([]*account.Account{parent, child}, nil)

	router := setupTestRouter()
	router.GET("/accounts", h.ListAccounts)

	req, _ := http.NewRequest(http.MethodGet, "/accounts", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	responseBody := decodeData[[]AccountResponse](t, rr.Body.Bytes())
	require.Len(t, responseBody, 2)
	assert.Equal(t, "1000", responseBody[0].Code)
	assert.Empty(t, responseBody[0].ParentID)
	assert.Equal(t, parent.ID.String(), responseBody[1].ParentID)
	assert.Equal(t, "operating", responseBody[1].CashFlowTag)

	mockService.AssertExpectations(t)
}

func TestLedgerHandler_GetEntries(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		accountID := uuid.New()
		entries := []*archive.Entry{
			{
				EntryID:           uuid.New(),
				TransactionID:     uuid.New(),
				TransactionNumber: 3,
				AccountID:         accountID,
				Date:              time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
				Type:              "general_journal",
				Debit:             "800.00",
				Credit:            "0.00",
			},
		}
		mockService.On("GetEntriesByAccountID", mock.Anything, accountID, 1, 10).
			Return(entries, int64(25), nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/entries", h.GetEntries)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/entries", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Meta)
		assert.Equal(t, 1, response.Meta.Page)
		assert.Equal(t, 25, response.Meta.TotalItems)
		assert.Equal(t, 3, response.Meta.TotalPages)

		responseBody := decodeData[[]ArchivedEntryResponse](t, rr.Body.Bytes())
		require.Len(t, responseBody, 1)
		assert.Equal(t, "800.00", responseBody[0].Debit)
		assert.Equal(t, "2025-03-03", responseBody[0].Date)

		mockService.AssertExpectations(t)
	})

	t.Run("ArchiveDisabled", func(t *testing.T) {
		mockService := new(MockLedgerService)
		h := NewLedgerHandler(logger, mockService)

		accountID := uuid.New()
		mockService.On("GetEntriesByAccountID", mock.Anything, accountID, 1, 10).
			Return(nil, int64(0), service.ErrArchiveNotConfigured{})

		router := setupTestRouter()
		router.GET("/accounts/:id/entries", h.GetEntries)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/entries", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		mockService.AssertExpectations(t)
	})
}

var _ service.LedgerService = (*MockLedgerService)(nil)
