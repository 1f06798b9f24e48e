package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openledger-engine/internal/api_gateway/service"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/archive"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
)

const dateLayout = "2006-01-02"

// LedgerHandler handles HTTP requests for posting, balances and account
// history
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Create posts a new transaction, mapping validation failures to 400 and
// duplicates to 409
func (h *LedgerHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	draft, err := mapRequestToDraft(&req)
	if err != nil {
		h.logger.Error("Invalid transaction draft", "error", err)
		RespondBadRequest(c, err.Error())
		return
	}

	tx, err := h.ledgerService.PostTransaction(c.Request.Context(), draft)
	if err != nil {
		if errors.Is(err, journal.ErrDuplicateTransaction{}) {
			RespondConflict(c, err.Error())
			return
		}
		if isValidationError(err) {
			h.logger.Warn("Transaction rejected", "error", err)
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to post transaction", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapTransactionToResponse(tx))
}

// List returns the committed transactions, paginated in commit order
func (h *LedgerHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	txs, total, err := h.ledgerService.ListTransactions(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list transactions", "error", err)
		RespondInternalError(c)
		return
	}

	var transactions []TransactionResponse
	for _, tx := range txs {
		transactions = append(transactions, mapTransactionToResponse(tx))
	}

	RespondWithPaginatedData(c, http.StatusOK, transactions, pagination.Page, pagination.PerPage, int(total))
}

// ListAccounts returns the chart of accounts ordered by code
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.ledgerService.ListAccounts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list accounts", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}
	RespondOK(c, responses)
}

// GetBalance returns an account's balance as of a date (defaults to today),
// optionally rolled up over its subtree
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return
	}

	var params BalanceQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	asOf := time.Now().UTC()
	if params.AsOf != "" {
		var err error
		asOf, err = time.Parse(dateLayout, params.AsOf)
		if err != nil {
			RespondBadRequest(c, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), accountID, asOf, params.Rollup)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to compute balance", "account_id", accountID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, BalanceResponse{
		AccountID: accountID.String(),
		AsOf:      asOf.Format(dateLayout),
		Rollup:    params.Rollup,
		Balance:   balance.StringFixed(),
	})
}

// GetPeriodBalance returns an account's balance over a closed date range
func (h *LedgerHandler) GetPeriodBalance(c *gin.Context) {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return
	}

	var params PeriodQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "start and end query parameters are required")
		return
	}

	start, end, err := parsePeriod(params.Start, params.End)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	balance, err := h.ledgerService.GetPeriodBalance(c.Request.Context(), accountID, start, end, params.Rollup)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to compute period balance", "account_id", accountID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, PeriodBalanceResponse{
		AccountID: accountID.String(),
		Start:     start.Format(dateLayout),
		End:       end.Format(dateLayout),
		Rollup:    params.Rollup,
		Balance:   balance.StringFixed(),
	})
}

// GetEntries returns paginated archived entries for an account, newest first
func (h *LedgerHandler) GetEntries(c *gin.Context) {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.ledgerService.GetEntriesByAccountID(
		c.Request.Context(),
		accountID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		if errors.Is(err, service.ErrArchiveNotConfigured{}) {
			RespondWithError(c, http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "Entry archive is not enabled")
			return
		}
		h.logger.Error("Failed to get archived entries", "account_id", accountID, "error", err)
		RespondInternalError(c)
		return
	}

	var responses []ArchivedEntryResponse
	for _, entry := range entries {
		responses = append(responses, mapArchivedEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// accountIDParam parses the :id path parameter, responding 400 on failure.
func (h *LedgerHandler) accountIDParam(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return uuid.Nil, false
	}
	return id, true
}

// isValidationError reports whether the posting failure belongs to the draft
// validation taxonomy rather than infrastructure.
func isValidationError(err error) bool {
	return errors.Is(err, journal.ErrInvalidTransactionType) ||
		errors.Is(err, journal.ErrTooFewEntries{}) ||
		errors.Is(err, journal.ErrMalformedEntry{}) ||
		errors.Is(err, journal.ErrUnbalanced{}) ||
		errors.Is(err, journal.ErrUnknownAccount{}) ||
		errors.Is(err, journal.ErrInactiveAccount{}) ||
		errors.Is(err, money.ErrScaleMismatch{})
}

// mapRequestToDraft converts the request DTO to a transaction draft, parsing
// the amount strings at the ledger's fixed scale.
func mapRequestToDraft(req *CreateTransactionRequest) (*journal.Draft, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, errors.New("invalid date, expected YYYY-MM-DD")
	}

	draft := &journal.Draft{
		Date:        date,
		Type:        journal.TransactionType(req.Type),
		Description: req.Description,
		Reference:   req.Reference,
		CreatedBy:   req.CreatedBy,
		Entries:     make([]journal.DraftEntry, 0, len(req.Entries)),
	}

	for _, e := range req.Entries {
		accountID, err := uuid.Parse(e.AccountID)
		if err != nil {
			return nil, errors.New("invalid account ID: " + e.AccountID)
		}
		debit, err := parseAmount(e.Debit)
		if err != nil {
			return nil, err
		}
		credit, err := parseAmount(e.Credit)
		if err != nil {
			return nil, err
		}
		draft.Entries = append(draft.Entries, journal.DraftEntry{
			AccountID:   accountID,
			Debit:       debit,
			Credit:      credit,
			Description: e.Description,
		})
	}

	return draft, nil
}

// parseAmount parses an optional fixed-point amount string; empty means zero.
func parseAmount(s string) (money.Money, error) {
	if s == "" {
		return money.Zero(money.AmountScale), nil
	}
	return money.FromString(s, money.AmountScale)
}

// mapTransactionToResponse maps a committed transaction to its response DTO
func mapTransactionToResponse(tx *journal.Transaction) TransactionResponse {
	entries := make([]EntryResponse, 0, len(tx.Entries))
	for _, e := range tx.Entries {
		entries = append(entries, EntryResponse{
			ID:          e.ID.String(),
			AccountID:   e.AccountID.String(),
			Debit:       e.Debit.StringFixed(),
			Credit:      e.Credit.StringFixed(),
			Description: e.Description,
		})
	}

	return TransactionResponse{
		ID:          tx.ID.String(),
		Number:      tx.Number,
		Date:        tx.Date.Format(dateLayout),
		Type:        string(tx.Type),
		Description: tx.Description,
		Reference:   tx.Reference,
		CreatedBy:   tx.CreatedBy,
		Entries:     entries,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

// mapAccountToResponse maps a chart account to its response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	response := AccountResponse{
		ID:          acc.ID.String(),
		Code:        acc.Code,
		Name:        acc.Name,
		Type:        string(acc.Type),
		IsActive:    acc.IsActive,
		CashFlowTag: string(acc.CashFlowTag),
		Description: acc.Description,
	}
	if acc.ParentID != uuid.Nil {
		response.ParentID = acc.ParentID.String()
	}
	return response
}

// mapArchivedEntryToResponse maps an archived entry to its response DTO
func mapArchivedEntryToResponse(entry *archive.Entry) ArchivedEntryResponse {
	return ArchivedEntryResponse{
		EntryID:           entry.EntryID.String(),
		TransactionID:     entry.TransactionID.String(),
		TransactionNumber: entry.TransactionNumber,
		AccountID:         entry.AccountID.String(),
		Date:              entry.Date.Format(dateLayout),
		Type:              entry.Type,
		Debit:             entry.Debit,
		Credit:            entry.Credit,
		Description:       entry.Description,
	}
}

// parsePeriod parses and orders a start/end date pair.
func parsePeriod(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end date precedes start date")
	}
	return start, end, nil
}
