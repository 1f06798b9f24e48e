package handler

// EntryRequest represents one line of a transaction draft. Amounts are
// fixed-point decimal strings; exactly one of debit/credit must be non-zero
type EntryRequest struct {
	AccountID   string `json:"account_id" binding:"required,uuid"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateTransactionRequest represents a request to post a new transaction
type CreateTransactionRequest struct {
	Date        string         `json:"date" binding:"required,datetime=2006-01-02"`
	Type        string         `json:"type" binding:"required"`
	Description string         `json:"description" binding:"required"`
	Reference   string         `json:"reference,omitempty"`
	CreatedBy   string         `json:"created_by,omitempty"`
	Entries     []EntryRequest `json:"entries" binding:"required,min=2,dive"`
}

// EntryResponse represents one committed journal entry in API responses
type EntryResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty"`
}

// TransactionResponse represents a committed transaction in API responses
type TransactionResponse struct {
	ID          string          `json:"id"`
	Number      int64           `json:"number"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`
	Entries     []EntryResponse `json:"entries"`
	CreatedAt   string          `json:"created_at"`
}

// AccountResponse represents a chart-of-accounts node in API responses
type AccountResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	ParentID    string `json:"parent_id,omitempty"`
	IsActive    bool   `json:"is_active"`
	CashFlowTag string `json:"cash_flow_tag,omitempty"`
	Description string `json:"description,omitempty"`
}

// BalanceResponse represents a point-in-time balance query result
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	AsOf      string `json:"as_of"`
	Rollup    bool   `json:"rollup"`
	Balance   string `json:"balance"`
}

// PeriodBalanceResponse represents a period balance query result
type PeriodBalanceResponse struct {
	AccountID string `json:"account_id"`
	Start     string `json:"period_start"`
	End       string `json:"period_end"`
	Rollup    bool   `json:"rollup"`
	Balance   string `json:"balance"`
}

// ArchivedEntryResponse represents one archived journal entry in account
// history responses
type ArchivedEntryResponse struct {
	EntryID           string `json:"entry_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionNumber int64  `json:"transaction_number"`
	AccountID         string `json:"account_id"`
	Date              string `json:"date"`
	Type              string `json:"type"`
	Debit             string `json:"debit"`
	Credit            string `json:"credit"`
	Description       string `json:"description,omitempty"`
}

// DepreciationTickResponse represents one asset's outcome of a depreciation
// tick
type DepreciationTickResponse struct {
	AssetID       string `json:"asset_id"`
	Period        string `json:"period,omitempty"`
	Amount        string `json:"amount,omitempty"`
	State         string `json:"state,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// RecurrenceTickResponse represents one template firing attempt of a
// recurrence tick
type RecurrenceTickResponse struct {
	TemplateID    string `json:"template_id"`
	Date          string `json:"date"`
	TransactionID string `json:"transaction_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BalanceQueryParams represents query parameters for balance endpoints
type BalanceQueryParams struct {
	AsOf   string `form:"as_of"`
	Rollup bool   `form:"rollup,default=false"`
}

// PeriodQueryParams represents query parameters for period-scoped endpoints
type PeriodQueryParams struct {
	Start  string `form:"start" binding:"required"`
	End    string `form:"end" binding:"required"`
	Rollup bool   `form:"rollup,default=false"`
}

// TickQueryParams represents query parameters for scheduler tick endpoints
type TickQueryParams struct {
	AsOf string `form:"as_of"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
