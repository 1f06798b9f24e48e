package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openledger-engine/internal/api_gateway/service"
	"github.com/openledger-engine/internal/ledger"
)

// ReportHandler handles HTTP requests for financial statements
type ReportHandler struct {
	reportService service.ReportService
	logger        *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(logger *slog.Logger, reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// BalanceSheet renders the balance sheet as of a date (defaults to today).
// A failed accounting identity is reported, never papered over
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
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

	sheet, err := h.reportService.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		if errors.Is(err, ledger.ErrIntegrityViolation{}) {
			RespondWithError(c, http.StatusInternalServerError, "INTEGRITY_VIOLATION", err.Error())
			return
		}
		h.logger.Error("Failed to build balance sheet", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, sheet)
}

// IncomeStatement renders revenue and expense flows over a period
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	start, end, ok := h.periodParams(c)
	if !ok {
		return
	}

	stmt, err := h.reportService.IncomeStatement(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("Failed to build income statement", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, stmt)
}

// CashFlow renders period movements partitioned by cash flow tag
func (h *ReportHandler) CashFlow(c *gin.Context) {
	start, end, ok := h.periodParams(c)
	if !ok {
		return
	}

	flow, err := h.reportService.CashFlow(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("Failed to build cash flow statement", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, flow)
}

// periodParams binds and parses the start/end query pair, responding 400 on
// failure.
func (h *ReportHandler) periodParams(c *gin.Context) (time.Time, time.Time, bool) {
	var params PeriodQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "start and end query parameters are required")
		return time.Time{}, time.Time{}, false
	}

	start, end, err := parsePeriod(params.Start, params.End)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
