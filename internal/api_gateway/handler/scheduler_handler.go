package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openledger-engine/internal/api_gateway/service"
	"github.com/openledger-engine/internal/ledger"
)

// SchedulerHandler handles HTTP requests for manual scheduler ticks
type SchedulerHandler struct {
	schedulerService service.SchedulerService
	logger           *slog.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(logger *slog.Logger, schedulerService service.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// TickDepreciation generates due depreciation postings for all active assets
// up to the given date (defaults to today)
func (h *SchedulerHandler) TickDepreciation(c *gin.Context) {
	today, ok := h.tickDate(c)
	if !ok {
		return
	}

	results, err := h.schedulerService.TickDepreciation(c.Request.Context(), today)
	if err != nil {
		h.logger.Error("Depreciation tick failed", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]DepreciationTickResponse, 0, len(results))
	for _, res := range results {
		responses = append(responses, mapDepreciationResultToResponse(res))
	}
	RespondOK(c, responses)
}

// TickRecurrence fires all due recurring-transaction templates up to the
// given date (defaults to today)
func (h *SchedulerHandler) TickRecurrence(c *gin.Context) {
	today, ok := h.tickDate(c)
	if !ok {
		return
	}

	results, err := h.schedulerService.TickRecurrence(c.Request.Context(), today)
	if err != nil {
		h.logger.Error("Recurrence tick failed", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]RecurrenceTickResponse, 0, len(results))
	for _, res := range results {
		responses = append(responses, mapRecurrenceResultToResponse(res))
	}
	RespondOK(c, responses)
}

// tickDate binds the optional as_of query parameter, responding 400 on a
// malformed date.
func (h *SchedulerHandler) tickDate(c *gin.Context) (time.Time, bool) {
	var params TickQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters")
		return time.Time{}, false
	}

	if params.AsOf == "" {
		return time.Now().UTC(), true
	}
	today, err := time.Parse(dateLayout, params.AsOf)
	if err != nil {
		RespondBadRequest(c, "Invalid as_of date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return today, true
}

// mapDepreciationResultToResponse maps one tick result to its response DTO
func mapDepreciationResultToResponse(res ledger.DepreciationResult) DepreciationTickResponse {
	response := DepreciationTickResponse{
		AssetID: res.AssetID.String(),
		Period:  res.Period.String(),
		State:   string(res.State),
	}
	if res.Err != nil {
		response.Error = res.Err.Error()
		return response
	}
	response.Amount = res.Amount.StringFixed()
	if res.Transaction != nil {
		response.TransactionID = res.Transaction.ID.String()
	}
	return response
}

// mapRecurrenceResultToResponse maps one firing attempt to its response DTO
func mapRecurrenceResultToResponse(res ledger.RecurrenceResult) RecurrenceTickResponse {
	response := RecurrenceTickResponse{
		TemplateID: res.TemplateID.String(),
		Date:       res.Date.Format(dateLayout),
	}
	if res.Err != nil {
		response.Error = res.Err.Error()
		return response
	}
	if res.Transaction != nil {
		response.TransactionID = res.Transaction.ID.String()
	}
	return response
}
