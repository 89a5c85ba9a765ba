package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fintrack-app/fintrack_backend/internal/apperrors"
	portssvc "github.com/fintrack-app/fintrack_backend/internal/core/ports/services"
	"github.com/fintrack-app/fintrack_backend/internal/dto"
	"github.com/fintrack-app/fintrack_backend/internal/middleware"
	"github.com/fintrack-app/fintrack_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// rateHandler handles HTTP requests related to exchange rates and the sync engines.
type rateHandler struct {
	rateService portssvc.ExchangeRateSvcFacade
}

// newRateHandler creates a new rateHandler.
func newRateHandler(rs portssvc.ExchangeRateSvcFacade) *rateHandler {
	return &rateHandler{
		rateService: rs,
	}
}

// registerRateRoutes registers routes related to exchange rates.
// The refresh/backfill triggers are rate-limited; each one fans out to the
// external quote provider.
func registerRateRoutes(rg *gin.RouterGroup, cfg *config.Config, rateService portssvc.ExchangeRateSvcFacade) {
	h := newRateHandler(rateService)
	triggerLimiter := newTriggerLimiter(cfg)

	rates := rg.Group("/rates")
	{
		rates.GET("/latest", h.getLatestRate)
		rates.GET("/history", h.getRateHistory)
		rates.POST("/refresh", triggerLimiter, h.refreshRates)
		rates.POST("/backfill", triggerLimiter, h.backfillRates)
	}
}

// getLatestRate returns the most recent rate for a pair, querying in either
// direction.
func (h *rateHandler) getLatestRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.LatestRateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rate, err := h.rateService.GetLatestRate(c.Request.Context(), query.From, query.To)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No exchange rate found for " + query.From + "/" + query.To})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to get latest exchange rate", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get latest exchange rate"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToExchangeRateResponse(rate))
}

// getRateHistory returns the stored daily history for a pair, oldest first.
func (h *rateHandler) getRateHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.RateHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rates, err := h.rateService.ListRateHistory(c.Request.Context(), query.From, query.To, query.FromDate, query.ToDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list exchange rate history", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list exchange rate history"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListExchangeRateResponse(rates))
}

// refreshRates triggers a full spot-rate refresh and returns its summary.
func (h *rateHandler) refreshRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("Received request to refresh all rates")

	summary, err := h.rateService.RefreshAllRates(c.Request.Context())
	if err != nil {
		logger.Error("Rate refresh failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate refresh failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToRefreshSummaryResponse(summary))
}

// backfillRates triggers a historical backfill for one user and returns its summary.
func (h *rateHandler) backfillRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to backfill historical rates", slog.String("user_id", req.UserID))

	summary, err := h.rateService.BackfillHistoricalRates(c.Request.Context(), req.UserID, req.AccountIDs)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("Historical backfill failed", slog.String("user_id", req.UserID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Historical backfill failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBackfillSummaryResponse(summary))
}
