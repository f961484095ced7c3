package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ertragswert/server/internal/cpi"
	"ertragswert/server/internal/models"
	"ertragswert/server/internal/narrative"
	"ertragswert/server/internal/processor"
	"ertragswert/server/internal/valuation"
)

type Handler struct {
	engine   *valuation.Engine
	cpi      *cpi.Service
	analyzer *narrative.Analyzer
	batch    *processor.BatchProcessor
	logger   *logrus.Logger
	now      func() time.Time
}

type BatchRequest struct {
	Properties []models.PropertyInput `json:"properties" binding:"required,min=1,dive"`
}

func NewHandler(engine *valuation.Engine, cpiService *cpi.Service, analyzer *narrative.Analyzer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if engine == nil {
		engine = valuation.NewEngine(valuation.DefaultCPIBase)
	}
	if cpiService == nil {
		cpiService = cpi.NewService(nil, nil, nil, logger)
	}

	h := &Handler{
		engine:   engine,
		cpi:      cpiService,
		analyzer: analyzer,
		logger:   logger,
		now:      time.Now,
	}
	h.SetBatchProcessor(processor.NewBatchProcessor(engine, cpiService, 0, 0, logger))
	return h
}

// SetBatchProcessor replaces the processor behind the batch endpoint
func (h *Handler) SetBatchProcessor(p *processor.BatchProcessor) {
	p.SetIDGenerator(uuid.NewString)
	h.batch = p
}

func (h *Handler) Health(c *gin.Context) {
	table := h.cpi.Table()
	body := gin.H{
		"status":           "ok",
		"cpi_readings":     table.Len(),
		"cpi_base_2001":    h.engine.CPIBase(),
		"analysis_enabled": h.analyzer.Enabled(),
	}
	if latest, ok := table.Latest(); ok {
		body["cpi_latest"] = latest
		body["cpi_updated_at"] = table.UpdatedAt().UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) GetCPI(c *gin.Context) {
	year, yearErr := strconv.Atoi(c.Param("year"))
	month, monthErr := strconv.Atoi(c.Param("month"))
	if yearErr != nil || monthErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year and month must be integers"})
		return
	}
	if err := cpi.ValidatePeriod(year, month, h.now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reading, err := h.cpi.Resolve(c.Request.Context(), year, month)
	if err != nil {
		if errors.Is(err, cpi.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": cpiNotFoundMessage(models.CPIPeriod{Year: year, Month: month})})
			return
		}
		h.logger.WithError(err).Error("Failed to resolve CPI")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "CPI: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, reading)
}

func (h *Handler) CalculateValuation(c *gin.Context) {
	var input models.PropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if input.PurchaseDate.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: purchase_date is required"})
		return
	}

	period := cpi.PurchasePeriod(input.PurchaseDate)
	reading, err := h.cpi.Resolve(c.Request.Context(), period.Year, period.Month)
	if err != nil {
		if errors.Is(err, cpi.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": cpiNotFoundMessage(period)})
			return
		}
		h.logger.WithError(err).Error("Failed to resolve CPI")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "CPI: " + err.Error()})
		return
	}

	result, err := h.engine.Calculate(input, reading)
	if err != nil {
		var validationErr *valuation.ValidationError
		var domainErr *valuation.DomainError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		case errors.As(err, &domainErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Calculation error: " + err.Error()})
		default:
			h.logger.WithError(err).Error("Valuation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Calculation error: " + err.Error()})
		}
		return
	}
	result.ID = uuid.NewString()

	h.logger.WithFields(logrus.Fields{
		"valuation_id":  result.ID,
		"property_type": input.PropertyType,
		"cpi_period":    period.String(),
		"total_value":   result.TheoreticalTotalValue,
	}).Info("Valuation calculated")

	c.JSON(http.StatusOK, result)
}

func (h *Handler) CalculateBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	items, err := h.batch.Process(c.Request.Context(), req.Properties)
	if err != nil {
		if errors.Is(err, processor.ErrEmptyBatch) || errors.Is(err, processor.ErrBatchTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		h.logger.WithError(err).Error("Batch valuation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Calculation error: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (h *Handler) AnalyzeValuation(c *gin.Context) {
	var result models.ValuationResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid valuation result: " + err.Error()})
		return
	}
	id := c.Param("valuation_id")
	if result.ID != "" && result.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valuation id does not match the request path"})
		return
	}
	result.ID = id

	analysis, err := h.analyzer.Analyze(c.Request.Context(), &result)
	if err != nil {
		if errors.Is(err, narrative.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis error: " + err.Error()})
			return
		}
		h.logger.WithError(err).WithField("valuation_id", id).Error("Failed to analyse valuation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis error: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func cpiNotFoundMessage(period models.CPIPeriod) string {
	return fmt.Sprintf("CPI: no index value found for %s", period)
}
