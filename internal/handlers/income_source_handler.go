package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "cadence/internal/errors"
	"cadence/internal/models"
	"cadence/internal/services"
)

// IncomeSourceHandler handles income stream requests.
type IncomeSourceHandler struct {
	incomeService    services.IncomeSourceServicer
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewIncomeSourceHandler creates a new IncomeSourceHandler.
func NewIncomeSourceHandler(incomeService services.IncomeSourceServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *IncomeSourceHandler {
	return &IncomeSourceHandler{incomeService: incomeService, householdService: householdService, auditService: auditService}
}

// IncomeSourceRequest represents the create/update payload for an
// income stream. Amount travels as a string to keep cents exact.
type IncomeSourceRequest struct {
	Name          string     `json:"name" binding:"required,min=1,max=100"`
	Amount        string     `json:"amount" binding:"required"`
	FrequencyRule string     `json:"frequency_rule" binding:"required,pay_cycle_type"`
	DayOfMonth    *int       `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	AnchorDate    *time.Time `json:"anchor_date"`
	PaymentSource string     `json:"payment_source" binding:"required,payment_source"`
	IsActive      *bool      `json:"is_active"`
}

func (r *IncomeSourceRequest) toInput() (services.IncomeSourceInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return services.IncomeSourceInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be a decimal")
	}
	return services.IncomeSourceInput{
		Name:          r.Name,
		Amount:        amount,
		FrequencyRule: models.PayCycleType(r.FrequencyRule),
		DayOfMonth:    r.DayOfMonth,
		AnchorDate:    r.AnchorDate,
		PaymentSource: models.PaymentSource(r.PaymentSource),
		IsActive:      r.IsActive,
	}, nil
}

// Create adds an income stream
// @Summary     Create an income source
// @Description Add a recurring income stream to the household
// @Tags        income-sources
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body IncomeSourceRequest true "Income source details"
// @Success     201 {object} models.IncomeSource "Income source created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /income-sources [post]
func (h *IncomeSourceHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IncomeSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	source, err := h.incomeService.CreateIncomeSource(householdID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "CREATE_INCOME_SOURCE", "income_source", source.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"income_source": source})
}

// List returns the household's income streams
// @Summary     List income sources
// @Tags        income-sources
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.IncomeSource "Income sources"
// @Router      /income-sources [get]
func (h *IncomeSourceHandler) List(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sources, err := h.incomeService.GetIncomeSources(householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"income_sources": sources})
}

// Update replaces an income stream's fields
// @Summary     Update an income source
// @Tags        income-sources
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income source ID"
// @Param       request body IncomeSourceRequest true "New values"
// @Success     200 {object} models.IncomeSource "Updated income source"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /income-sources/{id} [put]
func (h *IncomeSourceHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IncomeSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	source, err := h.incomeService.UpdateIncomeSource(householdID, c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UPDATE_INCOME_SOURCE", "income_source", source.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"income_source": source})
}

// Delete removes an income stream
// @Summary     Delete an income source
// @Tags        income-sources
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income source ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /income-sources/{id} [delete]
func (h *IncomeSourceHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sourceID := c.Param("id")
	if err := h.incomeService.DeleteIncomeSource(householdID, sourceID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "DELETE_INCOME_SOURCE", "income_source", sourceID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
