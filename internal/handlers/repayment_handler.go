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

// RepaymentHandler handles debt tracking requests.
type RepaymentHandler struct {
	repaymentService services.RepaymentServicer
	forecastService  services.ForecastServicer
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewRepaymentHandler creates a new RepaymentHandler.
func NewRepaymentHandler(repaymentService services.RepaymentServicer, forecastService services.ForecastServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *RepaymentHandler {
	return &RepaymentHandler{repaymentService: repaymentService, forecastService: forecastService, householdService: householdService, auditService: auditService}
}

// RepaymentRequest represents the create/update payload for a repayment.
type RepaymentRequest struct {
	Name            string     `json:"name" binding:"required,min=1,max=100"`
	StartingBalance string     `json:"starting_balance" binding:"required"`
	CurrentBalance  *string    `json:"current_balance"`
	TargetDate      *time.Time `json:"target_date"`
	InterestRate    *string    `json:"interest_rate"`
	Status          *string    `json:"status" binding:"omitempty,repayment_status"`
}

func (r *RepaymentRequest) toInput() (services.RepaymentInput, error) {
	starting, err := decimal.NewFromString(r.StartingBalance)
	if err != nil {
		return services.RepaymentInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "starting_balance must be a decimal")
	}
	input := services.RepaymentInput{
		Name:            r.Name,
		StartingBalance: starting,
		TargetDate:      r.TargetDate,
	}
	if r.CurrentBalance != nil {
		current, err := decimal.NewFromString(*r.CurrentBalance)
		if err != nil {
			return services.RepaymentInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "current_balance must be a decimal")
		}
		input.CurrentBalance = &current
	}
	if r.InterestRate != nil {
		rate, err := decimal.NewFromString(*r.InterestRate)
		if err != nil {
			return services.RepaymentInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "interest_rate must be a decimal")
		}
		input.InterestRate = &rate
	}
	if r.Status != nil {
		status := models.RepaymentStatus(*r.Status)
		input.Status = &status
	}
	return input, nil
}

// Create adds a repayment
// @Summary     Create a repayment
// @Tags        repayments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RepaymentRequest true "Repayment details"
// @Success     201 {object} models.Repayment "Repayment created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /repayments [post]
func (h *RepaymentHandler) Create(c *gin.Context) {
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

	var req RepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	repayment, err := h.repaymentService.CreateRepayment(householdID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "CREATE_REPAYMENT", "repayment", repayment.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "starting_balance": req.StartingBalance})

	c.JSON(http.StatusCreated, gin.H{"repayment": repayment})
}

// List returns the household's repayments
// @Summary     List repayments
// @Tags        repayments
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Repayment "Repayments"
// @Router      /repayments [get]
func (h *RepaymentHandler) List(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	repayments, err := h.repaymentService.GetRepayments(householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repayments": repayments})
}

// Get returns a single repayment
// @Summary     Get a repayment
// @Tags        repayments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Repayment ID"
// @Success     200 {object} models.Repayment "Repayment"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /repayments/{id} [get]
func (h *RepaymentHandler) Get(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	repayment, err := h.repaymentService.GetRepaymentByID(householdID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repayment": repayment})
}

// Update edits a repayment
// @Summary     Update a repayment
// @Tags        repayments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Repayment ID"
// @Param       request body RepaymentRequest true "New values"
// @Success     200 {object} models.Repayment "Updated repayment"
// @Router      /repayments/{id} [put]
func (h *RepaymentHandler) Update(c *gin.Context) {
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

	var req RepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	repayment, err := h.repaymentService.UpdateRepayment(householdID, c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UPDATE_REPAYMENT", "repayment", repayment.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"repayment": repayment})
}

// Delete removes a repayment and detaches any seeds pointed at it
// @Summary     Delete a repayment
// @Tags        repayments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Repayment ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /repayments/{id} [delete]
func (h *RepaymentHandler) Delete(c *gin.Context) {
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

	repaymentID := c.Param("id")
	if err := h.repaymentService.DeleteRepayment(householdID, repaymentID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "DELETE_REPAYMENT", "repayment", repaymentID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// MarkPaidOff zeroes a repayment's balance
// @Summary     Mark a repayment paid off
// @Tags        repayments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Repayment ID"
// @Success     200 {object} models.Repayment "Paid-off repayment"
// @Router      /repayments/{id}/payoff [post]
func (h *RepaymentHandler) MarkPaidOff(c *gin.Context) {
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

	repayment, err := h.repaymentService.MarkPaidOff(householdID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "PAYOFF_REPAYMENT", "repayment", repayment.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"repayment": repayment})
}

// Forecast projects a repayment's payoff across future cycles
// @Summary     Forecast a repayment
// @Description Project when the balance clears; pass per_cycle to override the derived payment
// @Tags        repayments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Repayment ID"
// @Param       per_cycle query string false "Payment per cycle"
// @Success     200 {object} services.ForecastResult "Projection"
// @Failure     400 {object} ErrorResponse "No target date and no per_cycle"
// @Router      /repayments/{id}/forecast [get]
func (h *RepaymentHandler) Forecast(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	perCycle, err := parsePerCycle(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.forecastService.RepaymentForecast(householdID, c.Param("id"), perCycle, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"forecast": result})
}
