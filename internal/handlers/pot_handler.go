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

// PotHandler handles savings goal requests.
type PotHandler struct {
	potService       services.PotServicer
	forecastService  services.ForecastServicer
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewPotHandler creates a new PotHandler.
func NewPotHandler(potService services.PotServicer, forecastService services.ForecastServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *PotHandler {
	return &PotHandler{potService: potService, forecastService: forecastService, householdService: householdService, auditService: auditService}
}

// PotRequest represents the create/update payload for a pot.
type PotRequest struct {
	Name          string     `json:"name" binding:"required,min=1,max=100"`
	TargetAmount  string     `json:"target_amount" binding:"required"`
	CurrentAmount *string    `json:"current_amount"`
	TargetDate    *time.Time `json:"target_date"`
	Status        *string    `json:"status" binding:"omitempty,pot_status"`
}

func (r *PotRequest) toInput() (services.PotInput, error) {
	target, err := decimal.NewFromString(r.TargetAmount)
	if err != nil {
		return services.PotInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "target_amount must be a decimal")
	}
	input := services.PotInput{
		Name:         r.Name,
		TargetAmount: target,
		TargetDate:   r.TargetDate,
	}
	if r.CurrentAmount != nil {
		current, err := decimal.NewFromString(*r.CurrentAmount)
		if err != nil {
			return services.PotInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "current_amount must be a decimal")
		}
		input.CurrentAmount = &current
	}
	if r.Status != nil {
		status := models.PotStatus(*r.Status)
		input.Status = &status
	}
	return input, nil
}

// Create adds a savings pot
// @Summary     Create a pot
// @Tags        pots
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PotRequest true "Pot details"
// @Success     201 {object} models.Pot "Pot created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /pots [post]
func (h *PotHandler) Create(c *gin.Context) {
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

	var req PotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	pot, err := h.potService.CreatePot(householdID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "CREATE_POT", "pot", pot.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "target_amount": req.TargetAmount})

	c.JSON(http.StatusCreated, gin.H{"pot": pot})
}

// List returns the household's pots
// @Summary     List pots
// @Tags        pots
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Pot "Pots"
// @Router      /pots [get]
func (h *PotHandler) List(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pots, err := h.potService.GetPots(householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pots": pots})
}

// Get returns a single pot
// @Summary     Get a pot
// @Tags        pots
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pot ID"
// @Success     200 {object} models.Pot "Pot"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /pots/{id} [get]
func (h *PotHandler) Get(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pot, err := h.potService.GetPotByID(householdID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pot": pot})
}

// Update edits a pot
// @Summary     Update a pot
// @Tags        pots
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pot ID"
// @Param       request body PotRequest true "New values"
// @Success     200 {object} models.Pot "Updated pot"
// @Router      /pots/{id} [put]
func (h *PotHandler) Update(c *gin.Context) {
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

	var req PotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	pot, err := h.potService.UpdatePot(householdID, c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UPDATE_POT", "pot", pot.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"pot": pot})
}

// Delete removes a pot and detaches any seeds pointed at it
// @Summary     Delete a pot
// @Tags        pots
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pot ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /pots/{id} [delete]
func (h *PotHandler) Delete(c *gin.Context) {
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

	potID := c.Param("id")
	if err := h.potService.DeletePot(householdID, potID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "DELETE_POT", "pot", potID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// MarkComplete closes a pot
// @Summary     Mark a pot complete
// @Tags        pots
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pot ID"
// @Success     200 {object} models.Pot "Completed pot"
// @Router      /pots/{id}/complete [post]
func (h *PotHandler) MarkComplete(c *gin.Context) {
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

	pot, err := h.potService.MarkComplete(householdID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "COMPLETE_POT", "pot", pot.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"pot": pot})
}

// Forecast projects a pot's growth across future cycles
// @Summary     Forecast a pot
// @Description Project when the pot reaches its target; pass per_cycle to override the derived contribution
// @Tags        pots
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pot ID"
// @Param       per_cycle query string false "Contribution per cycle"
// @Success     200 {object} services.ForecastResult "Projection"
// @Failure     400 {object} ErrorResponse "No target date and no per_cycle"
// @Router      /pots/{id}/forecast [get]
func (h *PotHandler) Forecast(c *gin.Context) {
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

	result, err := h.forecastService.PotForecast(householdID, c.Param("id"), perCycle, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"forecast": result})
}

func parsePerCycle(c *gin.Context) (*decimal.Decimal, error) {
	raw := c.Query("per_cycle")
	if raw == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "per_cycle must be a decimal")
	}
	return &amount, nil
}
