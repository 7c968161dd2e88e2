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

// HouseholdHandler handles household-related requests.
type HouseholdHandler struct {
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewHouseholdHandler creates a new HouseholdHandler.
func NewHouseholdHandler(householdService services.HouseholdServicer, auditService services.AuditServicer) *HouseholdHandler {
	return &HouseholdHandler{householdService: householdService, auditService: auditService}
}

// CreateHouseholdRequest represents the request payload for creating a household.
type CreateHouseholdRequest struct {
	Name           string     `json:"name" binding:"required,min=1,max=100"`
	Currency       string     `json:"currency" binding:"omitempty,iso4217"`
	PayCycleType   string     `json:"pay_cycle_type" binding:"required,pay_cycle_type"`
	PayDay         *int       `json:"pay_day" binding:"omitempty,min=1,max=31"`
	PayCycleAnchor *time.Time `json:"pay_cycle_anchor"`
}

// JoinHouseholdRequest represents the request payload for joining a household.
type JoinHouseholdRequest struct {
	HouseholdID string `json:"household_id" binding:"required,uuid"`
}

// UpdateSettingsRequest represents the partial settings update payload.
type UpdateSettingsRequest struct {
	Name           *string    `json:"name" binding:"omitempty,min=1,max=100"`
	Currency       *string    `json:"currency" binding:"omitempty,iso4217"`
	JointRatio     *string    `json:"joint_ratio"`
	PayCycleType   *string    `json:"pay_cycle_type" binding:"omitempty,pay_cycle_type"`
	PayDay         *int       `json:"pay_day" binding:"omitempty,min=1,max=31"`
	PayCycleAnchor *time.Time `json:"pay_cycle_anchor"`
}

// UpdatePercentagesRequest carries the four category percentages. They
// are validated as a unit in the service.
type UpdatePercentagesRequest struct {
	Needs   int `json:"needs" binding:"min=0,max=100"`
	Wants   int `json:"wants" binding:"min=0,max=100"`
	Savings int `json:"savings" binding:"min=0,max=100"`
	Repay   int `json:"repay" binding:"min=0,max=100"`
}

// Create handles household creation
// @Summary     Create a household
// @Description Create a household with the caller as its owner
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateHouseholdRequest true "Household details"
// @Success     201 {object} models.Household "Household created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Already in a household"
// @Router      /households [post]
func (h *HouseholdHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "GBP"
	}

	household, err := h.householdService.CreateHousehold(
		userID,
		req.Name,
		currency,
		models.PayCycleType(req.PayCycleType),
		req.PayDay,
		req.PayCycleAnchor,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, household.ID, "CREATE_HOUSEHOLD", "household", household.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusCreated, gin.H{"household": household})
}

// Get returns the caller's household
// @Summary     Get my household
// @Description Get the household the caller belongs to
// @Tags        households
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Household "Household"
// @Failure     404 {object} ErrorResponse "Not in a household"
// @Router      /households/me [get]
func (h *HouseholdHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	household, err := h.householdService.GetHouseholdForUser(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"household": household})
}

// Join adds the caller to an existing household
// @Summary     Join a household
// @Description Join an existing household as the partner
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body JoinHouseholdRequest true "Household to join"
// @Success     200 {object} models.Household "Joined household"
// @Failure     409 {object} ErrorResponse "Household full or already a member"
// @Router      /households/join [post]
func (h *HouseholdHandler) Join(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req JoinHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	household, err := h.householdService.JoinHousehold(userID, req.HouseholdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, household.ID, "JOIN_HOUSEHOLD", "household", household.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"household": household})
}

// UpdateSettings applies partial settings changes
// @Summary     Update household settings
// @Description Update the household's name, currency, joint ratio or pay cycle calendar
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateSettingsRequest true "Settings to change"
// @Success     200 {object} models.Household "Updated household"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /households/settings [patch]
func (h *HouseholdHandler) UpdateSettings(c *gin.Context) {
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

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settings := services.HouseholdSettings{
		Name:           req.Name,
		Currency:       req.Currency,
		PayDay:         req.PayDay,
		PayCycleAnchor: req.PayCycleAnchor,
	}
	if req.PayCycleType != nil {
		cycleType := models.PayCycleType(*req.PayCycleType)
		settings.PayCycleType = &cycleType
	}
	if req.JointRatio != nil {
		ratio, err := decimal.NewFromString(*req.JointRatio)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "joint_ratio must be a decimal"))
			return
		}
		settings.JointRatio = &ratio
	}

	household, err := h.householdService.UpdateSettings(householdID, settings)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UPDATE_HOUSEHOLD_SETTINGS", "household", householdID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"household": household})
}

// UpdatePercentages replaces the category split
// @Summary     Update category percentages
// @Description Replace the needs/wants/savings/repay split; must sum to 100
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdatePercentagesRequest true "New percentages"
// @Success     200 {object} models.Household "Updated household"
// @Failure     400 {object} ErrorResponse "Percentages do not sum to 100"
// @Router      /households/percentages [put]
func (h *HouseholdHandler) UpdatePercentages(c *gin.Context) {
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

	var req UpdatePercentagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	household, err := h.householdService.UpdatePercentages(householdID, req.Needs, req.Wants, req.Savings, req.Repay)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UPDATE_PERCENTAGES", "household", householdID, c.ClientIP(),
		map[string]interface{}{"needs": req.Needs, "wants": req.Wants, "savings": req.Savings, "repay": req.Repay})

	c.JSON(http.StatusOK, gin.H{"household": household})
}
