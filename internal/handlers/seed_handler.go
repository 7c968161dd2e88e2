package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cadence/internal/engine"
	apperrors "cadence/internal/errors"
	"cadence/internal/models"
	"cadence/internal/services"
)

// SeedHandler handles seed requests and paid toggles.
type SeedHandler struct {
	seedService      services.SeedServicer
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewSeedHandler creates a new SeedHandler.
func NewSeedHandler(seedService services.SeedServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *SeedHandler {
	return &SeedHandler{seedService: seedService, householdService: householdService, auditService: auditService}
}

// SeedRequest represents the create/update payload for a seed. Money
// fields travel as strings to keep cents exact.
type SeedRequest struct {
	Name              string     `json:"name" binding:"required,min=1,max=100"`
	Type              string     `json:"type" binding:"required,seed_type"`
	Amount            string     `json:"amount" binding:"required"`
	PaymentSource     string     `json:"payment_source" binding:"required,payment_source"`
	SplitRatio        *string    `json:"split_ratio"`
	UsesJointAccount  bool       `json:"uses_joint_account"`
	IsRecurring       bool       `json:"is_recurring"`
	DueDate           *time.Time `json:"due_date"`
	LinkedPotID       *string    `json:"linked_pot_id" binding:"omitempty,uuid"`
	LinkedRepaymentID *string    `json:"linked_repayment_id" binding:"omitempty,uuid"`
}

// PayRequest identifies which side of the household is ticking the
// seed off. Personal seeds accept only "both".
type PayRequest struct {
	Payer string `json:"payer" binding:"required,payer"`
}

func (r *SeedRequest) toInput() (services.SeedInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return services.SeedInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be a decimal")
	}
	input := services.SeedInput{
		Name:              r.Name,
		Type:              models.SeedType(r.Type),
		Amount:            amount,
		PaymentSource:     models.PaymentSource(r.PaymentSource),
		UsesJointAccount:  r.UsesJointAccount,
		IsRecurring:       r.IsRecurring,
		DueDate:           r.DueDate,
		LinkedPotID:       r.LinkedPotID,
		LinkedRepaymentID: r.LinkedRepaymentID,
	}
	if r.SplitRatio != nil {
		ratio, err := decimal.NewFromString(*r.SplitRatio)
		if err != nil {
			return services.SeedInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "split_ratio must be a decimal")
		}
		input.SplitRatio = &ratio
	}
	return input, nil
}

// Create adds a seed to a cycle
// @Summary     Create a seed
// @Description Add a budget line item to a draft or unlocked active cycle
// @Tags        seeds
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Cycle ID"
// @Param       request body SeedRequest true "Seed details"
// @Success     201 {object} models.Seed "Seed created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Cycle locked"
// @Router      /cycles/{id}/seeds [post]
func (h *SeedHandler) Create(c *gin.Context) {
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

	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	seed, err := h.seedService.CreateSeed(c.Request.Context(), householdID, c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "CREATE_SEED", "seed", seed.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"seed": seed})
}

// Update edits a seed
// @Summary     Update a seed
// @Description Edit a seed; paid seeds in an active cycle are frozen
// @Tags        seeds
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Seed ID"
// @Param       request body SeedRequest true "New values"
// @Success     200 {object} models.Seed "Updated seed"
// @Failure     409 {object} ErrorResponse "Seed frozen or cycle locked"
// @Router      /seeds/{id} [put]
func (h *SeedHandler) Update(c *gin.Context) {
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

	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	seed, err := h.seedService.UpdateSeed(c.Request.Context(), householdID, c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UPDATE_SEED", "seed", seed.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"seed": seed})
}

// Delete removes a seed
// @Summary     Delete a seed
// @Tags        seeds
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Seed ID"
// @Success     204 "Deleted"
// @Failure     409 {object} ErrorResponse "Seed frozen or cycle locked"
// @Router      /seeds/{id} [delete]
func (h *SeedHandler) Delete(c *gin.Context) {
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

	seedID := c.Param("id")
	if err := h.seedService.DeleteSeed(c.Request.Context(), householdID, seedID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "DELETE_SEED", "seed", seedID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// MarkPaid ticks a seed off
// @Summary     Mark a seed paid
// @Description Record one side (or both) settling a seed
// @Tags        seeds
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Seed ID"
// @Param       request body PayRequest true "Who paid"
// @Success     200 {object} models.Seed "Updated seed"
// @Failure     400 {object} ErrorResponse "Payer mismatch"
// @Router      /seeds/{id}/pay [post]
func (h *SeedHandler) MarkPaid(c *gin.Context) {
	h.togglePaid(c, true)
}

// UnmarkPaid reverses a paid toggle
// @Summary     Unmark a seed paid
// @Tags        seeds
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Seed ID"
// @Param       request body PayRequest true "Who is un-ticking"
// @Success     200 {object} models.Seed "Updated seed"
// @Router      /seeds/{id}/unpay [post]
func (h *SeedHandler) UnmarkPaid(c *gin.Context) {
	h.togglePaid(c, false)
}

func (h *SeedHandler) togglePaid(c *gin.Context, paid bool) {
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

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	seedID := c.Param("id")
	payer := engine.Payer(req.Payer)

	var seed *models.Seed
	action := "MARK_SEED_PAID"
	if paid {
		seed, err = h.seedService.MarkPaid(c.Request.Context(), householdID, seedID, payer)
	} else {
		action = "UNMARK_SEED_PAID"
		seed, err = h.seedService.UnmarkPaid(c.Request.Context(), householdID, seedID, payer)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, action, "seed", seed.ID, c.ClientIP(),
		map[string]interface{}{"payer": req.Payer})

	c.JSON(http.StatusOK, gin.H{"seed": seed})
}
