package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "cadence/internal/errors"
	"cadence/internal/pagination"
	"cadence/internal/services"
)

// PayCycleHandler handles cycle lifecycle and ritual requests.
type PayCycleHandler struct {
	cycleService     services.PayCycleServicer
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewPayCycleHandler creates a new PayCycleHandler.
func NewPayCycleHandler(cycleService services.PayCycleServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *PayCycleHandler {
	return &PayCycleHandler{cycleService: cycleService, householdService: householdService, auditService: auditService}
}

// GetActive returns the active cycle view
// @Summary     Get the active cycle
// @Description Get the active cycle with seeds, allocations, transfers and income events
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.CycleView "Active cycle"
// @Failure     404 {object} ErrorResponse "No active cycle"
// @Router      /cycles/active [get]
func (h *PayCycleHandler) GetActive(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.cycleService.GetActive(householdID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetHistory lists past and present cycles
// @Summary     List cycles
// @Description List the household's cycles, newest first
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.PayCycle] "Cycles"
// @Router      /cycles [get]
func (h *PayCycleHandler) GetHistory(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.cycleService.GetHistory(householdID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCycle returns one cycle
// @Summary     Get a cycle
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Cycle ID"
// @Success     200 {object} models.PayCycle "Cycle"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /cycles/{id} [get]
func (h *PayCycleHandler) GetCycle(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cycle, err := h.cycleService.GetCycle(householdID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycle": cycle})
}

// CreateNext drafts the next cycle
// @Summary     Draft the next cycle
// @Description Create a draft for the window after the active cycle, cloning recurring seeds
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Success     201 {object} models.PayCycle "Draft created"
// @Failure     409 {object} ErrorResponse "Draft already exists"
// @Router      /cycles/next [post]
func (h *PayCycleHandler) CreateNext(c *gin.Context) {
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

	draft, err := h.cycleService.CreateNext(c.Request.Context(), householdID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "CREATE_DRAFT_CYCLE", "pay_cycle", draft.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{"cycle": draft})
}

// ResyncDraft refreshes the draft from the active cycle
// @Summary     Resync the draft cycle
// @Description Re-copy the active cycle's recurring seeds into the draft
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.PayCycle "Resynced draft"
// @Failure     409 {object} ErrorResponse "No draft to resync"
// @Router      /cycles/draft/resync [post]
func (h *PayCycleHandler) ResyncDraft(c *gin.Context) {
	householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	draft, err := h.cycleService.ResyncDraft(householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycle": draft})
}

// StartNext begins the next cycle
// @Summary     Start the next cycle
// @Description Archive the active cycle and activate the draft (creating one if needed)
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.PayCycle "New active cycle"
// @Router      /cycles/start [post]
func (h *PayCycleHandler) StartNext(c *gin.Context) {
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

	cycle, err := h.cycleService.StartNext(c.Request.Context(), householdID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "START_CYCLE", "pay_cycle", cycle.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"cycle": cycle})
}

// CloseRitual completes the payday ritual
// @Summary     Close the payday ritual
// @Description Lock the active cycle once every seed is settled
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Cycle ID"
// @Success     200 {object} models.PayCycle "Locked cycle"
// @Failure     409 {object} ErrorResponse "Unpaid seeds remain"
// @Router      /cycles/{id}/close [post]
func (h *PayCycleHandler) CloseRitual(c *gin.Context) {
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

	cycle, err := h.cycleService.CloseRitual(c.Request.Context(), householdID, c.Param("id"), time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "CLOSE_RITUAL", "pay_cycle", cycle.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"cycle": cycle})
}

// UnlockRitual reopens a closed ritual
// @Summary     Unlock the payday ritual
// @Description Reopen a locked cycle; paid flags survive
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Cycle ID"
// @Success     200 {object} models.PayCycle "Unlocked cycle"
// @Failure     409 {object} ErrorResponse "Ritual not closed"
// @Router      /cycles/{id}/unlock [post]
func (h *PayCycleHandler) UnlockRitual(c *gin.Context) {
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

	cycle, err := h.cycleService.UnlockRitual(householdID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UNLOCK_RITUAL", "pay_cycle", cycle.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"cycle": cycle})
}
