package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cadence/internal/services"
)

// OpsHandler exposes the internal operational endpoints that automation
// calls. These routes sit behind the X-API-Key middleware, not the
// bearer-token middleware.
type OpsHandler struct {
	cycleService services.PayCycleServicer
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cycleService services.PayCycleServicer) *OpsHandler {
	return &OpsHandler{cycleService: cycleService}
}

// PromoteDue promotes every draft cycle whose start date has arrived
// @Summary     Promote due drafts
// @Description Activate all draft cycles whose start date has passed; the scheduler calls this daily
// @Tags        internal
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]int "Number of promoted cycles"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /internal/promote-due [post]
func (h *OpsHandler) PromoteDue(c *gin.Context) {
	promoted, err := h.cycleService.PromoteDue(c.Request.Context(), time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"promoted": promoted})
}
