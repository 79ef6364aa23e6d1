package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"finguy/internal/services"
)

// PipelineHandler serves machine-to-machine endpoints guarded by an API key.
type PipelineHandler struct {
	recurringService services.RecurringServicer
	batchSize        int
	now              func() time.Time
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(recurringService services.RecurringServicer, batchSize int) *PipelineHandler {
	return &PipelineHandler{recurringService: recurringService, batchSize: batchSize, now: time.Now}
}

// ProcessRecurring books every due recurring transaction in one pass.
// @Summary     Process recurring transactions
// @Description Runs one inline pass of the recurring processor
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header string true "Pipeline API key"
// @Success     200 {object} SuccessResponse{data=services.RecurringRunSummary} "Run summary"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/recurring/process [post]
func (h *PipelineHandler) ProcessRecurring(c *gin.Context) {
	summary, err := h.recurringService.ProcessDue(c.Request.Context(), h.now(), h.batchSize)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, summary)
}
