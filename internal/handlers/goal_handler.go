package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finguy/internal/services"
)

// GoalHandler handles savings goal requests.
type GoalHandler struct {
	goalService  services.GoalServicer
	auditService services.AuditServicer
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService services.GoalServicer, auditService services.AuditServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService, auditService: auditService}
}

// CreateGoalRequest represents the request payload for creating a goal.
type CreateGoalRequest struct {
	Title        string          `json:"title" binding:"required,min=1,max=100"`
	TargetAmount decimal.Decimal `json:"target_amount" swaggertype:"string" example:"1000.00" binding:"gt=0"`
	SavedAmount  decimal.Decimal `json:"saved_amount" swaggertype:"string" example:"0" binding:"gte=0"`
}

// UpdateGoalRequest represents the request payload for updating a goal.
type UpdateGoalRequest struct {
	Title        *string          `json:"title" binding:"omitempty,min=1,max=100"`
	TargetAmount *decimal.Decimal `json:"target_amount" swaggertype:"string" binding:"omitempty,gt=0"`
	SavedAmount  *decimal.Decimal `json:"saved_amount" swaggertype:"string" binding:"omitempty,gte=0"`
}

// AddMoneyRequest is a deposit into a goal.
type AddMoneyRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00" binding:"gt=0"`
}

// CreateGoal handles the creation of a savings goal.
// @Summary     Create a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal details"
// @Success     201 {object} SuccessResponse{data=models.Goal} "Goal created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	goal, err := h.goalService.CreateGoal(c.Request.Context(), userID, req.Title, req.TargetAmount, req.SavedAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "CREATE_GOAL", "goal", goal.ID,
		map[string]interface{}{"title": goal.Title, "target_amount": goal.TargetAmount.String()})

	respondCreated(c, goal)
}

// GetUserGoals lists the caller's goals.
// @Summary     List goals
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=[]models.Goal} "Goals"
// @Router      /goals [get]
func (h *GoalHandler) GetUserGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goals, err := h.goalService.GetUserGoals(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, goals)
}

// GetGoalByID returns one goal.
// @Summary     Get a goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} SuccessResponse{data=models.Goal} "Goal"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /goals/{id} [get]
func (h *GoalHandler) GetGoalByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.GetGoalByID(c.Request.Context(), userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, goal)
}

// UpdateGoal patches a goal.
// @Summary     Update a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Goal ID"
// @Param       request body UpdateGoalRequest true "Fields to update"
// @Success     200 {object} SuccessResponse{data=models.Goal} "Goal updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	goal, err := h.goalService.UpdateGoal(c.Request.Context(), userID, goalID, services.GoalUpdateFields{
		Title:        req.Title,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "UPDATE_GOAL", "goal", goal.ID, nil)
	respondOK(c, goal)
}

// DeleteGoal removes a goal.
// @Summary     Delete a goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} SuccessResponse "Goal deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.goalService.DeleteGoal(c.Request.Context(), userID, goalID); err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "DELETE_GOAL", "goal", goalID, nil)
	respondOK(c, gin.H{"id": goalID})
}

// AddMoney deposits into a goal.
// @Summary     Add money to a goal
// @Description Atomically increments the saved amount
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Goal ID"
// @Param       request body AddMoneyRequest true "Deposit"
// @Success     200 {object} SuccessResponse{data=models.Goal} "Updated goal"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /goals/{id}/add-money [post]
func (h *GoalHandler) AddMoney(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	goal, err := h.goalService.AddMoney(c.Request.Context(), userID, goalID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "ADD_MONEY_TO_GOAL", "goal", goal.ID,
		map[string]interface{}{"amount": req.Amount.String(), "completed": goal.IsCompleted})

	respondOK(c, goal)
}
