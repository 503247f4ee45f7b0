package controller

import (
	"campusdesk/internal/access"
	"campusdesk/internal/problem/service"
	"campusdesk/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ProfessorController handles the professor problem endpoints.
type ProfessorController struct {
	problemService *service.ProblemService
}

// NewProfessorController creates a new ProfessorController.
func NewProfessorController(problemService *service.ProblemService) *ProfessorController {
	return &ProfessorController{problemService: problemService}
}

// GetAllProblems lists every problem with its owner.
func (h *ProfessorController) GetAllProblems(c *gin.Context) {
	listProblems(c, h.problemService)
}

// GetProblemByID returns any problem.
func (h *ProfessorController) GetProblemByID(c *gin.Context) {
	getProblem(c, h.problemService)
}

// RespondToProblem records a response and a status.
func (h *ProfessorController) RespondToProblem(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	view, err := h.problemService.Respond(c.Request.Context(), access.CurrentUser(c), c.Param("id"), service.RespondInput{
		Response: req.Response,
		Status:   req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Response recorded", response.Payload{"problem": view})
}

// RespondRequest defines the response payload. Status is optional.
type RespondRequest struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}
