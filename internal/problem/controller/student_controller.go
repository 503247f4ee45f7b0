package controller

import (
	"campusdesk/internal/access"
	"campusdesk/internal/problem/service"
	"campusdesk/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// StudentController handles the student problem endpoints.
type StudentController struct {
	problemService *service.ProblemService
}

// NewStudentController creates a new StudentController.
func NewStudentController(problemService *service.ProblemService) *StudentController {
	return &StudentController{problemService: problemService}
}

// CreateProblem submits a new problem for the caller.
func (h *StudentController) CreateProblem(c *gin.Context) {
	var req CreateProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	view, err := h.problemService.Submit(c.Request.Context(), access.CurrentUser(c), service.SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Problem created", response.Payload{"problem": view})
}

// AllProblems lists the caller's own problems.
func (h *StudentController) AllProblems(c *gin.Context) {
	listProblems(c, h.problemService)
}

// GetProblemByID returns one of the caller's problems.
func (h *StudentController) GetProblemByID(c *gin.Context) {
	getProblem(c, h.problemService)
}

func listProblems(c *gin.Context, svc *service.ProblemService) {
	views, err := svc.ListForRole(c.Request.Context(), access.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", response.Payload{"problems": views})
}

func getProblem(c *gin.Context, svc *service.ProblemService) {
	view, err := svc.GetForRole(c.Request.Context(), access.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", response.Payload{"problem": view})
}

// CreateProblemRequest defines the problem submission payload.
type CreateProblemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
