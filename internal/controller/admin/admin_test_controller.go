package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/verticalstudies/coaching-api/internal/controller"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/middleware"
	"github.com/verticalstudies/coaching-api/internal/service"
)

type AdminTestController struct {
	adminTestService service.AdminTestService
}

func NewAdminTestController(adminTestService service.AdminTestService) *AdminTestController {
	return &AdminTestController{adminTestService: adminTestService}
}

// CreateTest godoc
// @Summary (Teacher/Admin) Create a test with its answer key
// @Description Creates a chapter or full test. Total marks are the sum of question marks; passing marks may not exceed them.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param test_data body dto.TestCreateDTO true "Test metadata and questions"
// @Success 201 {object} dto.TestResponseDTO "Test created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 403 {object} dto.ErrorResponse "Teacher or admin role required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)

	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Admin CreateTest", err)
		return
	}

	testResp, err := c.adminTestService.CreateTest(ctx.Request.Context(), user, req)
	if err != nil {
		controller.RespondError(ctx, "Admin CreateTest", err)
		return
	}
	ctx.JSON(http.StatusCreated, testResp)
}

// GenerateQuestions godoc
// @Summary (Teacher/Admin) Draft questions with Gemini
// @Description Asks the LLM for multiple-choice drafts on a topic. Nothing is stored; review the drafts and submit them with CreateTest.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuestionsDTO true "Topic, count and difficulty"
// @Success 200 {object} dto.GeneratedQuestionsDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 503 {object} dto.ErrorResponse "Question generation unavailable"
// @Router /admin/tests/generate-questions [post]
func (c *AdminTestController) GenerateQuestions(ctx *gin.Context) {
	var req dto.GenerateQuestionsDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Admin GenerateQuestions", err)
		return
	}
	resp, err := c.adminTestService.GenerateQuestions(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Admin GenerateQuestions", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// RegisterRoutes mounts the authoring routes on an already authenticated group.
func (c *AdminTestController) RegisterRoutes(rg *gin.RouterGroup) {
	tests := rg.Group("/tests")
	tests.POST("", c.CreateTest)
	tests.POST("/generate-questions", c.GenerateQuestions)
}
