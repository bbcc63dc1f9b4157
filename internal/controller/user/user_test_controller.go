package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/internal/controller"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/middleware"
	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/service"
)

type UserTestController struct {
	userTestService       service.UserTestService
	testSubmissionService service.TestSubmissionService
	leaderboardService    service.LeaderboardService
}

func NewUserTestController(uts service.UserTestService, tss service.TestSubmissionService, lbs service.LeaderboardService) *UserTestController {
	return &UserTestController{
		userTestService:       uts,
		testSubmissionService: tss,
		leaderboardService:    lbs,
	}
}

// GetAllTests godoc
// @Summary List available tests
// @Description Lists tests, newest first, optionally filtered by subject or chapter.
// @Tags User - Tests & Attempts
// @Produce json
// @Param subject_id query string false "Subject ID"
// @Param chapter_id query string false "Chapter ID"
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests [get]
func (c *UserTestController) GetAllTests(ctx *gin.Context) {
	var filter dto.TestListFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		controller.RespondBindError(ctx, "GetAllTests", err)
		return
	}
	tests, err := c.userTestService.GetAllTests(ctx.Request.Context(), filter)
	if err != nil {
		controller.RespondError(ctx, "GetAllTests", err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestDetails godoc
// @Summary Get a test with its questions
// @Description Students receive the paper without correct answers or solutions; teachers and admins receive the answer key.
// @Tags User - Tests & Attempts
// @Produce json
// @Param test_id path string true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests/{test_id} [get]
func (c *UserTestController) GetTestDetails(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	withKey := user != nil && user.HasRole(model.RoleTeacher, model.RoleAdmin)

	testDetails, err := c.userTestService.GetTestDetails(ctx.Request.Context(), ctx.Param("test_id"), withKey)
	if err != nil {
		controller.RespondError(ctx, "GetTestDetails", err)
		return
	}
	ctx.JSON(http.StatusOK, testDetails)
}

// SubmitTestAttempt godoc
// @Summary (Student) Submit answers for an entire test
// @Description Scores the submission, stores it as a new attempt and re-ranks every attempt of the test.
// @Description Unanswered questions may be omitted. If ranking could not complete, rank_pending is set and rank is 0.
// @Tags User - Tests & Attempts
// @Accept json
// @Produce json
// @Param test_id path string true "ID of the Test being attempted"
// @Param submission_data body dto.TestAttemptSubmitDTO true "Answers keyed by question_id and time taken in seconds"
// @Success 201 {object} dto.SubmitResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Student role required"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 500 {object} dto.ErrorResponse "Error processing submission"
// @Router /tests/{test_id}/attempts [post]
func (c *UserTestController) SubmitTestAttempt(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	testID := ctx.Param("test_id")

	var req dto.TestAttemptSubmitDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "SubmitTestAttempt", err)
		return
	}

	result, err := c.testSubmissionService.SubmitTest(ctx.Request.Context(), testID, user.ID, req)
	if err != nil {
		controller.RespondError(ctx, "SubmitTestAttempt", err)
		return
	}
	log.Info().Str("attemptID", result.AttemptID).Bool("rankPending", result.RankPending).Msg("SubmitTestAttempt: Submission accepted")
	ctx.JSON(http.StatusCreated, result)
}

// GetLeaderboard godoc
// @Summary Leaderboard of a test
// @Description Every attempt of the test ordered by score, then time taken, then submission time.
// @Tags User - Tests & Attempts
// @Produce json
// @Param test_id path string true "Test ID"
// @Success 200 {array} dto.LeaderboardEntryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests/{test_id}/leaderboard [get]
func (c *UserTestController) GetLeaderboard(ctx *gin.Context) {
	entries, err := c.leaderboardService.GetLeaderboard(ctx.Request.Context(), ctx.Param("test_id"))
	if err != nil {
		controller.RespondError(ctx, "GetLeaderboard", err)
		return
	}
	ctx.JSON(http.StatusOK, entries)
}

// GetUserTestAttempts godoc
// @Summary (Student) My attempts for a test
// @Description Lists the caller's attempts for a test, newest first.
// @Tags User - Tests & Attempts
// @Produce json
// @Param test_id path string true "Test ID"
// @Success 200 {array} dto.TestAttemptSummaryDTO
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests/{test_id}/my-attempts [get]
func (c *UserTestController) GetUserTestAttempts(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	attempts, err := c.testSubmissionService.GetUserAttemptsForTest(ctx.Request.Context(), ctx.Param("test_id"), user.ID)
	if err != nil {
		controller.RespondError(ctx, "GetUserTestAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GetSpecificTestAttemptDetails godoc
// @Summary Graded attempt details
// @Description Returns one attempt with per-question grading. Students may only read their own attempts.
// @Tags User - Tests & Attempts
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.TestAttemptDetailDTO
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /test-attempts/{attempt_id} [get]
func (c *UserTestController) GetSpecificTestAttemptDetails(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	detail, err := c.testSubmissionService.GetTestAttemptDetails(ctx.Request.Context(), ctx.Param("attempt_id"), user)
	if err != nil {
		controller.RespondError(ctx, "GetSpecificTestAttemptDetails", err)
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// RegisterRoutes mounts the test routes on an already authenticated group.
func (c *UserTestController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tests", c.GetAllTests)
	rg.GET("/tests/:test_id", c.GetTestDetails)
	rg.POST("/tests/:test_id/attempts", middleware.RequireRole(model.RoleStudent), c.SubmitTestAttempt)
	rg.GET("/tests/:test_id/leaderboard", c.GetLeaderboard)
	rg.GET("/tests/:test_id/my-attempts", middleware.RequireRole(model.RoleStudent), c.GetUserTestAttempts)
	rg.GET("/test-attempts/:attempt_id", c.GetSpecificTestAttemptDetails)
}
