package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/verticalstudies/coaching-api/config"
	"github.com/verticalstudies/coaching-api/internal/controller"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/middleware"
	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/service"
)

type AuthController struct {
	authService  service.AuthService
	cookieSecure bool
}

func NewAuthController(authService service.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{authService: authService, cookieSecure: cfg.Server.CookieSecure}
}

// LoginStudent godoc
// @Summary Student login
// @Description Students sign in with their registered mobile number and batch code.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.StudentLoginRequest true "Mobile number and batch code"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 401 {object} dto.ErrorResponse "Invalid mobile number or batch code"
// @Router /auth/login/student [post]
func (c *AuthController) LoginStudent(ctx *gin.Context) {
	var req dto.StudentLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "LoginStudent", err)
		return
	}
	resp, err := c.authService.LoginStudent(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "LoginStudent", err)
		return
	}
	c.setSessionCookie(ctx, resp.SessionToken)
	ctx.JSON(http.StatusOK, resp)
}

// LoginTeacher godoc
// @Summary Teacher login
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.CredentialsLoginRequest true "Email and password"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login/teacher [post]
func (c *AuthController) LoginTeacher(ctx *gin.Context) {
	c.loginWithPassword(ctx, model.RoleTeacher)
}

// LoginAdmin godoc
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.CredentialsLoginRequest true "Email and password"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login/admin [post]
func (c *AuthController) LoginAdmin(ctx *gin.Context) {
	c.loginWithPassword(ctx, model.RoleAdmin)
}

func (c *AuthController) loginWithPassword(ctx *gin.Context, role string) {
	var req dto.CredentialsLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Login "+role, err)
		return
	}
	resp, err := c.authService.LoginWithPassword(ctx.Request.Context(), role, req)
	if err != nil {
		controller.RespondError(ctx, "Login "+role, err)
		return
	}
	c.setSessionCookie(ctx, resp.SessionToken)
	ctx.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	var resp dto.UserResponse
	if err := copier.Copy(&resp, user); err != nil {
		controller.RespondError(ctx, "Me", err)
		return
	}
	resp.UserID = user.ID
	ctx.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Logout
// @Description Deletes the session and clears the cookie. Succeeds without a session.
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.authService.Logout(ctx.Request.Context(), middleware.SessionToken(ctx)); err != nil {
		controller.RespondError(ctx, "Logout", err)
		return
	}
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", c.cookieSecure, true)
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out"})
}

func (c *AuthController) setSessionCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(middleware.SessionCookie, token, int(service.SessionTTL.Seconds()), "/", "", c.cookieSecure, true)
}

// RegisterRoutes mounts the public login routes on public and the session routes on authed.
func (c *AuthController) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.POST("/auth/login/student", c.LoginStudent)
	public.POST("/auth/login/teacher", c.LoginTeacher)
	public.POST("/auth/login/admin", c.LoginAdmin)
	public.POST("/auth/logout", c.Logout)
	authed.GET("/auth/me", c.Me)
}
