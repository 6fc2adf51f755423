package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(s.Config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.Config.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	limitLogin := s.newRateLimiter(time.Minute, s.Config.LoginRateLimit, keyFuncClientIP)
	limitRedemption := s.newRateLimiter(time.Minute, s.Config.RedemptionRateLimit, keyFuncUserID)

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", limitLogin, s.handleLogin())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/auth/profile", s.handleShowProfile())
	authorized.GET("/me/ledger", s.handleGetLedger())

	authorized.POST("/surveys/complete", s.handleCompleteSurvey())
	authorized.GET("/surveys/assigned", s.handleGetAssignedSurveys())
	authorized.GET("/surveys/completed", s.handleGetCompletedSurveys())

	authorized.POST("/redemption/request", limitRedemption, s.handleRequestRedemption())
	authorized.GET("/redemption/requests", s.handleGetUserRedemptions())
	authorized.GET("/redemption/stats", s.handleGetRedemptionStats())

	admin := authorized.Group("/")
	admin.Use(s.RequireAdmin())
	admin.GET("/admin/users", s.handleGetAllUsers())
	admin.PUT("/admin/users/:id", s.handleUpdateUser())
	admin.PUT("/admin/users/:id/status", s.handleSetUserStatus())
	admin.POST("/admin/users/:id/add-points", s.handleGrantPoints())
	admin.GET("/admin/stats", s.handleGetAdminStats())

	admin.POST("/surveys", s.handleCreateSurvey())
	admin.GET("/surveys", s.handleListSurveys())
	admin.PATCH("/surveys/:surveyID", s.handleUpdateSurvey())
	admin.PATCH("/surveys/:surveyID/pause", s.handleSurveyTransition("survey paused", s.SurveyService.PauseSurvey))
	admin.PATCH("/surveys/:surveyID/resume", s.handleSurveyTransition("survey resumed", s.SurveyService.ResumeSurvey))
	admin.PATCH("/surveys/:surveyID/check-expiry", s.handleSurveyTransition("survey expiry checked", s.SurveyService.CheckExpiry))
	admin.GET("/surveys/:surveyID/users", s.handleGetSurveyUsers())
	admin.POST("/surveys/assign", s.handleAssignSurvey())
	admin.POST("/surveys/assign-multiple", s.handleAssignSurveyToUsers())
	admin.POST("/surveys/add-points", s.handleAddPoints())

	admin.GET("/redemption/admin/requests", s.handleGetAllRedemptions())
	admin.PATCH("/redemption/:id/approve", s.handleApproveRedemption())
	admin.PATCH("/redemption/:id/reject", s.handleRejectRedemption())
}
