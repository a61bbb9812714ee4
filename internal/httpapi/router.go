package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/roomchat/internal/common"
	"github.com/suPer8Hu/roomchat/internal/config"
	"github.com/suPer8Hu/roomchat/internal/httpapi/handlers"
	"github.com/suPer8Hu/roomchat/internal/httpapi/middleware"
)

func NewRouter(cfg config.Config, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ping", h.Ping)
	r.GET("/models", h.ListModels)

	// quizzes
	r.GET("/quizzes", h.ListQuizzes)
	r.GET("/quizzes/:id", h.GetQuiz)
	r.POST("/quizzes/:id/score", h.ScoreQuiz)

	// auth
	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMin)
	r.POST("/users", limiter.Middleware(), h.CreateUser)
	r.POST("/login", limiter.Middleware(), h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	authGroup.POST("/logout", h.Logout)

	// session settings
	authGroup.PUT("/session/credential", h.SetCredential)
	authGroup.PUT("/session/model", h.SelectModel)
	authGroup.PUT("/session/preferences", h.SetPreferences)

	// rooms
	authGroup.GET("/rooms", h.ListRooms)
	authGroup.POST("/rooms", h.CreateRoom)
	authGroup.POST("/rooms/:id/select", h.SelectRoom)
	authGroup.DELETE("/rooms/:id", h.DeleteRoom)

	// chat
	authGroup.GET("/chat/messages", h.ListChatMessages)
	authGroup.DELETE("/chat/messages", h.ClearChatMessages)
	authGroup.POST("/chat/messages", h.SendChatMessage)
	authGroup.POST("/chat/messages/async", h.SendChatMessageAsync)
	authGroup.GET("/chat/jobs/:job_id", h.GetChatJob)
	return r
}
