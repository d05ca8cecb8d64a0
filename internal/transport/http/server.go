package http

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	appsvc "healthhub/internal/app"
	"healthhub/internal/bootstrap"
	"healthhub/internal/transport/http/handler"
	"healthhub/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		appsvc.UseJSONFieldNames(v)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	services := app.Services
	chatHandler := handler.NewChatHandler(services.Chat)
	widgetHandler := handler.NewChatHandler(services.Widget)
	communityHandler := handler.NewCommunityHandler(services.Community)
	profileHandler := handler.NewProfileHandler(services.Profiles, services.Onboarding, services.Measurements)
	notificationHandler := handler.NewNotificationHandler(services.Notifications)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))

	registerChat(v1.Group("/chat"), chatHandler)
	registerChat(v1.Group("/widget"), widgetHandler)

	v1.GET("/groups", communityHandler.ListGroups)
	v1.GET("/groups/:id/posts", communityHandler.ListGroupPosts)
	v1.POST("/groups/:id/posts", communityHandler.CreatePost)
	v1.PUT("/posts/:id", communityHandler.UpdatePost)
	v1.DELETE("/posts/:id", communityHandler.DeletePost)
	v1.GET("/posts/:id/comments", communityHandler.ListComments)
	v1.POST("/posts/:id/comments", communityHandler.CreateComment)
	v1.POST("/posts/:id/comments/scroll", communityHandler.ScrollComments)
	v1.DELETE("/comments/:id", communityHandler.DeleteComment)
	v1.POST("/posts/:id/reactions", communityHandler.React)
	v1.POST("/reports", communityHandler.Report)

	v1.GET("/profile", profileHandler.GetProfile)
	v1.POST("/profile/refresh", profileHandler.RefreshProfile)
	v1.GET("/onboarding", profileHandler.GetOnboarding)
	v1.PUT("/onboarding/steps/:step", profileHandler.SaveOnboardingStep)
	v1.POST("/onboarding/complete", profileHandler.CompleteOnboarding)
	v1.GET("/measurements", profileHandler.ListMeasurements)
	v1.POST("/measurements", profileHandler.RecordMeasurement)

	v1.GET("/notifications", notificationHandler.ListUnread)
	v1.POST("/notifications/:id/read", notificationHandler.MarkRead)

	return router
}

func registerChat(group *gin.RouterGroup, h *handler.ChatHandler) {
	group.POST("/session", h.CreateSession)
	group.GET("/session", h.CheckSession)
	group.DELETE("/session", h.DeleteSession)
	group.GET("/history", h.GetHistory)
	group.GET("/messages", h.ListMessages)
	group.POST("/messages", h.SendMessage)
	group.POST("/messages/:id/retry", h.RetryMessage)
	group.DELETE("/messages/:id", h.DeleteMessage)
}
