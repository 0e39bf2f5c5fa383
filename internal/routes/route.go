package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/talknet/internal/container"
	"github.com/joshua-takyi/talknet/internal/handlers"
	"github.com/joshua-takyi/talknet/internal/middleware"
	"github.com/joshua-takyi/talknet/internal/models"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	cookie := handlers.SessionCookie{
		MaxAge: container.Config.JWT.RefreshTTL,
		Secure: container.Config.IsProduction(),
	}

	// API version 1
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "talknet-api",
			})
		})

		v1.POST("/register", handlers.Register(container.AuthService))
		v1.GET("/verify/:token", handlers.Verify(container.AuthService, cookie))
		v1.POST("/forget/password", handlers.ForgetPassword(container.AuthService))
		v1.POST("/reset/:token", handlers.ResetPassword(container.AuthService))
		v1.POST("/login", handlers.Login(container.AuthService, cookie))
		v1.POST("/refresh/token", handlers.RefreshToken(container.AuthService, cookie))
		v1.GET("/user/:id", handlers.GetUser(container.UserService))

		// the websocket authenticates itself since browsers cannot send headers
		v1.GET("/ws", handlers.Realtime(container.Hub, container.AuthService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.AuthService, container.Logger))
	{
		protected.POST("/logout", handlers.Logout(container.AuthService, cookie))

		protected.GET("/users", handlers.ListUsers(container.UserService))
		protected.POST("/users/search", handlers.SearchUsers(container.UserService))
		protected.POST("/change/password", handlers.ChangePassword(container.UserService))
		protected.PUT("/update/profile", handlers.UpdateProfile(container.UserService))
		protected.POST("/profile", handlers.UpdateProfile(container.UserService))

		protected.GET("/send/request/:id", handlers.SendFriendRequest(container.FriendService))
		protected.GET("/requests", handlers.ListFriendRequests(container.FriendService, models.Outgoing))
		protected.GET("/requests/incoming", handlers.ListFriendRequests(container.FriendService, models.Incoming))
		protected.GET("/accept/request/:id", handlers.AcceptFriendRequest(container.FriendService))
		protected.GET("/decline/request/:id", handlers.DeclineFriendRequest(container.FriendService))
		protected.GET("/friends", handlers.ListFriends(container.FriendService))
		protected.GET("/friends/:id", handlers.FriendshipStatus(container.FriendService))

		protected.POST("/send/message/:receiverId", handlers.SendMessage(container.MessageService))
		protected.GET("/messages/:peerId", handlers.MessageHistory(container.MessageService))
	}

	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", handlers.ListAllUsers(container.UserService))
	}

	return r
}
