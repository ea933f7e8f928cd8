package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"roombooking-backend/controllers"
	"roombooking-backend/middleware"
	"roombooking-backend/services"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func SetupRouter(
	bc *controllers.BookingController,
	rc *controllers.RoomController,
	uc *controllers.UserController,
	ac *controllers.AuthController,
	authSvc *services.AuthService,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(authSvc)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", ac.Register)
			auth.POST("/login", ac.Login)
		}

		bookings := api.Group("/bookings")
		{
			bookings.GET("", bc.GetBookingsInRange)
			bookings.GET("/room/:id", bc.GetBookingsByRoom)
			bookings.GET("/user/:id", bc.GetBookingsByUser)
			bookings.GET("/:id", bc.GetBookingByID)

			bookings.POST("", requireAuth, bc.CreateBooking)
			bookings.POST("/recurring", requireAuth, bc.CreateRecurringBooking)
			bookings.PUT("/recurring/:id", requireAuth, bc.UpdateRecurringBooking)
			bookings.PUT("/:id", requireAuth, bc.UpdateBooking)
			bookings.DELETE("/recurring/:id", requireAuth, bc.DeleteRecurringBooking)
			bookings.DELETE("/:id", requireAuth, bc.DeleteBooking)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", rc.GetRooms)
			rooms.GET("/cathedral", rc.GetCathedralRooms)
			rooms.GET("/available", rc.GetAvailableRooms)
			rooms.GET("/:id", rc.GetRoomByID)

			rooms.POST("", requireAuth, rc.CreateRoom)
			rooms.PUT("/:id", requireAuth, rc.UpdateRoom)
			rooms.PATCH("/:id", requireAuth, rc.UpdateRoom)
			rooms.DELETE("/:id", requireAuth, rc.DeleteRoom)
		}

		users := api.Group("/users")
		{
			users.GET("", requireAuth, uc.GetUsers)
			users.GET("/:id", requireAuth, uc.GetUserByID)
			users.POST("", requireAuth, uc.CreateUser)
		}
	}

	return r
}
