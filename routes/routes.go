package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"frontdesk-backend/controllers"
	"frontdesk-backend/middleware"
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

// SetupRouter wires controller instances onto the route tree.
func SetupRouter(
	log *zap.Logger,
	jwtSecret string,
	ac *controllers.AuthController,
	rc *controllers.ReservationController,
	alc *controllers.AllocationController,
	rmc *controllers.RoomController,
	rtc *controllers.RoomTypeController,
	rpc *controllers.ReportController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

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
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/login", ac.Login)

	api := r.Group("/api")
	api.Use(middleware.Auth(jwtSecret))
	{
		reservations := api.Group("/reservations")
		{
			reservations.GET("", rc.List)
			reservations.POST("", rc.Create)
			reservations.POST("/upload", rc.Upload)
			reservations.POST("/:id/reparse", rc.Reparse)
			reservations.GET("/:id", rc.Get)
			reservations.GET("/:id/audit", rc.AuditTrail)
			reservations.DELETE("/:id", rc.Delete)

			reservations.POST("/:id/confirm", rc.Confirm)
			reservations.POST("/:id/check-in", rc.CheckIn)
			reservations.POST("/:id/check-out", rc.CheckOut)
			reservations.POST("/:id/cancel", rc.Cancel)
			reservations.POST("/:id/no-show", rc.MarkNoShow)
			reservations.POST("/:id/auto-assign", alc.AutoAssign)
		}

		allocation := api.Group("/allocation")
		{
			allocation.POST("/plan", alc.Plan)
			allocation.GET("/plan/:token", alc.GetPlan)
			allocation.POST("/apply", alc.Apply)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", rmc.GetRooms)
			rooms.POST("", rmc.CreateRoom)
			rooms.PATCH("/:id", rmc.UpdateRoom)
			rooms.PUT("/:id", rmc.UpdateRoom)
			rooms.DELETE("/:id", rmc.DeleteRoom)
		}

		roomTypes := api.Group("/room-types")
		{
			roomTypes.GET("", rtc.GetRoomTypes)
			roomTypes.POST("", rtc.CreateRoomType)
			roomTypes.PATCH("/:id", rtc.UpdateRoomType)
			roomTypes.DELETE("/:id", rtc.DeleteRoomType)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/revenue", rpc.Revenue)
			reports.GET("/revenue/export", rpc.ExportRevenue)
		}
	}

	return r
}
