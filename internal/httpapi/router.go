package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/config"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/httpapi/handlers"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/httpapi/middleware"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/notify"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/store/redisstore"
)

func NewRouter(gdb *gorm.DB, cfg config.Config, cache *redisstore.Cache, notifier notify.Notifier) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "route not found", "data": nil})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"code": 40500, "message": "method not allowed", "data": nil})
	})

	h := handlers.NewHandler(gdb, cfg, cache, notifier)

	r.GET("/ping", h.Ping)
	r.GET("/health", h.Health)

	r.POST("/webhook", h.Webhook)

	r.POST("/messages", h.CreateMessage)
	r.PUT("/messages/status", h.UpdateStatus)
	r.GET("/messages/:wa_id", h.ListMessages)

	r.GET("/chats", h.ListChats)

	return r
}
