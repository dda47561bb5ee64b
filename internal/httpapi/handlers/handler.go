package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/config"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/message"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/notify"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/store/redisstore"
)

type Handler struct {
	Cfg        config.Config
	Normalizer *event.Normalizer
	Engine     *message.Engine
	Repo       *message.Repo
	Dispatcher *notify.Dispatcher
	Cache      *redisstore.Cache
}

func NewHandler(gdb *gorm.DB, cfg config.Config, cache *redisstore.Cache, notifier notify.Notifier) *Handler {
	repo := message.NewRepo(gdb)
	var inv notify.Invalidator
	if cache != nil {
		inv = cache
	}
	return &Handler{
		Cfg:        cfg,
		Normalizer: event.NewNormalizer(),
		Engine:     message.NewEngine(repo),
		Repo:       repo,
		Dispatcher: notify.NewDispatcher(notifier, inv),
		Cache:      cache,
	}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

func fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}
