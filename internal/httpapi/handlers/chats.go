package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListChats returns every conversation with its last message and unread
// count, served from the redis cache when warm. The unread criteria
// come from config; they are a reporting policy, not engine state.
func (h *Handler) ListChats(c *gin.Context) {
	ctx := c.Request.Context()

	if h.Cache != nil {
		chats, hit, err := h.Cache.GetChats(ctx)
		if err != nil {
			log.Printf("chats cache read failed: %v", err)
		} else if hit {
			ok(c, gin.H{"chats": chats, "cached": true})
			return
		}
	}

	chats, err := h.Repo.ChatSummaries(ctx, h.Cfg.UnreadStatuses)
	if err != nil {
		log.Printf("chats aggregation failed: %v", err)
		fail(c, http.StatusInternalServerError, 50005, "failed to list chats")
		return
	}

	if h.Cache != nil {
		if err := h.Cache.SetChats(ctx, chats); err != nil {
			log.Printf("chats cache write failed: %v", err)
		}
	}

	ok(c, gin.H{"chats": chats, "cached": false})
}
