package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/message"
)

type createMessageReq struct {
	WaID      string `json:"wa_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
	MetaMsgID string `json:"meta_msg_id"`
}

// CreateMessage stores an outgoing message through the same
// reconciliation path the webhook uses, so a pending status buffered
// for its id drains immediately.
func (h *Handler) CreateMessage(c *gin.Context) {
	var req createMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	externalID := req.MetaMsgID
	if externalID == "" {
		id, err := message.NewExternalID()
		if err != nil {
			fail(c, http.StatusInternalServerError, 50003, "id generation failed")
			return
		}
		externalID = id
	}

	out, err := h.Engine.Ingest(c.Request.Context(), event.MessageEvent{
		ConversationID: req.WaID,
		ExternalID:     externalID,
		Body:           req.Text,
		Direction:      event.DirectionOutbound,
		Status:         event.StatusSent,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		log.Printf("create message failed: %v", err)
		fail(c, http.StatusInternalServerError, 50002, "ingest failed")
		return
	}

	h.Dispatcher.Dispatch(c.Request.Context(), out)

	ok(c, gin.H{
		"outcome":     out.Kind,
		"meta_msg_id": out.ExternalID,
		"status":      out.Status,
	})
}

type updateStatusReq struct {
	MetaMsgID string `json:"meta_msg_id" binding:"required"`
	NewStatus string `json:"new_status" binding:"required"`
	WaID      string `json:"wa_id"`
}

// UpdateStatus applies a canonical status update. A status for an
// unseen message is buffered instead of rejected; an illegal transition
// is reported as ignored, not as an error.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	out, err := h.Engine.Ingest(c.Request.Context(), event.StatusEvent{
		ExternalID:     req.MetaMsgID,
		Status:         event.Status(req.NewStatus),
		ConversationID: req.WaID,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		log.Printf("status update failed: %v", err)
		fail(c, http.StatusInternalServerError, 50002, "ingest failed")
		return
	}
	if out.Kind == message.OutcomeRejected {
		fail(c, http.StatusBadRequest, 40003, out.Reason)
		return
	}

	h.Dispatcher.Dispatch(c.Request.Context(), out)

	ok(c, gin.H{
		"outcome":     out.Kind,
		"meta_msg_id": out.ExternalID,
		"status":      out.Status,
		"reason":      out.Reason,
	})
}

// ListMessages returns one page of a conversation, newest first.
func (h *Handler) ListMessages(c *gin.Context) {
	waID := c.Param("wa_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 {
		limit = 50
	}
	if limit > h.Cfg.PageLimitMax {
		limit = h.Cfg.PageLimitMax
	}

	msgs, err := h.Repo.ListByConversation(c.Request.Context(), waID, page, limit)
	if err != nil {
		log.Printf("list messages failed: %v", err)
		fail(c, http.StatusInternalServerError, 50004, "failed to list messages")
		return
	}

	ok(c, gin.H{
		"wa_id":    waID,
		"page":     page,
		"limit":    limit,
		"messages": msgs,
	})
}
