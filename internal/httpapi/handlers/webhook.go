package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/message"
)

// Webhook ingests one raw provider payload: normalize, reconcile,
// dispatch. Duplicates, buffered and ignored statuses are successes;
// only unrecognized payloads and store failures surface as errors.
func (h *Handler) Webhook(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	ev, err := h.Normalizer.Normalize(raw)
	if err != nil {
		if errors.Is(err, event.ErrUnrecognized) {
			fail(c, http.StatusBadRequest, 40002, "unrecognized payload")
			return
		}
		fail(c, http.StatusInternalServerError, 50001, "normalization failed")
		return
	}

	out, err := h.Engine.Ingest(c.Request.Context(), ev)
	if err != nil {
		log.Printf("webhook ingest failed: %v", err)
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
	})
}
