package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/config"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/message"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/notify"
)

type capturingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *capturingNotifier) Publish(ctx context.Context, conversationID string, ev notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *capturingNotifier) all() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

func testConfig() config.Config {
	return config.Config{
		CORSOrigins:    []string{"http://localhost:3000"},
		UnreadStatuses: []string{"sent", "delivered"},
		PageLimitMax:   100,
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *capturingNotifier) {
	t.Helper()
	return newTestRouterWithConfig(t, testConfig())
}

func newTestRouterWithConfig(t *testing.T, cfg config.Config) (*gin.Engine, *capturingNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&message.Message{}, &message.PendingStatus{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	n := &capturingNotifier{}
	return NewRouter(gdb, cfg, nil, n), n
}

type apiResp struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (int, apiResp) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResp
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w.Code, resp
}

func TestWebhook_MessageThenStatusFlow(t *testing.T) {
	r, n := newTestRouter(t)

	code, resp := doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
		"type":        "message",
		"wa_id":       "c1",
		"meta_msg_id": "m1",
		"text":        "hello",
	})
	if code != http.StatusOK || resp.Data["outcome"] != "inserted" {
		t.Fatalf("insert: code=%d resp=%+v", code, resp)
	}

	code, resp = doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
		"type":        "status",
		"meta_msg_id": "m1",
		"status":      "read",
	})
	if code != http.StatusOK || resp.Data["outcome"] != "status_applied" {
		t.Fatalf("status: code=%d resp=%+v", code, resp)
	}

	// replayed message must be a silent duplicate
	code, resp = doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
		"type":        "message",
		"wa_id":       "c1",
		"meta_msg_id": "m1",
		"text":        "hello",
	})
	if code != http.StatusOK || resp.Data["outcome"] != "duplicate" {
		t.Fatalf("duplicate: code=%d resp=%+v", code, resp)
	}

	events := n.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 notifications (insert + status), got %d", len(events))
	}
	if events[0].Type != notify.EventNewMessage || events[1].Type != notify.EventStatusUpdate {
		t.Fatalf("unexpected notification types: %+v", events)
	}
}

func TestWebhook_StatusBeforeMessageBuffers(t *testing.T) {
	r, n := newTestRouter(t)

	code, resp := doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
		"type":        "status",
		"meta_msg_id": "x1",
		"status":      "read",
	})
	if code != http.StatusOK || resp.Data["outcome"] != "status_buffered" {
		t.Fatalf("buffer: code=%d resp=%+v", code, resp)
	}
	if len(n.all()) != 0 {
		t.Fatalf("buffered status must not notify")
	}

	code, resp = doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
		"type":        "message",
		"wa_id":       "c1",
		"meta_msg_id": "x1",
		"text":        "late arrival",
	})
	if code != http.StatusOK || resp.Data["outcome"] != "inserted" {
		t.Fatalf("message: code=%d resp=%+v", code, resp)
	}
	if resp.Data["status"] != "read" {
		t.Fatalf("expected post-drain status read, got %v", resp.Data["status"])
	}

	events := n.all()
	if len(events) != 1 {
		t.Fatalf("combined insert+drain must notify once, got %d", len(events))
	}
	if events[0].Status != "read" {
		t.Fatalf("notification must carry final state, got %+v", events[0])
	}
}

func TestWebhook_UnrecognizedPayload(t *testing.T) {
	r, _ := newTestRouter(t)

	code, resp := doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
		"something": "else",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%+v)", code, resp)
	}
}

func TestWebhook_ProviderEnvelope(t *testing.T) {
	r, _ := newTestRouter(t)

	code, resp := doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
		"metaData": map[string]any{
			"entry": []any{map[string]any{
				"changes": []any{map[string]any{
					"value": map[string]any{
						"contacts": []any{map[string]any{"wa_id": "919999"}},
						"messages": []any{map[string]any{
							"id":        "wamid.77",
							"text":      map[string]any{"body": "from webhook"},
							"timestamp": "1714560000",
						}},
					},
				}},
			}},
		},
	})
	if code != http.StatusOK || resp.Data["outcome"] != "inserted" {
		t.Fatalf("envelope: code=%d resp=%+v", code, resp)
	}
	if resp.Data["meta_msg_id"] != "wamid.77" {
		t.Fatalf("unexpected id: %+v", resp.Data)
	}
}

func TestUpdateStatus_IllegalTransitionIgnored(t *testing.T) {
	r, n := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
		"type": "message", "wa_id": "c1", "meta_msg_id": "m2", "text": "x",
	})

	code, resp := doJSON(t, r, http.MethodPut, "/messages/status", map[string]any{
		"meta_msg_id": "m2",
		"new_status":  "sent",
	})
	if code != http.StatusOK || resp.Data["outcome"] != "status_ignored" {
		t.Fatalf("regression: code=%d resp=%+v", code, resp)
	}
	if resp.Data["status"] != "delivered" {
		t.Fatalf("status must be unchanged, got %v", resp.Data["status"])
	}

	// only the insert notified
	if len(n.all()) != 1 {
		t.Fatalf("ignored status must not notify, got %d events", len(n.all()))
	}
}

func TestCreateMessage_GeneratesExternalID(t *testing.T) {
	r, _ := newTestRouter(t)

	code, resp := doJSON(t, r, http.MethodPost, "/messages", map[string]any{
		"wa_id": "c9",
		"text":  "outgoing",
	})
	if code != http.StatusOK || resp.Data["outcome"] != "inserted" {
		t.Fatalf("create: code=%d resp=%+v", code, resp)
	}
	id, _ := resp.Data["meta_msg_id"].(string)
	if len(id) != 26 {
		t.Fatalf("expected generated ULID, got %q", id)
	}
	if resp.Data["status"] != "sent" {
		t.Fatalf("outbound message must start at sent, got %v", resp.Data["status"])
	}
}

func TestListMessagesAndChats(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, id := range []string{"h1", "h2"} {
		doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
			"type": "message", "wa_id": "conv1", "meta_msg_id": id, "text": "msg " + id,
		})
	}

	code, resp := doJSON(t, r, http.MethodGet, "/messages/conv1?page=1&limit=10", nil)
	if code != http.StatusOK {
		t.Fatalf("list messages: %d", code)
	}
	msgs, _ := resp.Data["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	code, resp = doJSON(t, r, http.MethodGet, "/chats", nil)
	if code != http.StatusOK {
		t.Fatalf("list chats: %d", code)
	}
	chats, _ := resp.Data["chats"].([]any)
	if len(chats) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(chats))
	}
	first, _ := chats[0].(map[string]any)
	if first["wa_id"] != "conv1" || first["unread_count"] != float64(2) {
		t.Fatalf("unexpected chat summary: %+v", first)
	}
}

func TestListMessages_LimitClampedToCap(t *testing.T) {
	cfg := testConfig()
	cfg.PageLimitMax = 2
	r, _ := newTestRouterWithConfig(t, cfg)

	for _, id := range []string{"c1", "c2", "c3"} {
		doJSON(t, r, http.MethodPost, "/webhook", map[string]any{
			"type": "message", "wa_id": "capped", "meta_msg_id": id, "text": "msg " + id,
		})
	}

	code, resp := doJSON(t, r, http.MethodGet, "/messages/capped?limit=50", nil)
	if code != http.StatusOK {
		t.Fatalf("list messages: %d", code)
	}
	if resp.Data["limit"] != float64(2) {
		t.Fatalf("limit above the cap must clamp to it, got %v", resp.Data["limit"])
	}
	msgs, _ := resp.Data["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected a capped page of 2 messages, got %d", len(msgs))
	}
}

func TestHealthAndPing(t *testing.T) {
	r, _ := newTestRouter(t)

	code, _ := doJSON(t, r, http.MethodGet, "/health", nil)
	if code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("ping: %d %q", w.Code, w.Body.String())
	}
}
