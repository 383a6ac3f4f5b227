// Package notify fans store events out to the barista channels: the
// terminal's live WebSocket feed and, when a bot token is configured, the
// staff Telegram chat.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	appstore "github.com/hoffee-app/hoffee/app/store"
	"github.com/hoffee-app/hoffee/config"
	"github.com/hoffee-app/hoffee/pkg/event"
	"github.com/hoffee-app/hoffee/pkg/http"
	"github.com/hoffee-app/hoffee/pkg/logger"
	"github.com/hoffee-app/hoffee/pkg/ws"
)

// Notifier forwards store events to the feed and the staff chat.
type Notifier struct {
	hub      *ws.Hub
	botToken string
	chatID   string
}

// New builds a notifier on the given feed hub, reading the Telegram settings
// from configuration.
func New(hub *ws.Hub) *Notifier {
	return &Notifier{
		hub:      hub,
		botToken: config.TelegramBotToken(),
		chatID:   config.StaffChatID(),
	}
}

// Subscribe registers the notifier on the event bus. Handlers only enqueue;
// they never call back into the store.
func (n *Notifier) Subscribe(bus *event.Bus) {
	bus.Listen(appstore.EventOrderCompleted, func(payload interface{}) {
		ev, ok := payload.(appstore.OrderCompletedEvent)
		if !ok {
			return
		}
		n.feed("order", map[string]interface{}{
			"id":     ev.Order.ID,
			"items":  ev.Order.Items,
			"total":  ev.Order.Total,
			"pickup": ev.Order.PickupTime,
			"user":   ev.User.Name,
		})
		n.telegram(fmt.Sprintf("☕ Новый заказ %s\n%s\nИтого: %d ₽\nКлиент: %s",
			ev.Order.ID, ev.Order.Items, ev.Order.Total, ev.User.Name))
	})

	bus.Listen(appstore.EventPointsAwarded, func(payload interface{}) {
		ev, ok := payload.(appstore.PointsAwardedEvent)
		if !ok {
			return
		}
		n.feed("points", map[string]interface{}{
			"user_id": ev.UserID,
			"amount":  ev.Amount,
			"balance": ev.Points,
		})
	})

	bus.Listen(appstore.EventSyncFailed, func(payload interface{}) {
		ev, ok := payload.(appstore.SyncFailedEvent)
		if !ok {
			return
		}
		n.feed("sync_failed", map[string]interface{}{
			"operation": ev.Operation,
			"error":     ev.Err.Error(),
		})
	})
}

// feed broadcasts a typed JSON frame to the terminal screens.
func (n *Notifier) feed(kind string, data map[string]interface{}) {
	if n.hub == nil {
		return
	}
	frame, err := json.Marshal(map[string]interface{}{
		"type": kind,
		"at":   time.Now().Format(time.RFC3339),
		"data": data,
	})
	if err != nil {
		return
	}

	select {
	case n.hub.Broadcast <- frame:
	default:
		logger.Warn("notify: feed channel full, frame dropped", "type", kind)
	}
}

// telegram posts a message to the staff chat; a missing token disables the
// channel silently.
func (n *Notifier) telegram(text string) {
	if n.botToken == "" || n.chatID == "" {
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	resp, err := http.Post(url).
		Body(map[string]string{"chat_id": n.chatID, "text": text}).
		Timeout(5 * time.Second).
		Send()
	if err != nil {
		logger.Warn("notify: telegram send failed", "error", err)
		return
	}
	if !resp.OK() {
		logger.Warn("notify: telegram rejected message", "status", resp.StatusCode)
	}
}
