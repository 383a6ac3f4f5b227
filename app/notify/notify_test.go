package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoffee-app/hoffee/app/models"
	appstore "github.com/hoffee-app/hoffee/app/store"
	"github.com/hoffee-app/hoffee/pkg/event"
	"github.com/hoffee-app/hoffee/pkg/ws"
)

func TestOrderEventReachesFeed(t *testing.T) {
	hub := ws.NewHub()
	bus := event.NewBus()
	New(hub).Subscribe(bus)

	bus.Fire(appstore.EventOrderCompleted, appstore.OrderCompletedEvent{
		Order: models.OrderHistoryItem{ID: "ORD-1289", Items: "Латте x2", Total: 600},
		User:  models.User{Name: "Алексей"},
	})

	select {
	case frame := <-hub.Broadcast:
		var msg struct {
			Type string `json:"type"`
			Data struct {
				ID    string `json:"id"`
				Total int    `json:"total"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(frame, &msg))
		assert.Equal(t, "order", msg.Type)
		assert.Equal(t, "ORD-1289", msg.Data.ID)
		assert.Equal(t, 600, msg.Data.Total)
	default:
		t.Fatal("no frame broadcast for the order event")
	}
}

func TestSyncFailureReachesFeed(t *testing.T) {
	hub := ws.NewHub()
	bus := event.NewBus()
	New(hub).Subscribe(bus)

	bus.Fire(appstore.EventSyncFailed, appstore.SyncFailedEvent{
		Operation: "order", Err: errors.New("backend down"),
	})

	select {
	case frame := <-hub.Broadcast:
		assert.Contains(t, string(frame), `"sync_failed"`)
		assert.Contains(t, string(frame), "backend down")
	default:
		t.Fatal("no frame broadcast for the sync failure")
	}
}

func TestNilHubIsSafe(t *testing.T) {
	bus := event.NewBus()
	(&Notifier{}).Subscribe(bus)

	assert.NotPanics(t, func() {
		bus.Fire(appstore.EventPointsAwarded, appstore.PointsAwardedEvent{UserID: 1, Amount: 12})
	})
}
