package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoffee-app/hoffee/app/models"
)

func authed(t *testing.T, points, lifetime int) (*Store, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{syncUser: models.User{
		ID: 9, Name: "Гость", Points: points, LifetimePoints: lifetime,
	}}
	s, _ := newTestStore(t, fb)
	s.Authenticate(context.Background(), models.Identity{ID: 9, FirstName: "Гость"})
	return s, fb
}

func latteItem() models.CartItem {
	return models.CartItem{
		UniqueID:          models.CartItemID(20, "m", "reg"),
		ProductID:         20,
		ProductName:       "Латте с соленой карамелью",
		Price:             300,
		Quantity:          1,
		SelectedModifiers: []string{"M (300мл)", "Обычное"},
	}
}

func TestAddToCartMergesSameUniqueID(t *testing.T) {
	s, _ := authed(t, 0, 0)

	for i := 0; i < 3; i++ {
		s.AddToCart(latteItem())
	}

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 3, cart[0].Quantity)
	assert.Equal(t, 900, s.Subtotal())
	assert.Equal(t, 3, s.ItemCount())
}

func TestAddToCartKeepsDistinctModifierLines(t *testing.T) {
	s, _ := authed(t, 0, 0)

	s.AddToCart(latteItem())
	large := latteItem()
	large.UniqueID = models.CartItemID(20, "l", "reg")
	large.Price = 360
	s.AddToCart(large)

	assert.Len(t, s.Cart(), 2)
	assert.Equal(t, 660, s.Subtotal())
}

func TestUpdateQuantityClampsAtZero(t *testing.T) {
	s, _ := authed(t, 0, 0)
	s.AddToCart(latteItem())
	s.AddToCart(latteItem())

	s.UpdateQuantity(latteItem().UniqueID, -1)
	require.Len(t, s.Cart(), 1)
	assert.Equal(t, 1, s.Cart()[0].Quantity)

	// Reaching zero removes the line.
	s.UpdateQuantity(latteItem().UniqueID, -5)
	assert.Empty(t, s.Cart())
}

func TestRemoveFromCart(t *testing.T) {
	s, _ := authed(t, 0, 0)
	s.AddToCart(latteItem())

	s.RemoveFromCart(latteItem().UniqueID)
	assert.Empty(t, s.Cart())
}

func TestCompleteOrderEarnsCashback(t *testing.T) {
	s, _ := authed(t, 100, 100)
	s.AddToCart(latteItem())
	s.AddToCart(latteItem())

	order, ok := s.CompleteOrder(600, 0, "14:30", "без сахара")
	require.True(t, ok)

	user, _ := s.User()
	assert.Equal(t, 130, user.Points, "100 + floor(600*0.05)")
	assert.Equal(t, 130, user.LifetimePoints)

	assert.Empty(t, s.Cart())
	history := s.OrderHistory()
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)
	assert.Equal(t, "Латте с соленой карамелью x2", history[0].Items)
	assert.Equal(t, models.OrderCompleted, history[0].Status)
	assert.Equal(t, "14:30", history[0].PickupTime)

	assert.Equal(t, 2, s.OrderStats()[20])
}

func TestCompleteOrderRedeemingVoidsCashback(t *testing.T) {
	// Subtotal 1000, balance 800: the ceiling is half the subtotal.
	s, _ := authed(t, 800, 800)
	item := latteItem()
	item.Price = 500
	s.AddToCart(item)
	s.AddToCart(item)

	assert.Equal(t, 500, s.MaxRedeemable())

	_, ok := s.CompleteOrder(500, 500, "", "")
	require.True(t, ok)

	user, _ := s.User()
	assert.Equal(t, 300, user.Points, "redeemed 500, earned nothing")
	assert.Equal(t, 800, user.LifetimePoints, "lifetime untouched by redemption")
	assert.Equal(t, 500, s.OrderHistory()[0].Total)
}

func TestCompleteOrderPrependsHistory(t *testing.T) {
	s, _ := authed(t, 0, 0)

	s.AddToCart(latteItem())
	first, _ := s.CompleteOrder(300, 0, "", "")

	s.AddToCart(latteItem())
	second, _ := s.CompleteOrder(300, 0, "", "")

	history := s.OrderHistory()
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest first")
	assert.Equal(t, first.ID, history[1].ID)
}

func TestCompleteOrderEmptyCartRefused(t *testing.T) {
	s, _ := authed(t, 0, 0)
	_, ok := s.CompleteOrder(300, 0, "", "")
	assert.False(t, ok)
}

func TestCompleteOrderSyncsBackend(t *testing.T) {
	s, fb := authed(t, 0, 0)
	s.AddToCart(latteItem())

	_, ok := s.CompleteOrder(300, 0, "", "комментарий")
	require.True(t, ok)

	require.Eventually(t, func() bool { return fb.orderCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	fb.mu.Lock()
	req := fb.orders[0]
	fb.mu.Unlock()
	assert.Equal(t, int64(9), req.UserID)
	assert.Equal(t, 300, req.TotalPrice)
	assert.Equal(t, 0, req.PointsUsed)
	assert.Equal(t, "комментарий", req.Comment)
}

func TestCompleteOrderSyncFailureKeepsLocalState(t *testing.T) {
	s, fb := authed(t, 100, 100)
	fb.orderErr = errors.New("backend down")

	failures := make(chan SyncFailedEvent, 4)
	s.bus.Listen(EventSyncFailed, func(payload interface{}) {
		failures <- payload.(SyncFailedEvent)
	})

	s.AddToCart(latteItem())
	_, ok := s.CompleteOrder(300, 0, "", "")
	require.True(t, ok, "optimistic commit happens before sync")

	ev := waitFor(t, failures)
	assert.Equal(t, "order", ev.Operation)

	// The committed transition survives the failed sync.
	user, _ := s.User()
	assert.Equal(t, 115, user.Points)
	assert.Len(t, s.OrderHistory(), 1)
	assert.Empty(t, s.Cart())
}
