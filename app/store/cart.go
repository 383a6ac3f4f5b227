package store

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/hoffee-app/hoffee/app/backend"
	"github.com/hoffee-app/hoffee/app/localstate"
	"github.com/hoffee-app/hoffee/app/loyalty"
	"github.com/hoffee-app/hoffee/app/models"
	"github.com/hoffee-app/hoffee/pkg/collection"
	"github.com/hoffee-app/hoffee/pkg/logger"
	"github.com/hoffee-app/hoffee/pkg/metrics"
)

// AddToCart appends the item, or bumps the quantity when a line with the
// same unique id already exists. The item's price is a snapshot taken at
// insertion time; later catalog changes do not touch it.
func (s *Store) AddToCart(item models.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := collection.IndexOf(s.cart, func(i models.CartItem) bool {
		return i.UniqueID == item.UniqueID
	})
	if idx >= 0 {
		s.cart[idx].Quantity++
		return
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	s.cart = append(s.cart, item)
}

// RemoveFromCart drops the line unconditionally.
func (s *Store) RemoveFromCart(uniqueID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = collection.Filter(s.cart, func(i models.CartItem) bool {
		return i.UniqueID != uniqueID
	})
}

// UpdateQuantity adjusts a line by delta, clamping at zero. A line reaching
// zero is removed.
func (s *Store) UpdateQuantity(uniqueID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cart {
		if s.cart[i].UniqueID != uniqueID {
			continue
		}
		q := s.cart[i].Quantity + delta
		if q <= 0 {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
		} else {
			s.cart[i].Quantity = q
		}
		return
	}
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
}

// Cart returns a copy of the cart lines.
func (s *Store) Cart() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartItem, len(s.cart))
	copy(out, s.cart)
	return out
}

// Subtotal is the sum of line price times quantity.
func (s *Store) Subtotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collection.Reduce(s.cart, 0, func(acc int, i models.CartItem) int {
		return acc + i.Price*i.Quantity
	})
}

// ItemCount is the total quantity across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collection.Reduce(s.cart, 0, func(acc int, i models.CartItem) int {
		return acc + i.Quantity
	})
}

// MaxRedeemable returns the redemption ceiling for the current cart and
// balance. Callers enforce it before CompleteOrder.
func (s *Store) MaxRedeemable() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return 0
	}
	subtotal := collection.Reduce(s.cart, 0, func(acc int, i models.CartItem) int {
		return acc + i.Price*i.Quantity
	})
	return loyalty.MaxRedeemable(subtotal, s.user.Points)
}

// CompleteOrder finalizes the cart into an order as one local transaction:
// points redeemed and earned, stats bumped, history prepended, cart cleared.
// The caller has already validated total and pointsToRedeem against the
// redemption cap. Backend sync and archival run as effects after commit and
// never roll the transaction back.
func (s *Store) CompleteOrder(total, pointsToRedeem int, pickupTime, comment string) (models.OrderHistoryItem, bool) {
	s.mu.Lock()
	if s.user == nil || len(s.cart) == 0 {
		s.mu.Unlock()
		return models.OrderHistoryItem{}, false
	}

	for _, item := range s.cart {
		s.orderStats[item.ProductID] += item.Quantity
	}
	if err := s.snapshots.Save(localstate.KeyStats, s.orderStats); err != nil {
		logger.Warn("store: persist stats", "error", err)
	}

	earned := loyalty.EarnedPoints(total, pointsToRedeem)
	s.user.Points = s.user.Points - pointsToRedeem + earned
	s.user.LifetimePoints += earned
	applyLevel(s.user)
	s.persistUser()

	summary := strings.Join(collection.Map(s.cart, func(i models.CartItem) string {
		return fmt.Sprintf("%s x%d", i.ProductName, i.Quantity)
	}), ", ")

	order := models.OrderHistoryItem{
		ID:         fmt.Sprintf("ORD-%d", rand.Intn(9000)+1000),
		Date:       time.Now().Format("02.01.2006"),
		Items:      summary,
		Total:      total,
		Status:     models.OrderCompleted,
		PickupTime: pickupTime,
		Comment:    comment,
	}
	s.orderHistory = append([]models.OrderHistoryItem{order}, s.orderHistory...)
	s.cart = nil

	user := *s.user
	s.mu.Unlock()

	metrics.OrdersCompleted.Inc()
	s.bus.Fire(EventOrderCompleted, OrderCompletedEvent{Order: order, User: user})

	if s.archive != nil {
		s.syncEffect("archive", func(context.Context) error {
			return s.archive.Record(order)
		})
	}
	s.syncEffect("order", func(ctx context.Context) error {
		return s.backend.CreateOrder(ctx, backend.OrderRequest{
			UserID:       user.ID,
			ItemsSummary: order.Items,
			TotalPrice:   total,
			PointsUsed:   pointsToRedeem,
			PickupTime:   pickupTime,
			Comment:      comment,
		})
	})
	s.syncEffect("points", func(ctx context.Context) error {
		return s.backend.UpdatePoints(ctx, user.ID, user.Points, user.LifetimePoints)
	})

	return order, true
}
