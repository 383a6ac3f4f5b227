package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hoffee-app/hoffee/app/backend"
	"github.com/hoffee-app/hoffee/app/localstate"
	"github.com/hoffee-app/hoffee/app/models"
	"github.com/hoffee-app/hoffee/pkg/collection"
	"github.com/hoffee-app/hoffee/pkg/logger"
)

// ── Menu ──────────────────────────────────────────────────────────────────────

// RefreshMenu fetches the catalog as an effect. Each refresh takes a sequence
// number at issue time; a response is only applied while no newer response
// has landed, so overlapping refreshes can never install a stale menu.
func (s *Store) RefreshMenu(ctx context.Context) {
	s.mu.Lock()
	s.menuSeq++
	seq := s.menuSeq
	s.mu.Unlock()

	s.effectOrInline(func() {
		snap, err := s.backend.FetchMenu(ctx)
		if err != nil {
			// Keep the current catalog; the periodic refresh will retry.
			logger.Warn("store: menu refresh failed", "seq", seq, "error", err)
			return
		}
		s.ApplyMenu(seq, snap)
	})
}

// ApplyMenu installs a fetched catalog unless a response with a higher
// sequence number was already applied. Returns whether the snapshot won.
func (s *Store) ApplyMenu(seq uint64, snap backend.MenuSnapshot) bool {
	s.mu.Lock()
	if seq <= s.lastApplied {
		s.mu.Unlock()
		logger.Info("store: dropping stale menu response", "seq", seq, "applied", s.lastApplied)
		return false
	}
	s.lastApplied = seq
	if len(snap.Products) > 0 {
		s.products = snap.Products
	}
	if len(snap.Categories) > 0 {
		s.categories = snap.Categories
	}
	s.mu.Unlock()

	s.bus.Fire(EventMenuApplied, seq)
	return true
}

// effectOrInline submits fn to the effect runner, degrading to inline
// execution when the pool is saturated so a menu refresh is never lost.
func (s *Store) effectOrInline(fn func()) {
	if err := s.effects.Submit(fn); err != nil {
		fn()
	}
}

// Products returns a copy of the catalog.
func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Categories returns a copy of the category list.
func (s *Store) Categories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// ProductByID looks a product up in the current catalog.
func (s *Store) ProductByID(id int) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collection.First(s.products, func(p models.Product) bool { return p.ID == id })
}

// SetActiveCategory selects the category tab.
func (s *Store) SetActiveCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCategory = id
}

// ActiveCategory returns the selected category tab.
func (s *Store) ActiveCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCategory
}

// ── Favorites and stats ───────────────────────────────────────────────────────

// ToggleFavorite flips the membership of a product id in the favorites set.
func (s *Store) ToggleFavorite(productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if collection.Contains(s.favorites, func(id int) bool { return id == productID }) {
		s.favorites = collection.Filter(s.favorites, func(id int) bool { return id != productID })
	} else {
		s.favorites = append(s.favorites, productID)
	}
	if err := s.snapshots.Save(localstate.KeyFavorites, s.favorites); err != nil {
		logger.Warn("store: persist favorites", "error", err)
	}
}

// Favorites returns a copy of the favorite product ids.
func (s *Store) Favorites() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// OrderStats returns a copy of the per-product cumulative order counts.
func (s *Store) OrderStats() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int, len(s.orderStats))
	for k, v := range s.orderStats {
		out[k] = v
	}
	return out
}

// MostOrdered ranks catalog products by cumulative ordered quantity,
// highest first, and returns up to n of them.
func (s *Store) MostOrdered(n int) []models.Product {
	s.mu.Lock()
	ordered := collection.Filter(s.products, func(p models.Product) bool {
		return s.orderStats[p.ID] > 0
	})
	ranked := collection.SortBy(ordered, func(p models.Product) int {
		return -s.orderStats[p.ID]
	})
	s.mu.Unlock()

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ── Admin catalog editing and single-slot undo ────────────────────────────────

// AddProduct inserts a product at the head of the catalog and records the
// operation in the undo slot, overwriting any prior entry.
func (s *Store) AddProduct(p models.Product) {
	s.mu.Lock()
	s.products = append([]models.Product{p}, s.products...)
	op := &models.OperationLog{
		Type:        models.OpAdd,
		ProductName: p.Name,
		Timestamp:   time.Now().UnixMilli(),
		CurrentData: p,
	}
	s.lastOperation = op
	adminID := s.adminID()
	s.mu.Unlock()

	logger.Info("catalog: product added", "id", p.ID, "name", p.Name, "admin", adminID)
	s.bus.Fire(EventCatalogChanged, *op)
	if adminID != 0 {
		s.syncEffect("admin", func(ctx context.Context) error {
			return s.backend.CreateProduct(ctx, adminID, p)
		})
	}
}

// UpdateProduct replaces the product matching p.ID and records the operation
// with a field-level diff. Unknown ids are a no-op.
func (s *Store) UpdateProduct(p models.Product) {
	s.mu.Lock()
	idx := collection.IndexOf(s.products, func(x models.Product) bool { return x.ID == p.ID })
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	previous := s.products[idx]
	s.products[idx] = p

	op := &models.OperationLog{
		Type:         models.OpUpdate,
		ProductName:  p.Name,
		Timestamp:    time.Now().UnixMilli(),
		PreviousData: &previous,
		CurrentData:  p,
		Changes:      diffProduct(previous, p),
	}
	s.lastOperation = op
	adminID := s.adminID()
	s.mu.Unlock()

	logger.Info("catalog: product updated", "id", p.ID, "name", p.Name, "admin", adminID)
	s.bus.Fire(EventCatalogChanged, *op)
	if adminID != 0 {
		s.syncEffect("admin", func(ctx context.Context) error {
			return s.backend.UpdateProduct(ctx, adminID, p)
		})
	}
}

// DeleteProduct removes the product and keeps its snapshot in the undo slot.
// Unknown ids are a no-op.
func (s *Store) DeleteProduct(id int) {
	s.mu.Lock()
	previous, ok := collection.First(s.products, func(x models.Product) bool { return x.ID == id })
	if !ok {
		s.mu.Unlock()
		return
	}
	s.products = collection.Filter(s.products, func(x models.Product) bool { return x.ID != id })
	op := &models.OperationLog{
		Type:        models.OpDelete,
		ProductName: previous.Name,
		Timestamp:   time.Now().UnixMilli(),
		CurrentData: previous,
	}
	s.lastOperation = op
	adminID := s.adminID()
	s.mu.Unlock()

	logger.Info("catalog: product deleted", "id", id, "name", previous.Name, "admin", adminID)
	s.bus.Fire(EventCatalogChanged, *op)
	if adminID != 0 {
		s.syncEffect("admin", func(ctx context.Context) error {
			return s.backend.DeleteProduct(ctx, adminID, id)
		})
	}
}

// UndoLastOperation structurally reverses the retained operation and clears
// the slot. Undo with an empty slot is a no-op, and undo itself is not
// undoable. A deleted product is re-inserted at the head; its original
// position is not part of the contract.
func (s *Store) UndoLastOperation() bool {
	s.mu.Lock()
	op := s.lastOperation
	if op == nil {
		s.mu.Unlock()
		return false
	}

	switch op.Type {
	case models.OpAdd:
		s.products = collection.Filter(s.products, func(p models.Product) bool {
			return p.ID != op.CurrentData.ID
		})
	case models.OpDelete:
		s.products = append([]models.Product{op.CurrentData}, s.products...)
	case models.OpUpdate:
		if op.PreviousData != nil {
			idx := collection.IndexOf(s.products, func(p models.Product) bool {
				return p.ID == op.PreviousData.ID
			})
			if idx >= 0 {
				s.products[idx] = *op.PreviousData
			}
		}
	}
	s.lastOperation = nil
	s.mu.Unlock()

	logger.Info("catalog: operation undone", "type", op.Type, "name", op.ProductName)
	s.bus.Fire(EventCatalogChanged, nil)
	return true
}

// LastOperation returns a copy of the undo slot, if occupied.
func (s *Store) LastOperation() (models.OperationLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastOperation == nil {
		return models.OperationLog{}, false
	}
	return *s.lastOperation, true
}

// AddCategory appends a menu category. Category edits are not part of the
// undo slot; only product mutations are reversible.
func (s *Store) AddCategory(c models.Category) {
	s.mu.Lock()
	if collection.Contains(s.categories, func(x models.Category) bool { return x.ID == c.ID }) {
		s.mu.Unlock()
		return
	}
	s.categories = append(s.categories, c)
	adminID := s.adminID()
	s.mu.Unlock()

	logger.Info("catalog: category added", "id", c.ID, "name", c.Name, "admin", adminID)
	if adminID != 0 {
		s.syncEffect("admin", func(ctx context.Context) error {
			return s.backend.CreateCategory(ctx, adminID, c)
		})
	}
}

// RenameCategory updates a category's display name. Unknown ids are a no-op.
func (s *Store) RenameCategory(c models.Category) {
	s.mu.Lock()
	idx := collection.IndexOf(s.categories, func(x models.Category) bool { return x.ID == c.ID })
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.categories[idx] = c
	adminID := s.adminID()
	s.mu.Unlock()

	logger.Info("catalog: category renamed", "id", c.ID, "name", c.Name, "admin", adminID)
	if adminID != 0 {
		s.syncEffect("admin", func(ctx context.Context) error {
			return s.backend.UpdateCategory(ctx, adminID, c)
		})
	}
}

// DeleteCategory removes a category. Its products stay in the catalog; a
// category with no products simply is not displayed.
func (s *Store) DeleteCategory(id string) {
	s.mu.Lock()
	before := len(s.categories)
	s.categories = collection.Filter(s.categories, func(x models.Category) bool { return x.ID != id })
	removed := len(s.categories) < before
	adminID := s.adminID()
	if s.activeCategory == id && len(s.categories) > 0 {
		s.activeCategory = s.categories[0].ID
	}
	s.mu.Unlock()

	if !removed {
		return
	}
	logger.Info("catalog: category deleted", "id", id, "admin", adminID)
	if adminID != 0 {
		s.syncEffect("admin", func(ctx context.Context) error {
			return s.backend.DeleteCategory(ctx, adminID, id)
		})
	}
}

// adminID returns the current user id when it is on the allowlist, else 0.
// Caller holds mu.
func (s *Store) adminID() int64 {
	if s.isAdmin && s.user != nil {
		return s.user.ID
	}
	return 0
}

// diffProduct builds the informational field diff for an update. The
// description is recorded as changed without its value to keep the diff
// small.
func diffProduct(prev, next models.Product) []models.FieldChange {
	var changes []models.FieldChange
	if prev.Name != next.Name {
		changes = append(changes, models.FieldChange{Field: "Название", From: prev.Name, To: next.Name})
	}
	if prev.Price != next.Price {
		changes = append(changes, models.FieldChange{
			Field: "Цена",
			From:  fmt.Sprintf("%d", prev.Price),
			To:    fmt.Sprintf("%d", next.Price),
		})
	}
	if prev.Description != next.Description {
		changes = append(changes, models.FieldChange{Field: "Описание", From: "изменено", To: "изменено"})
	}
	if prev.CategoryID != next.CategoryID {
		changes = append(changes, models.FieldChange{Field: "Категория", From: prev.CategoryID, To: next.CategoryID})
	}
	return changes
}
