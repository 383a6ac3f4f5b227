package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoffee-app/hoffee/app/backend"
	"github.com/hoffee-app/hoffee/app/models"
)

func testProduct(id int, name string, price int) models.Product {
	return models.Product{
		ID: id, Name: name, Price: price,
		Description: "desc", CategoryID: "coffee",
	}
}

func TestAddProductThenUndo(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	before := len(s.Products())

	s.AddProduct(testProduct(99, "Раф", 320))
	require.Len(t, s.Products(), before+1)
	assert.Equal(t, 99, s.Products()[0].ID, "new product goes to the head")

	require.True(t, s.UndoLastOperation())
	assert.Len(t, s.Products(), before)
	_, found := s.ProductByID(99)
	assert.False(t, found)
}

func TestDeleteProductThenUndo(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	original, ok := s.ProductByID(20)
	require.True(t, ok)

	s.DeleteProduct(20)
	_, found := s.ProductByID(20)
	require.False(t, found)

	require.True(t, s.UndoLastOperation())
	restored, found := s.ProductByID(20)
	require.True(t, found)
	assert.Equal(t, original, restored, "restored from the pre-delete snapshot")
}

func TestUpdateProductThenUndo(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	original, _ := s.ProductByID(20)

	changed := original
	changed.Name = "Латте новый"
	changed.Price = 350
	s.UpdateProduct(changed)

	got, _ := s.ProductByID(20)
	assert.Equal(t, 350, got.Price)

	op, ok := s.LastOperation()
	require.True(t, ok)
	assert.Equal(t, models.OpUpdate, op.Type)
	require.Len(t, op.Changes, 2)
	assert.Equal(t, "Название", op.Changes[0].Field)
	assert.Equal(t, "Цена", op.Changes[1].Field)

	require.True(t, s.UndoLastOperation())
	got, _ = s.ProductByID(20)
	assert.Equal(t, original, got)
}

func TestUpdateDescriptionDiffHidesValue(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	p, _ := s.ProductByID(20)
	p.Description = "совсем другое описание"
	s.UpdateProduct(p)

	op, _ := s.LastOperation()
	require.Len(t, op.Changes, 1)
	assert.Equal(t, "Описание", op.Changes[0].Field)
	assert.Equal(t, "изменено", op.Changes[0].From)
	assert.Equal(t, "изменено", op.Changes[0].To)
}

func TestUndoSlotHoldsOnlyLastOperation(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	before := len(s.Products())

	s.AddProduct(testProduct(98, "Флэт Уайт", 280))
	s.AddProduct(testProduct(97, "Эспрессо", 150))

	// Only the second mutation is reversible.
	require.True(t, s.UndoLastOperation())
	_, found := s.ProductByID(97)
	assert.False(t, found)
	_, found = s.ProductByID(98)
	assert.True(t, found, "first operation is unrecoverable")
	assert.Len(t, s.Products(), before+1)

	// The slot is consumed; a second undo is a no-op.
	assert.False(t, s.UndoLastOperation())
}

func TestUpdateUnknownProductIsNoop(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	s.UpdateProduct(testProduct(12345, "Призрак", 100))
	_, ok := s.LastOperation()
	assert.False(t, ok)
}

func TestAdminMutationsSyncWhenAuthorized(t *testing.T) {
	fb := &fakeBackend{syncUser: models.User{ID: 1962824399, Name: "Admin"}}
	s, _ := newTestStore(t, fb)
	s.Authenticate(context.Background(), models.Identity{ID: 1962824399, FirstName: "Admin"})

	s.AddProduct(testProduct(96, "Новинка", 400))

	require.Eventually(t, func() bool {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return len(fb.adminCreates) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAdminMutationsStayLocalForGuests(t *testing.T) {
	fb := &fakeBackend{syncUser: models.User{ID: 5, Name: "Гость"}}
	s, _ := newTestStore(t, fb)
	s.Authenticate(context.Background(), models.Identity{ID: 5, FirstName: "Гость"})

	s.DeleteProduct(20)
	time.Sleep(50 * time.Millisecond)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Empty(t, fb.adminDeletes, "no admin sync without allowlisted id")
}

func TestToggleFavoriteFlipsMembership(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})

	s.ToggleFavorite(20)
	assert.Equal(t, []int{20}, s.Favorites())

	s.ToggleFavorite(20)
	assert.Empty(t, s.Favorites())
}

func TestApplyMenuDropsStaleResponses(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})

	fresh := backend.MenuSnapshot{
		Categories: []models.Category{{ID: "coffee", Name: "Кофе"}},
		Products:   []models.Product{testProduct(1, "Новый латте", 310)},
	}
	stale := backend.MenuSnapshot{
		Categories: []models.Category{{ID: "coffee", Name: "Кофе"}},
		Products:   []models.Product{testProduct(2, "Старый латте", 290)},
	}

	require.True(t, s.ApplyMenu(2, fresh))
	assert.False(t, s.ApplyMenu(1, stale), "out-of-order response must not win")

	products := s.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Новый латте", products[0].Name)
}

func TestRefreshMenuFailureKeepsCatalog(t *testing.T) {
	fb := &fakeBackend{menuErr: errors.New("menu down")}
	s, _ := newTestStore(t, fb)
	before := s.Products()

	s.RefreshMenu(context.Background())
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, before, s.Products(), "failed refresh retains the catalog")
}

func TestCategoryLifecycle(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	before := len(s.Categories())

	s.AddCategory(models.Category{ID: "tea", Name: "Чай и Матча"})
	require.Len(t, s.Categories(), before+1)

	// Duplicate ids are rejected silently.
	s.AddCategory(models.Category{ID: "tea", Name: "Чай"})
	assert.Len(t, s.Categories(), before+1)

	s.RenameCategory(models.Category{ID: "tea", Name: "Чай"})
	cat, ok := collectionFirstCategory(s.Categories(), "tea")
	require.True(t, ok)
	assert.Equal(t, "Чай", cat.Name)

	s.DeleteCategory("tea")
	_, ok = collectionFirstCategory(s.Categories(), "tea")
	assert.False(t, ok)
}

func TestDeleteActiveCategoryFallsBack(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	s.SetActiveCategory("dessert")

	s.DeleteCategory("dessert")
	assert.Equal(t, "coffee", s.ActiveCategory())
}

func collectionFirstCategory(cats []models.Category, id string) (models.Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

func TestMostOrderedRanking(t *testing.T) {
	s, _ := newTestStore(t, &fakeBackend{})
	s.mu.Lock()
	s.orderStats = map[int]int{20: 5, 6: 9, 19: 1}
	s.mu.Unlock()

	top := s.MostOrdered(2)
	require.Len(t, top, 2)
	assert.Equal(t, 6, top[0].ID)
	assert.Equal(t, 20, top[1].ID)
}
