package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoffee-app/hoffee/app/backend"
	"github.com/hoffee-app/hoffee/app/localstate"
	"github.com/hoffee-app/hoffee/app/models"
	"github.com/hoffee-app/hoffee/pkg/event"
	"github.com/hoffee-app/hoffee/pkg/workerpool"
)

// fakeBackend records calls and fails on demand.
type fakeBackend struct {
	mu sync.Mutex

	syncUser    models.User
	syncUserErr error
	orderErr    error
	pointsErr   error
	menu        backend.MenuSnapshot
	menuErr     error

	orders       []backend.OrderRequest
	pointsCalls  int
	adminCreates []models.Product
	adminDeletes []int
}

func (f *fakeBackend) SyncUser(_ context.Context, _ models.Identity) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncUser, f.syncUserErr
}

func (f *fakeBackend) UpdatePoints(_ context.Context, _ int64, _, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pointsCalls++
	return f.pointsErr
}

func (f *fakeBackend) CreateOrder(_ context.Context, req backend.OrderRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return f.orderErr
	}
	f.orders = append(f.orders, req)
	return nil
}

func (f *fakeBackend) FetchMenu(_ context.Context) (backend.MenuSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.menu, f.menuErr
}

func (f *fakeBackend) CreateProduct(_ context.Context, _ int64, p models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminCreates = append(f.adminCreates, p)
	return nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, _ int64, _ models.Product) error {
	return nil
}

func (f *fakeBackend) DeleteProduct(_ context.Context, _ int64, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminDeletes = append(f.adminDeletes, id)
	return nil
}

func (f *fakeBackend) CreateCategory(_ context.Context, _ int64, _ models.Category) error {
	return nil
}

func (f *fakeBackend) UpdateCategory(_ context.Context, _ int64, _ models.Category) error {
	return nil
}

func (f *fakeBackend) DeleteCategory(_ context.Context, _ int64, _ string) error {
	return nil
}

func (f *fakeBackend) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func newTestStore(t *testing.T, fb *fakeBackend) (*Store, *event.Bus) {
	t.Helper()

	bus := event.NewBus()
	pool := workerpool.New(2)
	t.Cleanup(pool.Shutdown)

	s := New(Options{
		Backend:   fb,
		Snapshots: localstate.NewWithDriver(localstate.NewDiskDriver(t.TempDir())),
		Bus:       bus,
		Effects:   pool,
	})
	return s, bus
}

func TestAuthenticateAdoptsRemoteProfile(t *testing.T) {
	fb := &fakeBackend{syncUser: models.User{
		ID: 123456, Name: "Алексей Смирнов",
		Points: 340, LifetimePoints: 420,
		ReferralCode: "id123456",
	}}
	s, _ := newTestStore(t, fb)

	user := s.Authenticate(context.Background(), models.Identity{ID: 123456, FirstName: "Алексей"})

	assert.Equal(t, 340, user.Points)
	assert.Equal(t, "Бариста-Шеф", user.Level, "level derived from lifetime points")
	assert.Equal(t, 500, user.NextLevelPoints)
	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())
}

func TestAuthenticateFallsBackOffline(t *testing.T) {
	fb := &fakeBackend{syncUserErr: errors.New("connection refused")}
	s, _ := newTestStore(t, fb)

	user := s.Authenticate(context.Background(), models.Identity{
		ID: 42, FirstName: "Гость", PhotoURL: "http://img/g.jpg",
	})

	assert.Equal(t, "Гость", user.Name)
	assert.Equal(t, 340, user.Points)
	assert.Equal(t, "id42", user.ReferralCode)
	assert.True(t, s.IsAuthenticated(), "app stays usable without a backend")
}

func TestAdminDerivedFromAllowlist(t *testing.T) {
	fb := &fakeBackend{syncUser: models.User{ID: 1962824399, Name: "Admin"}}
	s, _ := newTestStore(t, fb)

	s.Authenticate(context.Background(), models.Identity{ID: 1962824399, FirstName: "Admin"})
	assert.True(t, s.IsAdmin())

	s.Logout()
	assert.False(t, s.IsAdmin())
}

func TestSessionRestoredFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	snaps := localstate.NewWithDriver(localstate.NewDiskDriver(dir))
	fb := &fakeBackend{syncUser: models.User{ID: 7, Name: "Гость", Points: 10, LifetimePoints: 150}}

	pool := workerpool.New(1)
	t.Cleanup(pool.Shutdown)

	first := New(Options{Backend: fb, Snapshots: snaps, Bus: event.NewBus(), Effects: pool})
	first.Authenticate(context.Background(), models.Identity{ID: 7, FirstName: "Гость"})

	second := New(Options{Backend: fb, Snapshots: snaps, Bus: event.NewBus(), Effects: pool})
	user, ok := second.User()
	require.True(t, ok, "profile restored without re-auth")
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "Кофеман", user.Level, "derived fields recomputed on hydration")
}

func TestAddPointsUpdatesBothBalances(t *testing.T) {
	fb := &fakeBackend{syncUser: models.User{ID: 1, Name: "A"}}
	s, bus := newTestStore(t, fb)
	s.Authenticate(context.Background(), models.Identity{ID: 1, FirstName: "A"})

	awarded := make(chan PointsAwardedEvent, 2)
	bus.Listen(EventPointsAwarded, func(payload interface{}) {
		awarded <- payload.(PointsAwardedEvent)
	})

	// Two QR scans at 12 points each.
	s.AddPoints(12)
	s.AddPoints(12)

	user, _ := s.User()
	assert.Equal(t, 24, user.Points)
	assert.Equal(t, 24, user.LifetimePoints)
	assert.Equal(t, "Новичок", user.Level, "threshold 100 not reached")

	require.Len(t, awarded, 2)
	last := <-awarded
	assert.Equal(t, 12, last.Amount)
}

func TestLogoutClearsSession(t *testing.T) {
	fb := &fakeBackend{syncUser: models.User{ID: 1, Name: "A"}}
	s, _ := newTestStore(t, fb)
	s.Authenticate(context.Background(), models.Identity{ID: 1, FirstName: "A"})
	s.AddToCart(models.CartItem{UniqueID: "20-m", ProductID: 20, Price: 300})
	s.ToggleFavorite(20)

	s.Logout()

	_, ok := s.User()
	assert.False(t, ok)
	assert.Empty(t, s.Cart())
	assert.Empty(t, s.Favorites())
	assert.Empty(t, s.OrderStats())
}

func TestSelectedAddressPersists(t *testing.T) {
	fb := &fakeBackend{}
	s, _ := newTestStore(t, fb)

	assert.Equal(t, "Нальчик, ул. Толстого, 43", s.SelectedAddress())

	s.SetSelectedAddress("Нальчик, пр. Ленина, 1")
	assert.Equal(t, "Нальчик, пр. Ленина, 1", s.SelectedAddress())
}

func waitFor(t *testing.T, ch <-chan SyncFailedEvent) SyncFailedEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sync failure event")
		return SyncFailedEvent{}
	}
}
