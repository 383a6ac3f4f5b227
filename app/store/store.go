// Package store is the domain core: a single explicit state object whose
// mutating operations are atomic, invariant-preserving transitions under one
// mutex. Network and archive side effects never run inside a transition;
// each operation commits locally first and hands its effect to a bounded
// runner, so a failed sync can only ever produce a notification, never a
// rollback.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/hoffee-app/hoffee/app/backend"
	"github.com/hoffee-app/hoffee/app/localstate"
	"github.com/hoffee-app/hoffee/app/loyalty"
	"github.com/hoffee-app/hoffee/app/models"
	"github.com/hoffee-app/hoffee/config"
	"github.com/hoffee-app/hoffee/pkg/event"
	"github.com/hoffee-app/hoffee/pkg/logger"
	"github.com/hoffee-app/hoffee/pkg/metrics"
	"github.com/hoffee-app/hoffee/pkg/workerpool"
)

// Events fired on the bus. Listeners (terminal feed, staff notifier) must
// not mutate the store from a synchronous handler.
const (
	EventOrderCompleted = "order.completed"
	EventPointsAwarded  = "points.awarded"
	EventSyncFailed     = "sync.failed"
	EventMenuApplied    = "menu.applied"
	EventCatalogChanged = "catalog.changed"
)

// OrderCompletedEvent is the payload for EventOrderCompleted.
type OrderCompletedEvent struct {
	Order models.OrderHistoryItem
	User  models.User
}

// PointsAwardedEvent is the payload for EventPointsAwarded.
type PointsAwardedEvent struct {
	UserID   int64
	Amount   int
	Points   int
	Lifetime int
}

// SyncFailedEvent is the payload for EventSyncFailed. Local state has
// already committed when this fires.
type SyncFailedEvent struct {
	Operation string
	Err       error
}

// Backend is the remote-sync port. *backend.Client satisfies it; tests
// inject a fake.
type Backend interface {
	SyncUser(ctx context.Context, ident models.Identity) (models.User, error)
	UpdatePoints(ctx context.Context, userID int64, points, lifetimePoints int) error
	CreateOrder(ctx context.Context, req backend.OrderRequest) error
	FetchMenu(ctx context.Context) (backend.MenuSnapshot, error)
	CreateProduct(ctx context.Context, adminID int64, p models.Product) error
	UpdateProduct(ctx context.Context, adminID int64, p models.Product) error
	DeleteProduct(ctx context.Context, adminID int64, productID int) error
	CreateCategory(ctx context.Context, adminID int64, c models.Category) error
	UpdateCategory(ctx context.Context, adminID int64, c models.Category) error
	DeleteCategory(ctx context.Context, adminID int64, categoryID string) error
}

// Archiver is the local order-archive port (SQLite in production).
type Archiver interface {
	Record(item models.OrderHistoryItem) error
	Recent(limit int) ([]models.OrderHistoryItem, error)
}

// Options wires the store's ports. Backend is required; the rest default to
// production implementations.
type Options struct {
	Backend   Backend
	Snapshots *localstate.Snapshots
	Bus       *event.Bus
	Effects   *workerpool.Pool
	Archive   Archiver
}

// Store holds the whole application state. All fields are guarded by mu;
// every exported method is a complete transition with no await point inside.
type Store struct {
	mu sync.Mutex

	user            *models.User
	isAuth          bool
	isAdmin         bool
	cart            []models.CartItem
	orderHistory    []models.OrderHistoryItem
	products        []models.Product
	categories      []models.Category
	activeCategory  string
	favorites       []int
	orderStats      map[int]int
	lastOperation   *models.OperationLog
	selectedAddress string

	menuSeq     uint64
	lastApplied uint64

	backend   Backend
	snapshots *localstate.Snapshots
	bus       *event.Bus
	effects   *workerpool.Pool
	archive   Archiver
}

const defaultAddress = "Нальчик, ул. Толстого, 43"

// New builds the store and hydrates it from the persisted snapshots and the
// local order archive.
func New(opts Options) *Store {
	s := &Store{
		activeCategory:  "coffee",
		orderStats:      map[int]int{},
		selectedAddress: defaultAddress,
		backend:         opts.Backend,
		snapshots:       opts.Snapshots,
		bus:             opts.Bus,
		effects:         opts.Effects,
		archive:         opts.Archive,
	}
	if s.snapshots == nil {
		s.snapshots = localstate.New()
	}
	if s.bus == nil {
		s.bus = event.Default
	}
	if s.effects == nil {
		s.effects = workerpool.New(4)
	}

	s.products, s.categories = fallbackCatalog()
	s.restore()
	return s
}

// restore hydrates user, favorites, stats and address from the snapshots and
// the order history from the archive.
func (s *Store) restore() {
	var user models.User
	if ok, err := s.snapshots.LoadEncrypted(localstate.KeyUser, &user); err == nil && ok {
		// Derived fields are recomputed on hydration so a stale snapshot can
		// never desync level from lifetime points.
		applyLevel(&user)
		s.user = &user
		s.isAuth = true
		s.isAdmin = isAdminID(user.ID)
	}

	if _, err := s.snapshots.Load(localstate.KeyFavorites, &s.favorites); err != nil {
		logger.Warn("store: restore favorites", "error", err)
	}
	if _, err := s.snapshots.Load(localstate.KeyStats, &s.orderStats); err != nil {
		logger.Warn("store: restore stats", "error", err)
	}
	if s.orderStats == nil {
		s.orderStats = map[int]int{}
	}

	var addr string
	if ok, _ := s.snapshots.Load(localstate.KeyAddress, &addr); ok && addr != "" {
		s.selectedAddress = addr
	}

	if s.archive != nil {
		history, err := s.archive.Recent(50)
		if err != nil {
			logger.Warn("store: restore history", "error", err)
		} else {
			s.orderHistory = history
		}
	}
}

// applyLevel recomputes the derived level fields from lifetime points.
func applyLevel(u *models.User) {
	level, next := loyalty.Resolve(u.LifetimePoints)
	u.Level = level.Name
	u.NextLevelPoints = next
}

func isAdminID(id int64) bool {
	for _, admin := range config.AdminIDs() {
		if admin == id {
			return true
		}
	}
	return false
}

// Authenticate resolves the current user from an external identity. The
// remote profile wins when the backend answers; otherwise a local starter
// profile keeps the app usable offline.
func (s *Store) Authenticate(ctx context.Context, ident models.Identity) models.User {
	user, err := s.backend.SyncUser(ctx, ident)
	if err != nil {
		logger.Warn("store: auth sync failed, using local profile", "error", err)
		user = starterProfile(ident)
	}
	applyLevel(&user)

	s.mu.Lock()
	s.user = &user
	s.isAuth = true
	s.isAdmin = isAdminID(user.ID)
	s.persistUser()
	s.mu.Unlock()

	return user
}

// starterProfile is the offline fallback identity with fixed starter values.
func starterProfile(ident models.Identity) models.User {
	return models.User{
		ID:             ident.ID,
		Name:           ident.DisplayName(),
		AvatarURL:      ident.PhotoURL,
		Points:         340,
		LifetimePoints: 420,
		ReferralCode:   models.ReferralCodeFor(ident.ID),
	}
}

// UpdateProfile changes the display name and avatar of the current user.
func (s *Store) UpdateProfile(name, avatarURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	s.user.Name = name
	s.user.AvatarURL = avatarURL
	s.persistUser()
}

// AddPoints credits amount to both balances (a QR award is always "earned"
// points) and pushes the new absolute balance to the backend as a
// fire-and-forget effect.
func (s *Store) AddPoints(amount int) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	s.user.Points += amount
	s.user.LifetimePoints += amount
	applyLevel(s.user)
	s.persistUser()

	payload := PointsAwardedEvent{
		UserID:   s.user.ID,
		Amount:   amount,
		Points:   s.user.Points,
		Lifetime: s.user.LifetimePoints,
	}
	s.mu.Unlock()

	metrics.PointsAwarded.Add(float64(amount))
	s.bus.Fire(EventPointsAwarded, payload)
	s.syncEffect("points", func(ctx context.Context) error {
		return s.backend.UpdatePoints(ctx, payload.UserID, payload.Points, payload.Lifetime)
	})
}

// Logout drops the session and the in-memory per-user state. Only the user
// snapshot is removed from durable storage.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.snapshots.Clear(localstate.KeyUser); err != nil {
		logger.Warn("store: clear user snapshot", "error", err)
	}
	s.user = nil
	s.isAuth = false
	s.isAdmin = false
	s.cart = nil
	s.favorites = nil
	s.orderStats = map[int]int{}
}

// SetSelectedAddress updates and persists the pickup address.
func (s *Store) SetSelectedAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedAddress = address
	if err := s.snapshots.Save(localstate.KeyAddress, address); err != nil {
		logger.Warn("store: persist address", "error", err)
	}
}

// persistUser writes the encrypted profile snapshot. Caller holds mu.
func (s *Store) persistUser() {
	if s.user == nil {
		return
	}
	if err := s.snapshots.SaveEncrypted(localstate.KeyUser, *s.user); err != nil {
		logger.Warn("store: persist user snapshot", "error", err)
	}
}

// syncEffect runs a remote sync outside the transition. Failure fires a
// notification and a metric; local state stays committed.
func (s *Store) syncEffect(operation string, fn func(ctx context.Context) error) {
	err := s.effects.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Error("store: sync failed", "operation", operation, "error", err)
			metrics.SyncFailures.WithLabelValues(operation).Inc()
			s.bus.Fire(EventSyncFailed, SyncFailedEvent{Operation: operation, Err: err})
		}
	})
	if err != nil {
		logger.Error("store: effect dropped", "operation", operation, "error", err)
		metrics.SyncFailures.WithLabelValues(operation).Inc()
		s.bus.Fire(EventSyncFailed, SyncFailedEvent{Operation: operation, Err: err})
	}
}

// ── Read accessors ────────────────────────────────────────────────────────────

// User returns a copy of the current profile.
func (s *Store) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a session is active.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAuth
}

// IsAdmin reports whether the current user is on the admin allowlist.
// Always derived from the id, never persisted.
func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAdmin
}

// SelectedAddress returns the chosen pickup address.
func (s *Store) SelectedAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedAddress
}

// OrderHistory returns a copy of the history, newest first.
func (s *Store) OrderHistory() []models.OrderHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OrderHistoryItem, len(s.orderHistory))
	copy(out, s.orderHistory)
	return out
}
