package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoffee-app/hoffee/app/backend"
	"github.com/hoffee-app/hoffee/app/localstate"
	"github.com/hoffee-app/hoffee/app/models"
	appstore "github.com/hoffee-app/hoffee/app/store"
	"github.com/hoffee-app/hoffee/pkg/event"
	"github.com/hoffee-app/hoffee/pkg/middleware"
	"github.com/hoffee-app/hoffee/pkg/workerpool"
	"github.com/hoffee-app/hoffee/pkg/ws"
)

// noopBackend satisfies the store's backend port for handler tests.
type noopBackend struct{ user models.User }

func (n noopBackend) SyncUser(context.Context, models.Identity) (models.User, error) {
	return n.user, nil
}
func (noopBackend) UpdatePoints(context.Context, int64, int, int) error    { return nil }
func (noopBackend) CreateOrder(context.Context, backend.OrderRequest) error { return nil }
func (noopBackend) FetchMenu(context.Context) (backend.MenuSnapshot, error) {
	return backend.MenuSnapshot{}, nil
}
func (noopBackend) CreateProduct(context.Context, int64, models.Product) error   { return nil }
func (noopBackend) UpdateProduct(context.Context, int64, models.Product) error   { return nil }
func (noopBackend) DeleteProduct(context.Context, int64, int) error              { return nil }
func (noopBackend) CreateCategory(context.Context, int64, models.Category) error { return nil }
func (noopBackend) UpdateCategory(context.Context, int64, models.Category) error { return nil }
func (noopBackend) DeleteCategory(context.Context, int64, string) error          { return nil }

// recordingAwarder captures remote awards.
type recordingAwarder struct {
	mu     sync.Mutex
	err    error
	awards []int64
}

func (r *recordingAwarder) Award(_ context.Context, target int64, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.awards = append(r.awards, target)
	return nil
}

func newTestServer(t *testing.T) (*Server, *appstore.Store, *recordingAwarder) {
	t.Helper()

	// The terminal runs unlocked in these tests; auth paths are covered
	// separately.
	middleware.SetUnlockedCheck(func() bool { return true })
	t.Cleanup(func() { middleware.SetUnlockedCheck(nil) })

	pool := workerpool.New(2)
	t.Cleanup(pool.Shutdown)

	st := appstore.New(appstore.Options{
		Backend:   noopBackend{user: models.User{ID: 9, Name: "Гость"}},
		Snapshots: localstate.NewWithDriver(localstate.NewDiskDriver(t.TempDir())),
		Bus:       event.NewBus(),
		Effects:   pool,
	})

	aw := &recordingAwarder{}
	return New(st, ws.NewHub(), aw), st, aw
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScanThenConfirmAwardsRemoteUser(t *testing.T) {
	srv, _, aw := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/scan",
		map[string]string{"payload": "https://hoffee.app/#/confirm-scan/id777"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"confirming"`)

	rec = doJSON(t, h, http.MethodPost, "/api/confirm", map[string]int64{"target_id": 777})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"settled"`)

	aw.mu.Lock()
	defer aw.mu.Unlock()
	require.Len(t, aw.awards, 1)
	assert.Equal(t, int64(777), aw.awards[0])
}

func TestSelfScanCreditsLocalSession(t *testing.T) {
	srv, st, aw := newTestServer(t)
	st.Authenticate(context.Background(), models.Identity{ID: 9, FirstName: "Гость"})
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/scan", map[string]string{"payload": "id9"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/api/confirm", map[string]int64{"target_id": 9})
	require.Equal(t, http.StatusOK, rec.Code)

	user, _ := st.User()
	assert.Equal(t, 12, user.Points)
	assert.Equal(t, 12, user.LifetimePoints)

	aw.mu.Lock()
	defer aw.mu.Unlock()
	assert.Empty(t, aw.awards, "self-scan bypasses the backend awarder")
}

func TestConfirmTwiceIsRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/scan", map[string]string{"payload": "id777"})
	rec := doJSON(t, h, http.MethodPost, "/api/confirm", map[string]int64{"target_id": 777})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/confirm", map[string]int64{"target_id": 777})
	assert.Equal(t, http.StatusConflict, rec.Code, "settled award is terminal")
}

func TestConfirmRemoteFailure(t *testing.T) {
	srv, _, aw := newTestServer(t)
	aw.err = fmt.Errorf("backend down")
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/scan", map[string]string{"payload": "id777"})
	rec := doJSON(t, h, http.MethodPost, "/api/confirm", map[string]int64{"target_id": 777})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// A fresh scan retries the same target.
	aw.err = nil
	doJSON(t, h, http.MethodPost, "/api/scan", map[string]string{"payload": "id777"})
	rec = doJSON(t, h, http.MethodPost, "/api/confirm", map[string]int64{"target_id": 777})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScanRejectsBadPayload(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/scan",
		map[string]string{"payload": "not-a-qr"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestConfirmUnknownTarget(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/confirm",
		map[string]int64{"target_id": 555})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMenuEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/menu", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Латте с соленой карамелью")
	assert.Contains(t, rec.Body.String(), `"active_category":"coffee"`)
}

func TestAdminProductLifecycle(t *testing.T) {
	srv, st, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"id": 95, "name": "Раф лавандовый", "price": 330, "category_id": "coffee",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, ok := st.ProductByID(95)
	require.True(t, ok)

	rec = doJSON(t, h, http.MethodPut, "/api/admin/products/95", map[string]interface{}{
		"name": "Раф лавандовый", "price": 360, "category_id": "coffee",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	p, _ := st.ProductByID(95)
	assert.Equal(t, 360, p.Price)

	rec = doJSON(t, h, http.MethodDelete, "/api/admin/products/95", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, ok = st.ProductByID(95)
	assert.False(t, ok)

	// Undo restores the deleted product.
	rec = doJSON(t, h, http.MethodPost, "/api/admin/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, ok = st.ProductByID(95)
	assert.True(t, ok)

	// The slot is consumed.
	rec = doJSON(t, h, http.MethodPost, "/api/admin/undo", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminProductValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/admin/products", map[string]interface{}{
		"name": "X", "price": 0,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "category_id")
}

func TestUpdateUnknownProductIs404(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPut, "/api/admin/products/424242",
		map[string]interface{}{"name": "Призрак", "price": 100, "category_id": "coffee"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLockedTerminalRequiresToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	middleware.SetUnlockedCheck(func() bool { return false })

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/scan",
		map[string]string{"payload": "id9"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionIssuesToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	// No STAFF_PIN_HASH configured: any well-formed PIN unlocks.
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/session",
		map[string]string{"pin": "1234", "terminal": "bar-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
	assert.Contains(t, rec.Body.String(), `"bar-1"`)
}
