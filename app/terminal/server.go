// Package terminal is the barista-side HTTP surface: staff unlock the
// terminal with a PIN, confirm scanned loyalty QR codes, watch the live
// order feed and edit the catalog.
package terminal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hoffee-app/hoffee/app/qr"
	appstore "github.com/hoffee-app/hoffee/app/store"
	"github.com/hoffee-app/hoffee/config"
	"github.com/hoffee-app/hoffee/pkg/logger"
	"github.com/hoffee-app/hoffee/pkg/metrics"
	"github.com/hoffee-app/hoffee/pkg/middleware"
	"github.com/hoffee-app/hoffee/pkg/response"
	"github.com/hoffee-app/hoffee/pkg/router"
	"github.com/hoffee-app/hoffee/pkg/ws"
)

// Server wires the terminal routes over the domain store.
type Server struct {
	store  *appstore.Store
	hub    *ws.Hub
	remote qr.Awarder

	mu         sync.Mutex
	handshakes map[int64]*qr.Handshake

	router *router.Router
}

// New builds the terminal server. remote awards points to users other than
// the local session (the backend client in production).
func New(st *appstore.Store, hub *ws.Hub, remote qr.Awarder) *Server {
	s := &Server{
		store:      st,
		hub:        hub,
		remote:     remote,
		handshakes: map[int64]*qr.Handshake{},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *router.Router {
	r := router.New()
	r.Use(metrics.Middleware(), middleware.Recovery, middleware.Logger, middleware.CORS)

	r.Get("/healthz", "healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.HandleFunc("/metrics", metrics.Handler())
	r.HandleFunc("/ws/feed", func(w http.ResponseWriter, req *http.Request) {
		ws.Upgrade(w, req, s.hub)
	})

	r.Post("/api/session", "session.create", s.handleSession,
		middleware.RateLimit(10, time.Minute))

	api := r.Group("/api", middleware.StaffAuth)
	api.Post("/scan", "qr.scan", s.handleScan)
	api.Post("/confirm", "qr.confirm", s.handleConfirm)
	api.Get("/menu", "menu.show", s.handleMenu)
	api.Get("/orders", "orders.recent", s.handleOrders)
	api.Get("/top", "orders.top", s.handleTopProducts)

	admin := r.Group("/api/admin", middleware.StaffAuth)
	admin.Post("/products", "admin.products.create", s.handleCreateProduct)
	admin.Put("/products/{id}", "admin.products.update", s.handleUpdateProduct)
	admin.Delete("/products/{id}", "admin.products.delete", s.handleDeleteProduct)
	admin.Post("/products/{id}/image", "admin.products.image", s.handleUploadImage)
	admin.Post("/categories", "admin.categories.create", s.handleCreateCategory)
	admin.Put("/categories/{id}", "admin.categories.update", s.handleUpdateCategory)
	admin.Delete("/categories/{id}", "admin.categories.delete", s.handleDeleteCategory)
	admin.Post("/undo", "admin.undo", s.handleUndo)

	return r
}

// Handler exposes the routed handler (tests mount it on httptest).
func (s *Server) Handler() http.Handler {
	return s.router.Handler()
}

// Start blocks serving the terminal on the configured port.
func (s *Server) Start() error {
	addr := ":" + config.TerminalPort()
	logger.Info("terminal: listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handshake returns the live handshake for target, creating one when absent.
// A settled handshake is replaced so the next customer scan starts clean.
func (s *Server) handshake(target int64) *qr.Handshake {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handshakes[target]
	if !ok || h.State() == qr.Settled {
		h = qr.New(target, s.awarderFor(target))
		s.handshakes[target] = h
	}
	return h
}

func (s *Server) lookupHandshake(target int64) (*qr.Handshake, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handshakes[target]
	return h, ok
}

// awarderFor routes a self-scan to the local store and everything else to
// the backend.
func (s *Server) awarderFor(target int64) qr.Awarder {
	if user, ok := s.store.User(); ok && user.ID == target {
		return storeAwarder{store: s.store}
	}
	return s.remote
}

// storeAwarder credits the local session balance directly (same-device
// self-scan fallback).
type storeAwarder struct {
	store *appstore.Store
}

func (a storeAwarder) Award(_ context.Context, _ int64, amount int) error {
	a.store.AddPoints(amount)
	return nil
}
