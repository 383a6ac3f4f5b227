package terminal

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hoffee-app/hoffee/app/loyalty"
	"github.com/hoffee-app/hoffee/app/models"
	"github.com/hoffee-app/hoffee/app/qr"
	"github.com/hoffee-app/hoffee/config"
	"github.com/hoffee-app/hoffee/pkg/auth"
	"github.com/hoffee-app/hoffee/pkg/logger"
	"github.com/hoffee-app/hoffee/pkg/response"
	"github.com/hoffee-app/hoffee/pkg/router"
	"github.com/hoffee-app/hoffee/pkg/storage"
	"github.com/hoffee-app/hoffee/pkg/validate"
)

func decodeJSON(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dest)
}

// ── Session ───────────────────────────────────────────────────────────────────

type sessionInput struct {
	Pin      string `json:"pin"      validate:"required,min=4,max=12"`
	Terminal string `json:"terminal" validate:"nullable,max=64"`
}

// handleSession exchanges the staff PIN for a session token. With no PIN
// hash configured the terminal runs unlocked and hands out tokens freely.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var in sessionInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	if hash := config.StaffPinHash(); hash != "" && !auth.CheckPin(hash, in.Pin) {
		logger.Warn("terminal: failed unlock attempt", "terminal", in.Terminal)
		response.Unauthorized(w)
		return
	}

	terminal := in.Terminal
	if terminal == "" {
		terminal = "default"
	}
	token, err := auth.GenerateToken(terminal)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not issue session")
		return
	}
	response.Success(w, map[string]string{"token": token, "terminal": terminal})
}

// ── QR award flow ─────────────────────────────────────────────────────────────

type scanInput struct {
	Payload string `json:"payload" validate:"required"`
}

// handleScan resolves a scanned QR payload into a pending confirmation.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var in scanInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	target, err := qr.ParseTarget(in.Payload)
	if err != nil {
		response.Error(w, http.StatusUnprocessableEntity, "payload carries no user identity")
		return
	}

	h := s.handshake(target)
	if err := h.Begin(); err != nil {
		response.Error(w, http.StatusConflict, err.Error())
		return
	}

	response.Success(w, map[string]interface{}{
		"target_id": target,
		"award":     loyalty.QRAwardPoints,
		"state":     h.State().String(),
	})
}

type confirmInput struct {
	TargetID int64 `json:"target_id" validate:"required,gte=1"`
}

// handleConfirm settles a pending award. The settlement is explicitly
// non-reversible; a failure leaves nothing applied and the staff can rescan.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var in confirmInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	h, ok := s.lookupHandshake(in.TargetID)
	if !ok {
		response.NotFound(w)
		return
	}

	if err := h.Confirm(r.Context()); err != nil {
		// A remote failure is retryable with a fresh scan; anything else is
		// a transition the client should not have attempted.
		if h.State() == qr.Failed {
			response.Error(w, http.StatusBadGateway, err.Error())
		} else {
			response.Error(w, http.StatusConflict, err.Error())
		}
		return
	}

	response.Success(w, map[string]interface{}{
		"target_id": in.TargetID,
		"award":     loyalty.QRAwardPoints,
		"state":     h.State().String(),
	})
}

// ── Catalog and orders ────────────────────────────────────────────────────────

func (s *Server) handleMenu(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]interface{}{
		"categories":      s.store.Categories(),
		"products":        s.store.Products(),
		"active_category": s.store.ActiveCategory(),
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.store.OrderHistory())
}

func (s *Server) handleTopProducts(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.store.MostOrdered(5))
}

// ── Admin catalog editing ─────────────────────────────────────────────────────

type productInput struct {
	ID          int    `json:"id"          validate:"nullable,gte=1"`
	Name        string `json:"name"        validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"nullable,max=500"`
	Price       int    `json:"price"       validate:"required,gte=1"`
	CategoryID  string `json:"category_id" validate:"required"`
	ImageURL    string `json:"image_url"   validate:"nullable,url"`
}

func (in productInput) toProduct() models.Product {
	return models.Product{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		ImageURL:    in.ImageURL,
	}
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in productInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	p := in.toProduct()
	if p.ID == 0 {
		p.ID = int(time.Now().UnixMilli() % 1_000_000_000)
	}
	s.store.AddProduct(p)
	response.Created(w, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(router.Param(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if _, ok := s.store.ProductByID(id); !ok {
		response.NotFound(w)
		return
	}

	var in productInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	p := in.toProduct()
	p.ID = id
	if existing, ok := s.store.ProductByID(id); ok && p.ImageURL == "" {
		p.ImageURL = existing.ImageURL
	}
	s.store.UpdateProduct(p)
	response.Success(w, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(router.Param(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if _, ok := s.store.ProductByID(id); !ok {
		response.NotFound(w)
		return
	}

	s.store.DeleteProduct(id)
	response.Success(w, map[string]int{"deleted": id})
}

// handleUploadImage stores a product photo on the configured disk and points
// the catalog entry at its public URL.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(router.Param(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, ok := s.store.ProductByID(id)
	if !ok {
		response.NotFound(w)
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	path := fmt.Sprintf("products/%d%s", id, filepath.Ext(header.Filename))
	if err := storage.Use(config.StorageDefault()).PutStream(path, file); err != nil {
		logger.Error("terminal: image upload failed", "product", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "could not store image")
		return
	}

	product.ImageURL = storage.Use(config.StorageDefault()).URL(path)
	s.store.UpdateProduct(product)
	response.Success(w, map[string]string{"image_url": product.ImageURL})
}

type categoryInput struct {
	ID   string `json:"id"   validate:"required,min=2,max=32"`
	Name string `json:"name" validate:"required,min=2,max=64"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	cat := models.Category{ID: in.ID, Name: in.Name}
	s.store.AddCategory(cat)
	response.Created(w, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.ID = router.Param(r, "id")
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	cat := models.Category{ID: in.ID, Name: in.Name}
	s.store.RenameCategory(cat)
	response.Success(w, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := router.Param(r, "id")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "invalid category id")
		return
	}
	s.store.DeleteCategory(id)
	response.Success(w, map[string]string{"deleted": id})
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	if !s.store.UndoLastOperation() {
		response.Error(w, http.StatusConflict, "nothing to undo")
		return
	}
	response.Success(w, map[string]string{"status": "undone"})
}
