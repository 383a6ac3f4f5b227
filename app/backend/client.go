// Package backend is the REST client for the coffee-shop API. Every call
// goes through the shared retry-aware HTTP client; callers decide whether a
// failure is fatal (auth falls back to a local profile, sync effects only
// surface a notification).
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/hoffee-app/hoffee/app/models"
	"github.com/hoffee-app/hoffee/config"
	"github.com/hoffee-app/hoffee/pkg/http"
)

// Client talks to the backend REST API.
type Client struct {
	base string
}

// New builds a client against the configured API base URL.
func New() *Client {
	return &Client{base: config.APIBaseURL()}
}

// NewWithBase builds a client against an explicit base URL (tests).
func NewWithBase(base string) *Client {
	return &Client{base: base}
}

type userDTO struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	AvatarURL       string `json:"avatar_url"`
	Points          int    `json:"points"`
	LifetimePoints  int    `json:"lifetime_points"`
	LevelName       string `json:"level_name"`
	NextLevelPoints int    `json:"next_level_points"`
}

func (d userDTO) toUser() models.User {
	return models.User{
		ID:              d.ID,
		Name:            d.Name,
		AvatarURL:       d.AvatarURL,
		Points:          d.Points,
		LifetimePoints:  d.LifetimePoints,
		Level:           d.LevelName,
		NextLevelPoints: d.NextLevelPoints,
		ReferralCode:    models.ReferralCodeFor(d.ID),
	}
}

// SyncUser registers or refreshes the profile for the given identity and
// returns the server-computed loyalty state.
func (c *Client) SyncUser(ctx context.Context, ident models.Identity) (models.User, error) {
	body := map[string]interface{}{
		"id":         ident.ID,
		"name":       ident.DisplayName(),
		"avatar_url": ident.PhotoURL,
	}

	resp, err := http.Post(c.base + "/auth").Body(body).WithContext(ctx).Send()
	if err != nil {
		return models.User{}, fmt.Errorf("backend: auth: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return models.User{}, fmt.Errorf("backend: auth: %w", err)
	}

	var dto userDTO
	if err := resp.JSON(&dto); err != nil {
		return models.User{}, fmt.Errorf("backend: auth: %w", err)
	}
	return dto.toUser(), nil
}

// FetchUser reads the current profile of a user by id. Used by the terminal
// award flow to compute the post-award balance.
func (c *Client) FetchUser(ctx context.Context, userID int64) (models.User, error) {
	resp, err := http.Get(fmt.Sprintf("%s/users/%d", c.base, userID)).WithContext(ctx).Send()
	if err != nil {
		return models.User{}, fmt.Errorf("backend: fetch user %d: %w", userID, err)
	}
	if err := resp.Throw(); err != nil {
		return models.User{}, fmt.Errorf("backend: fetch user %d: %w", userID, err)
	}

	var dto userDTO
	if err := resp.JSON(&dto); err != nil {
		return models.User{}, fmt.Errorf("backend: fetch user %d: %w", userID, err)
	}
	return dto.toUser(), nil
}

// UpdatePoints pushes the new absolute balance for a user. Fire-and-forget
// from the checkout and award flows.
func (c *Client) UpdatePoints(ctx context.Context, userID int64, points, lifetimePoints int) error {
	body := map[string]int{
		"points":          points,
		"lifetime_points": lifetimePoints,
	}

	resp, err := http.Post(fmt.Sprintf("%s/users/%d/points", c.base, userID)).
		Body(body).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("backend: update points: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("backend: update points: %w", err)
	}
	return nil
}

// Award credits a fixed amount to both balances of the target user.
// The backend's points endpoint takes absolute values, so the current
// profile is read first.
func (c *Client) Award(ctx context.Context, target int64, amount int) error {
	user, err := c.FetchUser(ctx, target)
	if err != nil {
		return err
	}
	return c.UpdatePoints(ctx, target, user.Points+amount, user.LifetimePoints+amount)
}

// OrderRequest is the order-creation payload.
type OrderRequest struct {
	UserID       int64  `json:"user_id"`
	ItemsSummary string `json:"items_summary"`
	TotalPrice   int    `json:"total_price"`
	PointsUsed   int    `json:"points_used"`
	PickupTime   string `json:"pickup_time,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// CreateOrder persists a completed checkout on the backend.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) error {
	resp, err := http.Post(c.base + "/orders").Body(req).WithContext(ctx).Send()
	if err != nil {
		return fmt.Errorf("backend: create order: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("backend: create order: %w", err)
	}
	return nil
}

// MenuSnapshot is the catalog as served by the backend, flattened into the
// shapes the store works with.
type MenuSnapshot struct {
	Categories []models.Category
	Products   []models.Product
}

type menuDTO struct {
	Categories []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Products []struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Price       int    `json:"price"`
			CategoryID  string `json:"category_id"`
			ImageURL    string `json:"image_url"`
			Modifiers   []struct {
				ModifierType string `json:"modifier_type"`
				Name         string `json:"name"`
				Price        int    `json:"price"`
			} `json:"modifiers"`
		} `json:"products"`
	} `json:"categories"`
}

// FetchMenu loads the full catalog. The request carries a timestamp query so
// no intermediate cache can serve a stale menu.
func (c *Client) FetchMenu(ctx context.Context) (MenuSnapshot, error) {
	url := fmt.Sprintf("%s/menu?ts=%d", c.base, time.Now().UnixNano())

	resp, err := http.Get(url).
		Retry(2, 500*time.Millisecond).
		WithContext(ctx).
		Send()
	if err != nil {
		return MenuSnapshot{}, fmt.Errorf("backend: fetch menu: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return MenuSnapshot{}, fmt.Errorf("backend: fetch menu: %w", err)
	}

	var dto menuDTO
	if err := resp.JSON(&dto); err != nil {
		return MenuSnapshot{}, fmt.Errorf("backend: fetch menu: %w", err)
	}

	var snap MenuSnapshot
	for _, cat := range dto.Categories {
		snap.Categories = append(snap.Categories, models.Category{ID: cat.ID, Name: cat.Name})

		for _, p := range cat.Products {
			product := models.Product{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Price:       p.Price,
				ImageURL:    p.ImageURL,
				CategoryID:  p.CategoryID,
			}
			if product.CategoryID == "" {
				product.CategoryID = cat.ID
			}

			if len(p.Modifiers) > 0 {
				mods := &models.Modifiers{
					Sizes:  []models.ProductModifier{},
					Milks:  []models.ProductModifier{},
					Syrups: []models.ProductModifier{},
				}
				for i, m := range p.Modifiers {
					pm := models.ProductModifier{
						ID:    fmt.Sprintf("%s-%d", m.ModifierType, i),
						Name:  m.Name,
						Price: m.Price,
					}
					switch m.ModifierType {
					case "size":
						mods.Sizes = append(mods.Sizes, pm)
					case "milk":
						mods.Milks = append(mods.Milks, pm)
					case "syrup":
						mods.Syrups = append(mods.Syrups, pm)
					}
				}
				product.Modifiers = mods
			}

			snap.Products = append(snap.Products, product)
		}
	}
	return snap, nil
}
