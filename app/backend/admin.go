package backend

import (
	"context"
	"fmt"

	"github.com/hoffee-app/hoffee/app/models"
	"github.com/hoffee-app/hoffee/pkg/http"
)

// Admin catalog sync. Every call attaches the caller's admin id; the backend
// owns the authorization decision.

type productDTO struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	ImageURL    string `json:"image_url"`
	CategoryID  string `json:"category_id"`
	AdminID     int64  `json:"admin_id"`
}

func toProductDTO(adminID int64, p models.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		CategoryID:  p.CategoryID,
		AdminID:     adminID,
	}
}

// CreateProduct mirrors a locally added product to the backend catalog.
func (c *Client) CreateProduct(ctx context.Context, adminID int64, p models.Product) error {
	resp, err := http.Post(c.base + "/admin/products").
		Body(toProductDTO(adminID, p)).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("backend: create product: %w", err)
	}
	return wrapThrow("create product", resp)
}

// UpdateProduct mirrors a local product edit.
func (c *Client) UpdateProduct(ctx context.Context, adminID int64, p models.Product) error {
	resp, err := http.Put(fmt.Sprintf("%s/admin/products/%d", c.base, p.ID)).
		Body(toProductDTO(adminID, p)).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("backend: update product: %w", err)
	}
	return wrapThrow("update product", resp)
}

// DeleteProduct mirrors a local product removal.
func (c *Client) DeleteProduct(ctx context.Context, adminID int64, productID int) error {
	resp, err := http.Delete(fmt.Sprintf("%s/admin/products/%d?admin_id=%d", c.base, productID, adminID)).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("backend: delete product: %w", err)
	}
	return wrapThrow("delete product", resp)
}

type categoryDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	AdminID int64  `json:"admin_id"`
}

// CreateCategory adds a menu category on the backend.
func (c *Client) CreateCategory(ctx context.Context, adminID int64, cat models.Category) error {
	resp, err := http.Post(c.base + "/admin/categories").
		Body(categoryDTO{ID: cat.ID, Name: cat.Name, AdminID: adminID}).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("backend: create category: %w", err)
	}
	return wrapThrow("create category", resp)
}

// UpdateCategory renames a menu category on the backend.
func (c *Client) UpdateCategory(ctx context.Context, adminID int64, cat models.Category) error {
	resp, err := http.Put(c.base + "/admin/categories/" + cat.ID).
		Body(categoryDTO{ID: cat.ID, Name: cat.Name, AdminID: adminID}).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("backend: update category: %w", err)
	}
	return wrapThrow("update category", resp)
}

// DeleteCategory removes a menu category on the backend.
func (c *Client) DeleteCategory(ctx context.Context, adminID int64, categoryID string) error {
	resp, err := http.Delete(fmt.Sprintf("%s/admin/categories/%s?admin_id=%d", c.base, categoryID, adminID)).
		WithContext(ctx).
		Send()
	if err != nil {
		return fmt.Errorf("backend: delete category: %w", err)
	}
	return wrapThrow("delete category", resp)
}

func wrapThrow(op string, resp *http.Response) error {
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("backend: %s: %w", op, err)
	}
	return nil
}
