// Package models holds the domain types shared by the store, the backend
// client and the terminal surface.
package models

import (
	"fmt"
	"strings"
)

// Identity is the external identity descriptor handed to us by the chat
// platform (or a development fallback).
type Identity struct {
	ID        int64
	FirstName string
	LastName  string
	PhotoURL  string
}

// DisplayName joins first and last name, dropping the empty part.
func (i Identity) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// User is the current loyalty profile. Level and NextLevelPoints are derived
// from LifetimePoints; they are stored on the struct only as a hydrated view
// and recomputed on every change.
type User struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	AvatarURL       string `json:"avatarUrl"`
	Points          int    `json:"points"`
	LifetimePoints  int    `json:"lifetimePoints"`
	Level           string `json:"level"`
	NextLevelPoints int    `json:"nextLevelPoints"`
	ReferralCode    string `json:"referralCode"`
}

// ReferralCodeFor derives the stable referral code for a user id.
func ReferralCodeFor(id int64) string {
	return fmt.Sprintf("id%d", id)
}

// Category groups products on the menu.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductModifier is a priced customization option (size, milk, syrup).
type ProductModifier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// Modifiers holds the three named modifier groups a product can carry.
type Modifiers struct {
	Sizes  []ProductModifier `json:"sizes"`
	Milks  []ProductModifier `json:"milks"`
	Syrups []ProductModifier `json:"syrups"`
}

// Product is one catalog entry. Identity is stable across updates, matched
// by ID.
type Product struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int        `json:"price"`
	ImageURL    string     `json:"imageUrl"`
	CategoryID  string     `json:"categoryId"`
	Modifiers   *Modifiers `json:"modifiers,omitempty"`
}

// CartItem is an immutable price snapshot of one product selection.
// UniqueID is derived from the product id plus the chosen modifier ids, so
// the same product with different modifiers occupies separate lines.
type CartItem struct {
	UniqueID          string   `json:"uniqueId"`
	ProductID         int      `json:"productId"`
	ProductName       string   `json:"productName"`
	Price             int      `json:"price"`
	Quantity          int      `json:"quantity"`
	ImageURL          string   `json:"imageUrl"`
	SelectedModifiers []string `json:"selectedModifiers"`
}

// CartItemID derives the cart line key for a product and its chosen
// modifier ids.
func CartItemID(productID int, modifierIDs ...string) string {
	if len(modifierIDs) == 0 {
		return fmt.Sprintf("%d", productID)
	}
	return fmt.Sprintf("%d-%s", productID, strings.Join(modifierIDs, "-"))
}

// Order statuses.
const (
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// OrderHistoryItem is one finished checkout, newest first in the history.
type OrderHistoryItem struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Items      string `json:"items"`
	Total      int    `json:"total"`
	Status     string `json:"status"`
	PickupTime string `json:"pickupTime,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// Catalog operation types for the undo slot.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
)

// FieldChange is one line of the informational diff shown for an update.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// OperationLog is the single-slot undo buffer entry. PreviousData carries the
// full snapshot used for reconstruction; Changes is display-only.
type OperationLog struct {
	Type         string        `json:"type"`
	ProductName  string        `json:"productName"`
	Timestamp    int64         `json:"timestamp"`
	PreviousData *Product      `json:"previousData,omitempty"`
	CurrentData  Product       `json:"currentData"`
	Changes      []FieldChange `json:"changes,omitempty"`
}
