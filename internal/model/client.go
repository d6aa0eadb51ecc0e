package model

import (
	"fmt"
	"strings"
	"time"
)

// Client is a customer who can hold bottles. HeldAssetIDs and HeldCount are a
// projection maintained by the custody projector and never set by callers.
type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address,omitempty"`
	HeldAssetIDs []string  `json:"held_asset_ids"`
	HeldCount    int       `json:"held_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClientContact holds the mutable contact attributes of a client.
type ClientContact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Validate requires a name and phone number.
func (c ClientContact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return fmt.Errorf("phone required")
	}
	return nil
}
