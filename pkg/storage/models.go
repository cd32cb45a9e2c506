// Package storage is the persistence adapter for bills and finalized
// travel plans. It speaks SQLite by default and PostgreSQL when the
// database URL carries a postgres scheme; migrations are embedded and
// applied on open.
package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Bill is one expense record from the bill-assistant path.
type Bill struct {
	ID           int64     `json:"id"`
	Topic        string    `json:"topic"`
	Payer        string    `json:"payer"`
	Participants []string  `json:"participants"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
	UserInput    string    `json:"user_input"`
}

// TravelPlan is a finalized plan row. Finalization is append-only.
type TravelPlan struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	RoutePlan      string    `json:"route_plan"`
	RestaurantPlan string    `json:"restaurant_plan"`
	Budget         *float64  `json:"budget"`
	Currency       string    `json:"currency"`
	Destination    string    `json:"destination"`
	Days           *int      `json:"days"`
	Participants   []string  `json:"participants"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
