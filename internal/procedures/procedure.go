// Package procedures manages the salon's service catalog.
package procedures

import (
	"errors"
	"strings"
	"time"
)

// Procedure is a bookable service. Money is stored as integer cents.
type Procedure struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	IsPromo         bool      `json:"is_promo"`
	PromoPriceCents int64     `json:"promo_price_cents,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EffectivePriceCents returns the promotional price while a promo is active,
// otherwise the regular price.
func (p Procedure) EffectivePriceCents() int64 {
	if p.IsPromo && p.PromoPriceCents > 0 {
		return p.PromoPriceCents
	}
	return p.PriceCents
}

// Duration converts the stored minutes into a time.Duration.
func (p Procedure) Duration() time.Duration {
	return time.Duration(p.DurationMinutes) * time.Minute
}

// Validate checks the invariants the catalog enforces on write.
func (p Procedure) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("procedures: name is required")
	}
	if p.DurationMinutes <= 0 {
		return errors.New("procedures: duration must be positive")
	}
	if p.PriceCents <= 0 {
		return errors.New("procedures: price must be positive")
	}
	if p.IsPromo && p.PromoPriceCents <= 0 {
		return errors.New("procedures: promo price must be positive when promo is active")
	}
	return nil
}
