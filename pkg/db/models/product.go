package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog record plus its inventory counters. TotalStock is
// the units ever stocked; CommittedSold counts units sold or currently
// reserved against it. Only the restock path, the reservation engine, and
// the payment reconciler may move these counters.
type Product struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Title           string    `gorm:"column:title;not null"`
	PriceCents      int       `gorm:"column:price_cents;not null"`
	PromoPriceCents *int      `gorm:"column:promo_price_cents"`
	TotalStock      int       `gorm:"column:total_stock;not null;default:0"`
	CommittedSold   int       `gorm:"column:committed_sold;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableStock is the derived sellable quantity.
func (p Product) AvailableStock() int {
	available := p.TotalStock - p.CommittedSold
	if available < 0 {
		return 0
	}
	return available
}

// EffectivePriceCents returns the promo price when set.
func (p Product) EffectivePriceCents() int {
	if p.PromoPriceCents != nil {
		return *p.PromoPriceCents
	}
	return p.PriceCents
}
