package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarchetti/orchard-backend/pkg/enums"
	"github.com/dmarchetti/orchard-backend/pkg/types"
)

// Order is the append-only record of a confirmed sale. AuthorizationID is
// unique: it is the idempotency key that makes duplicate success
// notifications harmless.
type Order struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      string             `gorm:"column:customer_id;not null;index"`
	AuthorizationID string             `gorm:"column:authorization_id;not null;uniqueIndex:idx_orders_authorization_id"`
	TotalPaidCents  int                `gorm:"column:total_paid_cents;not null"`
	Currency        string             `gorm:"column:currency;not null;default:'usd'"`
	Status          enums.OrderStatus  `gorm:"column:status;not null;default:'completed'"`
	Delivery        types.DeliveryInfo `gorm:"column:delivery;type:jsonb;serializer:json"`
	Oversold        bool               `gorm:"column:oversold;not null;default:false"`
	Items           []OrderLineItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
}
