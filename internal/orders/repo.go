package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarchetti/orchard-backend/pkg/db"
	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
)

// Repository defines persistence operations for confirmed orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByAuthorizationID(ctx context.Context, authorizationID string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_orders_authorization_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already recorded for authorization")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
	}
	return order, nil
}

func (r *repository) FindByAuthorizationID(ctx context.Context, authorizationID string) (*models.Order, error) {
	if authorizationID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization id required")
	}
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("authorization_id = ?", authorizationID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order by authorization")
	}
	return &order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing customer orders")
	}
	return rows, nil
}
