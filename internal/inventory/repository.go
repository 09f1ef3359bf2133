package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
)

// DeltaOutcome reports how a stock debit landed.
type DeltaOutcome string

const (
	// DeltaApplied means the full quantity fit within total stock.
	DeltaApplied DeltaOutcome = "applied"
	// DeltaClamped means the counter was capped at total stock because the
	// requested quantity no longer fit. The caller decides what to do with
	// the shortfall.
	DeltaClamped DeltaOutcome = "clamped"
	// DeltaNotFound means the product row no longer exists.
	DeltaNotFound DeltaOutcome = "not_found"
)

// Availability is a point-in-time read of one product's sellable stock.
type Availability struct {
	ProductID     uuid.UUID
	Exists        bool
	Title         string
	TotalStock    int
	CommittedSold int
}

// Available is the derived sellable quantity, floored at zero.
func (a Availability) Available() int {
	available := a.TotalStock - a.CommittedSold
	if available < 0 {
		return 0
	}
	return available
}

// Repository moves and reads the per-product stock counters. Debit and
// Release are single guarded UPDATEs so concurrent writers cannot push
// available stock negative.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ReadAvailability(ctx context.Context, productID uuid.UUID) (Availability, error)
	Debit(ctx context.Context, productID uuid.UUID, qty int) (DeltaOutcome, error)
	Release(ctx context.Context, productID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the inventory repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ReadAvailability(ctx context.Context, productID uuid.UUID) (Availability, error) {
	if productID == uuid.Nil {
		return Availability{}, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	var product models.Product
	err := r.db.WithContext(ctx).
		Select("id", "title", "total_stock", "committed_sold").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Availability{ProductID: productID}, nil
		}
		return Availability{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading product availability")
	}

	return Availability{
		ProductID:     product.ID,
		Exists:        true,
		Title:         product.Title,
		TotalStock:    product.TotalStock,
		CommittedSold: product.CommittedSold,
	}, nil
}

func (r *repository) Debit(ctx context.Context, productID uuid.UUID, qty int) (DeltaOutcome, error) {
	if productID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty < 1 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND committed_sold + ? <= total_stock", productID, qty).
		Update("committed_sold", gorm.Expr("committed_sold + ?", qty))
	if result.Error != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeWriteConflict, result.Error, "debiting stock")
	}
	if result.RowsAffected == 1 {
		return DeltaApplied, nil
	}

	// The guard rejected the full quantity. Distinguish a missing row from
	// insufficient stock, then cap the counter so the shortfall is bounded.
	availability, err := r.ReadAvailability(ctx, productID)
	if err != nil {
		return "", err
	}
	if !availability.Exists {
		return DeltaNotFound, nil
	}

	clamp := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND committed_sold < total_stock", productID).
		Update("committed_sold", gorm.Expr("total_stock"))
	if clamp.Error != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeWriteConflict, clamp.Error, "clamping stock counter")
	}
	return DeltaClamped, nil
}

func (r *repository) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	// Floors at zero; a repeated release of the same hold is a no-op once
	// the counter is back where it started. Missing rows are tolerated.
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("committed_sold", gorm.Expr(
			"CASE WHEN committed_sold - ? < 0 THEN 0 ELSE committed_sold - ? END", qty, qty,
		)).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeWriteConflict, err, "releasing stock")
	}
	return nil
}
