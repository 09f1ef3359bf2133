package reservation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmarchetti/orchard-backend/internal/inventory"
	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
)

// Reasons reported on items that could not be held.
const (
	ReasonUnavailable  = "unavailable"
	ReasonInsufficient = "insufficient"
)

// Request asks to hold Qty units of one cart line.
type Request struct {
	ProductID uuid.UUID
	Title     string
	Qty       int
}

// Result reports the hold decision for one request, in request order.
// Available carries the sellable quantity seen at decision time.
type Result struct {
	ProductID uuid.UUID
	Title     string
	Qty       int
	Reserved  bool
	Reason    string
	Available int
}

// AllReserved reports whether every request in the batch was held.
func AllReserved(results []Result) bool {
	for _, res := range results {
		if !res.Reserved {
			return false
		}
	}
	return len(results) > 0
}

// Reserve holds stock for every request or for none of them. Rows are
// locked for the check on dialects that support it; the counter updates
// are guarded regardless, so a lost race surfaces as a write conflict
// instead of a negative balance. Runs inside the caller's transaction.
func Reserve(ctx context.Context, tx *gorm.DB, requests []Request) ([]Result, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no reservation requests")
	}
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
	}

	products, err := loadProductsForUpdate(ctx, tx, requests)
	if err != nil {
		return nil, err
	}

	// Decide every request against a running balance so two lines for the
	// same product compete for the same units.
	remaining := make(map[uuid.UUID]int, len(products))
	for id, product := range products {
		remaining[id] = product.AvailableStock()
	}

	results := make([]Result, len(requests))
	allReserved := true
	for i, req := range requests {
		res := Result{ProductID: req.ProductID, Title: req.Title, Qty: req.Qty}
		product, ok := products[req.ProductID]
		if !ok {
			res.Reason = ReasonUnavailable
			allReserved = false
			results[i] = res
			continue
		}
		if res.Title == "" {
			res.Title = product.Title
		}
		res.Available = remaining[req.ProductID]
		if res.Available < req.Qty {
			res.Reason = ReasonInsufficient
			allReserved = false
			results[i] = res
			continue
		}
		remaining[req.ProductID] -= req.Qty
		res.Reserved = true
		results[i] = res
	}

	if !allReserved {
		return results, nil
	}

	totals := make(map[uuid.UUID]int, len(requests))
	for _, req := range requests {
		totals[req.ProductID] += req.Qty
	}
	for productID, qty := range totals {
		update := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND committed_sold + ? <= total_stock", productID, qty).
			Update("committed_sold", gorm.Expr("committed_sold + ?", qty))
		if update.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeWriteConflict, update.Error, "holding stock")
		}
		if update.RowsAffected != 1 {
			return nil, pkgerrors.New(pkgerrors.CodeWriteConflict, "stock changed during reservation")
		}
	}
	return results, nil
}

// Release returns previously held units. Floored at zero per product, so
// releasing the same hold twice is harmless; missing products are skipped.
func Release(ctx context.Context, db *gorm.DB, requests []Request) error {
	if db == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "db handle required")
	}
	repo := inventory.NewRepository(db)
	for _, req := range requests {
		if req.ProductID == uuid.Nil || req.Qty < 1 {
			continue
		}
		if err := repo.Release(ctx, req.ProductID, req.Qty); err != nil {
			return err
		}
	}
	return nil
}

func loadProductsForUpdate(ctx context.Context, tx *gorm.DB, requests []Request) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(requests))
	seen := make(map[uuid.UUID]struct{}, len(requests))
	for _, req := range requests {
		if _, ok := seen[req.ProductID]; ok {
			continue
		}
		seen[req.ProductID] = struct{}{}
		ids = append(ids, req.ProductID)
	}

	query := tx.WithContext(ctx).Model(&models.Product{})
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []models.Product
	if err := query.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading products for reservation")
	}

	products := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		products[row.ID] = row
	}
	return products, nil
}
