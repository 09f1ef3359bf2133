package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmarchetti/orchard-backend/api/responses"
	product "github.com/dmarchetti/orchard-backend/internal/products"
	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
	"github.com/dmarchetti/orchard-backend/pkg/pagination"
)

type ProductsController struct {
	repo *product.Repository
	logg *logger.Logger
}

func NewProductsController(repo *product.Repository, logg *logger.Logger) *ProductsController {
	return &ProductsController{repo: repo, logg: logg}
}

type productView struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	PriceCents      int       `json:"price_cents"`
	PromoPriceCents *int      `json:"promo_price_cents,omitempty"`
	Available       int       `json:"available"`
}

func toProductView(p models.Product) productView {
	return productView{
		ID:              p.ID,
		Title:           p.Title,
		PriceCents:      p.PriceCents,
		PromoPriceCents: p.PromoPriceCents,
		Available:       p.AvailableStock(),
	}
}

// List returns a page of the catalog.
func (c *ProductsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	params := pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}

	rows, nextCursor, err := c.repo.List(ctx, params)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	views := make([]productView, len(rows))
	for i, row := range rows {
		views[i] = toProductView(row)
	}

	responses.WriteSuccess(w, map[string]any{
		"products":    views,
		"next_cursor": nextCursor,
	})
}

// Get returns one product with its current sellable quantity.
func (c *ProductsController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
		return
	}

	row, err := c.repo.FindByID(ctx, id)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	if row == nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
		return
	}

	responses.WriteSuccess(w, toProductView(*row))
}
