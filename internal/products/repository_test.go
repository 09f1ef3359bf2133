package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
	"github.com/dmarchetti/orchard-backend/pkg/pagination"
)

func TestFindByID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Product{
		Title:      "Pink Lady Crate",
		PriceCents: 1500,
		TotalStock: 8,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find product: %v", err)
	}
	if found == nil || found.Title != "Pink Lady Crate" {
		t.Fatalf("unexpected product: %+v", found)
	}

	missing, err := repo.FindByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("find missing product: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing product, got %+v", missing)
	}
}

func TestFindByIDs(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	a, err := repo.Create(ctx, &models.Product{Title: "Opal Crate", PriceCents: 1100})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	b, err := repo.Create(ctx, &models.Product{Title: "Envy Crate", PriceCents: 1300})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	products, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil {
		t.Fatalf("find products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[a.ID].Title != "Opal Crate" {
		t.Fatalf("unexpected product for id %s: %+v", a.ID, products[a.ID])
	}
}

func TestRestock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Product{Title: "Ambrosia Crate", PriceCents: 1700, TotalStock: 2})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := repo.Restock(ctx, created.ID, 5); err != nil {
		t.Fatalf("restock: %v", err)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find product: %v", err)
	}
	if found.TotalStock != 7 {
		t.Fatalf("expected total stock 7, got %d", found.TotalStock)
	}

	err = repo.Restock(ctx, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	titles := []string{"Fuji Crate", "Gala Crate", "Honeycrisp Crate", "Jazz Crate", "Kanzi Crate"}
	for i, title := range titles {
		_, err := repo.Create(ctx, &models.Product{
			Title:      title,
			PriceCents: 1000 + i,
			CreatedAt:  base.Add(-time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create product: %v", err)
		}
	}

	first, cursor, err := repo.List(ctx, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first) != 2 || first[0].Title != "Fuji Crate" || first[1].Title != "Gala Crate" {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if cursor == "" {
		t.Fatal("expected a next cursor after the first page")
	}

	second, cursor, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second) != 2 || second[0].Title != "Honeycrisp Crate" || second[1].Title != "Jazz Crate" {
		t.Fatalf("unexpected second page: %+v", second)
	}

	last, cursor, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("list last page: %v", err)
	}
	if len(last) != 1 || last[0].Title != "Kanzi Crate" {
		t.Fatalf("unexpected last page: %+v", last)
	}
	if cursor != "" {
		t.Fatalf("expected no cursor on the last page, got %q", cursor)
	}

	if _, _, err := repo.List(ctx, pagination.Params{Cursor: "not-base64"}); err == nil {
		t.Fatal("expected invalid cursor to be rejected")
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}
