package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
)

func TestReadAvailability(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "Honeycrisp Crate", 10, 4)

	availability, err := repo.ReadAvailability(ctx, product.ID)
	if err != nil {
		t.Fatalf("read availability: %v", err)
	}
	if !availability.Exists {
		t.Fatal("expected product to exist")
	}
	if availability.Title != "Honeycrisp Crate" {
		t.Fatalf("unexpected title: %q", availability.Title)
	}
	if availability.Available() != 6 {
		t.Fatalf("expected 6 available, got %d", availability.Available())
	}

	missing, err := repo.ReadAvailability(ctx, uuid.New())
	if err != nil {
		t.Fatalf("read missing availability: %v", err)
	}
	if missing.Exists {
		t.Fatal("expected missing product")
	}
	if missing.Available() != 0 {
		t.Fatalf("expected 0 available for missing product, got %d", missing.Available())
	}
}

func TestDebitApplied(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "Gala Crate", 5, 0)

	outcome, err := repo.Debit(ctx, product.ID, 5)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if outcome != DeltaApplied {
		t.Fatalf("expected applied, got %s", outcome)
	}
	assertCounters(t, db, product.ID, 5, 5)
}

func TestDebitClampsAtTotalStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "Fuji Crate", 5, 4)

	outcome, err := repo.Debit(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if outcome != DeltaClamped {
		t.Fatalf("expected clamped, got %s", outcome)
	}
	assertCounters(t, db, product.ID, 5, 5)

	// A second oversized debit finds the counter already at the cap and
	// still reports the clamp.
	outcome, err = repo.Debit(ctx, product.ID, 1)
	if err != nil {
		t.Fatalf("second debit: %v", err)
	}
	if outcome != DeltaClamped {
		t.Fatalf("expected clamped on saturated counter, got %s", outcome)
	}
	assertCounters(t, db, product.ID, 5, 5)
}

func TestDebitConcurrentCapsAtTotalStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	// Serialize connections so racing goroutines contend on the guard
	// instead of on the sqlite write lock.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	repo := NewRepository(db)
	ctx := context.Background()

	const (
		totalStock = 6
		attempts   = 10
	)
	product := seedProduct(t, db, "Jonagold Crate", totalStock, 0)

	outcomes := make(chan DeltaOutcome, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := repo.Debit(ctx, product.ID, 1)
			if err != nil {
				t.Errorf("debit: %v", err)
				return
			}
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	applied, clamped := 0, 0
	for outcome := range outcomes {
		switch outcome {
		case DeltaApplied:
			applied++
		case DeltaClamped:
			clamped++
		default:
			t.Fatalf("unexpected outcome %s", outcome)
		}
	}
	if applied != totalStock {
		t.Fatalf("expected %d applied debits, got %d", totalStock, applied)
	}
	if clamped != attempts-totalStock {
		t.Fatalf("expected %d clamped debits, got %d", attempts-totalStock, clamped)
	}
	assertCounters(t, db, product.ID, totalStock, totalStock)
}

func TestDebitMissingProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	outcome, err := repo.Debit(context.Background(), uuid.New(), 2)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if outcome != DeltaNotFound {
		t.Fatalf("expected not found, got %s", outcome)
	}
}

func TestDebitInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Debit(context.Background(), uuid.New(), 0)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "Braeburn Crate", 10, 3)

	if err := repo.Release(ctx, product.ID, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	assertCounters(t, db, product.ID, 10, 1)

	if err := repo.Release(ctx, product.ID, 5); err != nil {
		t.Fatalf("oversized release: %v", err)
	}
	assertCounters(t, db, product.ID, 10, 0)

	// Double release stays at the floor.
	if err := repo.Release(ctx, product.ID, 5); err != nil {
		t.Fatalf("repeated release: %v", err)
	}
	assertCounters(t, db, product.ID, 10, 0)
}

func TestReleaseMissingProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	if err := repo.Release(context.Background(), uuid.New(), 1); err != nil {
		t.Fatalf("release of missing product should be tolerated: %v", err)
	}
}

func seedProduct(t *testing.T, db *gorm.DB, title string, totalStock, committedSold int) models.Product {
	t.Helper()
	product := models.Product{
		ID:            uuid.New(),
		Title:         title,
		PriceCents:    1250,
		TotalStock:    totalStock,
		CommittedSold: committedSold,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func assertCounters(t *testing.T, db *gorm.DB, productID uuid.UUID, totalStock, committedSold int) {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.TotalStock != totalStock || product.CommittedSold != committedSold {
		t.Fatalf("unexpected counters: total=%d committed=%d", product.TotalStock, product.CommittedSold)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}
