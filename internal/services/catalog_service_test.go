package services

import (
	"context"
	"database/sql"
	"testing"

	"bakery-system/internal/apperror"
	"bakery-system/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestCatalogService_BuildCartSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCatalogService(db, newTestLogger())

	productID := uuid.New()
	mock.ExpectQuery("SELECT id, name, description, category").
		WillReturnRows(productRow(productID, "Chocolate Cookie", "cookies", 25, 10))

	cart, err := service.BuildCartSnapshot(context.Background(), []models.CartItemRequest{
		{ProductID: productID, Quantity: 4},
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(cart.Items))
	}
	if cart.Items[0].UnitPrice != 25.0 || cart.Items[0].Category != "cookies" {
		t.Fatalf("expected catalog price and category in snapshot, got %+v", cart.Items[0])
	}
	if cart.Subtotal() != 100.0 {
		t.Fatalf("expected subtotal 100.0, got %.2f", cart.Subtotal())
	}
}

func TestCatalogService_BuildCartSnapshot_UnknownProduct(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCatalogService(db, newTestLogger())

	mock.ExpectQuery("SELECT id, name, description, category").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "category", "flavor", "unit_price", "stock", "is_active", "created_at", "updated_at"}))

	_, err := service.BuildCartSnapshot(context.Background(), []models.CartItemRequest{
		{ProductID: uuid.New(), Quantity: 1},
	})
	if err == nil || !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for unknown product, got %v", err)
	}
}

func TestCatalogService_BuildCartSnapshot_EmptyCart(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()

	service := NewCatalogService(db, newTestLogger())

	if _, err := service.BuildCartSnapshot(context.Background(), nil); err == nil {
		t.Fatalf("expected validation error for empty cart")
	}
	if _, err := service.BuildCartSnapshot(context.Background(), []models.CartItemRequest{
		{ProductID: uuid.New(), Quantity: 0},
	}); err == nil {
		t.Fatalf("expected validation error for zero quantity")
	}
}

func TestCatalogService_DecrementStock_Insufficient(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCatalogService(db, newTestLogger())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products SET stock").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, _ := db.Begin()
	err := service.DecrementStock(context.Background(), tx, uuid.New(), 5)
	if err == nil || !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("expected conflict for insufficient stock, got %v", err)
	}
}

func TestCatalogService_CreateProduct_Validation(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()

	service := NewCatalogService(db, newTestLogger())

	if _, err := service.CreateProduct(context.Background(), &models.CreateProductRequest{Name: "", Category: "cookies"}); err == nil {
		t.Fatalf("expected validation error for empty name")
	}
	if _, err := service.CreateProduct(context.Background(), &models.CreateProductRequest{Name: "x", Category: "cookies", UnitPrice: -1}); err == nil {
		t.Fatalf("expected validation error for negative price")
	}
}

func TestCatalogService_GetProduct_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCatalogService(db, newTestLogger())

	mock.ExpectQuery("SELECT id, name, description, category").
		WillReturnError(sql.ErrNoRows)

	if _, err := service.GetProduct(context.Background(), uuid.New()); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestCatalogService_ListProducts_OnlyActive(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCatalogService(db, newTestLogger())

	mock.ExpectQuery("SELECT id, name, description, category(.+)WHERE is_active = true").
		WillReturnRows(productRow(uuid.New(), "Cookie", "cookies", 10, 5))

	products, err := service.ListProducts(context.Background(), true)
	if err != nil || len(products) != 1 {
		t.Fatalf("list failed: %v len=%d", err, len(products))
	}
}
