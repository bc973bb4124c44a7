package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bakery-system/internal/apperror"
	"bakery-system/internal/database"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const productColumns = `id, name, description, category, flavor, unit_price, stock, is_active, created_at, updated_at`

// CatalogService управляет каталогом товаров. Цены и теги позиций корзины
// подставляются только отсюда: клиентским ценам сервер не доверяет.
type CatalogService struct {
	db  *database.DB
	log *logger.Logger
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(db *database.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{
		db:  db,
		log: log,
	}
}

// CreateProduct создаёт товар.
func (s *CatalogService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if req.Name == "" || req.Category == "" {
		return nil, apperror.Validation("name and category are required", nil)
	}
	if req.UnitPrice < 0 {
		return nil, apperror.Validation("unit_price must be non-negative", nil)
	}
	if req.Stock < 0 {
		return nil, apperror.Validation("stock must be non-negative", nil)
	}

	now := time.Now()
	product := &models.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Flavor:      req.Flavor,
		UnitPrice:   req.UnitPrice,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO products (id, name, description, category, flavor, unit_price, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Description, product.Category, product.Flavor,
		product.UnitPrice, product.Stock, product.IsActive, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.log.WithField("product_id", product.ID).Info("Product created")
	return product, nil
}

// GetProduct возвращает товар по идентификатору.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("product not found", err)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// UpdateProduct обновляет товар.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	if req.UnitPrice < 0 {
		return nil, apperror.Validation("unit_price must be non-negative", nil)
	}
	if req.Stock < 0 {
		return nil, apperror.Validation("stock must be non-negative", nil)
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, flavor = $4, unit_price = $5, stock = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := s.db.ExecContext(ctx, query,
		req.Name, req.Description, req.Category, req.Flavor, req.UnitPrice, req.Stock, req.IsActive, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("product not found", nil)
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct снимает товар с продажи. Заказы хранят снимок позиций,
// поэтому физически строка не удаляется.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "UPDATE products SET is_active = false, updated_at = $1 WHERE id = $2", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("product not found", nil)
	}
	return nil
}

// ListProducts возвращает товары каталога; onlyActive фильтрует витрину.
func (s *CatalogService) ListProducts(ctx context.Context, onlyActive bool) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if onlyActive {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY category, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// BuildCartSnapshot собирает корзину из запроса, подставляя цены и теги из
// каталога. Неизвестный или снятый с продажи товар — ошибка валидации.
func (s *CatalogService) BuildCartSnapshot(ctx context.Context, items []models.CartItemRequest) (*models.CartSnapshot, error) {
	if len(items) == 0 {
		return nil, apperror.Validation("cart is empty", nil)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperror.Validation("item quantity must be positive", nil)
		}
		ids = append(ids, item.ProductID.String())
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*models.Product, len(items))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	cart := &models.CartSnapshot{Items: make([]models.CartItem, 0, len(items))}
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok || !p.IsActive {
			return nil, apperror.Validation(fmt.Sprintf("product %s is not available", item.ProductID), nil)
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Flavor:    p.Flavor,
			UnitPrice: p.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	return cart, nil
}

// DecrementStock списывает остатки в рамках транзакции заказа. Условие
// stock >= quantity закрывает гонку двух одновременных оформлений.
func (s *CatalogService) DecrementStock(ctx context.Context, tx *sql.Tx, productID uuid.UUID, quantity int) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $1",
		quantity, time.Now(), productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.Conflict(fmt.Sprintf("insufficient stock for product %s", productID), nil)
	}
	return nil
}

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Flavor,
		&p.UnitPrice, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
