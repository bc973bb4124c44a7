package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bakery-system/internal/apperror"
	"bakery-system/internal/database"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"

	"github.com/google/uuid"
)

// EventPublisher публикует доменные события заказа. Kafka-продюсер реализует
// интерфейс; nil-значение отключает публикацию.
type EventPublisher interface {
	PublishOrderCreated(order *models.Order) error
	PublishOrderStatusChanged(orderID uuid.UUID, oldStatus, newStatus models.OrderStatus) error
	PublishPromoApplied(orderID uuid.UUID, code string, discountAmount, orderAmount float64) error
	PublishPromoRejected(orderID uuid.UUID, code, reason string) error
}

// OrderService оформляет заказы и ведёт их жизненный цикл.
type OrderService struct {
	db      *database.DB
	log     *logger.Logger
	catalog *CatalogService
	zones   *ZoneService
	rules   *PricingRuleService
	promo   *PromoService
	events  EventPublisher
}

// NewOrderService создает новый экземпляр сервиса заказов.
func NewOrderService(db *database.DB, log *logger.Logger, catalog *CatalogService, zones *ZoneService, rules *PricingRuleService, promo *PromoService, events EventPublisher) *OrderService {
	return &OrderService{
		db:      db,
		log:     log,
		catalog: catalog,
		zones:   zones,
		rules:   rules,
		promo:   promo,
		events:  events,
	}
}

// CreateOrder оформляет заказ: собирает корзину по каталогу, считает доставку,
// списывает промокод и остатки в одной транзакции. Если лимит использования
// кода исчерпали между проверкой и подтверждением, заказ оформляется без
// скидки, а причина сохраняется в promo_error.
func (s *OrderService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if req.CustomerName == "" || req.CustomerPhone == "" || req.DeliveryAddress == "" {
		return nil, apperror.Validation("customer_name, customer_phone and delivery_address are required", nil)
	}

	cart, err := s.catalog.BuildCartSnapshot(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	subtotal := round2(cart.Subtotal())

	deliveryFee, err := s.zones.DeliveryFeeFor(ctx, req.ZoneID, subtotal)
	if err != nil {
		return nil, err
	}

	rules, err := s.rules.ListActiveRules(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	orderID := uuid.New()

	var promo *models.PromoCode
	var promoError *string
	var rejectedReason string
	if req.PromoCode != nil && *req.PromoCode != "" {
		promo, _, err = s.promo.ConsumePromo(ctx, tx, orderID, *req.PromoCode, cart, deliveryFee, req.CustomerID, req.CustomerEmail)
		if err != nil {
			// Гонка "проверили — исчерпали": заказ не срывается, код просто
			// не применяется. Остальные отказы возвращаются клиенту.
			if apperror.CodeOf(err) != models.ReasonUsageLimitReached {
				return nil, err
			}
			promo = nil
			rejectedReason = models.ReasonUsageLimitReached
			msg := reasonMessage(rejectedReason)
			promoError = &msg
			s.log.WithFields(map[string]interface{}{
				"order_id": orderID,
				"code":     *req.PromoCode,
			}).Warn("Promo code usage limit reached at checkout, proceeding without discount")
		}
	}

	discountAmount, breakdown := resolveDiscounts(promo, rules, cart, deliveryFee)

	totalAmount := round2(subtotal + deliveryFee - discountAmount)
	if totalAmount < 0 {
		totalAmount = 0
	}

	for _, item := range cart.Items {
		if err := s.catalog.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	order := &models.Order{
		ID:              orderID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		CustomerID:      req.CustomerID,
		DeliveryAddress: req.DeliveryAddress,
		ZoneID:          req.ZoneID,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		DiscountAmount:  discountAmount,
		TotalAmount:     totalAmount,
		Breakdown:       breakdown,
		PromoError:      promoError,
		Status:          models.OrderStatusCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if promo != nil {
		order.PromoCode = &promo.Code
	} else if rejectedReason != "" {
		order.PromoCode = req.PromoCode
	}

	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal discount breakdown: %w", err)
	}

	query := `
		INSERT INTO orders (id, customer_name, customer_phone, customer_email, customer_id, delivery_address, zone_id,
			subtotal, delivery_fee, discount_amount, total_amount, promo_code, discount_breakdown, promo_error,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = tx.ExecContext(ctx, query, order.ID, order.CustomerName, order.CustomerPhone, order.CustomerEmail, order.CustomerID,
		order.DeliveryAddress, order.ZoneID, order.Subtotal, order.DeliveryFee, order.DiscountAmount, order.TotalAmount,
		order.PromoCode, breakdownJSON, order.PromoError, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range cart.Items {
		lineID := uuid.New()
		lineQuery := `
			INSERT INTO order_items (id, order_id, product_id, name, category, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err = tx.ExecContext(ctx, lineQuery, lineID, orderID, item.ProductID, item.Name, item.Category, item.UnitPrice, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}

		order.Items = append(order.Items, models.OrderLine{
			ID:        lineID,
			OrderID:   orderID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":        order.ID,
		"customer_name":   order.CustomerName,
		"discount_amount": order.DiscountAmount,
		"total_amount":    order.TotalAmount,
	}).Info("Order created successfully")

	s.publishOrderEvents(order, rejectedReason, req.PromoCode)

	return order, nil
}

// publishOrderEvents отправляет события после коммита. Ошибки публикации
// логируются: заказ уже создан, и откатывать его из-за брокера нельзя.
func (s *OrderService) publishOrderEvents(order *models.Order, rejectedReason string, requestedCode *string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderCreated(order); err != nil {
		s.log.WithError(err).Error("Failed to publish order created event")
	}
	if order.PromoCode != nil && rejectedReason == "" {
		if err := s.events.PublishPromoApplied(order.ID, *order.PromoCode, order.DiscountAmount, order.Subtotal); err != nil {
			s.log.WithError(err).Error("Failed to publish promo applied event")
		}
	}
	if rejectedReason != "" && requestedCode != nil {
		if err := s.events.PublishPromoRejected(order.ID, *requestedCode, rejectedReason); err != nil {
			s.log.WithError(err).Error("Failed to publish promo rejected event")
		}
	}
}

const orderColumns = `id, customer_name, customer_phone, customer_email, customer_id, delivery_address, zone_id,
		       subtotal, delivery_fee, discount_amount, total_amount, promo_code, discount_breakdown, promo_error,
		       status, created_at, updated_at, delivered_at`

// GetOrder получает заказ по ID вместе с позициями.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(s.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("order not found", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, name, category, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
	`
	rows, err := s.db.QueryContext(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderLine
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Category, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return order, nil
}

// GetOrders получает список заказов с фильтрацией по статусу.
func (s *OrderService) GetOrders(ctx context.Context, status *models.OrderStatus, limit, offset int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus обновляет статус заказа с проверкой допустимости перехода.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, req *models.UpdateOrderStatusRequest) error {
	if req == nil || req.Status == "" {
		return apperror.Validation("status is required", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		currentStatus      models.OrderStatus
		currentDeliveredAt sql.NullTime
	)

	selectQuery := `
		SELECT status, delivered_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	if err := tx.QueryRowContext(ctx, selectQuery, orderID).Scan(&currentStatus, &currentDeliveredAt); err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("order not found", err)
		}
		return fmt.Errorf("failed to fetch order status: %w", err)
	}

	if !isValidOrderStatusTransition(currentStatus, req.Status) {
		return apperror.Conflict("invalid order status transition", nil)
	}

	now := time.Now()
	var deliveredAt sql.NullTime
	if req.Status == models.OrderStatusDelivered {
		if currentStatus == models.OrderStatusDelivered && currentDeliveredAt.Valid {
			deliveredAt = currentDeliveredAt
		} else {
			deliveredAt = sql.NullTime{Time: now, Valid: true}
		}
	}

	updateQuery := `
		UPDATE orders
		SET status = $1, updated_at = $2, delivered_at = $3
		WHERE id = $4
	`
	result, err := tx.ExecContext(ctx, updateQuery, req.Status, now, deliveredAt, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("order not found", nil)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order status update: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":   orderID,
		"old_status": currentStatus,
		"new_status": req.Status,
	}).Info("Order status updated")

	if s.events != nil && currentStatus != req.Status {
		if err := s.events.PublishOrderStatusChanged(orderID, currentStatus, req.Status); err != nil {
			s.log.WithError(err).Error("Failed to publish order status changed event")
		}
	}

	return nil
}

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	order := &models.Order{}
	var breakdownJSON []byte
	err := row.Scan(
		&order.ID, &order.CustomerName, &order.CustomerPhone, &order.CustomerEmail, &order.CustomerID,
		&order.DeliveryAddress, &order.ZoneID, &order.Subtotal, &order.DeliveryFee, &order.DiscountAmount,
		&order.TotalAmount, &order.PromoCode, &breakdownJSON, &order.PromoError,
		&order.Status, &order.CreatedAt, &order.UpdatedAt, &order.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	if len(breakdownJSON) > 0 {
		if err := json.Unmarshal(breakdownJSON, &order.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal discount breakdown: %w", err)
		}
	}
	return order, nil
}

func isValidOrderStatusTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.OrderStatusCreated:
		return to == models.OrderStatusBaking || to == models.OrderStatusCancelled
	case models.OrderStatusBaking:
		return to == models.OrderStatusReady || to == models.OrderStatusCancelled
	case models.OrderStatusReady:
		return to == models.OrderStatusOutForDelivery || to == models.OrderStatusCancelled
	case models.OrderStatusOutForDelivery:
		return to == models.OrderStatusDelivered || to == models.OrderStatusCancelled
	case models.OrderStatusDelivered, models.OrderStatusCancelled:
		return false
	default:
		return false
	}
}
