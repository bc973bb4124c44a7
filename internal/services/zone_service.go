package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bakery-system/internal/apperror"
	"bakery-system/internal/config"
	"bakery-system/internal/database"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"
	"bakery-system/internal/redis"

	"github.com/google/uuid"
)

const zoneColumns = `id, name, delivery_fee, free_over_total, is_active, created_at, updated_at`

// ZoneService управляет зонами доставки и считает тариф для заказа.
type ZoneService struct {
	db       *database.DB
	redis    *redis.Client
	log      *logger.Logger
	fallback config.DeliveryConfig
	cacheTTL time.Duration
}

// NewZoneService создаёт сервис зон доставки. fallback используется для
// адресов вне настроенных зон.
func NewZoneService(db *database.DB, redisClient *redis.Client, log *logger.Logger, fallback config.DeliveryConfig, cacheTTL time.Duration) *ZoneService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ZoneService{
		db:       db,
		redis:    redisClient,
		log:      log,
		fallback: fallback,
		cacheTTL: cacheTTL,
	}
}

// CreateZone создаёт зону доставки.
func (s *ZoneService) CreateZone(ctx context.Context, req *models.CreateDeliveryZoneRequest) (*models.DeliveryZone, error) {
	if req.Name == "" {
		return nil, apperror.Validation("zone name is required", nil)
	}
	if req.DeliveryFee < 0 || req.FreeOverTotal < 0 {
		return nil, apperror.Validation("delivery_fee and free_over_total must be non-negative", nil)
	}

	now := time.Now()
	zone := &models.DeliveryZone{
		ID:            uuid.New(),
		Name:          req.Name,
		DeliveryFee:   req.DeliveryFee,
		FreeOverTotal: req.FreeOverTotal,
		IsActive:      req.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	query := `
		INSERT INTO delivery_zones (id, name, delivery_fee, free_over_total, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		zone.ID, zone.Name, zone.DeliveryFee, zone.FreeOverTotal, zone.IsActive, zone.CreatedAt, zone.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery zone: %w", err)
	}

	s.invalidateCache(ctx)
	s.log.WithField("zone_id", zone.ID).Info("Delivery zone created")
	return zone, nil
}

// GetZone возвращает зону по идентификатору.
func (s *ZoneService) GetZone(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error) {
	query := `SELECT ` + zoneColumns + ` FROM delivery_zones WHERE id = $1`
	zone, err := scanZone(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("delivery zone not found", err)
		}
		return nil, fmt.Errorf("failed to get delivery zone: %w", err)
	}
	return zone, nil
}

// UpdateZone обновляет зону.
func (s *ZoneService) UpdateZone(ctx context.Context, id uuid.UUID, req *models.UpdateDeliveryZoneRequest) (*models.DeliveryZone, error) {
	if req.DeliveryFee < 0 || req.FreeOverTotal < 0 {
		return nil, apperror.Validation("delivery_fee and free_over_total must be non-negative", nil)
	}

	query := `
		UPDATE delivery_zones
		SET name = $1, delivery_fee = $2, free_over_total = $3, is_active = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		req.Name, req.DeliveryFee, req.FreeOverTotal, req.IsActive, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update delivery zone: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("delivery zone not found", nil)
	}

	s.invalidateCache(ctx)
	return s.GetZone(ctx, id)
}

// DeleteZone удаляет зону.
func (s *ZoneService) DeleteZone(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM delivery_zones WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete delivery zone: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("delivery zone not found", nil)
	}
	s.invalidateCache(ctx)
	return nil
}

// ListZones возвращает активные зоны доставки (с кешем).
func (s *ZoneService) ListZones(ctx context.Context) ([]*models.DeliveryZone, error) {
	cacheKey := redis.GenerateKey(redis.KeyPrefixZones, "active")

	var cached []*models.DeliveryZone
	if s.redis != nil {
		if err := s.redis.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	query := `SELECT ` + zoneColumns + ` FROM delivery_zones WHERE is_active = true ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery zones: %w", err)
	}
	defer rows.Close()

	var zones []*models.DeliveryZone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery zone: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate delivery zones: %w", err)
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, zones, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("Failed to cache delivery zones")
		}
	}

	return zones, nil
}

// DeliveryFeeFor возвращает стоимость доставки для заказа: тариф зоны
// (или тариф по умолчанию вне зон), обнулённый при достижении порога
// бесплатной доставки.
func (s *ZoneService) DeliveryFeeFor(ctx context.Context, zoneID *uuid.UUID, subtotal float64) (float64, error) {
	fee := s.fallback.DefaultFee
	freeOver := s.fallback.FreeOverTotal

	if zoneID != nil {
		zone, err := s.GetZone(ctx, *zoneID)
		if err != nil {
			return 0, err
		}
		if !zone.IsActive {
			return 0, apperror.Validation("delivery zone is not active", nil)
		}
		fee = zone.DeliveryFee
		freeOver = zone.FreeOverTotal
	}

	if freeOver > 0 && subtotal >= freeOver {
		return 0, nil
	}
	return fee, nil
}

func (s *ZoneService) invalidateCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.DeleteByPrefix(ctx, redis.KeyPrefixZones); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate delivery zones cache")
	}
}

func scanZone(row interface{ Scan(...interface{}) error }) (*models.DeliveryZone, error) {
	z := &models.DeliveryZone{}
	err := row.Scan(&z.ID, &z.Name, &z.DeliveryFee, &z.FreeOverTotal, &z.IsActive, &z.CreatedAt, &z.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return z, nil
}
