package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bakery-system/internal/logger"
	"bakery-system/internal/models"
)

// PromoHandler обрабатывает промокоды: админский CRUD и публичную проверку
// против корзины.
type PromoHandler struct {
	promoService PromoService
	cartBuilder  CartBuilder
	feeQuoter    FeeQuoter
	log          *logger.Logger
}

// NewPromoHandler создаёт новый обработчик промокодов.
func NewPromoHandler(promoService PromoService, cartBuilder CartBuilder, feeQuoter FeeQuoter, log *logger.Logger) *PromoHandler {
	return &PromoHandler{
		promoService: promoService,
		cartBuilder:  cartBuilder,
		feeQuoter:    feeQuoter,
		log:          log,
	}
}

// CreatePromoCode создаёт промокод.
func (h *PromoHandler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreatePromoCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validatePromoRequest(req.Code); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	promo, err := h.promoService.CreatePromoCode(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create promo code")
		return
	}

	writeJSONResponse(w, http.StatusCreated, promo)
}

// ListPromoCodes возвращает список промокодов.
func (h *PromoHandler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	promos, err := h.promoService.ListPromoCodes(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list promo codes")
		return
	}

	writeJSONResponse(w, http.StatusOK, promos)
}

// GetPromoCode возвращает промокод по коду.
func (h *PromoHandler) GetPromoCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	code, err := extractPromoCodeFromPath(r.URL.Path)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	promo, err := h.promoService.GetPromoCode(r.Context(), code)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get promo code")
		return
	}

	writeJSONResponse(w, http.StatusOK, promo)
}

// UpdatePromoCode обновляет промокод.
func (h *PromoHandler) UpdatePromoCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	code, err := extractPromoCodeFromPath(r.URL.Path)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdatePromoCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	promo, err := h.promoService.UpdatePromoCode(r.Context(), code, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update promo code")
		return
	}

	writeJSONResponse(w, http.StatusOK, promo)
}

// DeletePromoCode деактивирует промокод.
func (h *PromoHandler) DeletePromoCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	code, err := extractPromoCodeFromPath(r.URL.Path)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.promoService.DeletePromoCode(r.Context(), code); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete promo code")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Promo code deleted"})
}

// ValidatePromoCode проверяет промокод против корзины. Отказ — не HTTP-ошибка:
// клиент получает 200 со структурным результатом и кодом причины.
func (h *PromoHandler) ValidatePromoCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.ValidatePromoCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validatePromoRequest(req.Code); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	cart, err := h.cartBuilder.BuildCartSnapshot(r.Context(), req.Items)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to build cart")
		return
	}

	deliveryFee, err := h.feeQuoter.DeliveryFeeFor(r.Context(), req.ZoneID, cart.Subtotal())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to calculate delivery fee")
		return
	}

	result, err := h.promoService.ValidatePromoCode(r.Context(), &req, cart, deliveryFee)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to validate promo code")
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

func validatePromoRequest(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("promo code is required")
	}
	if len(code) > 64 {
		return fmt.Errorf("promo code is too long")
	}
	return nil
}

func extractPromoCodeFromPath(path string) (string, error) {
	if !strings.HasPrefix(path, "/api/promo-codes/") {
		return "", fmt.Errorf("invalid path format")
	}
	code := strings.TrimPrefix(path, "/api/promo-codes/")
	if code == "" {
		return "", fmt.Errorf("promo code is required")
	}
	// Отрезаем возможный суффикс со слешем
	code = strings.Split(code, "/")[0]
	return code, nil
}
