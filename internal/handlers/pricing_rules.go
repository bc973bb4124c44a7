package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"bakery-system/internal/logger"
	"bakery-system/internal/models"
)

// PricingRuleHandler обрабатывает ценовые правила.
type PricingRuleHandler struct {
	ruleService PricingRuleService
	log         *logger.Logger
}

// NewPricingRuleHandler создаёт новый обработчик ценовых правил.
func NewPricingRuleHandler(ruleService PricingRuleService, log *logger.Logger) *PricingRuleHandler {
	return &PricingRuleHandler{
		ruleService: ruleService,
		log:         log,
	}
}

// CreatePricingRule создаёт правило.
func (h *PricingRuleHandler) CreatePricingRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreatePricingRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule, err := h.ruleService.CreatePricingRule(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create pricing rule")
		return
	}

	writeJSONResponse(w, http.StatusCreated, rule)
}

// GetPricingRule возвращает правило по ID.
func (h *PricingRuleHandler) GetPricingRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/pricing-rules/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid pricing rule ID")
		return
	}

	rule, err := h.ruleService.GetPricingRule(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get pricing rule")
		return
	}

	writeJSONResponse(w, http.StatusOK, rule)
}

// UpdatePricingRule обновляет правило.
func (h *PricingRuleHandler) UpdatePricingRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/pricing-rules/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid pricing rule ID")
		return
	}

	var req models.UpdatePricingRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule, err := h.ruleService.UpdatePricingRule(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update pricing rule")
		return
	}

	writeJSONResponse(w, http.StatusOK, rule)
}

// DeletePricingRule удаляет правило.
func (h *PricingRuleHandler) DeletePricingRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/pricing-rules/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid pricing rule ID")
		return
	}

	if err := h.ruleService.DeletePricingRule(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete pricing rule")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Pricing rule deleted"})
}

// ListPricingRules возвращает правила. active=true оставляет только действующие
// на текущий момент.
func (h *PricingRuleHandler) ListPricingRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var (
		rules []*models.PricingRule
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		rules, err = h.ruleService.ListActiveRules(r.Context(), time.Now())
	} else {
		rules, err = h.ruleService.ListPricingRules(r.Context())
	}
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list pricing rules")
		return
	}

	writeJSONResponse(w, http.StatusOK, rules)
}
