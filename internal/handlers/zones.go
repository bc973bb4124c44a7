package handlers

import (
	"encoding/json"
	"net/http"

	"bakery-system/internal/logger"
	"bakery-system/internal/models"
)

// ZoneHandler обрабатывает зоны доставки.
type ZoneHandler struct {
	zoneService ZoneService
	log         *logger.Logger
}

// NewZoneHandler создаёт новый обработчик зон доставки.
func NewZoneHandler(zoneService ZoneService, log *logger.Logger) *ZoneHandler {
	return &ZoneHandler{
		zoneService: zoneService,
		log:         log,
	}
}

// CreateZone создаёт зону доставки.
func (h *ZoneHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateDeliveryZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	zone, err := h.zoneService.CreateZone(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create delivery zone")
		return
	}

	writeJSONResponse(w, http.StatusCreated, zone)
}

// GetZone возвращает зону по ID.
func (h *ZoneHandler) GetZone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/zones/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid zone ID")
		return
	}

	zone, err := h.zoneService.GetZone(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get delivery zone")
		return
	}

	writeJSONResponse(w, http.StatusOK, zone)
}

// UpdateZone обновляет зону.
func (h *ZoneHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/zones/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid zone ID")
		return
	}

	var req models.UpdateDeliveryZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	zone, err := h.zoneService.UpdateZone(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update delivery zone")
		return
	}

	writeJSONResponse(w, http.StatusOK, zone)
}

// DeleteZone удаляет зону.
func (h *ZoneHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/zones/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid zone ID")
		return
	}

	if err := h.zoneService.DeleteZone(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete delivery zone")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Delivery zone deleted"})
}

// ListZones возвращает активные зоны доставки.
func (h *ZoneHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	zones, err := h.zoneService.ListZones(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list delivery zones")
		return
	}

	writeJSONResponse(w, http.StatusOK, zones)
}
