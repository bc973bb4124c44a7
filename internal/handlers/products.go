package handlers

import (
	"encoding/json"
	"net/http"

	"bakery-system/internal/logger"
	"bakery-system/internal/models"
)

// ProductHandler обрабатывает каталог товаров.
type ProductHandler struct {
	catalogService CatalogService
	log            *logger.Logger
}

// NewProductHandler создаёт новый обработчик каталога.
func NewProductHandler(catalogService CatalogService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		log:            log,
	}
}

// CreateProduct создаёт товар.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create product")
		return
	}

	writeJSONResponse(w, http.StatusCreated, product)
}

// GetProduct возвращает товар по ID.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/products/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get product")
		return
	}

	writeJSONResponse(w, http.StatusOK, product)
}

// UpdateProduct обновляет товар.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/products/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req models.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update product")
		return
	}

	writeJSONResponse(w, http.StatusOK, product)
}

// DeleteProduct снимает товар с продажи.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractUUIDFromPath(r.URL.Path, "/api/products/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete product")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// ListProducts возвращает товары каталога. include_inactive=true показывает
// снятые с продажи позиции (админка).
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	onlyActive := r.URL.Query().Get("include_inactive") != "true"

	products, err := h.catalogService.ListProducts(r.Context(), onlyActive)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list products")
		return
	}

	writeJSONResponse(w, http.StatusOK, products)
}
