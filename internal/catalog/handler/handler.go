package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stitchworks/uniform-order-service/internal/catalog"
	"github.com/stitchworks/uniform-order-service/internal/catalog/dto"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	uc     catalog.UseCase
	logger logger.ZapLogger
}

func NewCatalogHandler(uc catalog.UseCase, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /catalog/product-types", h.handleProductTypes)
	mux.HandleFunc("GET /catalog/sizes", h.handleSizes)
	mux.HandleFunc("POST /catalog/reload", h.handleReload)
}

func (h *CatalogHandler) handleProductTypes(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")

	types := h.uc.ProductTypeOptions(level)
	if types == nil {
		types = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"product_types": types,
	})
}

func (h *CatalogHandler) handleSizes(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	productType := r.URL.Query().Get("productType")

	sizes := h.uc.SizeOptions(level, productType)
	if sizes == nil {
		sizes = []dto.Option{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sizes": sizes,
	})
}

func (h *CatalogHandler) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Reload(r.Context()); err != nil {
		h.logger.Error("failed to reload catalog", zap.Error(err))
		http.Error(w, "catalog reload failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
