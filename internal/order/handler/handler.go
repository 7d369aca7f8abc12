package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/stitchworks/uniform-order-service/internal/order"
	"github.com/stitchworks/uniform-order-service/internal/order/dto"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/drafts", h.handleCreateDraft)
	mux.HandleFunc("GET /orders/drafts/{id}", h.handleGetDraft)
	mux.HandleFunc("POST /orders/drafts/{id}/items", h.handleAddItem)
	mux.HandleFunc("PATCH /orders/drafts/{id}/items/{index}", h.handleUpdateItem)
	mux.HandleFunc("DELETE /orders/drafts/{id}/items/{index}", h.handleRemoveItem)
	mux.HandleFunc("POST /orders/drafts/{id}/submit", h.handleSubmitDraft)
	mux.HandleFunc("GET /orders/{id}", h.handleGetOrder)
}

func (h *OrderHandler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	id, err := h.uc.CreateDraft(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *OrderHandler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.GetDraft(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var input dto.AddItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.uc.AddItem(r.Context(), r.PathValue("id"), input.Level); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid item index", http.StatusBadRequest)
		return
	}

	var input dto.UpdateItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	// Product type first: it cascades into size, and a size sent in the same
	// request applies to the new type.
	if input.ProductType != nil {
		if err := h.uc.SetProductType(ctx, draftID, index, *input.ProductType); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if input.Size != nil {
		if err := h.uc.SetSize(ctx, draftID, index, *input.Size); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if input.Quantity != nil {
		if err := h.uc.SetQuantity(ctx, draftID, index, *input.Quantity); err != nil {
			h.writeError(w, err)
			return
		}
	}

	view, err := h.uc.GetDraft(ctx, draftID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid item index", http.StatusBadRequest)
		return
	}

	if err := h.uc.RemoveItem(r.Context(), r.PathValue("id"), index); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerName string `json:"customer_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ord, err := h.uc.SubmitDraft(r.Context(), &dto.SubmitDraftInput{
		DraftID:      r.PathValue("id"),
		CustomerName: body.CustomerName,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, ord)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.uc.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if ord == nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) writeError(w http.ResponseWriter, err error) {
	var verr *order.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  verr.Error(),
			"fields": verr,
		})
	case errors.Is(err, order.ErrCatalogUnresolved):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, order.ErrDraftNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, order.ErrItemIndex):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("order request failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *OrderHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
