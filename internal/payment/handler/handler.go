package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stitchworks/uniform-order-service/internal/payment"
	"github.com/stitchworks/uniform-order-service/internal/payment/dto"
	"github.com/stitchworks/uniform-order-service/internal/payment/ocr"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	uc     payment.UseCase
	logger logger.ZapLogger
}

func NewPaymentHandler(uc payment.UseCase, log logger.ZapLogger) *PaymentHandler {
	return &PaymentHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /payments/sessions", h.handleCreateSession)
	mux.HandleFunc("GET /payments/sessions/{id}", h.handleGetSession)
	mux.HandleFunc("PUT /payments/sessions/{id}/or-number", h.handleSetORNumber)
	mux.HandleFunc("PUT /payments/sessions/{id}/image", h.handleSetImage)
	mux.HandleFunc("DELETE /payments/sessions/{id}/image", h.handleClearImage)
	mux.HandleFunc("PUT /payments/sessions/{id}/amount", h.handleSetAmount)
	mux.HandleFunc("PUT /payments/sessions/{id}/date-paid", h.handleSetDatePaid)
	mux.HandleFunc("POST /payments/sessions/{id}/submit", h.handleSubmit)
}

func (h *PaymentHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateSessionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.uc.CreateSession(r.Context(), &input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *PaymentHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.uc.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *PaymentHandler) handleSetORNumber(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ORNumber string `json:"or_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.uc.SetORNumber(r.Context(), r.PathValue("id"), body.ORNumber); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondSnapshot(w, r)
}

func (h *PaymentHandler) handleSetImage(w http.ResponseWriter, r *http.Request) {
	var input dto.ImageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.uc.SetImage(r.Context(), r.PathValue("id"), &input); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondSnapshot(w, r)
}

func (h *PaymentHandler) handleClearImage(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.ClearImage(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondSnapshot(w, r)
}

func (h *PaymentHandler) handleSetAmount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.uc.SetAmount(r.Context(), r.PathValue("id"), body.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondSnapshot(w, r)
}

func (h *PaymentHandler) handleSetDatePaid(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DatePaid time.Time `json:"date_paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.uc.SetDatePaid(r.Context(), r.PathValue("id"), body.DatePaid); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondSnapshot(w, r)
}

func (h *PaymentHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.uc.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	// The stored image is not echoed back.
	receipt.Image = nil
	h.writeJSON(w, http.StatusCreated, receipt)
}

func (h *PaymentHandler) respondSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.uc.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, err error) {
	var serviceErr *ocr.ServiceError
	switch {
	case errors.Is(err, payment.ErrSessionNotFound), errors.Is(err, payment.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &serviceErr):
		h.writeJSON(w, http.StatusBadGateway, map[string]string{"error": serviceErr.Error()})
	case errors.Is(err, payment.ErrReceiptMismatch),
		errors.Is(err, ocr.ErrNoTextExtracted),
		errors.Is(err, payment.ErrImageRequired),
		errors.Is(err, payment.ErrORNumberRequired),
		errors.Is(err, payment.ErrNegativeAmount),
		errors.Is(err, payment.ErrInvalidPaymentType),
		errors.Is(err, payment.ErrStaleSubmission):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, payment.ErrSubmissionLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("payment request failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *PaymentHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
