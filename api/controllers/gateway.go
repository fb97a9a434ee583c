package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/vietcart/vietcart-backend/api/responses"
	"github.com/vietcart/vietcart-backend/internal/gateway"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/logger"
)

type gatewayReturnView struct {
	Success          bool       `json:"success"`
	ResponseCode     string     `json:"response_code"`
	Order            *orderView `json:"order,omitempty"`
	PendingPaymentID *uuid.UUID `json:"pending_payment_id,omitempty"`
}

// VNPayReturn handles the browser leg of the gateway flow. This is the
// authoritative leg: on a verified successful payment it places the order, or
// parks the money as a pending payment when the wizard state is gone.
func VNPayReturn(svc gateway.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway service unavailable"))
			return
		}

		result, err := svc.HandleReturn(r.Context(), r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := gatewayReturnView{
			Success:          result.Success,
			ResponseCode:     result.ResponseCode,
			PendingPaymentID: result.PendingPaymentID,
		}
		if result.Order != nil {
			ov := newOrderView(result.Order)
			view.Order = &ov
		}
		responses.WriteSuccess(w, view)
	}
}

// VNPayIPN answers the gateway's server-to-server notification. The body is
// the raw {"RspCode","Message"} shape VNPay expects, always with HTTP 200, so
// it deliberately bypasses the API envelope.
func VNPayIPN(svc gateway.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway service unavailable"))
			return
		}

		result := svc.HandleIPN(r.Context(), r.URL.Query())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(result); err != nil && logg != nil {
			logg.Error(r.Context(), "failed to encode ipn acknowledgment", err)
		}
	}
}
