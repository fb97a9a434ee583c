package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vietcart/vietcart-backend/api/responses"
	"github.com/vietcart/vietcart-backend/api/validators"
	"github.com/vietcart/vietcart-backend/internal/checkout"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/logger"
)

type checkoutAddressRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

type checkoutShippingRequest struct {
	Method string `json:"method" validate:"required"`
}

type checkoutPaymentRequest struct {
	Channel    string `json:"channel" validate:"required"`
	CardNumber string `json:"card_number" validate:"omitempty,min=12,max=19"`
}

type checkoutConfirmRequest struct {
	TermsAccepted bool   `json:"terms_accepted"`
	Note          string `json:"note" validate:"omitempty,max=500"`
}

type confirmResultView struct {
	Order       *orderView `json:"order,omitempty"`
	RedirectURL string     `json:"redirect_url,omitempty"`
}

func CheckoutFetch(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionView(session))
	}
}

func CheckoutSetAddress(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutAddressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SetAddress(r.Context(), customerID, body.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionView(session))
	}
}

func CheckoutSetShipping(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutShippingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SetShippingMethod(r.Context(), customerID, enums.ShippingMethod(body.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionView(session))
	}
}

func CheckoutSetPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SetPayment(r.Context(), customerID, checkout.PaymentSelection{
			Channel:    enums.PaymentChannel(body.Channel),
			CardNumber: body.CardNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionView(session))
	}
}

// CheckoutConfirm finalizes the wizard: direct channels answer with the
// placed order, the gateway channel answers with a redirect URL and no order
// yet.
func CheckoutConfirm(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutConfirmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), customerID, checkout.ConfirmInput{
			TermsAccepted: body.TermsAccepted,
			Note:          body.Note,
			ClientIP:      clientIP(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := confirmResultView{RedirectURL: result.RedirectURL}
		if result.Order != nil {
			ov := newOrderView(result.Order)
			view.Order = &ov
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func CheckoutAbandon(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Abandon(r.Context(), customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "abandoned"})
	}
}
