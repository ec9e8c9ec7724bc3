package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"medassist/internal/models"
	"medassist/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// PaymentHandlers handles subscription purchase and the M-Pesa callback
type PaymentHandlers struct {
	subscriptionService services.SubscriptionService
	callbackToken       string
	location            *time.Location
}

// NewPaymentHandlers creates a new payment handlers instance. When
// callbackToken is set, callbacks must carry it as the "token" query parameter.
func NewPaymentHandlers(subscriptionService services.SubscriptionService, callbackToken string, location *time.Location) *PaymentHandlers {
	if location == nil {
		location = time.UTC
	}
	return &PaymentHandlers{
		subscriptionService: subscriptionService,
		callbackToken:       callbackToken,
		location:            location,
	}
}

// Plans handles GET /payments/plans
func (h *PaymentHandlers) Plans(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.subscriptionService.Plans(),
	})
}

// Subscribe handles POST /payments/subscribe
func (h *PaymentHandlers) Subscribe(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req models.SubscribeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.subscriptionService.Subscribe(c.Request().Context(), caller, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Payment request sent to your phone",
		"data":    result,
	})
}

// QueryPayment handles POST /payments/query
func (h *PaymentHandlers) QueryPayment(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req models.PaymentQueryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	status, err := h.subscriptionService.QueryStatus(c.Request().Context(), caller, req.CheckoutRequestID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    status,
	})
}

// Subscriptions handles GET /payments/subscriptions
func (h *PaymentHandlers) Subscriptions(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	list, err := h.subscriptionService.ListForUser(c.Request().Context(), caller.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    list,
	})
}

// Cancel handles POST /payments/cancel. Access continues until the paid
// period ends.
func (h *PaymentHandlers) Cancel(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	sub, err := h.subscriptionService.Cancel(c.Request().Context(), caller.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    "Subscription cancelled successfully. Access will continue until expiry date.",
		"expiryDate": sub.EndDate,
	})
}

// Receipt handles GET /payments/subscriptions/:id/receipt
func (h *PaymentHandlers) Receipt(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", "subscription")
	if err != nil {
		return err
	}

	receipt, err := h.subscriptionService.Receipt(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", receipt.Filename))
	return c.Blob(http.StatusOK, "application/pdf", receipt.Content)
}

// Callback handles POST /payments/callback from M-Pesa. The gateway retries
// on anything but an acknowledgement, so every outcome is acknowledged and
// failures are only logged.
func (h *PaymentHandlers) Callback(c echo.Context) error {
	ack := map[string]interface{}{"ResultCode": 0, "ResultDesc": "Success"}

	if h.callbackToken != "" {
		token := c.QueryParam("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
			log.Warn().Str("remote_ip", c.RealIP()).Msg("Rejected payment callback with invalid token")
			return c.JSON(http.StatusOK, ack)
		}
	}

	var callback services.STKCallback
	if err := c.Bind(&callback); err != nil {
		log.Error().Err(err).Msg("Failed to decode payment callback")
		return c.JSON(http.StatusOK, ack)
	}

	settlement := callback.Settlement(h.location)
	if err := h.subscriptionService.HandleCallback(c.Request().Context(), settlement); err != nil {
		log.Error().Err(err).Str("checkout_request_id", settlement.CheckoutRequestID).Msg("Failed to process payment callback")
	}

	return c.JSON(http.StatusOK, ack)
}
