package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medassist/internal/common"
	"medassist/internal/config"
	"medassist/internal/models"
	"medassist/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSubscriptionService mocks the SubscriptionService interface for testing
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) Plans() map[string]config.PlanConfig {
	args := m.Called()
	return args.Get(0).(map[string]config.PlanConfig)
}

func (m *MockSubscriptionService) Subscribe(ctx context.Context, caller models.Caller, req *models.SubscribeRequest) (*services.SubscribeResult, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubscribeResult), args.Error(1)
}

func (m *MockSubscriptionService) HandleCallback(ctx context.Context, settlement *models.PaymentSettlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSubscriptionService) QueryStatus(ctx context.Context, caller models.Caller, checkoutRequestID string) (*services.PaymentStatus, error) {
	args := m.Called(ctx, caller, checkoutRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PaymentStatus), args.Error(1)
}

func (m *MockSubscriptionService) ListForUser(ctx context.Context, userID uuid.UUID) (*services.SubscriptionList, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubscriptionList), args.Error(1)
}

func (m *MockSubscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) ActivePlanLimits(ctx context.Context, userID uuid.UUID) (config.FeatureLimits, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(config.FeatureLimits), args.Error(1)
}

func (m *MockSubscriptionService) Receipt(ctx context.Context, caller models.Caller, id uuid.UUID) (*services.Receipt, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Receipt), args.Error(1)
}

func (m *MockSubscriptionService) ExpireDue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

const callbackBody = `{"Body":{"stkCallback":{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResultCode":0,"ResultDesc":"ok",
"CallbackMetadata":{"Item":[{"Name":"Amount","Value":500},{"Name":"MpesaReceiptNumber","Value":"QKJ7ABC123"},{"Name":"PhoneNumber","Value":254712345678}]}}}}`

// newTestServer mounts the payment routes the way the API does, with the
// caller (when non-nil) injected ahead of every handler.
func newTestServer(h *PaymentHandlers, caller *models.Caller) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler
	if caller != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.SetRequest(c.Request().WithContext(common.WithCaller(c.Request().Context(), *caller)))
				return next(c)
			}
		})
	}
	g := e.Group("/payments")
	g.GET("/plans", h.Plans)
	g.POST("/callback", h.Callback)
	g.POST("/subscribe", h.Subscribe)
	g.POST("/query", h.QueryPayment)
	g.POST("/cancel", h.Cancel)
	g.GET("/subscriptions/:id/receipt", h.Receipt)
	return e
}

func doJSON(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestCallback_SettlesAndAcknowledges(t *testing.T) {
	svc := &MockSubscriptionService{}
	svc.On("HandleCallback", mock.Anything, mock.MatchedBy(func(s *models.PaymentSettlement) bool {
		return s.CheckoutRequestID == "ws_CO_1" && s.ReceiptNumber == "QKJ7ABC123" && s.PhoneNumber == "254712345678"
	})).Return(nil).Once()
	e := newTestServer(NewPaymentHandlers(svc, "", time.UTC), nil)

	rec, body := doJSON(e, http.MethodPost, "/payments/callback", callbackBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["ResultCode"])
	assert.Equal(t, "Success", body["ResultDesc"])
	svc.AssertExpectations(t)
}

func TestCallback_AcknowledgesFailures(t *testing.T) {
	svc := &MockSubscriptionService{}
	svc.On("HandleCallback", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	e := newTestServer(NewPaymentHandlers(svc, "", time.UTC), nil)

	rec, body := doJSON(e, http.MethodPost, "/payments/callback", callbackBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Success", body["ResultDesc"])

	rec, body = doJSON(e, http.MethodPost, "/payments/callback", "{broken")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Success", body["ResultDesc"])
	svc.AssertExpectations(t)
}

func TestCallback_TokenRequired(t *testing.T) {
	svc := &MockSubscriptionService{}
	svc.On("HandleCallback", mock.Anything, mock.Anything).Return(nil).Once()
	e := newTestServer(NewPaymentHandlers(svc, "s3cret", time.UTC), nil)

	rec, _ := doJSON(e, http.MethodPost, "/payments/callback?token=wrong", callbackBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertNotCalled(t, "HandleCallback", mock.Anything, mock.Anything)

	rec, _ = doJSON(e, http.MethodPost, "/payments/callback?token=s3cret", callbackBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestSubscribe_RequiresCaller(t *testing.T) {
	e := newTestServer(NewPaymentHandlers(&MockSubscriptionService{}, "", time.UTC), nil)

	rec, body := doJSON(e, http.MethodPost, "/payments/subscribe", `{"plan":"basic","phoneNumber":"0712345678"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Not authorized to access this route", body["message"])
}

func TestSubscribe_Success(t *testing.T) {
	caller := models.Caller{UserID: uuid.New(), Role: models.RoleUser}
	svc := &MockSubscriptionService{}
	svc.On("Subscribe", mock.Anything, caller, &models.SubscribeRequest{Plan: "basic", PhoneNumber: "0712345678"}).
		Return(&services.SubscribeResult{SubscriptionID: uuid.New(), CheckoutRequestID: "ws_CO_1", Plan: "basic"}, nil).Once()
	e := newTestServer(NewPaymentHandlers(svc, "", time.UTC), &caller)

	rec, body := doJSON(e, http.MethodPost, "/payments/subscribe", `{"plan":"basic","phoneNumber":"0712345678"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Payment request sent to your phone", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ws_CO_1", data["checkoutRequestId"])
	svc.AssertExpectations(t)
}

func TestSubscribe_ServiceValidationError(t *testing.T) {
	caller := models.Caller{UserID: uuid.New(), Role: models.RoleUser}
	svc := &MockSubscriptionService{}
	svc.On("Subscribe", mock.Anything, caller, mock.Anything).
		Return(nil, common.NewValidationError("Invalid subscription plan")).Once()
	e := newTestServer(NewPaymentHandlers(svc, "", time.UTC), &caller)

	rec, body := doJSON(e, http.MethodPost, "/payments/subscribe", `{"plan":"gold","phoneNumber":"0712345678"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid subscription plan", body["message"])
}

func TestQueryPayment_ValidatesBody(t *testing.T) {
	caller := models.Caller{UserID: uuid.New(), Role: models.RoleUser}
	e := newTestServer(NewPaymentHandlers(&MockSubscriptionService{}, "", time.UTC), &caller)

	rec, body := doJSON(e, http.MethodPost, "/payments/query", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestCancel_ReturnsExpiryDate(t *testing.T) {
	caller := models.Caller{UserID: uuid.New(), Role: models.RoleUser}
	end := time.Date(2024, time.February, 14, 10, 0, 0, 0, time.UTC)
	svc := &MockSubscriptionService{}
	svc.On("Cancel", mock.Anything, caller.UserID).Return(&models.Subscription{EndDate: end, Status: models.SubscriptionCancelled}, nil).Once()
	e := newTestServer(NewPaymentHandlers(svc, "", time.UTC), &caller)

	rec, body := doJSON(e, http.MethodPost, "/payments/cancel", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Subscription cancelled successfully. Access will continue until expiry date.", body["message"])
	assert.Equal(t, "2024-02-14T10:00:00Z", body["expiryDate"])
}

func TestReceipt_ServesPDF(t *testing.T) {
	caller := models.Caller{UserID: uuid.New(), Role: models.RoleUser}
	id := uuid.New()
	svc := &MockSubscriptionService{}
	svc.On("Receipt", mock.Anything, caller, id).
		Return(&services.Receipt{Filename: "medassist-receipt-R1.pdf", Content: []byte("%PDF-1.3")}, nil).Once()
	e := newTestServer(NewPaymentHandlers(svc, "", time.UTC), &caller)

	req := httptest.NewRequest(http.MethodGet, "/payments/subscriptions/"+id.String()+"/receipt", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="medassist-receipt-R1.pdf"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

func TestReceipt_InvalidID(t *testing.T) {
	caller := models.Caller{UserID: uuid.New(), Role: models.RoleUser}
	e := newTestServer(NewPaymentHandlers(&MockSubscriptionService{}, "", time.UTC), &caller)

	rec, body := doJSON(e, http.MethodGet, "/payments/subscriptions/abc/receipt", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid subscription id", body["message"])
}
