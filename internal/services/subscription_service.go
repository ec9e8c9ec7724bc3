package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"medassist/internal/availability"
	"medassist/internal/common"
	"medassist/internal/config"
	"medassist/internal/models"
	"medassist/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var kenyanMobile = regexp.MustCompile(`^254[0-9]{9}$`)
var nonDigits = regexp.MustCompile(`\D`)

// SubscribeResult identifies a payment prompt awaiting the payer.
type SubscribeResult struct {
	SubscriptionID    uuid.UUID `json:"subscriptionId"`
	CheckoutRequestID string    `json:"checkoutRequestId"`
	Plan              string    `json:"plan"`
}

// PaymentStatus pairs the gateway's view of a payment with ours.
type PaymentStatus struct {
	MpesaResponse      map[string]interface{} `json:"mpesaResponse"`
	SubscriptionStatus string                 `json:"subscriptionStatus"`
}

// SubscriptionList is a user's subscription history.
type SubscriptionList struct {
	Subscriptions      []*models.Subscription `json:"subscriptions"`
	ActiveSubscription *models.Subscription   `json:"activeSubscription"`
}

// Receipt is a rendered PDF for one subscription payment.
type Receipt struct {
	Filename string
	Content  []byte
}

// SubscriptionService coordinates plan purchases with the payment gateway.
type SubscriptionService interface {
	Plans() map[string]config.PlanConfig
	Subscribe(ctx context.Context, caller models.Caller, req *models.SubscribeRequest) (*SubscribeResult, error)
	HandleCallback(ctx context.Context, settlement *models.PaymentSettlement) error
	QueryStatus(ctx context.Context, caller models.Caller, checkoutRequestID string) (*PaymentStatus, error)
	ListForUser(ctx context.Context, userID uuid.UUID) (*SubscriptionList, error)
	Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	ActivePlanLimits(ctx context.Context, userID uuid.UUID) (config.FeatureLimits, error)
	Receipt(ctx context.Context, caller models.Caller, id uuid.UUID) (*Receipt, error)
	ExpireDue(ctx context.Context) (int64, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	gateway          PaymentGateway
	notifier         Notifier
	plans            *config.Plans
	clock            availability.Clock
}

func NewSubscriptionService(subscriptionRepo repositories.SubscriptionRepository, gateway PaymentGateway, notifier Notifier, plans *config.Plans, clock availability.Clock) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		gateway:          gateway,
		notifier:         notifier,
		plans:            plans,
		clock:            clock,
	}
}

func (s *subscriptionService) Plans() map[string]config.PlanConfig {
	return s.plans.All()
}

// NormalizePhoneNumber converts local and international spellings of a
// Kenyan mobile number to 254XXXXXXXXX.
func NormalizePhoneNumber(raw string) (string, error) {
	phone := nonDigits.ReplaceAllString(raw, "")
	switch {
	case strings.HasPrefix(phone, "0"):
		phone = "254" + phone[1:]
	case !strings.HasPrefix(phone, "254"):
		phone = "254" + phone
	}
	if !kenyanMobile.MatchString(phone) {
		return "", common.NewValidationError("Invalid phone number format. Use 254XXXXXXXXX")
	}
	return phone, nil
}

func (s *subscriptionService) Subscribe(ctx context.Context, caller models.Caller, req *models.SubscribeRequest) (*SubscribeResult, error) {
	plan, ok := s.plans.Get(req.Plan)
	if !ok {
		return nil, common.NewValidationError("Invalid subscription plan")
	}
	if err := req.Validate(); err != nil {
		return nil, common.NewValidationError(err.Error())
	}
	phone, err := NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	sub := &models.Subscription{
		ID:            uuid.New(),
		UserID:        caller.UserID,
		Plan:          plan.ID,
		Amount:        plan.Price,
		Currency:      plan.Currency,
		Status:        models.SubscriptionPending,
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, plan.DurationDays),
		AutoRenew:     false,
		PaymentMethod: "mpesa",
		Mpesa:         models.MpesaDetails{PhoneNumber: phone},
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, common.NewInternalError(err)
	}

	initiation, err := s.gateway.Initiate(ctx, &PaymentRequest{
		PhoneNumber:      phone,
		Amount:           plan.Price,
		AccountReference: fmt.Sprintf("MedAssist-%s-%s", strings.ToUpper(plan.ID), caller.UserID.String()),
		Description:      fmt.Sprintf("MedAssist %s Subscription", plan.Name),
	})
	if err != nil {
		log.Error().Err(err).Str("subscription_id", sub.ID.String()).Msg("Payment initiation failed")
		s.markFailed(ctx, sub.ID)
		return nil, common.NewInternalMessage("Payment initiation failed", err)
	}

	if !initiation.Accepted() {
		s.markFailed(ctx, sub.ID)
		desc := initiation.ResponseDescription
		if desc == "" {
			desc = "Payment request failed"
		}
		return nil, common.NewValidationError(desc)
	}

	if err := s.subscriptionRepo.SetCheckoutRequestID(ctx, sub.ID, initiation.CheckoutRequestID); err != nil {
		return nil, common.NewInternalError(err)
	}

	log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("user_id", caller.UserID.String()).
		Str("plan", plan.ID).
		Str("checkout_request_id", initiation.CheckoutRequestID).
		Msg("Payment request sent")

	return &SubscribeResult{
		SubscriptionID:    sub.ID,
		CheckoutRequestID: initiation.CheckoutRequestID,
		Plan:              plan.ID,
	}, nil
}

func (s *subscriptionService) markFailed(ctx context.Context, id uuid.UUID) {
	if err := s.subscriptionRepo.UpdateStatus(ctx, id, models.SubscriptionFailed); err != nil {
		log.Error().Err(err).Str("subscription_id", id.String()).Msg("Failed to mark subscription failed")
	}
}

// HandleCallback settles a pending subscription from a gateway callback.
// Repeated callbacks for an already settled subscription are ignored.
func (s *subscriptionService) HandleCallback(ctx context.Context, settlement *models.PaymentSettlement) error {
	sub, err := s.subscriptionRepo.GetByCheckoutRequestID(ctx, settlement.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("checkout_request_id", settlement.CheckoutRequestID).Msg("Callback for unknown checkout request")
			return nil
		}
		return err
	}
	if sub.Status != models.SubscriptionPending {
		log.Info().
			Str("subscription_id", sub.ID.String()).
			Str("status", string(sub.Status)).
			Msg("Ignoring callback for settled subscription")
		return nil
	}

	if !settlement.Succeeded() {
		log.Info().
			Str("subscription_id", sub.ID.String()).
			Int("result_code", settlement.ResultCode).
			Str("result_desc", settlement.ResultDesc).
			Msg("Payment failed")
		return s.subscriptionRepo.UpdateStatus(ctx, sub.ID, models.SubscriptionFailed)
	}

	plan, ok := s.plans.Get(sub.Plan)
	if !ok {
		return fmt.Errorf("subscription %s references unknown plan %q", sub.ID, sub.Plan)
	}

	start := s.clock()
	end := start.AddDate(0, 0, plan.DurationDays)
	if err := s.subscriptionRepo.Activate(ctx, sub.ID, settlement, start, end); err != nil {
		return err
	}

	log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("user_id", sub.UserID.String()).
		Str("plan", sub.Plan).
		Str("receipt", settlement.ReceiptNumber).
		Msg("Subscription activated")

	phone := sub.Mpesa.PhoneNumber
	if phone == "" {
		phone = settlement.PhoneNumber
	}
	message := fmt.Sprintf("Your MedAssist %s is active until %s. M-Pesa receipt %s. Thank you!",
		plan.Name, end.Format("02 Jan 2006"), settlement.ReceiptNumber)
	if err := s.notifier.Send(ctx, phone, message); err != nil {
		log.Warn().Err(err).Str("subscription_id", sub.ID.String()).Msg("Failed to queue confirmation SMS")
	}
	return nil
}

func (s *subscriptionService) QueryStatus(ctx context.Context, caller models.Caller, checkoutRequestID string) (*PaymentStatus, error) {
	if strings.TrimSpace(checkoutRequestID) == "" {
		return nil, common.NewValidationError("checkoutRequestId is required")
	}

	response, err := s.gateway.Query(ctx, checkoutRequestID)
	if err != nil {
		log.Error().Err(err).Str("checkout_request_id", checkoutRequestID).Msg("Payment query failed")
		return nil, common.NewInternalMessage("Query failed", err)
	}

	status := "not_found"
	sub, err := s.subscriptionRepo.GetByCheckoutRequestID(ctx, checkoutRequestID)
	switch {
	case err == nil:
		if sub.UserID == caller.UserID || caller.IsAdmin() {
			status = string(sub.Status)
		}
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, common.NewInternalError(err)
	}

	return &PaymentStatus{MpesaResponse: response, SubscriptionStatus: status}, nil
}

func (s *subscriptionService) ListForUser(ctx context.Context, userID uuid.UUID) (*SubscriptionList, error) {
	subs, err := s.subscriptionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, common.NewInternalError(err)
	}

	list := &SubscriptionList{Subscriptions: subs}
	now := s.clock()
	for _, sub := range subs {
		if sub.IsActiveAt(now) {
			list.ActiveSubscription = sub
			break
		}
	}
	return list, nil
}

// Cancel stops the active subscription from renewing. Access continues
// until its end date.
func (s *subscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.ActiveForUser(ctx, userID, s.clock())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundMessage("No active subscription found")
		}
		return nil, common.NewInternalError(err)
	}

	if err := s.subscriptionRepo.Cancel(ctx, sub.ID); err != nil {
		return nil, common.NewInternalError(err)
	}
	sub.Status = models.SubscriptionCancelled
	sub.AutoRenew = false

	log.Info().Str("subscription_id", sub.ID.String()).Str("user_id", userID.String()).Msg("Subscription cancelled")
	return sub, nil
}

func (s *subscriptionService) ActivePlanLimits(ctx context.Context, userID uuid.UUID) (config.FeatureLimits, error) {
	sub, err := s.subscriptionRepo.EntitledForUser(ctx, userID, s.clock())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.plans.FreeLimits(), nil
		}
		return config.FeatureLimits{}, common.NewInternalError(err)
	}
	return s.plans.Limits(sub.Plan), nil
}

func (s *subscriptionService) Receipt(ctx context.Context, caller models.Caller, id uuid.UUID) (*Receipt, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Subscription")
		}
		return nil, common.NewInternalError(err)
	}
	if sub.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, common.NewNotFoundError("Subscription")
	}
	if sub.Mpesa.ReceiptNumber == nil {
		return nil, common.NewNotFoundError("Receipt")
	}

	plan, ok := s.plans.Get(sub.Plan)
	if !ok {
		plan = config.PlanConfig{ID: sub.Plan, Name: sub.Plan}
	}

	content, err := renderReceipt(sub, plan, s.clock().Location())
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return &Receipt{
		Filename: fmt.Sprintf("medassist-receipt-%s.pdf", *sub.Mpesa.ReceiptNumber),
		Content:  content,
	}, nil
}

func (s *subscriptionService) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.subscriptionRepo.ExpireDue(ctx, s.clock())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("Expired subscriptions")
	}
	return n, nil
}
