package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"medassist/internal/services"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Task type definitions
const (
	TypeSMSSend = "sms:send"
)

// NotificationQueue is the asynq queue SMS tasks are placed on.
const NotificationQueue = "default"

const smsMaxRetry = 5

// SMSPayload defines the payload for SMS delivery tasks
type SMSPayload struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

// NewSMSTask creates a new SMS delivery task
func NewSMSTask(phoneNumber, message string) (*asynq.Task, error) {
	data, err := json.Marshal(SMSPayload{PhoneNumber: phoneNumber, Message: message})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSMSSend, data, asynq.MaxRetry(smsMaxRetry), asynq.Queue(NotificationQueue)), nil
}

// TaskEnqueuer is the subset of *asynq.Client used to schedule tasks.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier delivers messages through the task queue so a slow or
// failing SMS provider never blocks the caller.
type QueueNotifier struct {
	client TaskEnqueuer
}

var _ services.Notifier = (*QueueNotifier)(nil)

func NewQueueNotifier(client TaskEnqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

// Send enqueues an SMS task.
func (q *QueueNotifier) Send(ctx context.Context, phoneNumber, message string) error {
	if strings.TrimSpace(phoneNumber) == "" {
		return fmt.Errorf("phone number is required")
	}
	task, err := NewSMSTask(phoneNumber, message)
	if err != nil {
		return fmt.Errorf("failed to build sms task: %w", err)
	}
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue sms task: %w", err)
	}
	log.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("SMS task enqueued")
	return nil
}

// SMSHandler delivers queued SMS tasks through the provider notifier.
type SMSHandler struct {
	notifier services.Notifier
}

func NewSMSHandler(notifier services.Notifier) *SMSHandler {
	return &SMSHandler{notifier: notifier}
}

// ProcessTask implements asynq.Handler.
func (h *SMSHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload SMSPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// A malformed payload will never succeed.
		return fmt.Errorf("failed to unmarshal sms payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.notifier.Send(ctx, payload.PhoneNumber, payload.Message); err != nil {
		log.Error().Err(err).Str("phone", payload.PhoneNumber).Msg("SMS delivery failed")
		return err
	}

	log.Info().Str("phone", payload.PhoneNumber).Msg("SMS delivered")
	return nil
}

// NewServeMux registers every task handler on a fresh mux.
func NewServeMux(sms *SMSHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeSMSSend, sms)
	return mux
}
