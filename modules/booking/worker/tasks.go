package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go-booking-api/core/constants"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/core/queue"
	"go-booking-api/modules/booking/service"
	calService "go-booking-api/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TypeDeleteRemoteEvent = "booking:delete_remote_event"

const deleteMaxRetry = 8

type DeleteRemoteEventPayload struct {
	HostID     uuid.UUID `json:"host_id"`
	AccountKey string    `json:"account_key,omitempty"`
	EventID    string    `json:"event_id"`
}

func NewDeleteRemoteEventTask(hostID uuid.UUID, accountKey, eventID string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeleteRemoteEventPayload{HostID: hostID, AccountKey: accountKey, EventID: eventID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeleteRemoteEvent, payload,
		asynq.MaxRetry(deleteMaxRetry),
		asynq.Queue(queue.QueueDefault),
		asynq.Timeout(constants.ProviderCallTimeout),
		asynq.Unique(time.Hour),
	), nil
}

// Scheduler enqueues remote deletions that failed inline.
type Scheduler struct {
	queue queue.Enqueuer
}

func NewScheduler(q queue.Enqueuer) *Scheduler {
	return &Scheduler{queue: q}
}

func (s *Scheduler) ScheduleRemoteDelete(ctx context.Context, hostID uuid.UUID, accountKey, eventID string) error {
	task, err := NewDeleteRemoteEventTask(hostID, accountKey, eventID)
	if err != nil {
		return err
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		if stderrors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return err
	}
	return nil
}

type Handler struct {
	accounts service.AccountSource
	clients  calService.ClientProvider
}

func NewHandler(accounts service.AccountSource, clients calService.ClientProvider) *Handler {
	return &Handler{accounts: accounts, clients: clients}
}

// HandleDeleteRemoteEvent deletes the event through the account that created
// it. An event or account that is already gone counts as done. Credential failures are not
// retried since they need the host to reconnect.
func (h *Handler) HandleDeleteRemoteEvent(ctx context.Context, t *asynq.Task) error {
	var p DeleteRemoteEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	acc, appErr := service.LinkedAccount(ctx, h.accounts, p.HostID, p.AccountKey)
	if appErr != nil {
		return appErr
	}
	if acc == nil {
		logger.Warn("Worker:DeleteRemoteEvent:NoAccount", "host_id", p.HostID, "key", p.AccountKey, "event_id", p.EventID)
		return nil
	}

	client, err := h.clients.Client(ctx, acc)
	if err != nil {
		if errors.HasCode(err, errors.ErrCredentialExpired) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if err := client.DeleteEvent(ctx, p.EventID); err != nil && !stderrors.Is(err, calService.ErrEventGone) {
		return err
	}
	logger.Info("Worker:DeleteRemoteEvent:Done", "host_id", p.HostID, "event_id", p.EventID)
	return nil
}

func Register(srv *queue.Server, h *Handler) {
	srv.HandleFunc(TypeDeleteRemoteEvent, h.HandleDeleteRemoteEvent)
}
