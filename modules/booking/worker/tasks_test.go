package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "go-booking-api/core/errors"
	calEntity "go-booking-api/modules/calendar/entity"
	calService "go-booking-api/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type oneAccount struct {
	acc *calEntity.ConnectedAccount
}

func (o oneAccount) DefaultAccount(context.Context, uuid.UUID) (*calEntity.ConnectedAccount, *apperrors.AppError) {
	return o.acc, nil
}

func (o oneAccount) AccountByKey(_ context.Context, _ uuid.UUID, key string) (*calEntity.ConnectedAccount, *apperrors.AppError) {
	if o.acc == nil || o.acc.Key != key {
		return nil, nil
	}
	return o.acc, nil
}

type deleter struct {
	err     error
	deleted []string
}

func (d *deleter) ListEvents(context.Context, time.Time, time.Time) ([]calEntity.BusyInterval, error) {
	return nil, nil
}
func (d *deleter) InsertEvent(context.Context, calEntity.NewEvent) (*calEntity.RemoteEvent, error) {
	return nil, nil
}
func (d *deleter) GetEvent(context.Context, string) (*calEntity.RemoteEvent, error) { return nil, nil }
func (d *deleter) DeleteEvent(_ context.Context, id string) error {
	d.deleted = append(d.deleted, id)
	return d.err
}

type clientsFunc func() (calService.RemoteCalendar, error)

func (f clientsFunc) Client(context.Context, *calEntity.ConnectedAccount) (calService.RemoteCalendar, error) {
	return f()
}

type recordingQueue struct {
	tasks []*asynq.Task
}

func (q *recordingQueue) Enqueue(_ context.Context, task *asynq.Task, _ ...asynq.Option) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func task(t *testing.T, accountKey, eventID string) *asynq.Task {
	t.Helper()
	tk, err := NewDeleteRemoteEventTask(uuid.New(), accountKey, eventID)
	require.NoError(t, err)
	return tk
}

func TestScheduler_EnqueuesTask(t *testing.T) {
	q := &recordingQueue{}

	require.NoError(t, NewScheduler(q).ScheduleRemoteDelete(context.Background(), uuid.New(), "acc_1", "evt-1"))

	require.Len(t, q.tasks, 1)
	assert.Equal(t, TypeDeleteRemoteEvent, q.tasks[0].Type())
	assert.Contains(t, string(q.tasks[0].Payload()), `"event_id":"evt-1"`)
	assert.Contains(t, string(q.tasks[0].Payload()), `"account_key":"acc_1"`)
}

func TestHandleDeleteRemoteEvent(t *testing.T) {
	acc := &calEntity.ConnectedAccount{Key: "acc_1", AccessToken: "t", IsDefault: true}

	tests := []struct {
		name      string
		acc       *calEntity.ConnectedAccount
		clientErr error
		deleteErr error
		wantErr   bool
		wantSkip  bool
	}{
		{name: "deleted", acc: acc},
		{name: "already gone", acc: acc, deleteErr: calService.ErrEventGone},
		{name: "no account left", acc: nil},
		{name: "transient is retried", acc: acc, deleteErr: errors.New("503"), wantErr: true},
		{name: "expired credential is not retried", acc: acc, clientErr: apperrors.NewAppError(apperrors.ErrCredentialExpired, "reconnect", nil), wantErr: true, wantSkip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &deleter{err: tt.deleteErr}
			h := NewHandler(oneAccount{acc: tt.acc}, clientsFunc(func() (calService.RemoteCalendar, error) {
				if tt.clientErr != nil {
					return nil, tt.clientErr
				}
				return d, nil
			}))

			err := h.HandleDeleteRemoteEvent(context.Background(), task(t, "acc_1", "evt-9"))

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantSkip, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestHandleDeleteRemoteEvent_BadPayload(t *testing.T) {
	h := NewHandler(oneAccount{}, clientsFunc(func() (calService.RemoteCalendar, error) { return nil, nil }))

	err := h.HandleDeleteRemoteEvent(context.Background(), asynq.NewTask(TypeDeleteRemoteEvent, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleDeleteRemoteEvent_UsesCreatingAccount(t *testing.T) {
	current := &calEntity.ConnectedAccount{Key: "acc_new", AccessToken: "t", IsDefault: true}
	d := &deleter{}
	h := NewHandler(oneAccount{acc: current}, clientsFunc(func() (calService.RemoteCalendar, error) {
		return d, nil
	}))

	err := h.HandleDeleteRemoteEvent(context.Background(), task(t, "acc_old", "evt-9"))

	require.NoError(t, err)
	assert.Empty(t, d.deleted, "event must not be deleted through a different account")
}

func TestHandleDeleteRemoteEvent_LegacyPayloadUsesDefault(t *testing.T) {
	d := &deleter{}
	h := NewHandler(oneAccount{acc: &calEntity.ConnectedAccount{Key: "acc_1", AccessToken: "t", IsDefault: true}},
		clientsFunc(func() (calService.RemoteCalendar, error) { return d, nil }))

	err := h.HandleDeleteRemoteEvent(context.Background(), task(t, "", "evt-9"))

	require.NoError(t, err)
	assert.Equal(t, []string{"evt-9"}, d.deleted)
}
