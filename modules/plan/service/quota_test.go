package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "go-booking-api/core/errors"
	"go-booking-api/modules/plan/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlans struct {
	plans map[uuid.UUID]entity.PlanTier
	err   error
}

func (f *fakePlans) GetHostPlan(_ context.Context, hostID uuid.UUID) (entity.PlanTier, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	p, ok := f.plans[hostID]
	return p, ok, nil
}

type fakeCounter struct {
	starts  []time.Time
	err     error
	gotFrom time.Time
	gotTo   time.Time
}

func (f *fakeCounter) CountConfirmedInRange(_ context.Context, _ uuid.UUID, from, to time.Time) (int, error) {
	f.gotFrom, f.gotTo = from, to
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, s := range f.starts {
		if !s.Before(from) && s.Before(to) {
			n++
		}
	}
	return n, nil
}

var march = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTracker(plans *fakePlans, counter *fakeCounter) *QuotaTracker {
	q := NewQuotaTracker(plans, counter, time.UTC)
	q.now = func() time.Time { return march }
	return q
}

func TestGetQuotaStatus(t *testing.T) {
	host := uuid.New()
	thisMonth := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2025, 2, 27, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		plan          entity.PlanTier
		starts        []time.Time
		wantUsed      int
		wantRemaining int
		wantExceeded  bool
		wantUnlimited bool
	}{
		{"free with two bookings is exceeded", entity.PlanFree, []time.Time{thisMonth, thisMonth}, 2, 0, true, false},
		{"free with one booking has one left", entity.PlanFree, []time.Time{thisMonth}, 1, 1, false, false},
		{"previous month not counted", entity.PlanFree, []time.Time{lastMonth, lastMonth, thisMonth}, 1, 1, false, false},
		{"starter", entity.PlanStarter, []time.Time{thisMonth, thisMonth, thisMonth}, 3, 7, false, false},
		{"pro is unlimited", entity.PlanPro, []time.Time{thisMonth, thisMonth, thisMonth}, 3, entity.Unlimited, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTracker(&fakePlans{plans: map[uuid.UUID]entity.PlanTier{host: tt.plan}}, &fakeCounter{starts: tt.starts})

			quota, appErr := q.GetQuotaStatus(context.Background(), host)

			require.Nil(t, appErr)
			assert.Equal(t, tt.plan, quota.Plan)
			assert.Equal(t, tt.wantUsed, quota.Used)
			assert.Equal(t, tt.wantRemaining, quota.Remaining)
			assert.Equal(t, tt.wantExceeded, quota.IsExceeded)
			assert.Equal(t, tt.wantUnlimited, quota.Unlimited)
		})
	}
}

func TestGetQuotaStatus_UnknownHostIsRestrictive(t *testing.T) {
	q := newTracker(&fakePlans{plans: map[uuid.UUID]entity.PlanTier{}}, &fakeCounter{})

	quota, appErr := q.GetQuotaStatus(context.Background(), uuid.New())

	require.Nil(t, appErr)
	assert.True(t, quota.IsExceeded)
	assert.Zero(t, quota.Limit)
	assert.Zero(t, quota.Used)
	assert.Zero(t, quota.Remaining)
	assert.False(t, quota.Unlimited)
}

func TestGetQuotaStatus_PlanLookupErrorFallsBackToFree(t *testing.T) {
	q := newTracker(&fakePlans{err: errors.New("auth provider down")}, &fakeCounter{})

	quota, appErr := q.GetQuotaStatus(context.Background(), uuid.New())

	require.Nil(t, appErr)
	assert.Equal(t, entity.PlanFree, quota.Plan)
	assert.Equal(t, 2, quota.Limit)
}

func TestGetQuotaStatus_CountErrorPropagates(t *testing.T) {
	host := uuid.New()
	q := newTracker(&fakePlans{plans: map[uuid.UUID]entity.PlanTier{host: entity.PlanFree}}, &fakeCounter{err: errors.New("db down")})

	_, appErr := q.GetQuotaStatus(context.Background(), host)

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrInternalServer, appErr.Code)
}

func TestGetQuotaStatus_MonthAnchoredToServerZone(t *testing.T) {
	host := uuid.New()
	counter := &fakeCounter{}
	q := NewQuotaTracker(&fakePlans{plans: map[uuid.UUID]entity.PlanTier{host: entity.PlanFree}}, counter, time.FixedZone("UTC+10", 10*3600))
	// 2025-03-31 20:00 UTC is already April in UTC+10
	q.now = func() time.Time { return time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC) }

	_, appErr := q.GetQuotaStatus(context.Background(), host)

	require.Nil(t, appErr)
	assert.Equal(t, time.Date(2025, 3, 31, 14, 0, 0, 0, time.UTC), counter.gotFrom.UTC())
	assert.Equal(t, time.Date(2025, 4, 30, 14, 0, 0, 0, time.UTC), counter.gotTo.UTC())
}

func TestCanConnectCalendar(t *testing.T) {
	free, pro := uuid.New(), uuid.New()
	q := newTracker(&fakePlans{plans: map[uuid.UUID]entity.PlanTier{free: entity.PlanFree, pro: entity.PlanPro}}, &fakeCounter{})

	ok, appErr := q.CanConnectCalendar(context.Background(), free, 0)
	require.Nil(t, appErr)
	assert.True(t, ok)

	ok, _ = q.CanConnectCalendar(context.Background(), free, 1)
	assert.False(t, ok)

	ok, _ = q.CanConnectCalendar(context.Background(), pro, 50)
	assert.True(t, ok)

	_, appErr = q.CanConnectCalendar(context.Background(), uuid.New(), 0)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
