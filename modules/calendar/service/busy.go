package service

import (
	"context"
	"sort"
	"time"

	"go-booking-api/core/constants"
	"go-booking-api/core/logger"
	"go-booking-api/modules/calendar/entity"

	"github.com/sourcegraph/conc/pool"
)

// ClientProvider yields an authenticated calendar client for an account.
type ClientProvider interface {
	Client(ctx context.Context, acc *entity.ConnectedAccount) (RemoteCalendar, error)
}

// BusyTimeProvider collects busy intervals from every connected calendar.
type BusyTimeProvider struct {
	clients    ClientProvider
	timeout    time.Duration
	maxWorkers int
}

func NewBusyTimeProvider(clients ClientProvider) *BusyTimeProvider {
	return &BusyTimeProvider{
		clients:    clients,
		timeout:    constants.ProviderCallTimeout,
		maxWorkers: 8,
	}
}

// FetchBusy queries all accounts concurrently. An account that fails or times
// out contributes nothing; the call itself never fails.
func (p *BusyTimeProvider) FetchBusy(ctx context.Context, accounts []entity.ConnectedAccount, from, to time.Time) []entity.BusyInterval {
	if len(accounts) == 0 || !from.Before(to) {
		return []entity.BusyInterval{}
	}

	workers := pool.NewWithResults[[]entity.BusyInterval]().WithMaxGoroutines(p.maxWorkers)
	for i := range accounts {
		acc := accounts[i]
		if !acc.HasCredentials() {
			continue
		}
		workers.Go(func() []entity.BusyInterval {
			return p.fetchOne(ctx, &acc, from, to)
		})
	}

	out := []entity.BusyInterval{}
	for _, part := range workers.Wait() {
		out = append(out, part...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func (p *BusyTimeProvider) fetchOne(ctx context.Context, acc *entity.ConnectedAccount, from, to time.Time) []entity.BusyInterval {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := p.clients.Client(callCtx, acc)
	if err != nil {
		logger.Warn("BusyTimeProvider:FetchBusy:Client:Error", "error", err, "account", acc.Email)
		return nil
	}
	events, err := client.ListEvents(callCtx, from, to)
	if err != nil {
		logger.Warn("BusyTimeProvider:FetchBusy:List:Error", "error", err, "account", acc.Email)
		return nil
	}
	for i := range events {
		events[i].SourceAccountEmail = acc.Email
	}
	return events
}
