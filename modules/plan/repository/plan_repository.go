package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"go-booking-api/core/cache"
	"go-booking-api/core/constants"
	"go-booking-api/core/database"
	"go-booking-api/core/logger"
	"go-booking-api/modules/plan/entity"

	"github.com/google/uuid"
)

// PlanRepositoryInterface returns found=false when the host does not exist.
type PlanRepositoryInterface interface {
	GetHostPlan(ctx context.Context, hostID uuid.UUID) (entity.PlanTier, bool, error)
}

type PlanRepository struct {
	DB database.Database
}

func NewPlanRepository(db database.Database) *PlanRepository {
	return &PlanRepository{DB: db}
}

func (r *PlanRepository) GetHostPlan(ctx context.Context, hostID uuid.UUID) (entity.PlanTier, bool, error) {
	var plan sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT plan FROM hosts WHERE id = $1`, hostID).Scan(&plan)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		logger.Error("PlanRepository:GetHostPlan:Error", "error", err, "host_id", hostID)
		return "", false, err
	}
	return entity.ParsePlanTier(plan.String), true, nil
}

type cachedPlan struct {
	Plan  entity.PlanTier `json:"plan"`
	Found bool            `json:"found"`
}

// CachedPlanRepository reads through Redis. Cache failures fall back to the store.
type CachedPlanRepository struct {
	next  PlanRepositoryInterface
	cache cache.Cache
}

func NewCachedPlanRepository(next PlanRepositoryInterface, c cache.Cache) *CachedPlanRepository {
	return &CachedPlanRepository{next: next, cache: c}
}

func (r *CachedPlanRepository) GetHostPlan(ctx context.Context, hostID uuid.UUID) (entity.PlanTier, bool, error) {
	key := constants.CachePrefixHostPlan + hostID.String()

	var hit cachedPlan
	err := r.cache.GetJSON(ctx, key, &hit)
	if err == nil {
		return hit.Plan, hit.Found, nil
	}
	if !stderrors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("CachedPlanRepository:GetHostPlan:CacheGet:Error", "error", err, "host_id", hostID)
	}

	plan, found, err := r.next.GetHostPlan(ctx, hostID)
	if err != nil {
		return "", false, err
	}
	if err := r.cache.SetJSON(ctx, key, cachedPlan{Plan: plan, Found: found}, constants.HostPlanCacheTTL); err != nil {
		logger.Warn("CachedPlanRepository:GetHostPlan:CacheSet:Error", "error", err, "host_id", hostID)
	}
	return plan, found, nil
}
