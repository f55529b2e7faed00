package entity

type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanStarter PlanTier = "starter"
	PlanPro     PlanTier = "pro"
)

// Unlimited marks a limit without a cap.
const Unlimited = -1

type PlanLimits struct {
	MaxConnectedCalendars int `json:"max_connected_calendars"`
	MaxBookingsPerMonth   int `json:"max_bookings_per_month"`
}

var PLAN_LIMITS = map[PlanTier]PlanLimits{
	PlanFree:    {MaxConnectedCalendars: 1, MaxBookingsPerMonth: 2},
	PlanStarter: {MaxConnectedCalendars: 3, MaxBookingsPerMonth: 10},
	PlanPro:     {MaxConnectedCalendars: Unlimited, MaxBookingsPerMonth: Unlimited},
}

// ParsePlanTier maps stored plan names to a tier; unknown names are free.
func ParsePlanTier(s string) PlanTier {
	switch PlanTier(s) {
	case PlanStarter, PlanPro:
		return PlanTier(s)
	default:
		return PlanFree
	}
}

func LimitsFor(tier PlanTier) PlanLimits {
	if l, ok := PLAN_LIMITS[tier]; ok {
		return l
	}
	return PLAN_LIMITS[PlanFree]
}

// PlanQuota is the monthly booking usage of a host.
type PlanQuota struct {
	Plan       PlanTier `json:"plan"`
	Used       int      `json:"used"`
	Limit      int      `json:"limit"`
	Remaining  int      `json:"remaining"`
	Unlimited  bool     `json:"unlimited"`
	IsExceeded bool     `json:"is_exceeded"`
}

// RestrictiveQuota is served for hosts that cannot be resolved.
func RestrictiveQuota() *PlanQuota {
	return &PlanQuota{IsExceeded: true}
}

func NewPlanQuota(tier PlanTier, used int) *PlanQuota {
	limit := LimitsFor(tier).MaxBookingsPerMonth
	if limit == Unlimited {
		return &PlanQuota{Plan: tier, Used: used, Limit: Unlimited, Remaining: Unlimited, Unlimited: true}
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &PlanQuota{
		Plan:       tier,
		Used:       used,
		Limit:      limit,
		Remaining:  remaining,
		IsExceeded: used >= limit,
	}
}
