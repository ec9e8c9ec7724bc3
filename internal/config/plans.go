package config

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// FeatureLimits are the capabilities a subscription tier unlocks.
type FeatureLimits struct {
	MaxSearchesPerDay     int  `json:"maxSearchesPerDay" toml:"max_searches_per_day"`
	CanViewPrices         bool `json:"canViewPrices" toml:"can_view_prices"`
	CanGetAlerts          bool `json:"canGetAlerts" toml:"can_get_alerts"`
	CanAccessTelemedicine bool `json:"canAccessTelemedicine" toml:"can_access_telemedicine"`
	PrioritySupport       bool `json:"prioritySupport" toml:"priority_support"`
}

// PlanConfig represents a purchasable subscription plan
type PlanConfig struct {
	ID           string          `json:"id" toml:"id"`
	Name         string          `json:"name" toml:"name"`
	Price        decimal.Decimal `json:"price" toml:"-"`
	Currency     string          `json:"currency" toml:"currency"`
	DurationDays int             `json:"duration" toml:"duration_days"`
	Features     []string        `json:"features" toml:"features"`
	Limits       FeatureLimits   `json:"limits" toml:"limits"`
}

// Plans is the read-only plan table. It is built once at startup and handed
// to the components that need it; accessors return copies.
type Plans struct {
	plans map[string]PlanConfig
	free  FeatureLimits
}

// NewPlans builds an immutable table from the given plans.
func NewPlans(free FeatureLimits, plans ...PlanConfig) *Plans {
	table := make(map[string]PlanConfig, len(plans))
	for _, p := range plans {
		table[p.ID] = clonePlan(p)
	}
	return &Plans{plans: table, free: free}
}

// DefaultPlans returns the basic and premium KES plans.
func DefaultPlans(freeSearchesPerDay int) *Plans {
	return NewPlans(
		FeatureLimits{MaxSearchesPerDay: freeSearchesPerDay},
		PlanConfig{
			ID:           "basic",
			Name:         "Basic Plan",
			Price:        decimal.NewFromInt(500),
			Currency:     "KES",
			DurationDays: 30,
			Features: []string{
				"Unlimited medicine search",
				"Price comparison",
				"Basic pharmacy finder",
				"SMS alerts",
				"Email support",
			},
			Limits: FeatureLimits{
				MaxSearchesPerDay: 50,
				CanViewPrices:     true,
				CanGetAlerts:      true,
			},
		},
		PlanConfig{
			ID:           "premium",
			Name:         "Premium Plan",
			Price:        decimal.NewFromInt(1000),
			Currency:     "KES",
			DurationDays: 30,
			Features: []string{
				"All Basic features",
				"Advanced search filters",
				"Priority pharmacy listings",
				"Stock alerts",
				"Telemedicine access",
				"Priority support",
				"Delivery tracking",
			},
			Limits: FeatureLimits{
				MaxSearchesPerDay:     1000,
				CanViewPrices:         true,
				CanGetAlerts:          true,
				CanAccessTelemedicine: true,
				PrioritySupport:       true,
			},
		},
	)
}

type plansFile struct {
	Free  FeatureLimits `toml:"free"`
	Plans []struct {
		PlanConfig
		Price string `toml:"price"`
	} `toml:"plans"`
}

// LoadPlansFile reads a TOML plan table, for deployments that price differently.
func LoadPlansFile(filename string) (*Plans, error) {
	var f plansFile
	if _, err := toml.DecodeFile(filename, &f); err != nil {
		return nil, fmt.Errorf("failed to load plans file: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("plans file %s defines no plans", filename)
	}

	plans := make([]PlanConfig, 0, len(f.Plans))
	for _, raw := range f.Plans {
		price, err := decimal.NewFromString(raw.Price)
		if err != nil {
			return nil, fmt.Errorf("plan %s: invalid price %q: %w", raw.ID, raw.Price, err)
		}
		if raw.ID == "" || raw.DurationDays <= 0 {
			return nil, fmt.Errorf("plan %q: id and positive duration_days are required", raw.ID)
		}
		p := raw.PlanConfig
		p.Price = price
		if p.Currency == "" {
			p.Currency = "KES"
		}
		plans = append(plans, p)
	}
	return NewPlans(f.Free, plans...), nil
}

// Get returns a copy of the plan with the given id.
func (p *Plans) Get(id string) (PlanConfig, bool) {
	plan, ok := p.plans[id]
	if !ok {
		return PlanConfig{}, false
	}
	return clonePlan(plan), true
}

// All returns every plan keyed by id.
func (p *Plans) All() map[string]PlanConfig {
	out := make(map[string]PlanConfig, len(p.plans))
	for id, plan := range p.plans {
		out[id] = clonePlan(plan)
	}
	return out
}

// IDs returns the plan ids in sorted order.
func (p *Plans) IDs() []string {
	ids := make([]string, 0, len(p.plans))
	for id := range p.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Limits returns the feature limits for a plan id, falling back to the free tier.
func (p *Plans) Limits(id string) FeatureLimits {
	if plan, ok := p.plans[id]; ok {
		return plan.Limits
	}
	return p.free
}

func (p *Plans) FreeLimits() FeatureLimits {
	return p.free
}

func clonePlan(p PlanConfig) PlanConfig {
	p.Features = append([]string(nil), p.Features...)
	return p
}
