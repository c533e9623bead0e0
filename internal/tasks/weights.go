package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Weights holds every tunable of the recommendation scorer. A Weights value
// is copied into the engine on construction and never mutated afterwards.
type Weights struct {
	// Priority terms
	PriorityMultiplier    float64 `json:"priority_multiplier" yaml:"priority_multiplier" mapstructure:"priority_multiplier"`
	ProjectPriorityFactor float64 `json:"project_priority_factor" yaml:"project_priority_factor" mapstructure:"project_priority_factor"`

	// Due date terms
	OverdueBase     float64 `json:"overdue_base" yaml:"overdue_base" mapstructure:"overdue_base"`
	UpcomingDays    int     `json:"upcoming_days" yaml:"upcoming_days" mapstructure:"upcoming_days"`
	UpcomingBase    float64 `json:"upcoming_base" yaml:"upcoming_base" mapstructure:"upcoming_base"`
	UpcomingPenalty float64 `json:"upcoming_penalty" yaml:"upcoming_penalty" mapstructure:"upcoming_penalty"`
	FutureBase      float64 `json:"future_base" yaml:"future_base" mapstructure:"future_base"`
	FutureDecay     float64 `json:"future_decay" yaml:"future_decay" mapstructure:"future_decay"`

	// Planning terms
	PlanningWindowDays int     `json:"planning_window_days" yaml:"planning_window_days" mapstructure:"planning_window_days"`
	NoFuturePlansBonus float64 `json:"no_future_plans_bonus" yaml:"no_future_plans_bonus" mapstructure:"no_future_plans_bonus"`

	// State terms
	InProgressPlanning float64 `json:"in_progress_planning" yaml:"in_progress_planning" mapstructure:"in_progress_planning"`
	PendingPlanning    float64 `json:"pending_planning" yaml:"pending_planning" mapstructure:"pending_planning"`
	InProgressBasic    float64 `json:"in_progress_basic" yaml:"in_progress_basic" mapstructure:"in_progress_basic"`
	PendingBasic       float64 `json:"pending_basic" yaml:"pending_basic" mapstructure:"pending_basic"`

	// Age terms
	AgeMultiplier float64 `json:"age_multiplier" yaml:"age_multiplier" mapstructure:"age_multiplier"`
	AgeLimit      float64 `json:"age_limit" yaml:"age_limit" mapstructure:"age_limit"`
}

// DefaultWeights returns the canonical weight set
func DefaultWeights() Weights {
	return Weights{
		PriorityMultiplier:    2,
		ProjectPriorityFactor: 2,

		OverdueBase:     30,
		UpcomingDays:    7,
		UpcomingBase:    20,
		UpcomingPenalty: 2,
		FutureBase:      5,
		FutureDecay:     10,

		PlanningWindowDays: 4,
		NoFuturePlansBonus: 15,

		InProgressPlanning: 10,
		PendingPlanning:    2,
		InProgressBasic:    5,
		PendingBasic:       2,

		AgeMultiplier: 0.05,
		AgeLimit:      10,
	}
}

// Validate checks that every weight keeps scores finite and non-negative
func (w Weights) Validate() error {
	nonNegative := map[string]float64{
		"priority_multiplier":     w.PriorityMultiplier,
		"project_priority_factor": w.ProjectPriorityFactor,
		"overdue_base":            w.OverdueBase,
		"upcoming_base":           w.UpcomingBase,
		"upcoming_penalty":        w.UpcomingPenalty,
		"future_base":             w.FutureBase,
		"no_future_plans_bonus":   w.NoFuturePlansBonus,
		"in_progress_planning":    w.InProgressPlanning,
		"pending_planning":        w.PendingPlanning,
		"in_progress_basic":       w.InProgressBasic,
		"pending_basic":           w.PendingBasic,
		"age_multiplier":          w.AgeMultiplier,
		"age_limit":               w.AgeLimit,
	}
	for name, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidWeights, name, v)
		}
	}

	if w.FutureDecay <= 0 {
		return fmt.Errorf("%w: future_decay must be positive, got %v", ErrInvalidWeights, w.FutureDecay)
	}
	if w.UpcomingDays < 0 {
		return fmt.Errorf("%w: upcoming_days must not be negative, got %d", ErrInvalidWeights, w.UpcomingDays)
	}
	if w.PlanningWindowDays < 0 {
		return fmt.Errorf("%w: planning_window_days must not be negative, got %d", ErrInvalidWeights, w.PlanningWindowDays)
	}
	// The near-term band must stay non-negative at its far edge.
	if w.UpcomingBase < float64(w.UpcomingDays)*w.UpcomingPenalty {
		return fmt.Errorf("%w: upcoming_base %v is below upcoming_days*upcoming_penalty", ErrInvalidWeights, w.UpcomingBase)
	}

	return nil
}

// Fingerprint returns a short stable hash of the weight set, used to key
// cached rankings.
func (w Weights) Fingerprint() string {
	data, err := json.Marshal(w)
	if err != nil {
		return "unknown"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
