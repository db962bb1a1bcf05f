package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FullSyncRequest describes one operator-triggered reconciliation run
type FullSyncRequest struct {
	DeviceID               uuid.UUID       `json:"-"`
	DefaultBillingDay      int             `json:"default_billing_day" binding:"required,min=1,max=28"`
	DefaultPlanPrice       decimal.Decimal `json:"default_plan_price"`
	CreateMissingPlans     bool            `json:"create_missing_plans"`
	CreateMissingCustomers bool            `json:"create_missing_customers"`
	CreateContracts        bool            `json:"create_contracts"`
	AutoActivateContracts  bool            `json:"auto_activate_contracts"`
}

// PhaseResult aggregates the outcome of one reconciliation phase
type PhaseResult struct {
	Phase        string   `json:"phase"`
	Created      int      `json:"created"`
	Skipped      int      `json:"skipped"`
	Failed       int      `json:"failed"`
	CreatedNames []string `json:"created_names,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// ReconciliationResult is the structured outcome of one full-sync run.
// It is always returned to the caller, even on partial or total failure,
// so the operator has an accounting of what succeeded.
type ReconciliationResult struct {
	DeviceID  uuid.UUID     `json:"device_id"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Success   bool          `json:"success"`
	Phases    []PhaseResult `json:"phases"`
	Errors    []string      `json:"errors,omitempty"`
}

// TotalCreated sums created counts across phases
func (r *ReconciliationResult) TotalCreated() int {
	total := 0
	for _, p := range r.Phases {
		total += p.Created
	}
	return total
}

// TotalFailed sums failed counts across phases
func (r *ReconciliationResult) TotalFailed() int {
	total := 0
	for _, p := range r.Phases {
		total += p.Failed
	}
	return total
}

// addPhase appends a phase outcome
func (r *ReconciliationResult) addPhase(p PhaseResult) {
	r.Phases = append(r.Phases, p)
}
