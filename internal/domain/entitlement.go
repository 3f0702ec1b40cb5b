package domain

import "time"

// Plan enumerates billing plans. Paid credit packs stay on the free
// plan with a nonzero balance; only VIP bypasses the balance rules.
type Plan string

const (
	PlanFree Plan = "free"
	PlanVIP  Plan = "vip"
)

// FeatureKind selects which balance a spend draws from.
type FeatureKind string

const (
	FeatureDaily FeatureKind = "daily"
	FeatureVoice FeatureKind = "voice"
)

// AccessMode explains how an access decision was reached.
type AccessMode string

const (
	ModeVIP       AccessMode = "vip"
	ModeFreeTrial AccessMode = "free_trial"
	ModePaid      AccessMode = "paid"
	ModeNoCredits AccessMode = "no_credits"
)

// EntitlementRecord is the per-user ledger row tracking plan and
// remaining usage balances. One row per user, created lazily on first
// access.
type EntitlementRecord struct {
	UserID                string
	Plan                  Plan
	CreditsRemaining      int
	VoiceCreditsRemaining int
	FreeTrialUsed         bool
	LastResetAt           time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsVIP reports whether the record belongs to the VIP plan.
func (r EntitlementRecord) IsVIP() bool {
	return r.Plan == PlanVIP
}

// Balance returns the remaining balance for the given feature kind.
func (r EntitlementRecord) Balance(kind FeatureKind) int {
	if kind == FeatureVoice {
		return r.VoiceCreditsRemaining
	}
	return r.CreditsRemaining
}

// Decision is the Access Decision Engine's verdict for a single
// request, including the state mutation the caller must apply.
type Decision struct {
	Allow        bool
	Mode         AccessMode
	ConsumeTrial bool
	Spend        int // credits to decrement; 0 means no balance change
}

// AccessResult is a decision together with the record as it stands
// after any mutation was applied.
type AccessResult struct {
	Allow  bool
	Mode   AccessMode
	Record *EntitlementRecord
}

// SkippedDecrement reports whether the request was allowed without
// touching a stored balance.
func (a AccessResult) SkippedDecrement() bool {
	return a.Allow && a.Mode != ModePaid
}

// DirectoryUser is the identity-provider view of a user. Only the
// stable ID is required by the entitlement core.
type DirectoryUser struct {
	ID    string
	Email string
}
