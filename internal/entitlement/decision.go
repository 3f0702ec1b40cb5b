package entitlement

import "server/internal/domain"

// Default balances for a lazily created record and the fixed price of
// one voice session.
const (
	DefaultDailyCredits = 8
	DefaultVoiceCredits = 0
	VoiceSessionCost    = 5
)

// Request describes one access attempt against a user's ledger.
type Request struct {
	Kind FeatureKind
	Cost int
	// TrialEligible marks gates that may grant the one-time free
	// voice session (the coach-access gate only).
	TrialEligible bool
}

// FeatureKind aliases the domain type so callers constructing requests
// don't need a second import.
type FeatureKind = domain.FeatureKind

// Decide computes the access verdict for a record. The rule order is
// load-bearing: VIP, then free trial, then balance. Decide never
// touches storage; the returned Decision carries the mutation the
// caller must apply conditionally.
func Decide(record *domain.EntitlementRecord, req Request) domain.Decision {
	if record.IsVIP() {
		return domain.Decision{Allow: true, Mode: domain.ModeVIP}
	}

	if req.TrialEligible && !record.FreeTrialUsed {
		return domain.Decision{Allow: true, Mode: domain.ModeFreeTrial, ConsumeTrial: true}
	}

	if req.Cost == 0 {
		return domain.Decision{Allow: true, Mode: domain.ModePaid}
	}
	if record.Balance(req.Kind) < req.Cost {
		return domain.Decision{Allow: false, Mode: domain.ModeNoCredits}
	}
	return domain.Decision{Allow: true, Mode: domain.ModePaid, Spend: req.Cost}
}
