package domain

import "context"

// EntitlementRepository defines persistence for entitlement records.
// Every balance mutation is a single conditional update at the storage
// layer; a blind read-modify-write is never acceptable here because it
// double-spends under concurrent requests.
type EntitlementRepository interface {
	// Get returns the record for userID, or ErrNotFound.
	Get(ctx context.Context, userID string) (*EntitlementRecord, error)

	// Create inserts a new record. If a record for the same user
	// already exists it returns ErrDuplicateOperation and leaves the
	// existing row untouched.
	Create(ctx context.Context, record *EntitlementRecord) (*EntitlementRecord, error)

	// SpendCredits atomically decrements the balance for kind by cost,
	// only when the stored balance covers it. Returns the updated
	// record, or ErrInsufficientCredits when the guard fails.
	SpendCredits(ctx context.Context, userID string, kind FeatureKind, cost int) (*EntitlementRecord, error)

	// ConsumeFreeTrial flips free_trial_used to true, only when it is
	// currently false. Returns ErrTrialConsumed when another request
	// already claimed the trial.
	ConsumeFreeTrial(ctx context.Context, userID string) (*EntitlementRecord, error)

	// ResetDailyCredits restores credits_remaining to quota for
	// free-plan rows whose last reset predates the current day.
	// Returns the number of rows reset.
	ResetDailyCredits(ctx context.Context, quota int) (int64, error)
}

// UserDirectory looks up users against the external identity provider.
type UserDirectory interface {
	// FindByEmail returns the directory entry for email, or
	// ErrNotFound when no such user exists. Callers never create an
	// identity on miss.
	FindByEmail(ctx context.Context, email string) (*DirectoryUser, error)
}
