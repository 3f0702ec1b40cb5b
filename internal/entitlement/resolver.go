package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"server/internal/domain"
)

// Resolver guarantees an entitlement record exists for a user,
// creating the default free record on first access.
type Resolver struct {
	repo domain.EntitlementRepository
}

func NewResolver(repo domain.EntitlementRepository) *Resolver {
	return &Resolver{repo: repo}
}

// EnsureRecord fetches the record for userID, inserting a default one
// when absent. Two concurrent first accesses for the same user resolve
// to the same row: the losing insert observes the unique constraint
// and re-fetches the winner's row instead of erroring.
func (r *Resolver) EnsureRecord(ctx context.Context, userID string) (*domain.EntitlementRecord, error) {
	record, err := r.repo.Get(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("fetch entitlement record: %w", err)
	}

	created, err := r.repo.Create(ctx, &domain.EntitlementRecord{
		UserID:                userID,
		Plan:                  domain.PlanFree,
		CreditsRemaining:      DefaultDailyCredits,
		VoiceCreditsRemaining: DefaultVoiceCredits,
		FreeTrialUsed:         false,
		LastResetAt:           time.Now().UTC(),
	})
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, domain.ErrDuplicateOperation) {
		return nil, fmt.Errorf("create entitlement record: %w", err)
	}

	// Someone else won the creation race; their row is the record.
	record, err = r.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("refetch entitlement record after conflict: %w", err)
	}
	return record, nil
}
