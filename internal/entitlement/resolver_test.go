package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"server/internal/domain"
)

func TestEnsureRecordCreatesDefaultOnFirstAccess(t *testing.T) {
	repo := newMemoryRepo()
	resolver := NewResolver(repo)

	rec, err := resolver.EnsureRecord(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("EnsureRecord: %v", err)
	}

	if rec.Plan != domain.PlanFree {
		t.Fatalf("plan = %s, want free", rec.Plan)
	}
	if rec.CreditsRemaining != DefaultDailyCredits {
		t.Fatalf("credits = %d, want %d", rec.CreditsRemaining, DefaultDailyCredits)
	}
	if rec.VoiceCreditsRemaining != DefaultVoiceCredits {
		t.Fatalf("voice credits = %d, want %d", rec.VoiceCreditsRemaining, DefaultVoiceCredits)
	}
	if rec.FreeTrialUsed {
		t.Fatalf("fresh record must not have the trial consumed")
	}
	if rec.LastResetAt.IsZero() {
		t.Fatalf("last_reset_at must be set on creation")
	}
}

func TestEnsureRecordReturnsExistingUnchanged(t *testing.T) {
	repo := newMemoryRepo()
	repo.put(&domain.EntitlementRecord{
		UserID:                "user-1",
		Plan:                  domain.PlanVIP,
		CreditsRemaining:      3,
		VoiceCreditsRemaining: 42,
		FreeTrialUsed:         true,
	})
	resolver := NewResolver(repo)

	rec, err := resolver.EnsureRecord(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("EnsureRecord: %v", err)
	}
	if rec.Plan != domain.PlanVIP || rec.VoiceCreditsRemaining != 42 {
		t.Fatalf("existing record altered: %+v", rec)
	}
	if repo.creates != 0 {
		t.Fatalf("creates = %d, want 0", repo.creates)
	}
}

func TestEnsureRecordHandlesCreationRace(t *testing.T) {
	repo := newMemoryRepo()
	resolver := NewResolver(repo)

	const concurrent = 16
	var wg sync.WaitGroup
	errs := make(chan error, concurrent)

	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := resolver.EnsureRecord(context.Background(), "user-1"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent EnsureRecord surfaced error: %v", err)
	}
	if got := repo.snapshot("user-1"); got == nil {
		t.Fatalf("record missing after concurrent first access")
	}
}

type failingRepo struct {
	memoryRepo
	getErr error
}

func (f *failingRepo) Get(ctx context.Context, userID string) (*domain.EntitlementRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.memoryRepo.Get(ctx, userID)
}

func TestEnsureRecordPropagatesStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	repo := &failingRepo{getErr: storeErr}
	repo.records = make(map[string]*domain.EntitlementRecord)
	resolver := NewResolver(repo)

	_, err := resolver.EnsureRecord(context.Background(), "user-1")
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped store failure", err)
	}
}
