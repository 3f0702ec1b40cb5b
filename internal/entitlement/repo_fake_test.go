package entitlement

import (
	"context"
	"sync"

	"server/internal/domain"
)

// memoryRepo is an in-memory domain.EntitlementRepository whose
// mutations follow the same conditional-update semantics as the
// Postgres implementation: check and write under one lock.
type memoryRepo struct {
	mu      sync.Mutex
	records map[string]*domain.EntitlementRecord

	gets    int
	creates int
	spends  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*domain.EntitlementRecord)}
}

func (m *memoryRepo) clone(rec *domain.EntitlementRecord) *domain.EntitlementRecord {
	c := *rec
	return &c
}

func (m *memoryRepo) Get(ctx context.Context, userID string) (*domain.EntitlementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	rec, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.clone(rec), nil
}

func (m *memoryRepo) Create(ctx context.Context, record *domain.EntitlementRecord) (*domain.EntitlementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if _, ok := m.records[record.UserID]; ok {
		return nil, domain.ErrDuplicateOperation
	}
	m.records[record.UserID] = m.clone(record)
	return m.clone(record), nil
}

func (m *memoryRepo) SpendCredits(ctx context.Context, userID string, kind domain.FeatureKind, cost int) (*domain.EntitlementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spends++
	rec, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if kind == domain.FeatureVoice {
		if rec.VoiceCreditsRemaining < cost {
			return nil, domain.ErrInsufficientCredits
		}
		rec.VoiceCreditsRemaining -= cost
	} else {
		if rec.CreditsRemaining < cost {
			return nil, domain.ErrInsufficientCredits
		}
		rec.CreditsRemaining -= cost
	}
	return m.clone(rec), nil
}

func (m *memoryRepo) ConsumeFreeTrial(ctx context.Context, userID string) (*domain.EntitlementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if rec.FreeTrialUsed {
		return nil, domain.ErrTrialConsumed
	}
	rec.FreeTrialUsed = true
	return m.clone(rec), nil
}

func (m *memoryRepo) ResetDailyCredits(ctx context.Context, quota int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reset int64
	for _, rec := range m.records {
		if rec.Plan == domain.PlanFree && rec.CreditsRemaining != quota {
			rec.CreditsRemaining = quota
			reset++
		}
	}
	return reset, nil
}

func (m *memoryRepo) put(rec *domain.EntitlementRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.UserID] = m.clone(rec)
}

func (m *memoryRepo) snapshot(userID string) *domain.EntitlementRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil
	}
	return m.clone(rec)
}

var _ domain.EntitlementRepository = (*memoryRepo)(nil)
