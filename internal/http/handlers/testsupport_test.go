package handlers

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/entitlement"
)

type fakeDirectory struct {
	users map[string]string // email -> user id
	err   error
}

func (f *fakeDirectory) FindByEmail(ctx context.Context, email string) (*domain.DirectoryUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.users[email]; ok {
		return &domain.DirectoryUser{ID: id, Email: email}, nil
	}
	return nil, domain.ErrNotFound
}

// fakeGate scripts the entitlement outcome and records what it was
// asked.
type fakeGate struct {
	result   *domain.AccessResult
	record   *domain.EntitlementRecord
	err      error
	lastUser string
	lastReq  entitlement.Request
	calls    int
}

func (f *fakeGate) Authorize(ctx context.Context, userID string, req entitlement.Request) (*domain.AccessResult, error) {
	f.calls++
	f.lastUser = userID
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGate) Snapshot(ctx context.Context, userID string) (*domain.EntitlementRecord, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

// fakeSQL records usage-event inserts and serves scripted rows.
type fakeSQL struct {
	mu       sync.Mutex
	execs    []string
	execArgs [][]any
	row      pgx.Row
}

func (f *fakeSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, query)
	f.execArgs = append(f.execArgs, args)
	return pgconn.CommandTag{}, nil
}

func (f *fakeSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if f.row != nil {
		return f.row
	}
	return SimpleRow{}
}

func (f *fakeSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeSQL) execCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.execs)
}

func newTestApp(gate *fakeGate, dir *fakeDirectory) (*App, *fakeSQL) {
	sql := &fakeSQL{}
	return &App{
		Logger:           zerolog.Nop(),
		SQL:              sql,
		Directory:        dir,
		Gate:             gate,
		VoiceSessionCost: 5,
		ChatCreditCost:   1,
	}, sql
}

func freeRecord(daily, voice int, trialUsed bool) *domain.EntitlementRecord {
	return &domain.EntitlementRecord{
		UserID:                "user-1",
		Plan:                  domain.PlanFree,
		CreditsRemaining:      daily,
		VoiceCreditsRemaining: voice,
		FreeTrialUsed:         trialUsed,
	}
}
