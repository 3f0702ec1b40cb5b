package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"server/internal/domain"
)

type fakeChat struct {
	reply    string
	err      error
	messages []Message
	calls    int
}

func (f *fakeChat) Complete(ctx context.Context, messages []Message) (string, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func coachRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCoachAccessGrantsFreeTrial(t *testing.T) {
	gate := &fakeGate{result: &domain.AccessResult{
		Allow:  true,
		Mode:   domain.ModeFreeTrial,
		Record: freeRecord(8, 0, true),
	}}
	dir := &fakeDirectory{users: map[string]string{"new@example.com": "user-1"}}
	app, sql := newTestApp(gate, dir)

	rec := httptest.NewRecorder()
	app.CoachAccess(rec, coachRequest("/v1/coach/access", `{"email":"new@example.com"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp coachAccessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Allow || resp.Mode != "free_trial" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !resp.FreeTrialUsed {
		t.Fatal("granted trial must report free_trial_used")
	}
	if !gate.lastReq.TrialEligible {
		t.Fatal("coach access must be trial eligible")
	}
	if gate.lastReq.Kind != domain.FeatureVoice || gate.lastReq.Cost != 5 {
		t.Fatalf("gate request = %+v", gate.lastReq)
	}
	if sql.execCount() != 1 {
		t.Fatalf("usage events = %d, want 1", sql.execCount())
	}
}

func TestCoachAccessDeniedAfterTrial(t *testing.T) {
	gate := &fakeGate{result: &domain.AccessResult{
		Allow:  false,
		Mode:   domain.ModeNoCredits,
		Record: freeRecord(8, 0, true),
	}}
	dir := &fakeDirectory{users: map[string]string{"new@example.com": "user-1"}}
	app, _ := newTestApp(gate, dir)

	rec := httptest.NewRecorder()
	app.CoachAccess(rec, coachRequest("/v1/coach/access", `{"email":"new@example.com"}`))

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}
	var resp coachAccessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Allow {
		t.Fatal("denied access must not report allow")
	}
	if resp.Mode != "no_credits" {
		t.Fatalf("mode = %q, want no_credits", resp.Mode)
	}
}

func TestCoachChatRequiresMessage(t *testing.T) {
	app, _ := newTestApp(&fakeGate{}, &fakeDirectory{})
	app.Chat = &fakeChat{}

	rec := httptest.NewRecorder()
	app.CoachChat(rec, coachRequest("/v1/coach/chat", `{"email":"a@example.com","message":""}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCoachChatMisconfigured(t *testing.T) {
	app, _ := newTestApp(&fakeGate{}, &fakeDirectory{})
	app.Chat = nil

	rec := httptest.NewRecorder()
	app.CoachChat(rec, coachRequest("/v1/coach/chat", `{"email":"a@example.com","message":"hi"}`))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestCoachChatCompletesTurn(t *testing.T) {
	gate := &fakeGate{result: &domain.AccessResult{
		Allow:  true,
		Mode:   domain.ModePaid,
		Record: freeRecord(7, 0, false),
	}}
	dir := &fakeDirectory{users: map[string]string{"a@example.com": "user-1"}}
	app, _ := newTestApp(gate, dir)
	chat := &fakeChat{reply: "one breath at a time"}
	app.Chat = chat

	rec := httptest.NewRecorder()
	app.CoachChat(rec, coachRequest("/v1/coach/chat",
		`{"email":"a@example.com","coach":"maya","message":"rough night","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp coachChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != "one breath at a time" {
		t.Fatalf("reply = %q", resp.Reply)
	}
	if resp.CreditsRemaining != 7 {
		t.Fatalf("credits_remaining = %d, want 7", resp.CreditsRemaining)
	}
	if gate.lastReq.Kind != domain.FeatureDaily || gate.lastReq.Cost != 1 {
		t.Fatalf("gate request = %+v", gate.lastReq)
	}
	if gate.lastReq.TrialEligible {
		t.Fatal("text chat must not be trial eligible")
	}

	if len(chat.messages) != 4 {
		t.Fatalf("provider messages = %d, want 4", len(chat.messages))
	}
	if chat.messages[0].Role != "system" {
		t.Fatalf("first message role = %q, want system", chat.messages[0].Role)
	}
	last := chat.messages[len(chat.messages)-1]
	if last.Role != "user" || last.Content != "rough night" {
		t.Fatalf("last message = %+v", last)
	}
}

func TestCoachChatCapsHistory(t *testing.T) {
	gate := &fakeGate{result: &domain.AccessResult{
		Allow:  true,
		Mode:   domain.ModePaid,
		Record: freeRecord(7, 0, false),
	}}
	dir := &fakeDirectory{users: map[string]string{"a@example.com": "user-1"}}
	app, _ := newTestApp(gate, dir)
	chat := &fakeChat{reply: "ok"}
	app.Chat = chat

	history := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		history = append(history, `{"role":"user","content":"m"}`)
	}
	body := `{"email":"a@example.com","message":"hi","history":[` + strings.Join(history, ",") + `]}`

	rec := httptest.NewRecorder()
	app.CoachChat(rec, coachRequest("/v1/coach/chat", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	// one system prompt + capped history + the new user message
	if want := 1 + maxHistoryMessages + 1; len(chat.messages) != want {
		t.Fatalf("provider messages = %d, want %d", len(chat.messages), want)
	}
}

func TestCoachChatDeniedSkipsProvider(t *testing.T) {
	gate := &fakeGate{result: &domain.AccessResult{
		Allow:  false,
		Mode:   domain.ModeNoCredits,
		Record: freeRecord(0, 0, true),
	}}
	dir := &fakeDirectory{users: map[string]string{"a@example.com": "user-1"}}
	app, _ := newTestApp(gate, dir)
	chat := &fakeChat{reply: "should not be called"}
	app.Chat = chat

	rec := httptest.NewRecorder()
	app.CoachChat(rec, coachRequest("/v1/coach/chat", `{"email":"a@example.com","message":"hi"}`))

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}
	if chat.calls != 0 {
		t.Fatalf("provider called %d times on deny", chat.calls)
	}
}

func TestCoachChatProviderFailureKeepsSpend(t *testing.T) {
	gate := &fakeGate{result: &domain.AccessResult{
		Allow:  true,
		Mode:   domain.ModePaid,
		Record: freeRecord(7, 0, false),
	}}
	dir := &fakeDirectory{users: map[string]string{"a@example.com": "user-1"}}
	app, sql := newTestApp(gate, dir)
	app.Chat = &fakeChat{err: errors.New("upstream 500")}

	rec := httptest.NewRecorder()
	app.CoachChat(rec, coachRequest("/v1/coach/chat", `{"email":"a@example.com","message":"hi"}`))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	// the decrement happened before the relay and is not rolled back
	if gate.calls != 1 {
		t.Fatalf("gate calls = %d, want 1", gate.calls)
	}
	if sql.execCount() != 1 {
		t.Fatalf("usage events = %d, want 1", sql.execCount())
	}
}
